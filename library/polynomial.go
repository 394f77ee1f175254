// Package library は疎回帰で使う候補項の行列を構築する。
package library

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/core/parallel"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// parallelRowThreshold は行並列化を行う最小の行数
const parallelRowThreshold = 2048

// PolynomialLibrary は状態変数の単項式を候補項として列挙するライブラリ
//
// 項は次数の昇順、同じ次数内では辞書式順序（重複組合せ）で並ぶ。
// 2変数・次数2の場合: 1, x0, x1, x0^2, x0 x1, x1^2
type PolynomialLibrary struct {
	// Degree は単項式の最大次数
	Degree int

	// IncludeBias は定数項を含めるかどうか
	IncludeBias bool

	// IncludeInteraction は異なる変数の積を含めるかどうか
	IncludeInteraction bool

	nFeatures int
	powers    [][]int
	fitted    bool
}

// NewPolynomialLibrary はバイアスと交差項を含む次数degreeのライブラリを作成する
func NewPolynomialLibrary(degree int) *PolynomialLibrary {
	return &PolynomialLibrary{
		Degree:             degree,
		IncludeBias:        true,
		IncludeInteraction: true,
	}
}

// Fit は入力変数の数から項の一覧を確定する
func (p *PolynomialLibrary) Fit(nFeatures int) error {
	if nFeatures < 1 {
		return errors.NewValidationError("n_features", "must be at least 1", nFeatures)
	}
	if p.Degree < 1 {
		return errors.NewValidationError("degree", "must be at least 1", p.Degree)
	}

	var powers [][]int
	if p.IncludeBias {
		powers = append(powers, make([]int, nFeatures))
	}
	for d := 1; d <= p.Degree; d++ {
		if !p.IncludeInteraction {
			for i := 0; i < nFeatures; i++ {
				row := make([]int, nFeatures)
				row[i] = d
				powers = append(powers, row)
			}
			continue
		}
		combinationsWithReplacement(nFeatures, d, func(idx []int) {
			row := make([]int, nFeatures)
			for _, i := range idx {
				row[i]++
			}
			powers = append(powers, row)
		})
	}

	p.nFeatures = nFeatures
	p.powers = powers
	p.fitted = true
	return nil
}

// combinationsWithReplacement は [0, n) 上の長さkの非減少な添字列を
// 辞書式順序で列挙し、それぞれについてvisitを呼ぶ
func combinationsWithReplacement(n, k int, visit func(idx []int)) {
	idx := make([]int, k)
	for {
		visit(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-1 {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[i]
		}
	}
}

// IsFitted はFitが呼ばれたかどうかを返す
func (p *PolynomialLibrary) IsFitted() bool {
	return p.fitted
}

// NInputFeatures は入力変数の数を返す
func (p *PolynomialLibrary) NInputFeatures() int {
	return p.nFeatures
}

// NOutputFeatures は候補項の数を返す
func (p *PolynomialLibrary) NOutputFeatures() int {
	return len(p.powers)
}

// Powers は各候補項の指数（n_output × n_input）のコピーを返す
func (p *PolynomialLibrary) Powers() [][]int {
	out := make([][]int, len(p.powers))
	for i, row := range p.powers {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Transform は各行に全候補項を評価した行列（n_samples × n_output）を返す
func (p *PolynomialLibrary) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("PolynomialLibrary", "Transform")
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewModelError("PolynomialLibrary.Transform", "empty data", errors.ErrEmptyData)
	}
	if cols != p.nFeatures {
		return nil, errors.NewDimensionError("PolynomialLibrary.Transform", p.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, len(p.powers), nil)
	parallel.ParallelizeWithThreshold(rows, parallelRowThreshold, func(start, end int) {
		x := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			p.evaluate(x, out.RawRowView(i))
		}
	})
	return out, nil
}

// Evaluate は1つの状態ベクトルについて全候補項をoutに書き込む
// outの長さはNOutputFeatures()以上である必要がある
func (p *PolynomialLibrary) Evaluate(x, out []float64) error {
	if !p.fitted {
		return errors.NewNotFittedError("PolynomialLibrary", "Evaluate")
	}
	if len(x) != p.nFeatures {
		return errors.NewDimensionError("PolynomialLibrary.Evaluate", p.nFeatures, len(x), 1)
	}
	if len(out) < len(p.powers) {
		return errors.NewDimensionError("PolynomialLibrary.Evaluate", len(p.powers), len(out), 1)
	}
	p.evaluate(x, out)
	return nil
}

func (p *PolynomialLibrary) evaluate(x, out []float64) {
	for k, row := range p.powers {
		v := 1.0
		for i, e := range row {
			for ; e > 0; e-- {
				v *= x[i]
			}
		}
		out[k] = v
	}
}

// FeatureNames は候補項の名前を返す
// inputNamesがnilの場合は x0, x1, ... を使う
func (p *PolynomialLibrary) FeatureNames(inputNames []string) ([]string, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("PolynomialLibrary", "FeatureNames")
	}
	if inputNames == nil {
		inputNames = DefaultNames(p.nFeatures)
	}
	if len(inputNames) != p.nFeatures {
		return nil, errors.NewDimensionError("PolynomialLibrary.FeatureNames", p.nFeatures, len(inputNames), 0)
	}

	names := make([]string, len(p.powers))
	for k, row := range p.powers {
		var parts []string
		for i, e := range row {
			switch {
			case e == 1:
				parts = append(parts, inputNames[i])
			case e > 1:
				parts = append(parts, fmt.Sprintf("%s^%d", inputNames[i], e))
			}
		}
		if len(parts) == 0 {
			names[k] = "1"
			continue
		}
		names[k] = strings.Join(parts, " ")
	}
	return names, nil
}

// DefaultNames は x0, x1, ..., x{n-1} を返す
func DefaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

// DegreeForDim は状態次元embedDimに対する多項式の次数
// max(2, floor(log2(embedDim))) を返す
func DegreeForDim(embedDim int) int {
	d := 0
	for n := embedDim; n > 1; n >>= 1 {
		d++
	}
	if d < 2 {
		return 2
	}
	return d
}
