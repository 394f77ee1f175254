// Package metrics は微分の予測値と予測軌道を評価する。
//
// すべての関数は1行が1サンプル、1列が1状態変数の行列を受け取る。
// 複数列のスコアは列ごとの値の単純平均になる。
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

func checkShapes(op string, yTrue, yPred mat.Matrix) (rows, cols int, err error) {
	rows, cols = yTrue.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewValueError(op, "empty matrix")
	}
	rPred, cPred := yPred.Dims()
	if rPred != rows {
		return 0, 0, errors.NewDimensionError(op, rows, rPred, 0)
	}
	if cPred != cols {
		return 0, 0, errors.NewDimensionError(op, cols, cPred, 1)
	}
	return rows, cols, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を全要素について計算する
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	rows, cols, err := checkShapes("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	// フロベニウスノルム
	norm := mat.Norm(&diff, 2)
	return norm * norm / float64(rows*cols), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	rows, cols, err := checkShapes("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	diff := mat.NewDense(rows, cols, nil)
	diff.Sub(yTrue, yPred)
	return floats.Norm(diff.RawMatrix().Data, 1) / float64(rows*cols), nil
}

// R2Score は決定係数（R²）を列ごとに計算し、その平均を返す
//
// 分散ゼロの列は、予測が完全一致なら1、そうでなければ0として扱う。
func R2Score(yTrue, yPred mat.Matrix) (float64, error) {
	rows, cols, err := checkShapes("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth := make([]float64, rows)
	pred := make([]float64, rows)
	var total float64
	for j := 0; j < cols; j++ {
		mat.Col(truth, j, yTrue)
		mat.Col(pred, j, yPred)

		mean := stat.Mean(truth, nil)
		var tss float64
		for _, v := range truth {
			tss += (v - mean) * (v - mean)
		}
		rss := floats.Distance(truth, pred, 2)
		rss *= rss

		switch {
		case tss != 0:
			total += 1 - rss/tss
		case rss == 0:
			total += 1
		}
	}
	return total / float64(cols), nil
}

// ExplainedVarianceScore は説明分散スコアを列ごとに計算し、その平均を返す
func ExplainedVarianceScore(yTrue, yPred mat.Matrix) (float64, error) {
	rows, cols, err := checkShapes("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if rows < 2 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "need at least two samples")
	}

	truth := make([]float64, rows)
	resid := make([]float64, rows)
	var total float64
	for j := 0; j < cols; j++ {
		mat.Col(truth, j, yTrue)
		mat.Col(resid, j, yPred)
		floats.SubTo(resid, truth, resid)

		varTrue := stat.Variance(truth, nil)
		varResid := stat.Variance(resid, nil)
		switch {
		case varTrue != 0:
			total += 1 - varResid/varTrue
		case varResid == 0:
			total += 1
		}
	}
	return total / float64(cols), nil
}

// TrajectoryError はforecastの各軌道のRMSEをtruthと比較して返す
func TrajectoryError(truth, forecast []mat.Matrix) ([]float64, error) {
	if len(truth) == 0 {
		return nil, errors.NewValueError("TrajectoryError", "no trajectories")
	}
	if len(forecast) != len(truth) {
		return nil, errors.NewDimensionError("TrajectoryError", len(truth), len(forecast), 0)
	}

	out := make([]float64, len(truth))
	for i := range truth {
		r, c := truth[i].Dims()
		fr, fc := forecast[i].Dims()
		if r != fr || c != fc {
			return nil, errors.NewInputShapeErrorFor("evaluation", fmt.Sprintf("trajectory[%d]", i), []int{r, c}, []int{fr, fc})
		}
		rmse, err := RMSE(truth[i], forecast[i])
		if err != nil {
			return nil, err
		}
		out[i] = rmse
	}
	return out, nil
}
