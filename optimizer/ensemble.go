package optimizer

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Aggregator combines the coefficient matrices of the ensemble members into
// one matrix of the same shape.
type Aggregator func(coefs []*mat.Dense) *mat.Dense

// AggregateMedian takes the element-wise median. With an even number of
// members the two middle values are averaged.
func AggregateMedian(coefs []*mat.Dense) *mat.Dense {
	return aggregate(coefs, func(v []float64) float64 {
		sort.Float64s(v)
		n := len(v)
		if n%2 == 1 {
			return v[n/2]
		}
		return (v[n/2-1] + v[n/2]) / 2
	})
}

// AggregateMean takes the element-wise mean.
func AggregateMean(coefs []*mat.Dense) *mat.Dense {
	return aggregate(coefs, func(v []float64) float64 {
		return stat.Mean(v, nil)
	})
}

func aggregate(coefs []*mat.Dense, reduce func([]float64) float64) *mat.Dense {
	if len(coefs) == 0 {
		return nil
	}
	rows, cols := coefs[0].Dims()
	out := mat.NewDense(rows, cols, nil)
	v := make([]float64, len(coefs))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			for k, c := range coefs {
				v[k] = c.At(i, j)
			}
			out.Set(i, j, reduce(v))
		}
	}
	return out
}

// Ensemble fits Base on NModels bootstrap resamples of the rows and
// aggregates the resulting coefficients.
type Ensemble struct {
	Base       Optimizer
	NModels    int
	SubsetSize int // rows per resample; 0 means all rows
	Replace    bool
	Aggregator Aggregator

	// Rand drives the resampling. The same source state yields the same
	// resamples.
	Rand *rand.Rand

	coefList []*mat.Dense
}

// NewEnsemble returns a bootstrap ensemble of n models with median
// aggregation, seeded with seed.
func NewEnsemble(base Optimizer, n int, seed uint64) *Ensemble {
	return &Ensemble{
		Base:       base,
		NModels:    n,
		Replace:    true,
		Aggregator: AggregateMedian,
		Rand:       rand.New(rand.NewPCG(seed, seed)),
	}
}

// Name implements Optimizer.
func (e *Ensemble) Name() string {
	return "Ensemble(" + e.Base.Name() + ")"
}

// Params implements Optimizer.
func (e *Ensemble) Params() map[string]interface{} {
	params := map[string]interface{}{
		"n_models":    e.NModels,
		"subset_size": e.SubsetSize,
		"replace":     e.Replace,
	}
	for k, v := range e.Base.Params() {
		params["base."+k] = v
	}
	return params
}

// CoefList returns the coefficients of every member from the last Fit.
func (e *Ensemble) CoefList() []*mat.Dense {
	return e.coefList
}

// Fit implements Optimizer. Members are fitted in order so the resamples
// depend only on the state of Rand. The first member failure is returned.
func (e *Ensemble) Fit(theta, xdot mat.Matrix) (*mat.Dense, error) {
	const op = "Ensemble.Fit"
	if e.Base == nil {
		return nil, errors.NewValidationError("base", "ensemble needs a base optimizer", nil)
	}
	if e.NModels < 1 {
		return nil, errors.NewValidationError("n_models", "must be at least 1", e.NModels)
	}
	if err := checkInputs(op, theta, xdot); err != nil {
		return nil, err
	}

	rows, _ := theta.Dims()
	size := e.SubsetSize
	if size == 0 {
		size = rows
	}
	if size < 1 || (!e.Replace && size > rows) {
		return nil, errors.NewValidationError("subset_size", "out of range for the number of samples", size)
	}

	rng := e.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(0, 0))
		e.Rand = rng
	}
	agg := e.Aggregator
	if agg == nil {
		agg = AggregateMedian
	}

	e.coefList = make([]*mat.Dense, 0, e.NModels)
	for m := 0; m < e.NModels; m++ {
		idx := e.sample(rng, rows, size)
		coef, err := e.Base.Fit(selectRows(theta, idx), selectRows(xdot, idx))
		if err != nil {
			return nil, errors.Wrapf(err, "ensemble member %d", m)
		}
		e.coefList = append(e.coefList, coef)
	}
	return agg(e.coefList), nil
}

func (e *Ensemble) sample(rng *rand.Rand, rows, size int) []int {
	if e.Replace {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = rng.IntN(rows)
		}
		return idx
	}
	return rng.Perm(rows)[:size]
}

func selectRows(m mat.Matrix, idx []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for r, i := range idx {
		for j := 0; j < cols; j++ {
			out.Set(r, j, m.At(i, j))
		}
	}
	return out
}
