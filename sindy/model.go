// Package sindy identifies sparse nonlinear ordinary differential equations
// from sampled trajectories and simulates the identified system.
//
// Fitting estimates time derivatives of every trajectory, evaluates a
// candidate term library on the states, pools the rows of all trajectories
// and solves a sparsity-promoting regression Xdot ≈ Theta(X) Xi^T. The
// resulting right-hand side is integrated by Simulate.
//
//	m := sindy.New(
//	    sindy.WithLibrary(library.NewPolynomialLibrary(2)),
//	    sindy.WithEnsemble(5),
//	    sindy.WithSeed(42),
//	)
//	if err := m.Fit(trajectories, times); err != nil {
//	    return err
//	}
//	forecast, err := m.Simulate(x0, t)
package sindy

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/core/model"
	"github.com/YuminosukeSato/dynadojo-go/core/parallel"
	"github.com/YuminosukeSato/dynadojo-go/differentiation"
	"github.com/YuminosukeSato/dynadojo-go/integrate"
	"github.com/YuminosukeSato/dynadojo-go/library"
	"github.com/YuminosukeSato/dynadojo-go/metrics"
	"github.com/YuminosukeSato/dynadojo-go/optimizer"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
)

const modelName = "SINDy"

var _ model.DynamicsModel = (*Model)(nil)

// Model is a sparse identification model. Fit replaces the fitted state
// only when it succeeds. A fitted Model may be simulated from several
// goroutines, but Fit and Load must not run concurrently with other calls.
type Model struct {
	state *model.StateManager

	diff       differentiation.Differentiator
	opt        optimizer.Optimizer
	lib        *library.PolynomialLibrary
	nModels    int
	aggregator optimizer.Aggregator
	seed       uint64
	integrator integrate.Integrator
	names      []string
	workers    int
	logger     log.Logger

	coef       *mat.Dense
	coefList   []*mat.Dense
	stateNames []string
	termNames  []string
}

// New returns an unfit model. Without options it uses second-order finite
// differences, STLSQ, a degree-2 polynomial library, no ensembling and the
// adaptive Dormand-Prince integrator.
func New(opts ...Option) *Model {
	m := &Model{
		state:      model.NewStateManager(),
		diff:       differentiation.NewFiniteDifference(),
		opt:        optimizer.NewSTLSQ(),
		lib:        library.NewPolynomialLibrary(2),
		aggregator: optimizer.AggregateMedian,
		integrator: integrate.NewDormandPrince(),
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("sindy")
	}
	m.logger = m.logger.With(log.ModelNameKey, modelName)
	return m
}

// IsFitted reports whether Fit has succeeded.
func (m *Model) IsFitted() bool {
	return m.state.IsFitted()
}

// Shape returns the data shape recorded by the last successful Fit.
func (m *Model) Shape() model.FitShape {
	return m.state.Shape()
}

// Differentiation returns the derivative estimator.
func (m *Model) Differentiation() differentiation.Differentiator {
	return m.diff
}

// Library returns the candidate term library.
func (m *Model) Library() *library.PolynomialLibrary {
	return m.lib
}

// Fit identifies the dynamics jointly from several trajectories. Each
// trajectory is a samples × states matrix sampled at the matching entry of t.
func (m *Model) Fit(trajectories []mat.Matrix, t [][]float64) (err error) {
	defer errors.Recover(&err, modelName+".Fit")
	start := time.Now()
	nStates, err := m.checkBatch("Fit", trajectories, t)
	if err != nil {
		m.logger.Error("Invalid training batch", err,
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, errorCode(err),
		)
		return err
	}

	lib := &library.PolynomialLibrary{
		Degree:             m.lib.Degree,
		IncludeBias:        m.lib.IncludeBias,
		IncludeInteraction: m.lib.IncludeInteraction,
	}
	if err := lib.Fit(nStates); err != nil {
		return err
	}
	stateNames := m.names
	if stateNames == nil {
		stateNames = library.DefaultNames(nStates)
	}
	termNames, err := lib.FeatureNames(stateNames)
	if err != nil {
		return err
	}

	states, xdot, err := m.differentiateAll(trajectories, t)
	if err != nil {
		m.logger.Error("Differentiation failed", err,
			log.OperationKey, log.OperationDifferentiate,
			log.ErrorCodeKey, errorCode(err),
		)
		return err
	}
	theta, err := lib.Transform(states)
	if err != nil {
		return err
	}

	var (
		coef     *mat.Dense
		coefList []*mat.Dense
	)
	if m.nModels > 1 {
		ens := &optimizer.Ensemble{
			Base:       m.opt,
			NModels:    m.nModels,
			Replace:    true,
			Aggregator: m.aggregator,
			Rand:       rand.New(rand.NewPCG(m.seed, m.seed)),
		}
		coef, err = ens.Fit(theta, xdot)
		coefList = ens.CoefList()
	} else {
		coef, err = m.opt.Fit(theta, xdot)
	}
	if err != nil {
		m.logger.Error("Sparse regression failed", err,
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, log.ErrorConvergence,
		)
		return err
	}

	rows, _ := theta.Dims()
	m.lib = lib
	m.coef = coef
	m.coefList = coefList
	m.termNames = termNames
	m.stateNames = stateNames
	m.state.MarkFitted(model.FitShape{
		NStates:       nStates,
		NFeatures:     lib.NOutputFeatures(),
		NTrajectories: len(trajectories),
		NSamples:      rows,
	})

	m.logger.Info("Fit completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.TrajectoriesKey, len(trajectories),
		log.SamplesKey, rows,
		log.TargetsKey, nStates,
		log.FeaturesKey, lib.NOutputFeatures(),
		log.LibraryDegreeKey, lib.Degree,
		log.DifferentiationKey, m.diff.Name(),
		log.EnsembleModelsKey, len(coefList),
		log.HyperParamsKey, m.opt.Params(),
		log.NonzeroTermsKey, m.Complexity(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *Model) checkBatch(method string, trajectories []mat.Matrix, t [][]float64) (int, error) {
	op := modelName + "." + method
	if len(trajectories) == 0 {
		return 0, errors.NewModelError(op, "no trajectories", errors.ErrEmptyData)
	}
	if len(t) != len(trajectories) {
		return 0, errors.NewDimensionError(op, len(trajectories), len(t), 0)
	}
	_, nStates := trajectories[0].Dims()
	for i, x := range trajectories {
		rows, cols := x.Dims()
		if cols != nStates {
			return 0, errors.NewInputShapeErrorFor("training", fmt.Sprintf("trajectory[%d]", i), []int{rows, nStates}, []int{rows, cols})
		}
	}
	if m.names != nil && len(m.names) != nStates {
		return 0, errors.NewDimensionError(op, len(m.names), nStates, 1)
	}
	return nStates, nil
}

// differentiateAll estimates derivatives of every trajectory concurrently and
// stacks the regression states and derivatives. Smoothing differentiators
// contribute their smoothed states.
func (m *Model) differentiateAll(trajectories []mat.Matrix, t [][]float64) (*mat.Dense, *mat.Dense, error) {
	states := make([]mat.Matrix, len(trajectories))
	derivs := make([]*mat.Dense, len(trajectories))

	err := parallel.ForEach(len(trajectories), m.workers, func(i int) error {
		rows, cols := trajectories[i].Dims()
		d, err := m.diff.Differentiate(trajectories[i], t[i])
		if err != nil {
			return errors.Wrapf(err, "trajectory %d", i)
		}
		if err := sameShape(m.diff.Name()+".Differentiate", d, rows, cols); err != nil {
			return errors.Wrapf(err, "trajectory %d", i)
		}
		derivs[i] = d
		states[i] = trajectories[i]
		if s, ok := m.diff.(differentiation.Smoother); ok {
			smoothed, err := s.Smooth(trajectories[i], t[i])
			if err != nil {
				return errors.Wrapf(err, "trajectory %d", i)
			}
			if err := sameShape(m.diff.Name()+".Smooth", smoothed, rows, cols); err != nil {
				return errors.Wrapf(err, "trajectory %d", i)
			}
			states[i] = smoothed
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	total := 0
	for _, d := range derivs {
		r, _ := d.Dims()
		total += r
	}
	_, nStates := derivs[0].Dims()
	x := mat.NewDense(total, nStates, nil)
	xdot := mat.NewDense(total, nStates, nil)
	offset := 0
	for i, d := range derivs {
		r, _ := d.Dims()
		x.Slice(offset, offset+r, 0, nStates).(*mat.Dense).Copy(states[i])
		xdot.Slice(offset, offset+r, 0, nStates).(*mat.Dense).Copy(d)
		offset += r
	}
	return x, xdot, nil
}

// sameShape reports a DimensionError on the first axis where d differs
// from rows × cols. A nil result counts as zero rows.
func sameShape(op string, d *mat.Dense, rows, cols int) error {
	var r, c int
	if d != nil {
		r, c = d.Dims()
	}
	if r != rows {
		return errors.NewDimensionError(op, rows, r, 0)
	}
	if c != cols {
		return errors.NewDimensionError(op, cols, c, 1)
	}
	return nil
}

// errorCode maps an error to the structured code logged with it.
func errorCode(err error) string {
	var dimErr *errors.DimensionError
	var shapeErr *errors.InputShapeError
	switch {
	case errors.Is(err, errors.ErrEmptyData):
		return log.ErrorEmptyData
	case errors.As(err, &dimErr), errors.As(err, &shapeErr):
		return log.ErrorDimensionMismatch
	case errors.Is(err, errors.ErrAllCoefficientsEliminated):
		return log.ErrorConvergence
	}
	return ""
}

// Differentiate applies the model's derivative estimator to one trajectory.
func (m *Model) Differentiate(x mat.Matrix, t []float64) (*mat.Dense, error) {
	return m.diff.Differentiate(x, t)
}

// PredictDerivative evaluates the identified right-hand side on every row of X.
func (m *Model) PredictDerivative(X mat.Matrix) (out *mat.Dense, err error) {
	defer errors.Recover(&err, modelName+".PredictDerivative")
	if err := m.state.RequireFitted(modelName, "PredictDerivative"); err != nil {
		return nil, err
	}
	theta, err := m.lib.Transform(X)
	if err != nil {
		return nil, err
	}
	rows, _ := theta.Dims()
	nStates, _ := m.coef.Dims()
	out = mat.NewDense(rows, nStates, nil)
	out.Mul(theta, m.coef.T())
	return out, nil
}

// rhs returns the identified vector field. Every call allocates its own
// term buffer so the result can drive one integration at a time.
func (m *Model) rhs() integrate.Func {
	terms := make([]float64, m.lib.NOutputFeatures())
	return func(_ float64, x, dx []float64) {
		if err := m.lib.Evaluate(x, terms); err != nil {
			for i := range dx {
				dx[i] = math.NaN()
			}
			return
		}
		for i := range dx {
			dx[i] = floats.Dot(m.coef.RawRowView(i), terms)
		}
	}
}

// Simulate integrates the identified system from x0 and returns the states
// at the times t (len(t) × states). Row 0 is x0.
func (m *Model) Simulate(x0, t []float64) (traj *mat.Dense, err error) {
	defer errors.Recover(&err, modelName+".Simulate")
	if err := m.state.RequireFitted(modelName, "Simulate"); err != nil {
		return nil, err
	}
	nStates, _ := m.coef.Dims()
	if len(x0) != nStates {
		return nil, errors.NewDimensionError(modelName+".Simulate", nStates, len(x0), 1)
	}

	dp, ok := m.integrator.(*integrate.DormandPrince)
	if !ok {
		return m.integrator.Integrate(m.rhs(), x0, t)
	}
	traj, stats, err := dp.IntegrateWithStats(m.rhs(), x0, t)
	m.logger.Debug("Integration finished",
		log.OperationKey, log.OperationSimulate,
		log.StepsKey, stats.Steps,
		log.RejectedStepsKey, stats.Rejected,
	)
	return traj, err
}

// SimulateBatch simulates every initial condition independently and
// concurrently on the same time grid. The output order matches x0s.
func (m *Model) SimulateBatch(x0s [][]float64, t []float64) ([]*mat.Dense, error) {
	if err := m.state.RequireFitted(modelName, "SimulateBatch"); err != nil {
		return nil, err
	}
	start := time.Now()
	out := make([]*mat.Dense, len(x0s))
	err := parallel.ForEach(len(x0s), m.workers, func(i int) error {
		traj, err := m.Simulate(x0s[i], t)
		if err != nil {
			return errors.Wrapf(err, "initial condition %d", i)
		}
		out[i] = traj
		return nil
	})
	if err != nil {
		m.logger.Error("Simulation failed", err,
			log.OperationKey, log.OperationSimulate,
			log.PhaseKey, log.PhaseInference,
			log.ErrorCodeKey, log.ErrorIntegration,
		)
		return nil, err
	}
	m.logger.Debug("Simulation completed",
		log.OperationKey, log.OperationSimulate,
		log.PhaseKey, log.PhaseInference,
		log.TrajectoriesKey, len(x0s),
		log.HorizonKey, len(t),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Score returns the R² of the identified right-hand side against the
// numerical derivatives of the given trajectories.
func (m *Model) Score(trajectories []mat.Matrix, t [][]float64) (float64, error) {
	if err := m.state.RequireFitted(modelName, "Score"); err != nil {
		return 0, err
	}
	nStates, err := m.checkBatch("Score", trajectories, t)
	if err != nil {
		return 0, err
	}
	if want := m.state.Shape().NStates; nStates != want {
		return 0, errors.NewDimensionError(modelName+".Score", want, nStates, 1)
	}

	states, xdot, err := m.differentiateAll(trajectories, t)
	if err != nil {
		return 0, err
	}
	pred, err := m.PredictDerivative(states)
	if err != nil {
		return 0, err
	}
	score, err := metrics.R2Score(xdot, pred)
	if err != nil {
		return 0, err
	}
	m.logger.Debug("Score computed", log.OperationKey, log.OperationScore, log.R2ScoreKey, score)
	return score, nil
}

// Coefficients returns a copy of the coefficients (states × library terms).
func (m *Model) Coefficients() (*mat.Dense, error) {
	if err := m.state.RequireFitted(modelName, "Coefficients"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(m.coef), nil
}

// CoefList returns the coefficients of the ensemble members from the last
// Fit, or nil when ensembling is disabled.
func (m *Model) CoefList() []*mat.Dense {
	out := make([]*mat.Dense, len(m.coefList))
	for i, c := range m.coefList {
		out[i] = mat.DenseCopyOf(c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Complexity returns the number of nonzero coefficients.
func (m *Model) Complexity() int {
	if m.coef == nil {
		return 0
	}
	n := 0
	for _, v := range m.coef.RawMatrix().Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// StateNames returns the state variable names used in equations.
func (m *Model) StateNames() []string {
	return append([]string(nil), m.stateNames...)
}

// TermNames returns the library term names of the fitted model.
func (m *Model) TermNames() []string {
	return append([]string(nil), m.termNames...)
}
