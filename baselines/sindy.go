// Package baselines adapts identification models to the fit/predict
// contract of a dynamical-system benchmark.
//
// The host supplies the state dimension, the training trajectory length, a
// control cost bound and a random seed. Trajectories arrive as
// [trajectory][timestep][state] slices and forecasts are returned in the
// same layout.
package baselines

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/integrate"
	"github.com/YuminosukeSato/dynadojo-go/library"
	"github.com/YuminosukeSato/dynadojo-go/optimizer"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
	"github.com/YuminosukeSato/dynadojo-go/sindy"
)

// Algorithm is the contract every benchmark baseline implements.
type Algorithm interface {
	// Fit trains on a batch of trajectories shaped
	// [n][Timesteps()][EmbedDim()]. Each call replaces the previous fit.
	Fit(x [][][]float64) error

	// Predict forecasts timesteps points from every initial condition and
	// returns a [len(x0)][timesteps][EmbedDim()] batch in input order.
	Predict(x0 [][]float64, timesteps int) ([][][]float64, error)

	EmbedDim() int
	Timesteps() int
	MaxControlCost() float64
	Seed() int64
}

const (
	// DefaultThreshold is the STLSQ sparsification threshold.
	DefaultThreshold = 0.1
	// DefaultEnsembleModels is the number of bootstrap models per fit.
	DefaultEnsembleModels = 5
)

type config struct {
	diff       DifferentiationMethod
	seed       int64
	nModels    int
	integrator integrate.Integrator
	workers    int
	logger     log.Logger
}

// Option configures NewSINDy.
type Option func(*config)

// WithDifferentiation selects the differentiation method.
func WithDifferentiation(d DifferentiationMethod) Option {
	return func(c *config) {
		c.diff = d
	}
}

// WithSeed fixes the seed of the ensemble resampling. A negative seed is
// replaced by a time-based seed when the algorithm is built.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithEnsembleModels overrides the number of bootstrap models.
func WithEnsembleModels(n int) Option {
	return func(c *config) {
		c.nModels = n
	}
}

// WithIntegrator overrides the integrator used by Predict.
func WithIntegrator(integ integrate.Integrator) Option {
	return func(c *config) {
		c.integrator = integ
	}
}

// WithWorkers bounds the goroutines used per call.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// SINDy is the sparse identification baseline.
type SINDy struct {
	embedDim       int
	timesteps      int
	maxControlCost float64
	seed           int64
	diff           DifferentiationMethod

	model  *sindy.Model
	logger log.Logger
}

var _ Algorithm = (*SINDy)(nil)

// NewSINDy configures an unfit SINDy baseline.
//
// The polynomial library degree is max(2, floor(log2(embedDim))), the
// optimizer is STLSQ with threshold 0.1 and fitting ensembles 5 bootstrap
// models. maxControlCost is recorded but unused. timesteps must exceed 2.
func NewSINDy(embedDim, timesteps int, maxControlCost float64, opts ...Option) (*SINDy, error) {
	if timesteps <= 2 {
		return nil, errors.NewValidationError("timesteps", "must be greater than 2", timesteps)
	}
	if embedDim < 1 {
		return nil, errors.NewValidationError("embed_dim", "must be positive", embedDim)
	}

	cfg := config{
		diff:    DefaultDifferentiation(),
		seed:    -1,
		nModels: DefaultEnsembleModels,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.seed < 0 {
		cfg.seed = time.Now().UnixNano() & (1<<63 - 1)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("baselines")
	}

	diff, err := cfg.diff.Resolve(timesteps)
	if err != nil {
		return nil, err
	}

	modelOpts := []sindy.Option{
		sindy.WithDifferentiation(diff),
		sindy.WithOptimizer(optimizer.NewSTLSQ(optimizer.WithThreshold(DefaultThreshold))),
		sindy.WithLibrary(library.NewPolynomialLibrary(library.DegreeForDim(embedDim))),
		sindy.WithEnsemble(cfg.nModels),
		sindy.WithSeed(uint64(cfg.seed)),
		sindy.WithLogger(cfg.logger),
	}
	if cfg.integrator != nil {
		modelOpts = append(modelOpts, sindy.WithIntegrator(cfg.integrator))
	}
	if cfg.workers > 0 {
		modelOpts = append(modelOpts, sindy.WithWorkers(cfg.workers))
	}

	s := &SINDy{
		embedDim:       embedDim,
		timesteps:      timesteps,
		maxControlCost: maxControlCost,
		seed:           cfg.seed,
		diff:           cfg.diff,
		model:          sindy.New(modelOpts...),
		logger:         cfg.logger,
	}
	s.logger.Debug("SINDy configured",
		log.EmbedDimKey, embedDim,
		log.TimestepsKey, timesteps,
		log.LibraryDegreeKey, library.DegreeForDim(embedDim),
		log.ThresholdKey, DefaultThreshold,
		log.DifferentiationKey, diff.Name(),
		log.RandomSeedKey, cfg.seed,
	)
	return s, nil
}

// EmbedDim implements Algorithm.
func (s *SINDy) EmbedDim() int { return s.embedDim }

// Timesteps implements Algorithm.
func (s *SINDy) Timesteps() int { return s.timesteps }

// MaxControlCost implements Algorithm.
func (s *SINDy) MaxControlCost() float64 { return s.maxControlCost }

// Seed implements Algorithm.
func (s *SINDy) Seed() int64 { return s.seed }

// Differentiation returns the configured differentiation selector.
func (s *SINDy) Differentiation() DifferentiationMethod { return s.diff }

// Model returns the underlying identification model.
func (s *SINDy) Model() *sindy.Model { return s.model }

// Fit implements Algorithm. Every trajectory is placed on the same uniform
// grid of Timesteps() points over [0, 1].
func (s *SINDy) Fit(x [][][]float64) error {
	if len(x) == 0 {
		return errors.NewModelError("SINDy.Fit", "no trajectories", errors.ErrEmptyData)
	}

	grid := Linspace(0, 1, s.timesteps)
	trajectories := make([]mat.Matrix, len(x))
	times := make([][]float64, len(x))
	for i, traj := range x {
		d, err := toDense("training", fmt.Sprintf("trajectory[%d]", i), traj, s.timesteps, s.embedDim)
		if err != nil {
			return err
		}
		trajectories[i] = d
		times[i] = grid
	}
	return s.model.Fit(trajectories, times)
}

// Predict implements Algorithm. Each initial condition is integrated over a
// uniform grid of timesteps points on [0, 1].
func (s *SINDy) Predict(x0 [][]float64, timesteps int) ([][][]float64, error) {
	if !s.model.IsFitted() {
		err := errors.NewNotFittedError("SINDy", "Predict")
		s.logger.Error("Predict called before Fit", err,
			log.OperationKey, log.OperationPredict,
			log.ErrorCodeKey, log.ErrorNotFitted,
		)
		return nil, err
	}
	if timesteps < 1 {
		return nil, errors.NewValidationError("timesteps", "must be at least 1", timesteps)
	}
	for i, p := range x0 {
		if len(p) != s.embedDim {
			return nil, errors.NewInputShapeErrorFor("prediction", fmt.Sprintf("x0[%d]", i), []int{s.embedDim}, []int{len(p)})
		}
	}

	sims, err := s.model.SimulateBatch(x0, Linspace(0, 1, timesteps))
	if err != nil {
		return nil, err
	}

	out := make([][][]float64, len(sims))
	for i, sim := range sims {
		out[i] = make([][]float64, timesteps)
		for j := range out[i] {
			out[i][j] = mat.Row(nil, j, sim)
		}
	}
	return out, nil
}

// Linspace returns n evenly spaced points from start to end inclusive.
// n == 1 yields {start}.
func Linspace(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, end)
}

func toDense(phase, name string, traj [][]float64, rows, cols int) (*mat.Dense, error) {
	if len(traj) != rows {
		got := 0
		if len(traj) > 0 {
			got = len(traj[0])
		}
		return nil, errors.NewInputShapeErrorFor(phase, name, []int{rows, cols}, []int{len(traj), got})
	}
	d := mat.NewDense(rows, cols, nil)
	for i, row := range traj {
		if len(row) != cols {
			return nil, errors.NewInputShapeErrorFor(phase, name, []int{rows, cols}, []int{rows, len(row)})
		}
		d.SetRow(i, row)
	}
	return d, nil
}
