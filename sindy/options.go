package sindy

import (
	"github.com/YuminosukeSato/dynadojo-go/differentiation"
	"github.com/YuminosukeSato/dynadojo-go/integrate"
	"github.com/YuminosukeSato/dynadojo-go/library"
	"github.com/YuminosukeSato/dynadojo-go/optimizer"
	"github.com/YuminosukeSato/dynadojo-go/pkg/log"
)

// Option is a function that configures a Model.
type Option func(*Model)

// WithDifferentiation sets the derivative estimator.
func WithDifferentiation(d differentiation.Differentiator) Option {
	return func(m *Model) {
		m.diff = d
	}
}

// WithOptimizer sets the sparse regression optimizer. With ensembling
// enabled it is the base optimizer of every member.
func WithOptimizer(opt optimizer.Optimizer) Option {
	return func(m *Model) {
		m.opt = opt
	}
}

// WithLibrary sets the candidate term library.
func WithLibrary(lib *library.PolynomialLibrary) Option {
	return func(m *Model) {
		m.lib = lib
	}
}

// WithEnsemble enables bootstrap ensembling over n models. n <= 1 disables it.
func WithEnsemble(n int) Option {
	return func(m *Model) {
		m.nModels = n
	}
}

// WithAggregator sets how ensemble coefficients are combined.
func WithAggregator(agg optimizer.Aggregator) Option {
	return func(m *Model) {
		m.aggregator = agg
	}
}

// WithSeed sets the seed of the resampling source used by Fit.
func WithSeed(seed uint64) Option {
	return func(m *Model) {
		m.seed = seed
	}
}

// WithIntegrator sets the integrator used by Simulate.
func WithIntegrator(integ integrate.Integrator) Option {
	return func(m *Model) {
		m.integrator = integ
	}
}

// WithFeatureNames names the state variables in equations and weights.
func WithFeatureNames(names ...string) Option {
	return func(m *Model) {
		m.names = append([]string(nil), names...)
	}
}

// WithWorkers bounds the goroutines used to process trajectories and
// initial conditions.
func WithWorkers(n int) Option {
	return func(m *Model) {
		m.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}
