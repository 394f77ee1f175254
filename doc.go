// Package dynadojo identifies governing equations of dynamical systems from
// sampled trajectories and forecasts with the identified model.
//
// The library is organised bottom-up:
//
//   - differentiation estimates time derivatives (finite differences,
//     Savitzky-Golay smoothed finite differences)
//   - library evaluates candidate terms (polynomial features)
//   - optimizer solves the sparse regression (STLSQ and bootstrap ensembles)
//   - integrate advances an ODE (Dormand-Prince 5(4), classical RK4)
//   - sindy combines the pieces into a fit/simulate model
//   - baselines exposes that model through the benchmark fit/predict contract
//   - systems, config and viz support the sindy command
//
// # Quick Start
//
//	alg, err := baselines.NewSINDy(embedDim, timesteps, 0, baselines.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// x is [trajectory][timestep][state]
//	if err := alg.Fit(x); err != nil {
//	    log.Fatal(err)
//	}
//	forecast, err := alg.Predict(x0, 200)
//
// # Error Handling
//
// Errors are built with pkg/errors on top of github.com/cockroachdb/errors
// and carry stack traces. Typed errors (ValidationError, InputShapeError,
// NotFittedError, IntegrationError, ...) can be matched with errors.As.
// Non-fatal conditions such as STLSQ non-convergence are reported as
// warnings through the process-wide logger.
package dynadojo
