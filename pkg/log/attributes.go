// Package log defines standard attribute keys for system identification.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so logs from fit and predict can be filtered uniformly.
package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "SINDy", "STLSQ", "DormandPrince"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "simulate", "differentiate", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "sindy", "optimizer", "integrate", "baselines"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of pooled samples (rows) used for regression.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of library features (columns).
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of state variables being regressed.
	TargetsKey = "data.targets"

	// TrajectoriesKey indicates the number of trajectories in a batch.
	TrajectoriesKey = "data.trajectories"

	// TimestepsKey indicates the number of samples per trajectory.
	TimestepsKey = "data.timesteps"

	// EmbedDimKey indicates the state-space dimensionality.
	EmbedDimKey = "data.embed_dim"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the R² of predicted against numerical derivatives.
	R2ScoreKey = "metrics.r2_score"

	// StepsKey records the number of integrator steps taken.
	StepsKey = "integrate.steps"

	// RejectedStepsKey records the number of rejected adaptive steps.
	RejectedStepsKey = "integrate.rejected_steps"
)

// SINDy-specific context
const (
	// LibraryDegreeKey records the polynomial library degree.
	LibraryDegreeKey = "sindy.library_degree"

	// NonzeroTermsKey records the number of active coefficients after fitting.
	NonzeroTermsKey = "sindy.nonzero_terms"

	// EnsembleModelsKey records the number of bootstrap models.
	EnsembleModelsKey = "sindy.ensemble_models"

	// ThresholdKey records the sparsification threshold.
	ThresholdKey = "sindy.threshold"

	// DifferentiationKey records the differentiation method in use.
	DifferentiationKey = "sindy.differentiation"

	// HorizonKey records the requested number of forecast points.
	HorizonKey = "sindy.horizon"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationSimulate      = "simulate"
	OperationDifferentiate = "differentiate"
	OperationScore         = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorIntegration       = "INTEGRATION_FAILURE"
)
