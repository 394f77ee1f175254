package sindy

import (
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/core/model"
	"github.com/YuminosukeSato/dynadojo-go/library"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// formatVersion is bumped whenever snapshot changes incompatibly.
const formatVersion = "1"

// snapshot is the gob representation of a fitted model. Estimator choices
// (differentiation, optimizer, integrator) are configuration and are not
// stored.
type snapshot struct {
	Version            string
	StateNames         []string
	Degree             int
	IncludeBias        bool
	IncludeInteraction bool
	Rows, Cols         int
	Coefficients       []float64
	CoefList           [][]float64
	Shape              model.FitShape
	Seed               uint64
	NModels            int
}

// Save writes the fitted model to w in gob format.
func (m *Model) Save(w io.Writer) error {
	snap, err := m.snapshot()
	if err != nil {
		return err
	}
	return model.SaveModelToWriter(snap, w)
}

// SaveFile writes the fitted model to a file.
func (m *Model) SaveFile(filename string) error {
	snap, err := m.snapshot()
	if err != nil {
		return err
	}
	return model.SaveModel(snap, filename)
}

// Load replaces the fitted state with a model written by Save.
func (m *Model) Load(r io.Reader) error {
	var snap snapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return err
	}
	return m.restore(&snap)
}

// LoadFile reads a model written by SaveFile.
func (m *Model) LoadFile(filename string) error {
	var snap snapshot
	if err := model.LoadModel(&snap, filename); err != nil {
		return err
	}
	return m.restore(&snap)
}

func (m *Model) snapshot() (*snapshot, error) {
	if err := m.state.RequireFitted(modelName, "Save"); err != nil {
		return nil, err
	}
	rows, cols := m.coef.Dims()
	snap := &snapshot{
		Version:            formatVersion,
		StateNames:         m.stateNames,
		Degree:             m.lib.Degree,
		IncludeBias:        m.lib.IncludeBias,
		IncludeInteraction: m.lib.IncludeInteraction,
		Rows:               rows,
		Cols:               cols,
		Coefficients:       append([]float64(nil), m.coef.RawMatrix().Data...),
		Shape:              m.state.Shape(),
		Seed:               m.seed,
		NModels:            m.nModels,
	}
	for _, c := range m.coefList {
		snap.CoefList = append(snap.CoefList, append([]float64(nil), c.RawMatrix().Data...))
	}
	return snap, nil
}

func (m *Model) restore(snap *snapshot) error {
	op := modelName + ".Load"
	if snap.Version != formatVersion {
		return errors.NewValueError(op, "unsupported snapshot version "+snap.Version)
	}
	if snap.Rows == 0 || len(snap.Coefficients) != snap.Rows*snap.Cols {
		return errors.NewDimensionError(op, snap.Rows*snap.Cols, len(snap.Coefficients), 0)
	}

	lib := &library.PolynomialLibrary{
		Degree:             snap.Degree,
		IncludeBias:        snap.IncludeBias,
		IncludeInteraction: snap.IncludeInteraction,
	}
	if err := lib.Fit(snap.Rows); err != nil {
		return err
	}
	if lib.NOutputFeatures() != snap.Cols {
		return errors.NewDimensionError(op, lib.NOutputFeatures(), snap.Cols, 1)
	}
	if snap.StateNames == nil {
		snap.StateNames = library.DefaultNames(snap.Rows)
	}
	termNames, err := lib.FeatureNames(snap.StateNames)
	if err != nil {
		return err
	}

	m.lib = lib
	m.coef = mat.NewDense(snap.Rows, snap.Cols, snap.Coefficients)
	m.coefList = nil
	for _, c := range snap.CoefList {
		m.coefList = append(m.coefList, mat.NewDense(snap.Rows, snap.Cols, c))
	}
	m.stateNames = snap.StateNames
	m.termNames = termNames
	m.seed = snap.Seed
	m.nModels = snap.NModels
	m.state.MarkFitted(snap.Shape)
	return nil
}

// Weights exports the identified equations in the JSON-friendly weights
// format.
func (m *Model) Weights() (*model.ModelWeights, error) {
	if err := m.state.RequireFitted(modelName, "Weights"); err != nil {
		return nil, err
	}
	rows, _ := m.coef.Dims()
	coefs := make([][]float64, rows)
	for i := range coefs {
		coefs[i] = append([]float64(nil), m.coef.RawRowView(i)...)
	}

	hyper := map[string]interface{}{
		"degree":              m.lib.Degree,
		"include_bias":        m.lib.IncludeBias,
		"include_interaction": m.lib.IncludeInteraction,
		"differentiation":     m.diff.Name(),
		"optimizer":           m.opt.Name(),
		"n_models":            m.nModels,
		"seed":                m.seed,
		"integrator":          m.integrator.Name(),
	}
	for k, v := range m.opt.Params() {
		hyper["optimizer."+k] = v
	}
	shape := m.state.Shape()

	w := &model.ModelWeights{
		ModelType:       modelName,
		Version:         formatVersion,
		Coefficients:    coefs,
		FeatureNames:    m.TermNames(),
		StateNames:      m.StateNames(),
		Hyperparameters: hyper,
		Metadata: map[string]interface{}{
			"n_trajectories": shape.NTrajectories,
			"n_samples":      shape.NSamples,
			"complexity":     m.Complexity(),
		},
		IsFitted: true,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}
