// Package model provides the shared estimator contracts, fitted-state
// bookkeeping and persistence helpers used by the identification models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// EstimatorState is the fitted state of a model.
type EstimatorState int

const (
	// NotFitted means Fit has not succeeded yet.
	NotFitted EstimatorState = iota
	// Fitted means the model holds a fitted state.
	Fitted
)

// String returns "unfit" or "fitted".
func (s EstimatorState) String() string {
	if s == Fitted {
		return "fitted"
	}
	return "unfit"
}

// StateManager manages the fitted state of a model in a thread-safe manner.
// The only transition into Fitted is MarkFitted, called at the end of a
// successful Fit; Reset returns to NotFitted.
type StateManager struct {
	State EstimatorState // Public for gob encoding
	mu    sync.RWMutex

	// Shape metadata recorded at fit time - Public for gob encoding
	NStates       int
	NFeatures     int
	NTrajectories int
	NSamples      int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{State: NotFitted}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State == Fitted
}

// MarkFitted records the fit-time shape and marks the model as fitted.
func (s *StateManager) MarkFitted(shape FitShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = Fitted
	s.NStates = shape.NStates
	s.NFeatures = shape.NFeatures
	s.NTrajectories = shape.NTrajectories
	s.NSamples = shape.NSamples
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = NotFitted
	s.NStates = 0
	s.NFeatures = 0
	s.NTrajectories = 0
	s.NSamples = 0
}

// FitShape describes the data seen during fitting.
type FitShape struct {
	NStates       int `json:"n_states"`
	NFeatures     int `json:"n_features"`
	NTrajectories int `json:"n_trajectories"`
	NSamples      int `json:"n_samples"`
}

// Shape returns the shape recorded at fit time.
func (s *StateManager) Shape() FitShape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FitShape{
		NStates:       s.NStates,
		NFeatures:     s.NFeatures,
		NTrajectories: s.NTrajectories,
		NSamples:      s.NSamples,
	}
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
