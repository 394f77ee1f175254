package baselines

import (
	"fmt"
	"math/bits"

	"github.com/YuminosukeSato/dynadojo-go/differentiation"
	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// DifferentiationKind tags a DifferentiationMethod.
type DifferentiationKind int

const (
	// DefaultKind selects second-order finite differences.
	DefaultKind DifferentiationKind = iota
	// SmoothedKind selects smoothed finite differences with parameters
	// derived from the number of timesteps.
	SmoothedKind
	// CustomKind uses a caller-supplied differentiator.
	CustomKind
)

// DifferentiationMethod selects how training trajectories are
// differentiated. It is resolved once, when the algorithm is built.
type DifferentiationMethod struct {
	kind   DifferentiationKind
	custom differentiation.Differentiator
}

// DefaultDifferentiation selects ordinary finite differences.
func DefaultDifferentiation() DifferentiationMethod {
	return DifferentiationMethod{kind: DefaultKind}
}

// SmoothedFD selects smoothed finite differences with window length
// floor(log2(timesteps)) and polynomial order floor(log10(timesteps)).
func SmoothedFD() DifferentiationMethod {
	return DifferentiationMethod{kind: SmoothedKind}
}

// CustomDifferentiation uses d as is.
func CustomDifferentiation(d differentiation.Differentiator) DifferentiationMethod {
	return DifferentiationMethod{kind: CustomKind, custom: d}
}

// ParseDifferentiation maps a selector name to a method. The empty string,
// "fd" and "finite_difference" select the default.
func ParseDifferentiation(name string) (DifferentiationMethod, error) {
	switch name {
	case "", "fd", "finite_difference":
		return DefaultDifferentiation(), nil
	case "smoothed_fd":
		return SmoothedFD(), nil
	default:
		return DifferentiationMethod{}, errors.NewValidationError("differentiation_method",
			`must be "fd" or "smoothed_fd"`, name)
	}
}

// Kind returns the variant tag.
func (d DifferentiationMethod) Kind() DifferentiationKind {
	return d.kind
}

func (d DifferentiationMethod) String() string {
	switch d.kind {
	case SmoothedKind:
		return "smoothed_fd"
	case CustomKind:
		if d.custom == nil {
			return "custom(<nil>)"
		}
		return fmt.Sprintf("custom(%s)", d.custom.Name())
	default:
		return "fd"
	}
}

// SmoothingParams returns the window length and polynomial order used by
// SmoothedFD for the given number of timesteps.
func SmoothingParams(timesteps int) (window, polyOrder int) {
	if timesteps < 1 {
		return 0, 0
	}
	// integer logarithms, exact at powers of two and ten
	window = bits.Len(uint(timesteps)) - 1
	for n := timesteps; n >= 10; n /= 10 {
		polyOrder++
	}
	return window, polyOrder
}

// Resolve builds the differentiator for trajectories of the given length.
func (d DifferentiationMethod) Resolve(timesteps int) (differentiation.Differentiator, error) {
	switch d.kind {
	case DefaultKind:
		return differentiation.NewFiniteDifference(), nil
	case SmoothedKind:
		window, order := SmoothingParams(timesteps)
		sfd := differentiation.NewSmoothedFiniteDifference(window, order)
		if err := sfd.Validate(); err != nil {
			return nil, err
		}
		return sfd, nil
	case CustomKind:
		if d.custom == nil {
			return nil, errors.NewValidationError("differentiation_method", "custom differentiator is nil", nil)
		}
		return d.custom, nil
	default:
		return nil, errors.NewValidationError("differentiation_method", "unknown kind", int(d.kind))
	}
}
