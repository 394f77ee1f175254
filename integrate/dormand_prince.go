package integrate

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// Dormand-Prince 5(4) tableau.
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is an adaptive explicit Runge-Kutta 5(4) integrator with
// first-same-as-last stages. Steps are shortened so that every output time is
// hit exactly.
type DormandPrince struct {
	RTol        float64
	ATol        float64
	MaxSteps    int
	InitialStep float64 // 0 selects the first step automatically
	MinStep     float64 // rejected steps may not shrink below this

	safety   float64
	minScale float64
	maxScale float64
}

// NewDormandPrince returns an integrator with rtol 1e-8, atol 1e-10 and a
// budget of 100000 steps.
func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		RTol:     1e-8,
		ATol:     1e-10,
		MaxSteps: 100000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Name implements Integrator.
func (d *DormandPrince) Name() string {
	return "DormandPrince"
}

// Integrate implements Integrator.
func (d *DormandPrince) Integrate(f Func, x0, t []float64) (*mat.Dense, error) {
	out, _, err := d.IntegrateWithStats(f, x0, t)
	return out, err
}

type dpWork struct {
	k1, k2, k3, k4, k5, k6, k7 []float64
	stage, xNew                []float64
}

func newDPWork(n int) *dpWork {
	alloc := func() []float64 { return make([]float64, n) }
	return &dpWork{
		k1: alloc(), k2: alloc(), k3: alloc(), k4: alloc(),
		k5: alloc(), k6: alloc(), k7: alloc(),
		stage: alloc(), xNew: alloc(),
	}
}

// IntegrateWithStats is Integrate that also reports step counts.
func (d *DormandPrince) IntegrateWithStats(f Func, x0, t []float64) (*mat.Dense, Stats, error) {
	var stats Stats
	if err := validate(d.Name(), f, x0, t); err != nil {
		return nil, stats, err
	}
	if d.RTol <= 0 && d.ATol <= 0 {
		return nil, stats, errors.NewValidationError("rtol", "rtol or atol must be positive", d.RTol)
	}
	cfg := *d
	cfg.defaults()
	d = &cfg

	n := len(x0)
	out := mat.NewDense(len(t), n, nil)
	out.SetRow(0, x0)
	if len(t) == 1 {
		return out, stats, nil
	}

	w := newDPWork(n)
	x := append([]float64(nil), x0...)
	tc := t[0]
	f(tc, x, w.k1)
	stats.Evals++

	h := d.InitialStep
	if h <= 0 {
		h = d.initialStep(f, tc, x, w, t[len(t)-1]-t[0])
		stats.Evals++
	}

	for j := 1; j < len(t); j++ {
		target := t[j]
		for tc < target {
			if stats.Steps+stats.Rejected >= d.MaxSteps {
				return nil, stats, errors.NewIntegrationError(d.Name(), tc, stats.Steps, "maximum number of steps exceeded")
			}

			clipped := false
			hFree := h
			if tc+h >= target || target-(tc+h) <= 16*epsilon*math.Abs(target) {
				h = target - tc
				clipped = true
			}
			if h <= 16*epsilon*math.Abs(tc) || h <= 0 {
				return nil, stats, errors.NewIntegrationError(d.Name(), tc, stats.Steps, errors.ErrStepSizeUnderflow.Error())
			}

			errNorm := d.step(f, tc, h, x, w)
			stats.Evals += 6

			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) || errNorm > 1 {
				stats.Rejected++
				scale := d.minScale
				if errNorm > 1 && !math.IsInf(errNorm, 0) {
					scale = math.Max(d.minScale, d.safety*math.Pow(errNorm, -0.25))
				}
				h *= scale
				if h <= 16*epsilon*math.Abs(tc) || h < d.MinStep {
					if !errors.IsFinite(w.xNew) {
						return nil, stats, errors.NewNumericalInstabilityError(d.Name()+".Integrate", append([]float64(nil), w.xNew...), stats.Steps)
					}
					return nil, stats, errors.NewIntegrationError(d.Name(), tc, stats.Steps, errors.ErrStepSizeUnderflow.Error())
				}
				continue
			}

			stats.Steps++
			if clipped {
				tc = target
			} else {
				tc += h
			}
			copy(x, w.xNew)
			w.k1, w.k7 = w.k7, w.k1

			hNext := h * d.maxScale
			if errNorm > 0 {
				hNext = h * math.Min(d.maxScale, d.safety*math.Pow(errNorm, -0.2))
			}
			if clipped && hFree > hNext {
				hNext = hFree
			}
			h = hNext
		}
		if !errors.IsFinite(x) {
			return nil, stats, errors.NewNumericalInstabilityError(d.Name()+".Integrate", append([]float64(nil), x...), stats.Steps)
		}
		out.SetRow(j, x)
	}
	return out, stats, nil
}

const epsilon = 2.220446049250313e-16

func (d *DormandPrince) defaults() {
	if d.MaxSteps <= 0 {
		d.MaxSteps = 100000
	}
	if d.safety == 0 {
		d.safety = 0.9
	}
	if d.minScale == 0 {
		d.minScale = 0.2
	}
	if d.maxScale == 0 {
		d.maxScale = 10.0
	}
}

// step advances x by h from tc, leaving the candidate in w.xNew and its
// derivative in w.k7. It returns the scaled RMS error estimate.
func (d *DormandPrince) step(f Func, tc, h float64, x []float64, w *dpWork) float64 {
	n := len(x)
	k1 := w.k1
	s := w.stage

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*b21*k1[i]
	}
	f(tc+a2*h, s, w.k2)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b31*k1[i]+b32*w.k2[i])
	}
	f(tc+a3*h, s, w.k3)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b41*k1[i]+b42*w.k2[i]+b43*w.k3[i])
	}
	f(tc+a4*h, s, w.k4)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b51*k1[i]+b52*w.k2[i]+b53*w.k3[i]+b54*w.k4[i])
	}
	f(tc+a5*h, s, w.k5)

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*(b61*k1[i]+b62*w.k2[i]+b63*w.k3[i]+b64*w.k4[i]+b65*w.k5[i])
	}
	f(tc+h, s, w.k6)

	for i := 0; i < n; i++ {
		w.xNew[i] = x[i] + h*(c1*k1[i]+c3*w.k3[i]+c4*w.k4[i]+c5*w.k5[i]+c6*w.k6[i])
	}
	f(tc+h, w.xNew, w.k7)

	var sum float64
	for i := 0; i < n; i++ {
		e := h * (dc1*k1[i] + dc3*w.k3[i] + dc4*w.k4[i] + dc5*w.k5[i] + dc6*w.k6[i] + dc7*w.k7[i])
		sc := d.ATol + d.RTol*math.Max(math.Abs(x[i]), math.Abs(w.xNew[i]))
		r := e / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(n))
}

// initialStep picks a first step from the local scale of the solution and
// its derivatives, capped at the integration span.
func (d *DormandPrince) initialStep(f Func, t0 float64, x []float64, w *dpWork, span float64) float64 {
	n := len(x)
	scale := make([]float64, n)
	for i := range x {
		scale[i] = d.ATol + d.RTol*math.Abs(x[i])
	}
	rms := func(v []float64) float64 {
		var sum float64
		for i := range v {
			r := v[i] / scale[i]
			sum += r * r
		}
		return math.Sqrt(sum / float64(n))
	}

	d0 := rms(x)
	d1 := rms(w.k1)
	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	for i := range x {
		w.stage[i] = x[i] + h0*w.k1[i]
	}
	f(t0+h0, w.stage, w.k2)
	diff := make([]float64, n)
	floats.SubTo(diff, w.k2, w.k1)
	d2 := rms(diff) / h0

	var h1 float64
	if math.Max(d1, d2) <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}
	return math.Min(math.Min(100*h0, h1), span)
}
