package systems

// ExponentialDecay is x' = -Rate x.
type ExponentialDecay struct {
	Rate float64
}

func NewExponentialDecay() *ExponentialDecay { return &ExponentialDecay{Rate: 1} }

func (e *ExponentialDecay) Name() string            { return "exponential_decay" }
func (e *ExponentialDecay) StateDim() int           { return 1 }
func (e *ExponentialDecay) DefaultState() []float64 { return []float64{1} }

func (e *ExponentialDecay) Derive(_ float64, x, dx []float64) {
	dx[0] = -e.Rate * x[0]
}

func (e *ExponentialDecay) Params() map[string]float64 {
	return map[string]float64{"rate": e.Rate}
}

func (e *ExponentialDecay) SetParam(name string, v float64) error {
	if name != "rate" {
		return unknownParam(e, name)
	}
	e.Rate = v
	return nil
}

// LinearOscillator is the harmonic oscillator x' = y, y' = -Omega^2 x.
type LinearOscillator struct {
	Omega float64
}

func NewLinearOscillator() *LinearOscillator { return &LinearOscillator{Omega: 1} }

func (o *LinearOscillator) Name() string            { return "linear_oscillator" }
func (o *LinearOscillator) StateDim() int           { return 2 }
func (o *LinearOscillator) DefaultState() []float64 { return []float64{1, 0} }

func (o *LinearOscillator) Derive(_ float64, x, dx []float64) {
	dx[0] = x[1]
	dx[1] = -o.Omega * o.Omega * x[0]
}

func (o *LinearOscillator) Params() map[string]float64 {
	return map[string]float64{"omega": o.Omega}
}

func (o *LinearOscillator) SetParam(name string, v float64) error {
	if name != "omega" {
		return unknownParam(o, name)
	}
	o.Omega = v
	return nil
}

// Lorenz is the Lorenz-63 system.
type Lorenz struct {
	Sigma, Rho, Beta float64
}

func NewLorenz() *Lorenz { return &Lorenz{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0} }

func (l *Lorenz) Name() string            { return "lorenz" }
func (l *Lorenz) StateDim() int           { return 3 }
func (l *Lorenz) DefaultState() []float64 { return []float64{1, 1, 1} }

func (l *Lorenz) Derive(_ float64, x, dx []float64) {
	dx[0] = l.Sigma * (x[1] - x[0])
	dx[1] = x[0]*(l.Rho-x[2]) - x[1]
	dx[2] = x[0]*x[1] - l.Beta*x[2]
}

func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}

func (l *Lorenz) SetParam(name string, v float64) error {
	switch name {
	case "sigma":
		l.Sigma = v
	case "rho":
		l.Rho = v
	case "beta":
		l.Beta = v
	default:
		return unknownParam(l, name)
	}
	return nil
}

// LotkaVolterra is the predator-prey system
// x' = Alpha x - Beta x y, y' = Delta x y - Gamma y.
type LotkaVolterra struct {
	Alpha, Beta, Gamma, Delta float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{Alpha: 1, Beta: 0.5, Gamma: 1, Delta: 0.5}
}

func (lv *LotkaVolterra) Name() string            { return "lotka_volterra" }
func (lv *LotkaVolterra) StateDim() int           { return 2 }
func (lv *LotkaVolterra) DefaultState() []float64 { return []float64{2, 1} }

func (lv *LotkaVolterra) Derive(_ float64, x, dx []float64) {
	dx[0] = lv.Alpha*x[0] - lv.Beta*x[0]*x[1]
	dx[1] = lv.Delta*x[0]*x[1] - lv.Gamma*x[1]
}

func (lv *LotkaVolterra) Params() map[string]float64 {
	return map[string]float64{"alpha": lv.Alpha, "beta": lv.Beta, "gamma": lv.Gamma, "delta": lv.Delta}
}

func (lv *LotkaVolterra) SetParam(name string, v float64) error {
	switch name {
	case "alpha":
		lv.Alpha = v
	case "beta":
		lv.Beta = v
	case "gamma":
		lv.Gamma = v
	case "delta":
		lv.Delta = v
	default:
		return unknownParam(lv, name)
	}
	return nil
}
