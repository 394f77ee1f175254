package model

import "gonum.org/v1/gonum/mat"

// TrajectoryFitter は複数の軌道から力学系を同定するモデルのインターフェース
type TrajectoryFitter interface {
	// Fit は各軌道（timesteps × 状態次元）と対応する時刻列でモデルを学習させる
	Fit(trajectories []mat.Matrix, t [][]float64) error
}

// Simulator は学習済みの常微分方程式を初期値から前進積分するインターフェース
type Simulator interface {
	// Simulate は初期状態 x0 から時刻列 t 上の軌道（len(t) × 状態次元）を返す
	Simulate(x0 []float64, t []float64) (*mat.Dense, error)
}

// DerivativePredictor は状態から時間微分を予測するインターフェース
type DerivativePredictor interface {
	// PredictDerivative は各行の状態に対する右辺の値を返す
	PredictDerivative(X mat.Matrix) (*mat.Dense, error)
}

// DynamicsModel は同定と前進シミュレーションを合わせたインターフェース
type DynamicsModel interface {
	TrajectoryFitter
	Simulator
	DerivativePredictor
}
