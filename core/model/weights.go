package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/dynadojo-go/pkg/errors"
)

// ModelWeights は同定された方程式の係数を表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（SINDy 等）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は状態変数ごとの係数（n_states × n_features）
	Coefficients [][]float64 `json:"coefficients"`

	// FeatureNames はライブラリの各項の名前（"1", "x0", "x0 x1" など）
	FeatureNames []string `json:"feature_names"`

	// StateNames は状態変数の名前
	StateNames []string `json:"state_names"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の形状等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return errors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
	}
	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return errors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	}
	if len(mw.StateNames) > 0 && len(mw.StateNames) != len(mw.Coefficients) {
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.StateNames), len(mw.Coefficients), 0)
	}
	for _, row := range mw.Coefficients {
		if len(row) != len(mw.FeatureNames) {
			return errors.NewDimensionError("ModelWeights.Validate", len(mw.FeatureNames), len(row), 1)
		}
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([][]float64, len(mw.Coefficients)),
		FeatureNames:    append([]string(nil), mw.FeatureNames...),
		StateNames:      append([]string(nil), mw.StateNames...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	for i, row := range mw.Coefficients {
		clone.Coefficients[i] = append([]float64(nil), row...)
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}
