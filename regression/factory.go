// Package regression はスイープ対象となる回帰モデルファミリーを提供する。
//
// 各モデルはRegressorインターフェースを満たし、ファクトリ関数
// NewRegressorがハイパーパラメータの組み合わせを検証してから
// 学習前のモデルを構築する。不正なパラメータは学習を始める前に
// エラーとして報告される。
package regression

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// モデルファミリー名
const (
	FamilyRidge = "ridge"
	FamilyKNN   = "knn"
)

// Regressor はスイープが扱う回帰モデルの共通インターフェース
type Regressor interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
	// Predict は入力データに対する予測を返す（n×1行列）
	Predict(X mat.Matrix) (mat.Matrix, error)
	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
	// Family はモデルファミリー名を返す
	Family() string
	// Params は構築時のハイパーパラメータを返す
	Params() map[string]any
}

// ridgeConfig はridgeファミリーの型付き設定
type ridgeConfig struct {
	Alpha        float64
	FitIntercept bool
}

// knnConfig はknnファミリーの型付き設定
type knnConfig struct {
	K       int
	Weights string
}

// NewRegressor はファミリー名とハイパーパラメータから学習前のモデルを構築する。
// パラメータはディスパッチの前に型付き設定に検証・変換される。
// 未知のファミリーはValueError、不正なパラメータはFitErrorを返す。
func NewRegressor(family string, params map[string]any) (Regressor, error) {
	switch family {
	case FamilyRidge:
		cfg, err := parseRidgeConfig(params)
		if err != nil {
			return nil, err
		}
		return NewRidge(cfg.Alpha, cfg.FitIntercept)
	case FamilyKNN:
		cfg, err := parseKNNConfig(params)
		if err != nil {
			return nil, err
		}
		return NewKNNRegressor(cfg.K, cfg.Weights)
	default:
		return nil, errors.NewValueError("NewRegressor", "unknown model family: "+family)
	}
}

func parseRidgeConfig(params map[string]any) (ridgeConfig, error) {
	cfg := ridgeConfig{Alpha: 1.0, FitIntercept: true}

	for name, raw := range params {
		switch name {
		case "alpha":
			v, ok := toFloat64(raw)
			if !ok {
				return cfg, errors.NewValidationError("alpha", "must be a number", raw)
			}
			cfg.Alpha = v
		case "fit_intercept":
			v, ok := raw.(bool)
			if !ok {
				return cfg, errors.NewValidationError("fit_intercept", "must be a bool", raw)
			}
			cfg.FitIntercept = v
		default:
			return cfg, errors.NewValidationError(name, "unknown parameter for family ridge", raw)
		}
	}

	return cfg, nil
}

func parseKNNConfig(params map[string]any) (knnConfig, error) {
	cfg := knnConfig{K: 5, Weights: WeightsUniform}

	for name, raw := range params {
		switch name {
		case "k":
			v, ok := toInt(raw)
			if !ok {
				return cfg, errors.NewValidationError("k", "must be an integer", raw)
			}
			cfg.K = v
		case "weights":
			v, ok := raw.(string)
			if !ok {
				return cfg, errors.NewValidationError("weights", "must be a string", raw)
			}
			cfg.Weights = v
		default:
			return cfg, errors.NewValidationError(name, "unknown parameter for family knn", raw)
		}
	}

	return cfg, nil
}

// toFloat64 はYAMLやJSONのデコード結果に現れる数値型を吸収する
func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	}
	return 0, false
}
