package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gridhouse/core/model"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator
	
	// Mean は各特徴量の平均値
	Mean []float64
	
	// Scale は各特徴量の標準偏差
	Scale []float64
	
	// NFeatures は特徴量の数
	NFeatures int
	
	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool
	
	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

var (
	_ model.Transformer     = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
)

// NewStandardScaler は新しいStandardScalerを作成する
//
// パラメータ:
//   - withMean: 平均を引くかどうか (デフォルト: true)
//   - withStd: 標準偏差で割るかどうか (デフォルト: true)
//
// 戻り値:
//   - *StandardScaler: 新しいStandardScalerインスタンス
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features の行列)
//
// 戻り値:
//   - error: エラーが発生した場合
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	
	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	
	// 平均を計算
	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	} else {
		// 平均を0に設定
		for j := 0; j < c; j++ {
			s.Mean[j] = 0.0
		}
	}
	
	// 標準偏差を計算
	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)
			
			// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		// スケールを1に設定
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}
	
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
//
// パラメータ:
//   - X: 変換するデータ
//
// 戻り値:
//   - mat.Matrix: 標準化されたデータ
//   - error: エラーが発生した場合
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}
	
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}
	
	// 結果を格納する行列を作成
	result := mat.NewDense(r, c, nil)
	
	// 各要素を標準化
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			standardized := (value - s.Mean[j]) / s.Scale[j]
			result.Set(i, j, standardized)
		}
	}
	
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
//
// パラメータ:
//   - X: 訓練・変換するデータ
//
// 戻り値:
//   - mat.Matrix: 標準化されたデータ
//   - error: エラーが発生した場合
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
//
// パラメータ:
//   - X: 標準化されたデータ
//
// 戻り値:
//   - mat.Matrix: 元のスケールに戻されたデータ
//   - error: エラーが発生した場合
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}
	
	// 結果を格納する行列を作成
	result := mat.NewDense(r, c, nil)
	
	// 各要素を逆変換
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			original := value*s.Scale[j] + s.Mean[j]
			result.Set(i, j, original)
		}
	}
	
	return result, nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", 
		s.WithMean, s.WithStd, s.NFeatures)
}
