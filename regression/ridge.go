package regression

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/core/model"
	"github.com/YuminosukeSato/gridhouse/core/parallel"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// Ridge はL2正則化付き線形回帰モデル。
// 正規方程式 w = (X^T * X + αI)^(-1) * X^T * y で重みを解く。
// α = 0 のときは通常の最小二乗法（OLS）に一致する。
type Ridge struct {
	state *model.StateManager

	// Alpha はL2正則化の強さ（α ≥ 0）
	Alpha float64
	// FitIntercept は切片項を学習するかどうか
	FitIntercept bool

	// Coef は学習された重み係数
	Coef []float64
	// Intercept は学習された切片
	Intercept float64
	// NFeatures は学習時の特徴量の数
	NFeatures int
}

// NewRidge は新しいRidgeモデルを作成する。
// alphaが負の場合は学習を始める前にFitErrorを返す。
func NewRidge(alpha float64, fitIntercept bool) (*Ridge, error) {
	if alpha < 0 {
		return nil, errors.NewFitError("ridge", "alpha", "must be non-negative", nil)
	}
	return &Ridge{
		state:        model.NewStateManager(),
		Alpha:        alpha,
		FitIntercept: fitIntercept,
	}, nil
}

// Fit はモデルを訓練データで学習させる。
// 正規方程式 (X^T * X + αI)^(-1) * X^T * y を使用。
// 切片項は正則化しない。
func (r *Ridge) Fit(X, y mat.Matrix) error {
	// 入力の検証
	rows, cols := X.Dims()
	ry, cy := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("Ridge.Fit", "empty data", errors.ErrEmptyData)
	}

	if ry != rows {
		return errors.NewDimensionError("Ridge.Fit", rows, ry, 0)
	}

	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}

	r.NFeatures = cols

	// 切片項のために X に 1 の列を追加（FitIntercept時のみ）
	// X_design = [1, X]
	designCols := cols
	if r.FitIntercept {
		designCols = cols + 1
	}
	design := mat.NewDense(rows, designCols, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 1000

	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			offset := 0
			if r.FitIntercept {
				design.Set(i, 0, 1.0) // 切片項
				offset = 1
			}
			for j := 0; j < cols; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	// 正規方程式を解く
	// (X^T * X + αI)^(-1) * X^T * y
	var XT mat.Dense
	XT.CloneFrom(design.T())

	var XTX mat.Dense
	XTX.Mul(&XT, design)

	// 対角成分にαを加算。切片項（先頭列）は正則化の対象外
	if r.Alpha > 0 {
		start := 0
		if r.FitIntercept {
			start = 1
		}
		for j := start; j < designCols; j++ {
			XTX.Set(j, j, XTX.At(j, j)+r.Alpha)
		}
	}

	// 逆行列を計算
	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewFitError("ridge", "", "singular system in normal equations", errors.ErrSingularMatrix)
	}

	// X^T * y を計算
	yVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	// 重みを計算: (X^T * X + αI)^(-1) * X^T * y
	weights := mat.NewVecDense(designCols, nil)
	weights.MulVec(&XTXInv, &XTy)

	// 切片と重みを分離
	r.Coef = make([]float64, cols)
	if r.FitIntercept {
		r.Intercept = weights.AtVec(0)
		for j := 0; j < cols; j++ {
			r.Coef[j] = weights.AtVec(j + 1)
		}
	} else {
		r.Intercept = 0
		for j := 0; j < cols; j++ {
			r.Coef[j] = weights.AtVec(j)
		}
	}

	r.state.SetDimensions(cols, rows)
	r.state.SetFitted()

	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}

	rows, cols := X.Dims()
	if cols != r.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.NFeatures, cols, 1)
	}

	// 予測: y = X * coef + intercept
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred := r.Intercept
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * r.Coef[j]
		}
		predictions.Set(i, 0, pred)
	}

	return predictions, nil
}

// IsFitted はモデルが学習済みかどうかを返す
func (r *Ridge) IsFitted() bool {
	return r.state.IsFitted()
}

// Family はモデルファミリー名を返す
func (r *Ridge) Family() string {
	return FamilyRidge
}

// Params は学習時に使われたハイパーパラメータを返す
func (r *Ridge) Params() map[string]any {
	return map[string]any{
		"alpha":         r.Alpha,
		"fit_intercept": r.FitIntercept,
	}
}

// ExportWeights は学習済みの重みをシリアライズ可能な形式で返す
func (r *Ridge) ExportWeights() (*model.ModelWeights, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "ExportWeights")
	}

	coef := make([]float64, len(r.Coef))
	copy(coef, r.Coef)

	return &model.ModelWeights{
		ModelType:    "Ridge",
		Version:      "1.0",
		Coefficients: coef,
		Intercept:    r.Intercept,
		Hyperparameters: map[string]interface{}{
			"alpha":         r.Alpha,
			"fit_intercept": r.FitIntercept,
		},
		IsFitted: true,
	}, nil
}

var (
	_ model.Estimator = (*Ridge)(nil)
	_ model.Fitter    = (*Ridge)(nil)
	_ model.Predictor = (*Ridge)(nil)
)

// ridgeState はgobシリアライゼーション用の内部表現
type ridgeState struct {
	Alpha        float64
	FitIntercept bool
	Coef         []float64
	Intercept    float64
	NFeatures    int
	Fitted       bool
}

// GobEncode はモデルをgob形式にエンコードする
func (r *Ridge) GobEncode() ([]byte, error) {
	state := ridgeState{
		Alpha:        r.Alpha,
		FitIntercept: r.FitIntercept,
		Coef:         r.Coef,
		Intercept:    r.Intercept,
		NFeatures:    r.NFeatures,
		Fitted:       r.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, errors.Wrap(err, "Ridge.GobEncode")
	}
	return buf.Bytes(), nil
}

// GobDecode はgob形式からモデルを復元する
func (r *Ridge) GobDecode(data []byte) error {
	var state ridgeState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "Ridge.GobDecode")
	}

	r.Alpha = state.Alpha
	r.FitIntercept = state.FitIntercept
	r.Coef = state.Coef
	r.Intercept = state.Intercept
	r.NFeatures = state.NFeatures
	r.state = model.NewStateManager()
	if state.Fitted {
		r.state.SetDimensions(state.NFeatures, 0)
		r.state.SetFitted()
	}
	return nil
}
