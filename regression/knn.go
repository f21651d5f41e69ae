package regression

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridhouse/core/model"
	"github.com/YuminosukeSato/gridhouse/core/parallel"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// 近傍の重み付け方式
const (
	// WeightsUniform はk近傍を等しい重みで平均する
	WeightsUniform = "uniform"
	// WeightsDistance は距離の逆数で重み付け平均する
	WeightsDistance = "distance"
)

// KNNRegressor はk近傍法による回帰モデル。
// 予測はユークリッド距離でのk近傍の目的値の（重み付き）平均。
// 距離が同値の場合は訓練行インデックスの小さい方を優先する。
type KNNRegressor struct {
	state *model.StateManager

	// K は参照する近傍の数（k ≥ 1）
	K int
	// Weights は重み付け方式（uniform / distance）
	Weights string

	// TrainX は訓練データの特徴量（行ごと）
	TrainX [][]float64
	// TrainY は訓練データの目的値
	TrainY []float64
	// NFeatures は学習時の特徴量の数
	NFeatures int
}

// NewKNNRegressor は新しいKNNRegressorを作成する。
// kが1未満、または重み付け方式が未知の場合はFitErrorを返す。
func NewKNNRegressor(k int, weights string) (*KNNRegressor, error) {
	if k < 1 {
		return nil, errors.NewFitError("knn", "k", "must be at least 1", nil)
	}
	if weights != WeightsUniform && weights != WeightsDistance {
		return nil, errors.NewFitError("knn", "weights", "must be uniform or distance", nil)
	}
	return &KNNRegressor{
		state:   model.NewStateManager(),
		K:       k,
		Weights: weights,
	}, nil
}

// Fit は訓練データを保持する。k近傍法は遅延学習のため、
// ここでは入力検証とコピーのみを行う。
func (k *KNNRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	ry, cy := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("KNNRegressor.Fit", "empty data", errors.ErrEmptyData)
	}

	if ry != rows {
		return errors.NewDimensionError("KNNRegressor.Fit", rows, ry, 0)
	}

	if cy != 1 {
		return errors.NewValueError("KNNRegressor.Fit", "y must be a column vector")
	}

	if k.K > rows {
		return errors.NewFitError("knn", "k", "exceeds the number of training rows", nil)
	}

	// 入力行列を変更から守るためコピーして保持する
	k.TrainX = make([][]float64, rows)
	k.TrainY = make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		k.TrainX[i] = row
		k.TrainY[i] = y.At(i, 0)
	}
	k.NFeatures = cols

	k.state.SetDimensions(cols, rows)
	k.state.SetFitted()

	return nil
}

// Predict は各入力行についてk近傍の目的値の（重み付き）平均を返す
func (k *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !k.IsFitted() {
		return nil, errors.NewNotFittedError("KNNRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != k.NFeatures {
		return nil, errors.NewDimensionError("KNNRegressor.Predict", k.NFeatures, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)

	// 並列処理の閾値（この値以下の行数では逐次処理を使用）
	const parallelThreshold = 256

	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		query := make([]float64, cols)
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				query[j] = X.At(i, j)
			}
			predictions.Set(i, 0, k.predictRow(query))
		}
	})

	return predictions, nil
}

type knnNeighbor struct {
	index int
	dist  float64
}

func (k *KNNRegressor) predictRow(query []float64) float64 {
	neighbors := make([]knnNeighbor, len(k.TrainX))
	for i, row := range k.TrainX {
		var sum float64
		for j, v := range row {
			diff := v - query[j]
			sum += diff * diff
		}
		neighbors[i] = knnNeighbor{index: i, dist: math.Sqrt(sum)}
	}

	// 距離の昇順、同値はインデックスの昇順
	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].dist != neighbors[b].dist {
			return neighbors[a].dist < neighbors[b].dist
		}
		return neighbors[a].index < neighbors[b].index
	})

	nearest := neighbors[:k.K]

	if k.Weights == WeightsUniform {
		var sum float64
		for _, nb := range nearest {
			sum += k.TrainY[nb.index]
		}
		return sum / float64(len(nearest))
	}

	// 距離重み付け。距離ゼロの近傍が存在する場合は
	// それらの平均を返す（逆数が発散するため）
	var exact []int
	for _, nb := range nearest {
		if nb.dist == 0 {
			exact = append(exact, nb.index)
		}
	}
	if len(exact) > 0 {
		var sum float64
		for _, idx := range exact {
			sum += k.TrainY[idx]
		}
		return sum / float64(len(exact))
	}

	var weightedSum, weightTotal float64
	for _, nb := range nearest {
		w := 1.0 / nb.dist
		weightedSum += w * k.TrainY[nb.index]
		weightTotal += w
	}
	return weightedSum / weightTotal
}

// IsFitted はモデルが学習済みかどうかを返す
func (k *KNNRegressor) IsFitted() bool {
	return k.state.IsFitted()
}

// Family はモデルファミリー名を返す
func (k *KNNRegressor) Family() string {
	return FamilyKNN
}

// Params は学習時に使われたハイパーパラメータを返す
func (k *KNNRegressor) Params() map[string]any {
	return map[string]any{
		"k":       k.K,
		"weights": k.Weights,
	}
}

var (
	_ model.Estimator = (*KNNRegressor)(nil)
	_ model.Fitter    = (*KNNRegressor)(nil)
	_ model.Predictor = (*KNNRegressor)(nil)
)

// knnState はgobシリアライゼーション用の内部表現
type knnState struct {
	K         int
	Weights   string
	TrainX    [][]float64
	TrainY    []float64
	NFeatures int
	Fitted    bool
}

// GobEncode はモデルをgob形式にエンコードする
func (k *KNNRegressor) GobEncode() ([]byte, error) {
	state := knnState{
		K:         k.K,
		Weights:   k.Weights,
		TrainX:    k.TrainX,
		TrainY:    k.TrainY,
		NFeatures: k.NFeatures,
		Fitted:    k.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, errors.Wrap(err, "KNNRegressor.GobEncode")
	}
	return buf.Bytes(), nil
}

// GobDecode はgob形式からモデルを復元する
func (k *KNNRegressor) GobDecode(data []byte) error {
	var state knnState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "KNNRegressor.GobDecode")
	}

	k.K = state.K
	k.Weights = state.Weights
	k.TrainX = state.TrainX
	k.TrainY = state.TrainY
	k.NFeatures = state.NFeatures
	k.state = model.NewStateManager()
	if state.Fitted {
		k.state.SetDimensions(state.NFeatures, len(state.TrainX))
		k.state.SetFitted()
	}
	return nil
}
