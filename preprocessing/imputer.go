package preprocessing

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/gridhouse/core/parallel"
	"github.com/YuminosukeSato/gridhouse/dataset"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// DefaultNeighbors は近傍数の既定値
const DefaultNeighbors = 5

// KNNImputer は欠損値補完器。数値カラムはk近傍の平均で、カテゴリカラムは
// 訓練データの最頻値で埋める。
//
// FitImputerで訓練データからのみ構築され、以後は不変。検証・テストには
// 同一インスタンスのTransformを適用する（分割ごとの再fitはAPI上到達不能）。
type KNNImputer struct {
	k      int
	schema *dataset.Schema

	// 数値カラムのスキーマ上の位置
	numericCols []int

	// 訓練行の数値ビュー（欠損はNaN）。近傍探索の参照元
	trainRows [][]float64

	// 距離正規化と近傍ゼロ件時のフォールバックに使う観測統計
	colMeans  []float64
	colScales []float64

	// カテゴリカラム位置 → 最頻値（同数の場合は辞書順最小）
	modes map[int]string
}

// FitImputer は訓練データから補完器を学習する
//
// エラー:
//   - EmptyColumnError: 全行が欠損しているカラムが存在する
//   - DegenerateInputError: 数値カラムの観測行数が近傍数を下回る
func FitImputer(train *dataset.Table, k int) (*KNNImputer, error) {
	if k < 1 {
		return nil, errors.NewValidationError("n_neighbors", "must be at least 1", k)
	}
	if train.NumRows() == 0 {
		return nil, errors.NewModelError("FitImputer", "empty data", errors.ErrEmptyData)
	}

	schema := train.Schema()
	numericCols := train.NumericColumns()
	n := train.NumRows()

	// 数値ビューの構築と観測数の検査
	trainRows := make([][]float64, n)
	for i := range trainRows {
		trainRows[i] = make([]float64, len(numericCols))
		for jj, col := range numericCols {
			v := train.At(i, col)
			if v.Missing {
				trainRows[i][jj] = math.NaN()
			} else {
				trainRows[i][jj] = v.Num
			}
		}
	}

	colMeans := make([]float64, len(numericCols))
	colScales := make([]float64, len(numericCols))
	for jj, col := range numericCols {
		var sum float64
		observed := 0
		for i := 0; i < n; i++ {
			if !math.IsNaN(trainRows[i][jj]) {
				sum += trainRows[i][jj]
				observed++
			}
		}
		if observed == 0 {
			return nil, errors.NewEmptyColumnError("FitImputer", schema.Columns[col].Name)
		}
		if observed < k {
			return nil, errors.NewDegenerateInputError("FitImputer",
				"observed rows in column "+schema.Columns[col].Name+" fewer than neighbors", k, observed)
		}
		colMeans[jj] = sum / float64(observed)

		var sumSq float64
		for i := 0; i < n; i++ {
			if !math.IsNaN(trainRows[i][jj]) {
				d := trainRows[i][jj] - colMeans[jj]
				sumSq += d * d
			}
		}
		colScales[jj] = math.Sqrt(sumSq / float64(observed))
		if colScales[jj] < 1e-8 {
			colScales[jj] = 1.0
		}
	}

	// カテゴリカラムの最頻値
	modes := make(map[int]string)
	for _, col := range train.CategoricalColumns() {
		counts := make(map[string]int)
		for i := 0; i < n; i++ {
			v := train.At(i, col)
			if !v.Missing {
				counts[v.Token]++
			}
		}
		if len(counts) == 0 {
			return nil, errors.NewEmptyColumnError("FitImputer", schema.Columns[col].Name)
		}

		tokens := make([]string, 0, len(counts))
		for tok := range counts {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		mode := tokens[0]
		for _, tok := range tokens[1:] {
			if counts[tok] > counts[mode] {
				mode = tok
			}
		}
		modes[col] = mode
	}

	return &KNNImputer{
		k:           k,
		schema:      schema,
		numericCols: numericCols,
		trainRows:   trainRows,
		colMeans:    colMeans,
		colScales:   colScales,
		modes:       modes,
	}, nil
}

// K は近傍数を返す
func (imp *KNNImputer) K() int {
	return imp.k
}

// Transform は欠損セルを埋めた新しいTableを返す。入力は変更しない。
//
// 数値の欠損は、対象行と訓練行の双方で観測されている数値カラム上の
// 正規化ユークリッド距離でk近傍を選び、その平均で埋める。距離が同値の
// 場合は訓練行インデックスの小さい方を優先する（決定論的）。
// 対象行と重なる観測カラムが一つもない訓練行は候補から除外し、候補が
// 尽きた場合は訓練時のカラム平均で埋める。
// カテゴリの欠損は訓練時の最頻値で埋める。対象データから学習は行わない
func (imp *KNNImputer) Transform(t *dataset.Table) (*dataset.Table, error) {
	if err := imp.checkSchema(t); err != nil {
		return nil, err
	}

	n := t.NumRows()
	outRows := make([][]dataset.Value, n)

	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			outRows[i] = imp.imputeRow(t, i)
		}
	})

	return dataset.NewTable(t.Schema(), outRows)
}

func (imp *KNNImputer) imputeRow(t *dataset.Table, r int) []dataset.Value {
	row := t.Row(r)

	// 対象行の数値ビュー
	query := make([]float64, len(imp.numericCols))
	for jj, col := range imp.numericCols {
		v := row[col]
		if v.Missing {
			query[jj] = math.NaN()
		} else {
			query[jj] = v.Num
		}
	}

	for jj, col := range imp.numericCols {
		if !math.IsNaN(query[jj]) {
			continue
		}
		row[col] = dataset.Num(imp.imputeNumeric(query, jj))
	}

	for col, mode := range imp.modes {
		if row[col].Missing {
			row[col] = dataset.Cat(mode)
		}
	}

	return row
}

type neighbor struct {
	index    int
	distance float64
}

// imputeNumeric はtargetカラムの値をk近傍平均で推定する
func (imp *KNNImputer) imputeNumeric(query []float64, target int) float64 {
	candidates := make([]neighbor, 0, len(imp.trainRows))

	for i, trainRow := range imp.trainRows {
		// 対象カラムが観測されていない行は根拠にならない
		if math.IsNaN(trainRow[target]) {
			continue
		}

		var sumSq float64
		shared := 0
		for jj := range imp.numericCols {
			if jj == target {
				continue
			}
			if math.IsNaN(query[jj]) || math.IsNaN(trainRow[jj]) {
				continue
			}
			d := (query[jj] - trainRow[jj]) / imp.colScales[jj]
			sumSq += d * d
			shared++
		}
		if shared == 0 {
			continue
		}
		// 観測カラム数で補正した平均距離（カラム数の差で不利にならないように）
		candidates = append(candidates, neighbor{index: i, distance: math.Sqrt(sumSq / float64(shared))})
	}

	if len(candidates) == 0 {
		return imp.colMeans[target]
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].distance != candidates[b].distance {
			return candidates[a].distance < candidates[b].distance
		}
		// 同距離は行インデックスの小さい方を優先
		return candidates[a].index < candidates[b].index
	})

	k := imp.k
	if k > len(candidates) {
		k = len(candidates)
	}

	var sum float64
	for _, nb := range candidates[:k] {
		sum += imp.trainRows[nb.index][target]
	}
	return sum / float64(k)
}

func (imp *KNNImputer) checkSchema(t *dataset.Table) error {
	return dataset.CheckSchemas("KNNImputer.Transform", imp.schema, t.Schema())
}
