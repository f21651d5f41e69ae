package dataset

import (
	"math/rand"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

// DefaultTrainRatio は訓練側の既定の比率
const DefaultTrainRatio = 0.8

// Split はテーブルを決定論的に訓練・検証の2つに分割する。
// ratio は訓練側の比率。同じseedに対して常に同一の分割を返す
func (t *Table) Split(ratio float64, seed int64) (train, validation *Table, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, errors.NewValidationError("ratio", "must be in (0, 1)", ratio)
	}
	n := len(t.rows)
	if n < 2 {
		return nil, nil, errors.NewValueError("Split", "need at least 2 rows to split")
	}

	nTrain := int(float64(n) * ratio)
	if nTrain == 0 {
		nTrain = 1
	}
	if nTrain == n {
		nTrain = n - 1
	}

	// 固定seedのFisher-Yatesシャッフル。rand.Permの実装変更に依存しないよう
	// 自前で並べ替える
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	trainRows := make([][]Value, 0, nTrain)
	valRows := make([][]Value, 0, n-nTrain)
	for i, p := range perm {
		if i < nTrain {
			trainRows = append(trainRows, t.rows[p])
		} else {
			valRows = append(valRows, t.rows[p])
		}
	}

	train = &Table{schema: t.schema, rows: trainRows}
	validation = &Table{schema: t.schema, rows: valRows}
	return train, validation, nil
}
