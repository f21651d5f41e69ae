package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/gridhouse/dataset"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// OneHotEncoder はカテゴリカラムを0/1指示変数の固定幅ブロックに変換する。
//
// カテゴリはfit時に観測された値を辞書順に並べ、各カラムの先頭1カテゴリを
// 出力から落とす（常に合計1になる冗長なカラム群を避けるため）。
// fit時に未観測の値は該当ブロックを全ゼロとして扱い、エラーにしない。
//
// FitEncoderで補完済み訓練データからのみ構築され、以後は不変。
type OneHotEncoder struct {
	schema *dataset.Schema

	numericCols []int
	catCols     []int

	// カテゴリカラム位置 → 保持カテゴリ（辞書順、先頭1つを落とした後）
	retained map[int][]string
	// カテゴリカラム位置 → 落としたカテゴリ
	dropped map[int]string

	featureNames []string
	width        int
}

// FitEncoder は補完済み訓練データからエンコーダを学習する。
// 入力に欠損が残っている場合はエラー（Imputerを先に適用すること）
func FitEncoder(train *dataset.Table) (*OneHotEncoder, error) {
	if train.NumRows() == 0 {
		return nil, errors.NewModelError("FitEncoder", "empty data", errors.ErrEmptyData)
	}

	schema := train.Schema()
	numericCols := train.NumericColumns()
	catCols := train.CategoricalColumns()

	retained := make(map[int][]string, len(catCols))
	dropped := make(map[int]string, len(catCols))

	for _, col := range catCols {
		distinct := make(map[string]struct{})
		for i := 0; i < train.NumRows(); i++ {
			v := train.At(i, col)
			if v.Missing {
				return nil, errors.NewValueError("FitEncoder",
					"column "+schema.Columns[col].Name+" has missing values; impute before encoding")
			}
			distinct[v.Token] = struct{}{}
		}

		values := make([]string, 0, len(distinct))
		for tok := range distinct {
			values = append(values, tok)
		}
		sort.Strings(values)

		dropped[col] = values[0]
		retained[col] = values[1:]
	}

	enc := &OneHotEncoder{
		schema:      schema,
		numericCols: numericCols,
		catCols:     catCols,
		retained:    retained,
		dropped:     dropped,
	}

	enc.width = len(numericCols)
	for _, col := range catCols {
		enc.width += len(retained[col])
	}

	enc.featureNames = make([]string, 0, enc.width)
	for _, col := range numericCols {
		enc.featureNames = append(enc.featureNames, schema.Columns[col].Name)
	}
	for _, col := range catCols {
		for _, tok := range retained[col] {
			enc.featureNames = append(enc.featureNames, schema.Columns[col].Name+"="+tok)
		}
	}

	return enc, nil
}

// Width は出力行列の列数を返す。fit後は入力によらず一定
func (enc *OneHotEncoder) Width() int {
	return enc.width
}

// FeatureNames は出力列の名前を出力順で返す
func (enc *OneHotEncoder) FeatureNames() []string {
	names := make([]string, len(enc.featureNames))
	copy(names, enc.featureNames)
	return names
}

// Transform はテーブルを数値行列に変換する。
// 数値カラムをスキーマ順にそのまま並べ、続けてカテゴリカラムごとの
// 指示変数ブロックを並べる。列順は訓練・検証・テストで同一。
// 副作用はなく、同じ入力に対して常に同じ行列を返す
func (enc *OneHotEncoder) Transform(t *dataset.Table) (*mat.Dense, error) {
	if err := dataset.CheckSchemas("OneHotEncoder.Transform", enc.schema, t.Schema()); err != nil {
		return nil, err
	}

	n := t.NumRows()
	if n == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(n, enc.width, nil)

	for i := 0; i < n; i++ {
		j := 0
		for _, col := range enc.numericCols {
			v := t.At(i, col)
			if v.Missing {
				return nil, errors.NewValueError("OneHotEncoder.Transform",
					"column "+enc.schema.Columns[col].Name+" has missing values; impute before encoding")
			}
			out.Set(i, j, v.Num)
			j++
		}
		for _, col := range enc.catCols {
			v := t.At(i, col)
			if v.Missing {
				return nil, errors.NewValueError("OneHotEncoder.Transform",
					"column "+enc.schema.Columns[col].Name+" has missing values; impute before encoding")
			}
			// fit時未観測の値（落としたカテゴリ含む）はブロック全ゼロ
			for _, tok := range enc.retained[col] {
				if v.Token == tok {
					out.Set(i, j, 1)
				}
				j++
			}
		}
	}

	return out, nil
}
