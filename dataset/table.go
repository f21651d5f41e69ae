// Package dataset は住宅レコードの表形式データとカラム型スキーマを提供します。
// 欠損は明示的なマーカーで表現し、ゼロや空文字列で代用しません。
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gridhouse/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ColumnType はカラムの型分類（数値またはカテゴリ）
type ColumnType int

const (
	// Numeric は数値カラム
	Numeric ColumnType = iota
	// Categorical はカテゴリカラム
	Categorical
)

// String はColumnTypeの文字列表現を返す
func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Value はテーブルの1セル。数値・カテゴリトークン・欠損のいずれかを保持する
type Value struct {
	Num     float64
	Token   string
	Missing bool
}

// Num は数値セルを作成する
func Num(v float64) Value {
	return Value{Num: v}
}

// Cat はカテゴリセルを作成する
func Cat(token string) Value {
	return Value{Token: token}
}

// NA は欠損セルを作成する
func NA() Value {
	return Value{Missing: true}
}

// Column はスキーマ上の1カラム（名前と型）
type Column struct {
	Name string
	Type ColumnType
}

// Schema は取り込み時に確定するカラム構成。以後のすべての分割で同一でなければならない
type Schema struct {
	Columns []Column
	index   map[string]int
}

// NewSchema は新しいSchemaを作成する
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("NewSchema", "schema must have at least one column")
	}

	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, errors.NewValueError("NewSchema", "column name must not be empty")
		}
		if _, dup := index[col.Name]; dup {
			return nil, errors.NewValueError("NewSchema", "duplicate column name: "+col.Name)
		}
		index[col.Name] = i
	}

	return &Schema{Columns: columns, index: index}, nil
}

// ColumnIndex はカラム名から位置を返す。存在しない場合は-1
func (s *Schema) ColumnIndex(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Equal は2つのスキーマが同一のカラム名・型集合を持つかを判定する。
// カラムの並び順は比較に影響しない
func (s *Schema) Equal(other *Schema) bool {
	missing, extra, typeDiff := s.diff(other)
	return len(missing) == 0 && len(extra) == 0 && len(typeDiff) == 0
}

func (s *Schema) diff(other *Schema) (missing, extra, typeDiff []string) {
	for _, col := range s.Columns {
		j, ok := other.index[col.Name]
		if !ok {
			missing = append(missing, col.Name)
			continue
		}
		if other.Columns[j].Type != col.Type {
			typeDiff = append(typeDiff, col.Name)
		}
	}
	for _, col := range other.Columns {
		if _, ok := s.index[col.Name]; !ok {
			extra = append(extra, col.Name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(typeDiff)
	return missing, extra, typeDiff
}

// Table は固定スキーマ上の行の順序付き列。構築後は不変として扱う
type Table struct {
	schema *Schema
	rows   [][]Value
}

// NewTable は新しいTableを作成し、全行をスキーマに対して検証する
func NewTable(schema *Schema, rows [][]Value) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(schema.Columns) {
			return nil, errors.NewDimensionError("NewTable", len(schema.Columns), len(row), 1)
		}
		for j, v := range row {
			if v.Missing {
				continue
			}
			if schema.Columns[j].Type == Numeric && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
				return nil, errors.NewValueError("NewTable",
					"non-finite numeric value in row "+strconv.Itoa(i)+", column "+schema.Columns[j].Name)
			}
			if schema.Columns[j].Type == Categorical && v.Token == "" {
				return nil, errors.NewValueError("NewTable",
					"empty categorical token in row "+strconv.Itoa(i)+", column "+schema.Columns[j].Name+" (use NA() for missing)")
			}
		}
	}

	return &Table{schema: schema, rows: rows}, nil
}

// Schema はテーブルのスキーマを返す
func (t *Table) Schema() *Schema {
	return t.schema
}

// NumRows は行数を返す
func (t *Table) NumRows() int {
	return len(t.rows)
}

// At は行r・カラムcのセルを返す
func (t *Table) At(r, c int) Value {
	return t.rows[r][c]
}

// Row は行rのコピーを返す
func (t *Table) Row(r int) []Value {
	row := make([]Value, len(t.rows[r]))
	copy(row, t.rows[r])
	return row
}

// NumericColumns は数値カラムの位置をスキーマ順で返す
func (t *Table) NumericColumns() []int {
	var cols []int
	for i, col := range t.schema.Columns {
		if col.Type == Numeric {
			cols = append(cols, i)
		}
	}
	return cols
}

// CategoricalColumns はカテゴリカラムの位置をスキーマ順で返す
func (t *Table) CategoricalColumns() []int {
	var cols []int
	for i, col := range t.schema.Columns {
		if col.Type == Categorical {
			cols = append(cols, i)
		}
	}
	return cols
}

// MissingCells は欠損セルの総数を返す
func (t *Table) MissingCells() int {
	n := 0
	for _, row := range t.rows {
		for _, v := range row {
			if v.Missing {
				n++
			}
		}
	}
	return n
}

// CheckSchemas は2つのスキーマの一致を検証する。
// 不一致の場合はSchemaMismatchErrorを返す（パイプライン全体を中断すべき致命的エラー）
func CheckSchemas(op string, a, b *Schema) error {
	missing, extra, typeDiff := a.diff(b)
	if len(missing) > 0 || len(extra) > 0 || len(typeDiff) > 0 {
		return errors.NewSchemaMismatchError(op, missing, extra, typeDiff)
	}
	return nil
}

// CheckSchema は他テーブルとのスキーマ一致を検証する
func (t *Table) CheckSchema(other *Table) error {
	return CheckSchemas("CheckSchema", t.schema, other.schema)
}

// TargetVector は指定カラムを目的変数ベクトルとして取り出す。
// 対象は数値カラムであり、欠損を含んではならない
func (t *Table) TargetVector(name string) (*mat.VecDense, error) {
	idx := t.schema.ColumnIndex(name)
	if idx < 0 {
		return nil, errors.NewValueError("TargetVector", "unknown target column: "+name)
	}
	if t.schema.Columns[idx].Type != Numeric {
		return nil, errors.NewValueError("TargetVector", "target column must be numeric: "+name)
	}

	vec := mat.NewVecDense(len(t.rows), nil)
	for i, row := range t.rows {
		if row[idx].Missing {
			return nil, errors.NewValueError("TargetVector",
				"target column "+name+" has a missing value at row "+strconv.Itoa(i))
		}
		vec.SetVec(i, row[idx].Num)
	}
	return vec, nil
}

// DropColumn は指定カラムを除いた新しいTableを返す（目的変数の分離に使用）。
// 呼び出し元のTableは変更しない
func (t *Table) DropColumn(name string) (*Table, error) {
	idx := t.schema.ColumnIndex(name)
	if idx < 0 {
		return nil, errors.NewValueError("DropColumn", "unknown column: "+name)
	}

	cols := make([]Column, 0, len(t.schema.Columns)-1)
	for i, col := range t.schema.Columns {
		if i != idx {
			cols = append(cols, col)
		}
	}
	schema, err := NewSchema(cols)
	if err != nil {
		return nil, err
	}

	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		newRow := make([]Value, 0, len(row)-1)
		for j, v := range row {
			if j != idx {
				newRow = append(newRow, v)
			}
		}
		rows[i] = newRow
	}
	return &Table{schema: schema, rows: rows}, nil
}

// FromRecords は文字列レコードからTableを構築し、カラム型を推定する。
// 非欠損トークンのすべてが数値として解釈できるカラムは数値型、それ以外は
// カテゴリ型に分類する。空文字列と"NA"は欠損として扱う
func FromRecords(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, errors.NewValueError("FromRecords", "header must not be empty")
	}

	isNumeric := make([]bool, len(header))
	hasValue := make([]bool, len(header))
	for j := range header {
		isNumeric[j] = true
	}

	for _, rec := range records {
		if len(rec) != len(header) {
			return nil, errors.NewDimensionError("FromRecords", len(header), len(rec), 1)
		}
		for j, tok := range rec {
			if isMissingToken(tok) {
				continue
			}
			hasValue[j] = true
			if _, err := strconv.ParseFloat(tok, 64); err != nil {
				isNumeric[j] = false
			}
		}
	}

	columns := make([]Column, len(header))
	for j, name := range header {
		colType := Categorical
		// 値が一つも観測されないカラムは数値として分類しない
		if isNumeric[j] && hasValue[j] {
			colType = Numeric
		}
		columns[j] = Column{Name: name, Type: colType}
	}
	schema, err := NewSchema(columns)
	if err != nil {
		return nil, err
	}

	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(rec))
		for j, tok := range rec {
			if isMissingToken(tok) {
				row[j] = NA()
				continue
			}
			if columns[j].Type == Numeric {
				f, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, errors.NewValueError("FromRecords", "unparsable numeric token: "+tok)
				}
				row[j] = Num(f)
			} else {
				row[j] = Cat(tok)
			}
		}
		rows[i] = row
	}

	return NewTable(schema, rows)
}

func isMissingToken(tok string) bool {
	trimmed := strings.TrimSpace(tok)
	return trimmed == "" || trimmed == "NA"
}
