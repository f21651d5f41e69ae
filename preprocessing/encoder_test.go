package preprocessing

import (
	"reflect"
	"testing"

	"github.com/YuminosukeSato/gridhouse/dataset"
	"github.com/YuminosukeSato/gridhouse/pkg/errors"
)

func encoderSchema(t *testing.T) *dataset.Schema {
	t.Helper()
	schema, err := dataset.NewSchema([]dataset.Column{
		{Name: "lot_area", Type: dataset.Numeric},
		{Name: "neighborhood", Type: dataset.Categorical},
		{Name: "quality", Type: dataset.Categorical},
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return schema
}

func TestFitEncoderRejectsMissing(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.NA(), dataset.Cat("good")},
	})
	if _, err := FitEncoder(train); err == nil {
		t.Error("FitEncoder() should reject tables with missing cells")
	}
}

func TestEncoderDropFirstLexicographic(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("Veenker"), dataset.Cat("good")},
		{dataset.Num(2), dataset.Cat("CollgCr"), dataset.Cat("poor")},
		{dataset.Num(3), dataset.Cat("Mitchel"), dataset.Cat("good")},
	})

	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	// 辞書順最小のカテゴリ(CollgCr, good)が落とされる
	wantNames := []string{
		"lot_area",
		"neighborhood=Mitchel",
		"neighborhood=Veenker",
		"quality=poor",
	}
	if got := enc.FeatureNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("FeatureNames() = %v, want %v", got, wantNames)
	}
	if enc.Width() != 4 {
		t.Errorf("Width() = %d, want 4", enc.Width())
	}
}

func TestEncoderTransform(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(8000), dataset.Cat("CollgCr"), dataset.Cat("good")},
		{dataset.Num(9000), dataset.Cat("Veenker"), dataset.Cat("poor")},
	})

	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	X, err := enc.Transform(train)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	rows, cols := X.Dims()
	if rows != 2 || cols != enc.Width() {
		t.Fatalf("Dims() = (%d,%d), want (2,%d)", rows, cols, enc.Width())
	}

	// 列: lot_area, neighborhood=Veenker, quality=poor
	want := [][]float64{
		{8000, 0, 0},
		{9000, 1, 1},
	}
	for i, row := range want {
		for j, v := range row {
			if X.At(i, j) != v {
				t.Errorf("X[%d][%d] = %v, want %v", i, j, X.At(i, j), v)
			}
		}
	}
}

func TestEncoderConstantWidth(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("CollgCr"), dataset.Cat("good")},
		{dataset.Num(2), dataset.Cat("Veenker"), dataset.Cat("poor")},
		{dataset.Num(3), dataset.Cat("Mitchel"), dataset.Cat("fair")},
	})
	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	// 訓練で見ていないカテゴリ混在の検証・テスト相当の表でも幅は一定
	tables := [][][]dataset.Value{
		{{dataset.Num(4), dataset.Cat("CollgCr"), dataset.Cat("good")}},
		{{dataset.Num(5), dataset.Cat("Edwards"), dataset.Cat("good")}},
		{
			{dataset.Num(6), dataset.Cat("Veenker"), dataset.Cat("excellent")},
			{dataset.Num(7), dataset.Cat("Mitchel"), dataset.Cat("poor")},
		},
	}
	for i, rows := range tables {
		tbl, _ := dataset.NewTable(schema, rows)
		X, err := enc.Transform(tbl)
		if err != nil {
			t.Fatalf("Transform() #%d error = %v", i, err)
		}
		if _, cols := X.Dims(); cols != enc.Width() {
			t.Errorf("table #%d: cols = %d, want %d", i, cols, enc.Width())
		}
	}
}

func TestEncoderUnseenCategoryZeroBlock(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("CollgCr"), dataset.Cat("good")},
		{dataset.Num(2), dataset.Cat("Veenker"), dataset.Cat("good")},
	})
	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	tbl, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(3), dataset.Cat("Edwards"), dataset.Cat("good")},
	})
	X, err := enc.Transform(tbl)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// neighborhoodの指示ブロック(列1)は全て0、エラーにはならない
	if X.At(0, 1) != 0 {
		t.Errorf("unseen category indicator = %v, want 0", X.At(0, 1))
	}
}

func TestEncoderMissingCellError(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("a"), dataset.Cat("b")},
	})
	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	tbl, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(2), dataset.NA(), dataset.Cat("b")},
	})
	_, err = enc.Transform(tbl)
	var valErr *errors.ValueError
	if !errors.As(err, &valErr) {
		t.Fatalf("Transform() error = %T, want *ValueError", err)
	}
}

func TestEncoderSchemaMismatch(t *testing.T) {
	schema := encoderSchema(t)
	train, _ := dataset.NewTable(schema, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("a"), dataset.Cat("b")},
	})
	enc, err := FitEncoder(train)
	if err != nil {
		t.Fatalf("FitEncoder() error = %v", err)
	}

	other, err := dataset.NewSchema([]dataset.Column{
		{Name: "lot_area", Type: dataset.Numeric},
		{Name: "neighborhood", Type: dataset.Categorical},
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	bad, _ := dataset.NewTable(other, [][]dataset.Value{
		{dataset.Num(1), dataset.Cat("a")},
	})

	_, err = enc.Transform(bad)
	var schemaErr *errors.SchemaMismatchError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Transform() error = %T, want *SchemaMismatchError", err)
	}
}
