// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// scikit-learnの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("gridhouse-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	パイプライン構造エラー
//
// ===========================================================================

// SchemaMismatchError は訓練・検証・テストのカラム構成が一致しない場合のエラーです。
// パイプライン全体を即座に中断すべき致命的エラーとして扱います。
type SchemaMismatchError struct {
	Op       string
	Missing  []string // 比較対象に存在しないカラム
	Extra    []string // 比較対象にのみ存在するカラム
	TypeDiff []string // 型が一致しないカラム
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("gridhouse: %s: schema mismatch (missing: %v, extra: %v, type mismatch: %v)",
		e.Op, e.Missing, e.Extra, e.TypeDiff)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("missing_columns", e.Missing).
		Strs("extra_columns", e.Extra).
		Strs("type_mismatch_columns", e.TypeDiff).
		Str("type", "SchemaMismatchError")
}

// NewSchemaMismatchError は新しいSchemaMismatchErrorを作成し、スタックトレースを付与します。
func NewSchemaMismatchError(op string, missing, extra, typeDiff []string) error {
	err := &SchemaMismatchError{Op: op, Missing: missing, Extra: extra, TypeDiff: typeDiff}
	return errors.WithStack(err)
}

// EmptyColumnError はカラムの全行が欠損しており補完の根拠が存在しない場合のエラーです。
// 全欠損のカテゴリカラムも同様に扱います（最頻値が定義できないため）。
type EmptyColumnError struct {
	Op     string
	Column string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("gridhouse: %s: column %q is entirely missing; nothing to impute from", e.Op, e.Column)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("type", "EmptyColumnError")
}

// NewEmptyColumnError は新しいEmptyColumnErrorを作成し、スタックトレースを付与します。
func NewEmptyColumnError(op, column string) error {
	err := &EmptyColumnError{Op: op, Column: column}
	return errors.WithStack(err)
}

// DegenerateInputError は有効な行数が近傍数を下回るなど、補完モデルの学習が
// 成立しない場合のエラーです。
type DegenerateInputError struct {
	Op        string
	Required  int
	Available int
	Detail    string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("gridhouse: %s: degenerate input: %s (required %d, available %d)",
		e.Op, e.Detail, e.Required, e.Available)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("required", e.Required).
		Int("available", e.Available).
		Str("detail", e.Detail).
		Str("type", "DegenerateInputError")
}

// NewDegenerateInputError は新しいDegenerateInputErrorを作成し、スタックトレースを付与します。
func NewDegenerateInputError(op, detail string, required, available int) error {
	err := &DegenerateInputError{Op: op, Detail: detail, Required: required, Available: available}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	評価指標エラー
//
// ===========================================================================

// InvalidTargetError は真値にゼロが含まれるなど、指標の定義域外の目的変数が
// 渡された場合のエラーです。MAPEは比率の分母に真値を使うため、ゼロを許容しません。
type InvalidTargetError struct {
	Metric string
	Index  int
	Value  float64
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("gridhouse: %s: invalid target value %g at index %d (ratio undefined)",
		e.Metric, e.Value, e.Index)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidTargetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("metric", e.Metric).
		Int("index", e.Index).
		Float64("value", e.Value).
		Str("type", "InvalidTargetError")
}

// NewInvalidTargetError は新しいInvalidTargetErrorを作成し、スタックトレースを付与します。
func NewInvalidTargetError(metric string, index int, value float64) error {
	err := &InvalidTargetError{Metric: metric, Index: index, Value: value}
	return errors.WithStack(err)
}

// DegenerateTargetError は目的変数が定数で全変動がゼロになり、指標が定義
// できない場合のエラーです（R²の分母が0）。
type DegenerateTargetError struct {
	Metric string
	Detail string
}

func (e *DegenerateTargetError) Error() string {
	return fmt.Sprintf("gridhouse: %s: degenerate target: %s", e.Metric, e.Detail)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateTargetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("metric", e.Metric).
		Str("detail", e.Detail).
		Str("type", "DegenerateTargetError")
}

// NewDegenerateTargetError は新しいDegenerateTargetErrorを作成し、スタックトレースを付与します。
func NewDegenerateTargetError(metric, detail string) error {
	err := &DegenerateTargetError{Metric: metric, Detail: detail}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	スイープ実行エラー
//
// ===========================================================================

// FitError はモデルがハイパーパラメータを拒否した、あるいは学習が発散した
// 場合のエラーです。スイープ全体は中断せず、失敗として記録して続行します。
type FitError struct {
	Family string
	Param  string
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("gridhouse: %s: fit failed for parameter %q: %s", e.Family, e.Param, e.Reason)
	}
	return fmt.Sprintf("gridhouse: %s: fit failed: %s", e.Family, e.Reason)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("family", e.Family).
		Str("param", e.Param).
		Str("reason", e.Reason).
		Str("type", "FitError")
}

// NewFitError は新しいFitErrorを作成し、スタックトレースを付与します。
func NewFitError(family, param, reason string, err error) error {
	fitErr := &FitError{Family: family, Param: param, Reason: reason, Err: err}
	return errors.WithStack(fitErr)
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("gridhouse: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("gridhouse: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gridhouse: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("gridhouse: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gridhouse: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gridhouse: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NotFoundError は記録された実験が見つからない場合のエラーです。
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gridhouse: %s with id %d not found", e.Kind, e.ID)
}

// NewNotFoundError は新しいNotFoundErrorを作成し、スタックトレースを付与します。
func NewNotFoundError(kind string, id int64) error {
	err := &NotFoundError{Kind: kind, ID: id}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
