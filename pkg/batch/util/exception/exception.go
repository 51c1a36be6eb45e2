package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind はバッチ処理中に発生するエラーの分類を表す型です。
// ステージの終了コードと継続可否の判定に使用します。
type Kind int

const (
	KindGeneric       Kind = iota // 分類されないエラー
	KindConfiguration             // 資格情報や設定の欠落・不正 (ステージ開始前に致命的)
	KindNotFound                  // 期待される入力ファイルの不在 (致命的)
	KindSchema                    // 入力の形が期待と一致しない (致命的、部分出力を残さない)
	KindConnection                // ネットワークまたはデータベースへの到達不能 (当該ステージで致命的)
	KindInsert                    // 単一バッチの挿入失敗 (記録して残りのバッチを継続)
)

// String は Kind の文字列表現を返します。
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNotFound:
		return "not_found"
	case KindSchema:
		return "schema"
	case KindConnection:
		return "connection"
	case KindInsert:
		return "insert"
	default:
		return "generic"
	}
}

// BatchError はバッチ処理中に発生するカスタムエラー型です。
// エラーの発生元モジュール、メッセージ、ラップされた元のエラー、
// そしてエラーの分類 (Kind) を保持します。
type BatchError struct {
	Module      string // エラーが発生したモジュール (例: "extractor", "transformer", "loader", "database")
	Message     string // エラーの簡潔な説明
	OriginalErr error  // ラップされた元のエラー
	Kind        Kind   // エラーの分類
	StackTrace  string // スタックトレース (デバッグ用)
}

// NewBatchError は新しい BatchError のインスタンスを作成します。
func NewBatchError(module, message string, originalErr error, kind Kind) *BatchError {
	// スタックトレースをキャプチャ (デバッグ用途)
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		Kind:        kind,
		StackTrace:  string(buf[:n]),
	}
}

// NewBatchErrorf はフォーマット文字列を使用して新しい BatchError のインスタンスを作成します。
func NewBatchErrorf(module string, kind Kind, format string, a ...any) *BatchError {
	return NewBatchError(module, fmt.Sprintf(format, a...), nil, kind)
}

// Error は error インターフェースの実装です。
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap は errors.Unwrap のために元のエラーを返します。
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsKind はエラーチェーンの中に指定された分類の BatchError が含まれるかを判定します。
func IsKind(err error, kind Kind) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// IsConfiguration は設定エラーかどうかを判定します。
func IsConfiguration(err error) bool { return IsKind(err, KindConfiguration) }

// IsNotFound は入力不在エラーかどうかを判定します。
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsSchema は入力形不一致エラーかどうかを判定します。
func IsSchema(err error) bool { return IsKind(err, KindSchema) }

// IsConnection は接続エラーかどうかを判定します。
func IsConnection(err error) bool { return IsKind(err, KindConnection) }

// IsInsert はバッチ挿入エラーかどうかを判定します。
func IsInsert(err error) bool { return IsKind(err, KindInsert) }
