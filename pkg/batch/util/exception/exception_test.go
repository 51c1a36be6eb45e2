package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"wxbatch/pkg/batch/util/exception"
)

func TestBatchError_KindPredicates(t *testing.T) {
	tests := []struct {
		name      string
		kind      exception.Kind
		predicate func(error) bool
	}{
		{"Configuration", exception.KindConfiguration, exception.IsConfiguration},
		{"NotFound", exception.KindNotFound, exception.IsNotFound},
		{"Schema", exception.KindSchema, exception.IsSchema},
		{"Connection", exception.KindConnection, exception.IsConnection},
		{"Insert", exception.KindInsert, exception.IsInsert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exception.NewBatchErrorf("test", tt.kind, "エラー発生")
			assert.True(t, tt.predicate(err))

			// 他の分類の述語は偽になる
			for _, other := range tests {
				if other.kind != tt.kind {
					assert.False(t, other.predicate(err), "Kind %s に対して %s の述語が真になった", tt.kind, other.kind)
				}
			}
		})
	}
}

// TestBatchError_WrappedChain はラップされたエラーチェーン越しの分類判定をテストします。
func TestBatchError_WrappedChain(t *testing.T) {
	original := errors.New("connection refused")
	be := exception.NewBatchError("loader", "データベースへの接続に失敗しました", original, exception.KindConnection)
	wrapped := fmt.Errorf("ステージが失敗しました: %w", be)

	assert.True(t, exception.IsConnection(wrapped))
	assert.True(t, errors.Is(wrapped, original), "errors.Is が元のエラーまで到達すること")

	var target *exception.BatchError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "loader", target.Module)
	assert.Equal(t, exception.KindConnection, target.Kind)
	assert.NotEmpty(t, target.StackTrace)
}

func TestBatchError_ErrorMessage(t *testing.T) {
	withOriginal := exception.NewBatchError("extractor", "API 呼び出しに失敗しました", errors.New("timeout"), exception.KindConnection)
	assert.Equal(t, "[extractor] API 呼び出しに失敗しました: timeout", withOriginal.Error())

	withoutOriginal := exception.NewBatchErrorf("config", exception.KindConfiguration, "API キーが未設定です")
	assert.Equal(t, "[config] API キーが未設定です", withoutOriginal.Error())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "configuration", exception.KindConfiguration.String())
	assert.Equal(t, "not_found", exception.KindNotFound.String())
	assert.Equal(t, "schema", exception.KindSchema.String())
	assert.Equal(t, "connection", exception.KindConnection.String())
	assert.Equal(t, "insert", exception.KindInsert.String())
	assert.Equal(t, "generic", exception.KindGeneric.String())
}

// IsKind は BatchError 以外のエラーに対して常に偽を返します。
func TestIsKind_NonBatchError(t *testing.T) {
	assert.False(t, exception.IsKind(errors.New("plain"), exception.KindConnection))
	assert.False(t, exception.IsKind(nil, exception.KindConnection))
}
