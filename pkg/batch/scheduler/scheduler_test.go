package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxbatch/pkg/batch/scheduler"
	"wxbatch/pkg/batch/util/exception"
)

func TestNew_ValidSpec(t *testing.T) {
	tests := []string{
		"0 6 * * *",    // 毎日 06:00
		"*/15 * * * *", // 15 分おき
		"@hourly",
		"@every 30m",
	}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			s, err := scheduler.New(spec, time.UTC, func(ctx context.Context) {})
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

// タイムゾーン未指定 (nil) はシステムローカルにフォールバックする。
func TestNew_NilLocation(t *testing.T) {
	s, err := scheduler.New("@hourly", nil, func(ctx context.Context) {})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := scheduler.New("every morning", time.UTC, func(ctx context.Context) {})
	assert.Error(t, err)
	assert.True(t, exception.IsConfiguration(err), "不正な cron 式は KindConfiguration で失敗すること")
}
