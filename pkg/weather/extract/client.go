package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// Client は外部 API への GET リクエストを発行する HTTP クライアントです。
// レートリミッタとサーキットブレーカでラップされており、リクエストタイムアウトを持ちます。
// 自動リトライは行いません。
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient は設定に基づいて新しい Client のインスタンスを作成します。
func NewClient(cfg config.ExtractConfig) *Client {
	settings := gobreaker.Settings{
		Name:    "extract-api",
		Timeout: time.Duration(cfg.Breaker.ResetTimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.Threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("サーキットブレーカ '%s' の状態が変化しました: %s -> %s", name, from, to)
		},
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.RequestTimeout()},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Get は指定 URL へ GET リクエストを発行し、レスポンスボディをそのまま返します。
// ネットワーク到達不能と非 200 レスポンスは KindConnection のエラーになります。
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	// レートリミッタの許可を待つ (Context キャンセルで中断可能)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, exception.NewBatchError("extract_client", "レートリミッタの待機が中断されました", err, exception.KindGeneric)
	}

	body, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, exception.NewBatchError("extract_client", "HTTP リクエストの作成に失敗しました", err, exception.KindGeneric)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, exception.NewBatchError("extract_client", "API 呼び出しに失敗しました", err, exception.KindConnection)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return nil, exception.NewBatchError("extract_client",
				fmt.Sprintf("API からエラーレスポンスが返されました: ステータスコード %d, ボディ: %s", resp.StatusCode, string(b)),
				nil, exception.KindConnection)
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, exception.NewBatchError("extract_client", "レスポンスボディの読み込みに失敗しました", err, exception.KindConnection)
		}
		return b, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, exception.NewBatchError("extract_client", "サーキットブレーカが開いています", err, exception.KindConnection)
		}
		return nil, err
	}
	return body.([]byte), nil
}
