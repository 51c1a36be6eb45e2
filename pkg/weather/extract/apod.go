package extract

import (
	"context"
	"encoding/json"
	"net/url"

	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/weather/domain/entity"
)

// FetchAPOD は NASA APOD エンドポイントから当日の天体画像レコードを取得します。
// レスポンスは保存用にそのまま返します。
func FetchAPOD(ctx context.Context, client *Client, endpoint, apiKey string) ([]byte, *entity.APODEntry, error) {
	q := url.Values{}
	q.Set("api_key", apiKey)

	body, err := client.Get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}

	var apod entity.APODEntry
	if err := json.Unmarshal(body, &apod); err != nil {
		return nil, nil, exception.NewBatchError("extractor", "APOD レスポンスのデコードに失敗しました", err, exception.KindSchema)
	}
	return body, &apod, nil
}
