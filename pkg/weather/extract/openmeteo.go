package extract

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/weather/domain/entity"
)

// hourlyMetrics は Open-Meteo へ要求する時間ごとのメトリクスです。
// Transformer が期待する並列配列とちょうど対応します。
const hourlyMetrics = "temperature_2m,relative_humidity_2m,wind_speed_10m"

// FetchForecast は Open-Meteo の予報エンドポイントから raw JSON を取得します。
// レスポンスは保存用にそのまま返し、デコード結果は形の検証とログにのみ使用します。
func FetchForecast(ctx context.Context, client *Client, endpoint string, loc config.LocationConfig) ([]byte, *entity.OpenMeteoForecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	q.Set("hourly", hourlyMetrics)
	q.Set("timezone", "auto")

	body, err := client.Get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}

	var forecast entity.OpenMeteoForecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, nil, exception.NewBatchError("extractor", "予報レスポンスのデコードに失敗しました", err, exception.KindSchema)
	}
	return body, &forecast, nil
}
