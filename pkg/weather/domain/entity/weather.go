package entity

import (
	"database/sql"
	"time"
)

// Hourly は Open-Meteo API から取得する時間ごとの天気予報データを表す構造体です。
// 各スライスは同一長の並列配列で、同じインデックスが同じ時刻を指します。
// 欠測値は null で届くため、メトリクスはポインタで保持します (ゼロへの暗黙変換を避ける)。
type Hourly struct {
	Time               []string   `json:"time"`
	Temperature2M      []*float64 `json:"temperature_2m"`
	RelativeHumidity2M []*float64 `json:"relative_humidity_2m"`
	WindSpeed10M       []*float64 `json:"wind_speed_10m"`
}

// OpenMeteoForecast は Open-Meteo API から取得する生の天気予報データを表す構造体です。
type OpenMeteoForecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    Hourly  `json:"hourly"`
}

// WeatherRecord はステージングされたテーブルの 1 行を表す構造体です。
// Time と ExtractedAt は ISO-8601 文字列のまま保持し、型変換は Load ステージで行います。
// 欠測メトリクスは nil (ステージファイル上は空フィールド) で表現します。
type WeatherRecord struct {
	Time            string
	TemperatureC    *float64
	HumidityPercent *float64
	WindSpeedKmph   *float64
	City            string
	ExtractedAt     string
}

// HourlyWeatherRow は宛先テーブル hourly_weather へ挿入する 1 行を表す構造体です。
// 欠測メトリクスは明示的な NULL として挿入します。
type HourlyWeatherRow struct {
	Time            time.Time
	TemperatureC    sql.NullFloat64
	HumidityPercent sql.NullFloat64
	WindSpeedKmph   sql.NullFloat64
	City            string
	ExtractedAt     time.Time
}
