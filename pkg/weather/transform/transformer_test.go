package transform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/weather/domain/entity"
	"wxbatch/pkg/weather/staging"
	"wxbatch/pkg/weather/transform"
)

func ptr(v float64) *float64 { return &v }

func sampleForecast() *entity.OpenMeteoForecast {
	return &entity.OpenMeteoForecast{
		Latitude:  47.4979,
		Longitude: 19.0402,
		Timezone:  "Europe/Budapest",
		Hourly: entity.Hourly{
			Time:               []string{"2026-08-30T00:00", "2026-08-30T01:00", "2026-08-30T02:00"},
			Temperature2M:      []*float64{ptr(21.5), nil, ptr(19.8)},
			RelativeHumidity2M: []*float64{ptr(60), ptr(58), nil},
			WindSpeed10M:       []*float64{ptr(12.3), ptr(10.1), ptr(9.7)},
		},
	}
}

func TestRecords(t *testing.T) {
	extractedAt := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	records, err := transform.Records(sampleForecast(), "Budapest", extractedAt)
	require.NoError(t, err)
	require.Len(t, records, 3, "時間インデックスごとに 1 レコード")

	// ソースの順序が保存される
	assert.Equal(t, "2026-08-30T00:00", records[0].Time)
	assert.Equal(t, "2026-08-30T01:00", records[1].Time)
	assert.Equal(t, "2026-08-30T02:00", records[2].Time)

	// 欠測 (null) はセンチネルのまま保持され、ゼロへは変換されない
	assert.Nil(t, records[1].TemperatureC)
	assert.Nil(t, records[2].HumidityPercent)
	assert.Equal(t, ptr(21.5), records[0].TemperatureC)

	// city と extracted_at は全レコードで共有される
	for _, r := range records {
		assert.Equal(t, "Budapest", r.City)
		assert.Equal(t, "2026-08-30T06:00:00", r.ExtractedAt)
	}
}

// 同一入力に対する変換は決定的 (extracted_at を固定すれば完全に一致する)。
func TestRecords_Deterministic(t *testing.T) {
	extractedAt := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	first, err := transform.Records(sampleForecast(), "Budapest", extractedAt)
	require.NoError(t, err)
	second, err := transform.Records(sampleForecast(), "Budapest", extractedAt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecords_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.OpenMeteoForecast)
	}{
		{
			name:   "Missing Time Array",
			mutate: func(f *entity.OpenMeteoForecast) { f.Hourly.Time = nil },
		},
		{
			name:   "Missing Temperature Array",
			mutate: func(f *entity.OpenMeteoForecast) { f.Hourly.Temperature2M = nil },
		},
		{
			name:   "Length Mismatch",
			mutate: func(f *entity.OpenMeteoForecast) { f.Hourly.WindSpeed10M = f.Hourly.WindSpeed10M[:2] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleForecast()
			tt.mutate(doc)

			_, err := transform.Records(doc, "Budapest", time.Now())
			assert.Error(t, err)
			assert.True(t, exception.IsSchema(err), "KindSchema のエラーであること: %v", err)
		})
	}
}

func newTestTransformer(dir string) *transform.Transformer {
	return transform.NewTransformer(
		config.LocationConfig{City: "Budapest", Latitude: 47.4979, Longitude: 19.0402},
		config.FilesConfig{
			DataDir:      dir,
			ManifestPath: filepath.Join(dir, "manifest.json"),
			StagedPath:   filepath.Join(dir, "staged_weather.csv"),
		},
	)
}

func TestRun_ExplicitInput(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw_weather_20260830_060000.json")
	raw := `{
		"latitude": 47.4979, "longitude": 19.0402, "timezone": "Europe/Budapest",
		"hourly": {
			"time": ["2026-08-30T00:00", "2026-08-30T01:00"],
			"temperature_2m": [21.5, null],
			"relative_humidity_2m": [60, 58],
			"wind_speed_10m": [12.3, 10.1]
		}
	}`
	require.NoError(t, os.WriteFile(rawPath, []byte(raw), 0o644))

	tr := newTestTransformer(dir)
	require.NoError(t, tr.Run(context.Background(), rawPath))

	records, err := staging.ReadFile(filepath.Join(dir, "staged_weather.csv"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-08-30T00:00", records[0].Time)
	assert.Nil(t, records[1].TemperatureC, "JSON の null が欠測センチネルのまま伝播すること")
}

// マニフェスト不在時は最新ファイル規約へフォールバックする。
func TestRun_LatestFileFallback(t *testing.T) {
	dir := t.TempDir()
	old := `{"hourly": {"time": ["2026-08-29T00:00"], "temperature_2m": [15], "relative_humidity_2m": [70], "wind_speed_10m": [5]}}`
	latest := `{"hourly": {"time": ["2026-08-30T00:00"], "temperature_2m": [21.5], "relative_humidity_2m": [60], "wind_speed_10m": [12.3]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_weather_20260829_060000.json"), []byte(old), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_weather_20260830_060000.json"), []byte(latest), 0o644))

	tr := newTestTransformer(dir)
	require.NoError(t, tr.Run(context.Background(), ""))

	records, err := staging.ReadFile(filepath.Join(dir, "staged_weather.csv"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-08-30T00:00", records[0].Time, "最新の raw ファイルが選択されること")
}

func TestRun_InputNotFound(t *testing.T) {
	dir := t.TempDir()
	tr := newTestTransformer(dir)

	err := tr.Run(context.Background(), "")
	assert.Error(t, err)
	assert.True(t, exception.IsNotFound(err))
	assert.NoFileExists(t, filepath.Join(dir, "staged_weather.csv"), "失敗したランはステージファイルを残さないこと")
}

func TestRun_InvalidRawDocument(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw_weather_20260830_060000.json")
	require.NoError(t, os.WriteFile(rawPath, []byte("{broken"), 0o644))

	tr := newTestTransformer(dir)
	err := tr.Run(context.Background(), rawPath)
	assert.Error(t, err)
	assert.True(t, exception.IsSchema(err))
	assert.NoFileExists(t, filepath.Join(dir, "staged_weather.csv"))
}
