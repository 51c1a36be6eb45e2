package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/weather/extract"
	"wxbatch/pkg/weather/manifest"
)

const forecastBody = `{
	"latitude": 47.4979, "longitude": 19.0402, "timezone": "Europe/Budapest",
	"hourly": {
		"time": ["2026-08-30T00:00", "2026-08-30T01:00"],
		"temperature_2m": [21.5, null],
		"relative_humidity_2m": [60, 58],
		"wind_speed_10m": [12.3, 10.1]
	}
}`

const apodBody = `{
	"date": "2026-08-30",
	"title": "The Horsehead Nebula",
	"explanation": "A dark nebula in Orion.",
	"media_type": "image",
	"url": "https://example.com/horsehead.jpg"
}`

func testExtractConfig(weatherURL, apodURL string) config.ExtractConfig {
	return config.ExtractConfig{
		WeatherEndpoint:       weatherURL,
		APODEndpoint:          apodURL,
		APODAPIKey:            "DEMO_KEY",
		RequestTimeoutSeconds: 5,
		RateLimitRPS:          1000, // テストではペーシングしない
		RateLimitBurst:        10,
		Breaker:               config.BreakerConfig{Threshold: 3, ResetTimeoutSeconds: 30},
	}
}

func testLocation() config.LocationConfig {
	return config.LocationConfig{City: "Budapest", Latitude: 47.4979, Longitude: 19.0402}
}

func TestFetchForecast(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"latitude":  r.URL.Query().Get("latitude"),
			"longitude": r.URL.Query().Get("longitude"),
			"hourly":    r.URL.Query().Get("hourly"),
			"timezone":  r.URL.Query().Get("timezone"),
		}
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	client := extract.NewClient(testExtractConfig(server.URL, ""))
	raw, forecast, err := extract.FetchForecast(context.Background(), client, server.URL, testLocation())
	require.NoError(t, err)

	// raw レスポンスはバイト列のまま保存用に返される
	assert.Equal(t, forecastBody, string(raw))
	assert.Equal(t, "Europe/Budapest", forecast.Timezone)
	require.Len(t, forecast.Hourly.Time, 2)
	assert.Nil(t, forecast.Hourly.Temperature2M[1], "JSON の null がセンチネルとしてデコードされること")

	// リクエストパラメータ
	assert.Equal(t, "47.4979", gotQuery["latitude"])
	assert.Equal(t, "19.0402", gotQuery["longitude"])
	assert.Equal(t, "temperature_2m,relative_humidity_2m,wind_speed_10m", gotQuery["hourly"])
	assert.Equal(t, "auto", gotQuery["timezone"])
}

func TestFetchForecast_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := extract.NewClient(testExtractConfig(server.URL, ""))
	_, _, err := extract.FetchForecast(context.Background(), client, server.URL, testLocation())
	assert.Error(t, err)
	assert.True(t, exception.IsSchema(err))
}

func TestClient_Get_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := extract.NewClient(testExtractConfig(server.URL, ""))
	_, err := client.Get(context.Background(), server.URL)
	assert.Error(t, err)
	assert.True(t, exception.IsConnection(err), "非 200 レスポンスは KindConnection になること")
}

// 連続失敗が閾値に達するとサーキットブレーカが開き、以降の呼び出しは即座に失敗する。
func TestClient_Get_BreakerOpens(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testExtractConfig(server.URL, "")
	cfg.Breaker.Threshold = 2
	client := extract.NewClient(cfg)

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		assert.Error(t, err)
	}

	// 閾値到達後はサーバへ到達せずに失敗する
	_, err := client.Get(context.Background(), server.URL)
	assert.Error(t, err)
	assert.True(t, exception.IsConnection(err))
	assert.Equal(t, 2, calls, "ブレーカ開放後はリクエストが発行されないこと")
}

func TestNewExtractor_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ExtractConfig)
	}{
		{
			name:   "Missing Weather Endpoint",
			mutate: func(c *config.ExtractConfig) { c.WeatherEndpoint = "" },
		},
		{
			name: "APOD Without API Key",
			mutate: func(c *config.ExtractConfig) {
				c.APODEndpoint = "https://api.nasa.gov/planetary/apod"
				c.APODAPIKey = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testExtractConfig("https://api.open-meteo.com/v1/forecast", "")
			tt.mutate(&cfg)

			_, err := extract.NewExtractor(cfg, testLocation(), config.FilesConfig{})
			assert.Error(t, err)
			assert.True(t, exception.IsConfiguration(err), "ステージ開始前に KindConfiguration で失敗すること")
		})
	}
}

func TestExtractor_Run(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/apod", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DEMO_KEY", r.URL.Query().Get("api_key"))
		w.Write([]byte(apodBody))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	files := config.FilesConfig{
		DataDir:      dir,
		ManifestPath: filepath.Join(dir, "manifest.json"),
		StagedPath:   filepath.Join(dir, "staged_weather.csv"),
	}

	e, err := extract.NewExtractor(testExtractConfig(server.URL+"/forecast", server.URL+"/apod"), testLocation(), files)
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))

	// raw 天気ファイルが日付付きの名前で保存される
	matches, err := filepath.Glob(filepath.Join(dir, "raw_weather_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, forecastBody, string(data), "レスポンスが変換なしでそのまま保存されること")

	// APOD ファイル
	apodMatches, err := filepath.Glob(filepath.Join(dir, "apod_*.json"))
	require.NoError(t, err)
	require.Len(t, apodMatches, 1)

	// マニフェストが次ステージへのハンドオフとして書き出される
	m, err := manifest.Load(files.ManifestPath)
	require.NoError(t, err)
	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, matches[0], m.RawWeatherPath)
	assert.Equal(t, apodMatches[0], m.APODPath)
}

func TestExtractor_Run_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	dir := t.TempDir()
	files := config.FilesConfig{DataDir: dir, ManifestPath: filepath.Join(dir, "manifest.json")}

	e, err := extract.NewExtractor(testExtractConfig(server.URL, ""), testLocation(), files)
	require.NoError(t, err)

	err = e.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, exception.IsConnection(err))
	assert.NoFileExists(t, files.ManifestPath, "失敗したランはマニフェストを残さないこと")
}
