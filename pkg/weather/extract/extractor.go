package extract

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/manifest"
)

// Extractor は外部 API から raw JSON を取得し、日付付きファイルとして保存するコンポーネントです。
// 変換も検証も行わず、レスポンスをそのまま永続化します。
type Extractor struct {
	cfg      config.ExtractConfig
	location config.LocationConfig
	files    config.FilesConfig
	client   *Client
	now      func() time.Time
}

// NewExtractor は新しい Extractor のインスタンスを作成します。
// 設定が不足している場合は KindConfiguration のエラーを返します (ステージは開始されない)。
func NewExtractor(cfg config.ExtractConfig, location config.LocationConfig, files config.FilesConfig) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:      cfg,
		location: location,
		files:    files,
		client:   NewClient(cfg),
		now:      time.Now,
	}, nil
}

// Run は天気予報と APOD を取得し、raw ファイルとマニフェストを書き出します。
// 最初のエラーでラン全体を失敗させます。
func (e *Extractor) Run(ctx context.Context) error {
	if err := os.MkdirAll(e.files.DataDir, 0o755); err != nil {
		return exception.NewBatchError("extractor", "データディレクトリの作成に失敗しました: "+e.files.DataDir, err, exception.KindGeneric)
	}

	m := manifest.New()
	now := e.now()

	// 天気予報の取得と保存
	rawWeather, forecast, err := FetchForecast(ctx, e.client, e.cfg.WeatherEndpoint, e.location)
	if err != nil {
		return err
	}
	weatherPath := filepath.Join(e.files.DataDir, "raw_weather_"+now.Format("20060102_150405")+".json")
	if err := os.WriteFile(weatherPath, rawWeather, 0o644); err != nil {
		return exception.NewBatchError("extractor", "raw ファイルの書き込みに失敗しました: "+weatherPath, err, exception.KindGeneric)
	}
	m.RawWeatherPath = weatherPath
	logger.Infof("天気予報を保存しました: %s (%d 時間分, timezone=%s)",
		weatherPath, len(forecast.Hourly.Time), forecast.Timezone)

	// APOD の取得と保存 (エンドポイントが設定されている場合のみ)
	if e.cfg.APODEndpoint != "" {
		rawAPOD, apod, err := FetchAPOD(ctx, e.client, e.cfg.APODEndpoint, e.cfg.APODAPIKey)
		if err != nil {
			return err
		}
		apodPath := filepath.Join(e.files.DataDir, "apod_"+now.Format("20060102")+".json")
		if err := os.WriteFile(apodPath, rawAPOD, 0o644); err != nil {
			return exception.NewBatchError("extractor", "APOD ファイルの書き込みに失敗しました: "+apodPath, err, exception.KindGeneric)
		}
		m.APODPath = apodPath
		logger.Infof("APOD を保存しました: %s (%s)", apodPath, apod.Title)
	}

	if err := m.Save(e.files.ManifestPath); err != nil {
		return err
	}
	logger.Infof("Extract が完了しました。run_id=%s", m.RunID)
	return nil
}
