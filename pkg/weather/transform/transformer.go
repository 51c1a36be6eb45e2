package transform

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
	"wxbatch/pkg/weather/manifest"
	"wxbatch/pkg/weather/staging"
)

// rawWeatherPattern は raw ファイルの命名規約です。マニフェスト不在時の最新ファイル選択に使用します。
const rawWeatherPattern = "raw_weather_*.json"

// extractedAtLayout は extracted_at に使用する ISO-8601 (オフセット無し) のレイアウトです。
const extractedAtLayout = "2006-01-02T15:04:05"

// Transformer は raw 天気ドキュメントを読み込み、並列配列を行指向の WeatherRecord へ
// 再形成してステージ CSV として書き出すコンポーネントです。
type Transformer struct {
	location config.LocationConfig
	files    config.FilesConfig
	now      func() time.Time
}

// NewTransformer は新しい Transformer のインスタンスを作成します。
func NewTransformer(location config.LocationConfig, files config.FilesConfig) *Transformer {
	return &Transformer{
		location: location,
		files:    files,
		now:      time.Now,
	}
}

// Run は入力を解決し、変換を実行してステージファイルを書き出します。
// inputPath が空の場合はマニフェスト、次いで最新ファイル名パターンから入力を解決します。
// いずれのエラーもラン全体を失敗させます (部分的なステージファイルは残らない)。
func (t *Transformer) Run(ctx context.Context, inputPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m, path, err := t.resolveInput(inputPath)
	if err != nil {
		return err
	}
	logger.Infof("Transform を開始します。入力: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return exception.NewBatchError("transformer", "raw ファイルが存在しません: "+path, err, exception.KindNotFound)
		}
		return exception.NewBatchError("transformer", "raw ファイルの読み込みに失敗しました: "+path, err, exception.KindGeneric)
	}

	var doc entity.OpenMeteoForecast
	if err := json.Unmarshal(data, &doc); err != nil {
		return exception.NewBatchError("transformer", "raw ドキュメントのデコードに失敗しました: "+path, err, exception.KindSchema)
	}

	records, err := Records(&doc, t.location.City, t.now())
	if err != nil {
		return err
	}

	if err := staging.WriteFile(t.files.StagedPath, records); err != nil {
		return err
	}
	logger.Infof("ステージファイルを書き出しました: %s (%d レコード)", t.files.StagedPath, len(records))

	// マニフェスト経由のランであればステージファイルのパスを追記する
	if m != nil {
		m.StagedPath = t.files.StagedPath
		if err := m.Save(t.files.ManifestPath); err != nil {
			return err
		}
	}
	return nil
}

// resolveInput は raw ファイルのパスを 明示指定 > マニフェスト > 最新ファイル規約 の順で解決します。
func (t *Transformer) resolveInput(inputPath string) (*manifest.Manifest, string, error) {
	if inputPath != "" {
		return nil, inputPath, nil
	}

	m, err := manifest.Load(t.files.ManifestPath)
	if err == nil && m.RawWeatherPath != "" {
		return m, m.RawWeatherPath, nil
	}
	if err != nil && !exception.IsNotFound(err) {
		return nil, "", err
	}

	logger.Debugf("マニフェストが利用できないため、最新ファイル規約で入力を解決します。")
	path, err := manifest.LatestByPattern(t.files.DataDir, rawWeatherPattern)
	if err != nil {
		return nil, "", err
	}
	return nil, path, nil
}

// Records は raw ドキュメントを WeatherRecord の順序付き列へ変換します。
// hourly 配列が欠落または長さ不一致の場合は KindSchema のエラーを返します。
// 時間インデックスごとに 1 レコードを生成し、元の順序を保存します。
// 欠測値 (null) はセンチネルのまま保持され、ゼロへの変換は行いません。
func Records(doc *entity.OpenMeteoForecast, city string, extractedAt time.Time) ([]entity.WeatherRecord, error) {
	h := doc.Hourly
	if h.Time == nil || h.Temperature2M == nil || h.RelativeHumidity2M == nil || h.WindSpeed10M == nil {
		return nil, exception.NewBatchErrorf("transformer", exception.KindSchema,
			"hourly ブロックに期待される配列が欠落しています")
	}
	n := len(h.Time)
	if len(h.Temperature2M) != n || len(h.RelativeHumidity2M) != n || len(h.WindSpeed10M) != n {
		return nil, exception.NewBatchErrorf("transformer", exception.KindSchema,
			"hourly 配列の長さが一致しません: time=%d temperature=%d humidity=%d wind=%d",
			n, len(h.Temperature2M), len(h.RelativeHumidity2M), len(h.WindSpeed10M))
	}

	// extracted_at はラン内の全レコードで共有される単一のタイムスタンプ
	extractedAtStr := extractedAt.Format(extractedAtLayout)

	records := make([]entity.WeatherRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, entity.WeatherRecord{
			Time:            h.Time[i], // ソースの ISO-8601 をそのままコピー
			TemperatureC:    h.Temperature2M[i],
			HumidityPercent: h.RelativeHumidity2M[i],
			WindSpeedKmph:   h.WindSpeed10M[i],
			City:            city,
			ExtractedAt:     extractedAtStr,
		})
	}
	return records, nil
}
