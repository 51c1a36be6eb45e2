package staging

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/weather/domain/entity"
)

// Missing は欠測メトリクスを表すセンチネルです (空フィールド)。
// null をゼロや空文字列の数値へ暗黙変換することは決してありません。
const Missing = ""

// Header はステージファイルの固定ヘッダ行です。
// この列順が Transform と Load の契約境界であり、Load は元の JSON の形を一切知りません。
var Header = []string{"time", "temperature_C", "humidity_percent", "wind_speed_kmph", "city", "extracted_at"}

// WriteFile は WeatherRecord の順序付き列をステージ CSV として書き込みます。
// 一時ファイルへ書き込んでからリネームするため、出力は完全に成功するか元のファイルが
// 残るかのどちらかです (ヘッダ無し・途中切れのファイルを残さない)。既存ファイルは常に
// 全置換されます。
func WriteFile(path string, records []entity.WeatherRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".staged-*.csv")
	if err != nil {
		return exception.NewBatchError("staging", "一時ファイルの作成に失敗しました", err, exception.KindGeneric)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // リネーム成功後は no-op

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return exception.NewBatchError("staging", "ヘッダ行の書き込みに失敗しました", err, exception.KindGeneric)
	}
	for _, r := range records {
		row := []string{
			r.Time,
			formatMetric(r.TemperatureC),
			formatMetric(r.HumidityPercent),
			formatMetric(r.WindSpeedKmph),
			r.City,
			r.ExtractedAt,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return exception.NewBatchError("staging", "レコードの書き込みに失敗しました", err, exception.KindGeneric)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return exception.NewBatchError("staging", "ステージファイルのフラッシュに失敗しました", err, exception.KindGeneric)
	}
	if err := tmp.Close(); err != nil {
		return exception.NewBatchError("staging", "一時ファイルのクローズに失敗しました", err, exception.KindGeneric)
	}

	// CreateTemp は 0600 で作成するため、raw ファイルと同じ権限に揃える
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return exception.NewBatchError("staging", "ステージファイルの権限設定に失敗しました", err, exception.KindGeneric)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return exception.NewBatchError("staging", "ステージファイルのリネームに失敗しました: "+path, err, exception.KindGeneric)
	}
	return nil
}

// ReadFile はステージ CSV を WeatherRecord の順序付き列として読み込みます。
// ファイル不在は KindNotFound、ヘッダや列数の不一致は KindSchema のエラーを返します。
func ReadFile(path string) ([]entity.WeatherRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exception.NewBatchError("staging", "ステージファイルが存在しません: "+path, err, exception.KindNotFound)
		}
		return nil, exception.NewBatchError("staging", "ステージファイルのオープンに失敗しました: "+path, err, exception.KindGeneric)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, exception.NewBatchError("staging", "ステージファイルのパースに失敗しました: "+path, err, exception.KindSchema)
	}
	if len(rows) == 0 {
		return nil, exception.NewBatchErrorf("staging", exception.KindSchema, "ステージファイルにヘッダ行がありません: %s", path)
	}
	for i, name := range Header {
		if rows[0][i] != name {
			return nil, exception.NewBatchErrorf("staging", exception.KindSchema,
				"ヘッダが期待と一致しません: 列 %d は '%s'、期待値 '%s'", i, rows[0][i], name)
		}
	}

	records := make([]entity.WeatherRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := entity.WeatherRecord{
			Time:        row[0],
			City:        row[4],
			ExtractedAt: row[5],
		}
		if rec.TemperatureC, err = parseMetric(row[1]); err != nil {
			return nil, exception.NewBatchError("staging", "temperature_C のパースに失敗しました: "+row[1], err, exception.KindSchema)
		}
		if rec.HumidityPercent, err = parseMetric(row[2]); err != nil {
			return nil, exception.NewBatchError("staging", "humidity_percent のパースに失敗しました: "+row[2], err, exception.KindSchema)
		}
		if rec.WindSpeedKmph, err = parseMetric(row[3]); err != nil {
			return nil, exception.NewBatchError("staging", "wind_speed_kmph のパースに失敗しました: "+row[3], err, exception.KindSchema)
		}
		records = append(records, rec)
	}
	return records, nil
}

// formatMetric は数値メトリクスを CSV フィールドへ変換します。nil は欠測センチネルになります。
func formatMetric(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// parseMetric は CSV フィールドを数値メトリクスへ戻します。センチネルは nil (明示的 NULL) になります。
func parseMetric(s string) (*float64, error) {
	if s == Missing {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("数値フィールドのパースに失敗しました: %w", err)
	}
	return &v, nil
}
