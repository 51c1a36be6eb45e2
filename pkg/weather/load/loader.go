package load

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
	"wxbatch/pkg/weather/manifest"
	"wxbatch/pkg/weather/repository"
	"wxbatch/pkg/weather/staging"
)

// ステージファイル内のタイムスタンプのレイアウト (ISO-8601、オフセット無し)。
const (
	timeLayout        = "2006-01-02T15:04"
	extractedAtLayout = "2006-01-02T15:04:05"
)

// BatchResult は失敗した 1 バッチの記録です。行範囲は [Start, End) で表します。
type BatchResult struct {
	Index int
	Start int
	End   int
	Err   error
}

// Report は Load ステージの実行結果です。
// 部分的な成功は許容されますが、失敗は必ずここに現れます (黙殺されない)。
type Report struct {
	Total    int
	Batches  int
	Inserted int
	Failed   []BatchResult
}

// Ok は全バッチが成功したかどうかを返します。
func (r *Report) Ok() bool {
	return len(r.Failed) == 0
}

// Loader はステージ CSV を読み込み、固定サイズのバッチへ分割して宛先テーブルへ
// 逐次挿入するコンポーネントです。バッチ間には固定のディレイを挟みます。
type Loader struct {
	cfg   config.LoadConfig
	files config.FilesConfig
	db    *sql.DB
	repo  repository.WeatherRepository
	pacer *rate.Limiter
}

// NewLoader は新しい Loader のインスタンスを作成します。
func NewLoader(cfg config.LoadConfig, files config.FilesConfig, db *sql.DB, repo repository.WeatherRepository) *Loader {
	// ディレイを rate.Limiter で表現する。burst=1 のため初回バッチは待たず、
	// 2 バッチ目以降が設定値の間隔でペーシングされ、Context キャンセルで中断できる。
	limit := rate.Inf
	if d := cfg.BatchDelay(); d > 0 {
		limit = rate.Every(d)
	}
	return &Loader{
		cfg:   cfg,
		files: files,
		db:    db,
		repo:  repo,
		pacer: rate.NewLimiter(limit, 1),
	}
}

// Run はステージファイルを解決・パースし、全バッチを順に挿入して結果を報告します。
// 単一バッチの失敗は記録して継続し、構成・スキーマ・接続エラーのみ err として返します。
func (l *Loader) Run(ctx context.Context, inputPath string) (*Report, error) {
	path, err := l.resolveInput(inputPath)
	if err != nil {
		return nil, err
	}
	logger.Infof("Load を開始します。入力: %s, バッチサイズ: %d", path, l.cfg.BatchSize)

	records, err := staging.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rows, err := ToRows(records)
	if err != nil {
		return nil, err
	}

	batches := Partition(rows, l.cfg.BatchSize)
	report := &Report{Total: len(rows), Batches: len(batches)}

	offset := 0
	for i, batch := range batches {
		// バッチ間の固定ディレイ (初回は待たない)
		if err := l.pacer.Wait(ctx); err != nil {
			return report, err
		}

		if err := l.insertBatch(ctx, batch); err != nil {
			// Context キャンセルはラン全体を中断する
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			insertErr := exception.NewBatchError("loader",
				fmt.Sprintf("バッチ %d (行 %d-%d) の挿入に失敗しました", i, offset, offset+len(batch)),
				err, exception.KindInsert)
			logger.Errorf("%v。残りのバッチを継続します。", insertErr)
			report.Failed = append(report.Failed, BatchResult{Index: i, Start: offset, End: offset + len(batch), Err: insertErr})
		} else {
			report.Inserted += len(batch)
			logger.Debugf("バッチ %d/%d を挿入しました (%d 行)。", i+1, len(batches), len(batch))
		}
		offset += len(batch)
	}

	logger.Infof("Load が完了しました。挿入: %d/%d 行, 失敗バッチ: %d/%d",
		report.Inserted, report.Total, len(report.Failed), report.Batches)
	return report, nil
}

// insertBatch は 1 バッチを単一トランザクションで挿入します。
func (l *Loader) insertBatch(ctx context.Context, batch []entity.HourlyWeatherRow) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if l.cfg.Upsert {
		err = l.repo.BulkUpsert(ctx, tx, batch)
	} else {
		err = l.repo.BulkInsert(ctx, tx, batch)
	}
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// resolveInput はステージファイルのパスを 明示指定 > マニフェスト > 規約上のパス の順で解決します。
func (l *Loader) resolveInput(inputPath string) (string, error) {
	if inputPath != "" {
		return inputPath, nil
	}

	m, err := manifest.Load(l.files.ManifestPath)
	if err == nil && m.StagedPath != "" {
		return m.StagedPath, nil
	}
	if err != nil && !exception.IsNotFound(err) {
		return "", err
	}

	return l.files.StagedPath, nil
}

// ToRows はステージレコードを宛先スキーマの行へ変換します。
// センチネル (nil) は明示的な SQL NULL になり、デフォルト値への変換は行いません。
// タイムスタンプのパース失敗は KindSchema のエラーです。
func ToRows(records []entity.WeatherRecord) ([]entity.HourlyWeatherRow, error) {
	rows := make([]entity.HourlyWeatherRow, 0, len(records))
	for _, rec := range records {
		t, err := parseStagedTime(rec.Time)
		if err != nil {
			return nil, exception.NewBatchError("loader", "time のパースに失敗しました: "+rec.Time, err, exception.KindSchema)
		}
		extractedAt, err := time.Parse(extractedAtLayout, rec.ExtractedAt)
		if err != nil {
			return nil, exception.NewBatchError("loader", "extracted_at のパースに失敗しました: "+rec.ExtractedAt, err, exception.KindSchema)
		}

		rows = append(rows, entity.HourlyWeatherRow{
			Time:            t,
			TemperatureC:    toNullFloat(rec.TemperatureC),
			HumidityPercent: toNullFloat(rec.HumidityPercent),
			WindSpeedKmph:   toNullFloat(rec.WindSpeedKmph),
			City:            rec.City,
			ExtractedAt:     extractedAt,
		})
	}
	return rows, nil
}

// Partition はレコード列をサイズ n の連続バッチへ分割します。
// バッチは順序を保存したまま全体を過不足なく分割し、最終バッチのみ短くなり得ます。
func Partition(rows []entity.HourlyWeatherRow, n int) [][]entity.HourlyWeatherRow {
	if n <= 0 {
		n = 1
	}
	var batches [][]entity.HourlyWeatherRow
	for start := 0; start < len(rows); start += n {
		end := start + n
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

// parseStagedTime はステージファイルのタイムスタンプをパースします。
// Open-Meteo の分精度と秒精度の両方を受け付けます。
func parseStagedTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(extractedAtLayout, s)
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
