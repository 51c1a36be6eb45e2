package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
)

// WeatherRepository は hourly_weather テーブルへの書き込みを抽象化するインターフェースです。
// 1 回の呼び出しが 1 つの InsertBatch に対応し、トランザクションは呼び出し側が管理します。
type WeatherRepository interface {
	// BulkInsert はレコードのバッチを追記のみで挿入します (重複排除なし)。
	BulkInsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error
	// BulkUpsert は自然キー (time, city) で重複を更新に変えて挿入します。
	BulkUpsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error
	Close() error
}

// NewWeatherRepository は設定に応じた WeatherRepository を生成するファクトリです。
// Snowflake は upsert をサポートしないため、upsert が有効な場合は
// ステージ開始前に KindConfiguration のエラーを返します。
func NewWeatherRepository(dbCfg config.DatabaseConfig, loadCfg config.LoadConfig) (WeatherRepository, error) {
	logger.Debugf("WeatherRepository の生成を開始します (Type: %s, Table: %s).", dbCfg.Type, loadCfg.Table)

	switch strings.ToLower(dbCfg.Type) {
	case "postgres", "redshift":
		return &postgresWeatherRepository{table: loadCfg.Table}, nil
	case "mysql":
		return &mysqlWeatherRepository{table: loadCfg.Table}, nil
	case "snowflake":
		if loadCfg.Upsert {
			return nil, exception.NewBatchErrorf("weather_repository", exception.KindConfiguration,
				"Snowflake では upsert がサポートされていません")
		}
		return &snowflakeWeatherRepository{table: loadCfg.Table}, nil
	default:
		return nil, exception.NewBatchErrorf("weather_repository", exception.KindConfiguration,
			"サポートされていないデータベースタイプです: %s", dbCfg.Type)
	}
}

// execBatch はプリペアドステートメントでバッチ内の各行を挿入する共通ヘルパです。
func execBatch(ctx context.Context, tx *sql.Tx, query string, rows []entity.HourlyWeatherRow) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("挿入ステートメントの準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		// ループ内でも Context の完了を定期的にチェック
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err = stmt.ExecContext(
			ctx,
			row.Time,
			row.TemperatureC,
			row.HumidityPercent,
			row.WindSpeedKmph,
			row.City,
			row.ExtractedAt,
		)
		if err != nil {
			return fmt.Errorf("時刻 %s の行の挿入に失敗しました: %w", row.Time, err)
		}
	}
	return nil
}
