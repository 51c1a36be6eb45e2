package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
)

// postgresWeatherRepository は PostgreSQL/Redshift 向けの WeatherRepository 実装です。
// Supabase などのホスト型 Postgres も同じ実装で扱います。
type postgresWeatherRepository struct {
	table string
}

func (r *postgresWeatherRepository) BulkInsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (time, temperature_c, humidity_percent, wind_speed_kmph, city, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, r.table)
	if err := execBatch(ctx, tx, query, rows); err != nil {
		return err
	}
	logger.Debugf("postgresWeatherRepository: %s に %d 行を挿入しました。", r.table, len(rows))
	return nil
}

func (r *postgresWeatherRepository) BulkUpsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (time, temperature_c, humidity_percent, wind_speed_kmph, city, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (time, city) DO UPDATE SET
			temperature_c = EXCLUDED.temperature_c,
			humidity_percent = EXCLUDED.humidity_percent,
			wind_speed_kmph = EXCLUDED.wind_speed_kmph,
			extracted_at = EXCLUDED.extracted_at;
	`, r.table)
	if err := execBatch(ctx, tx, query, rows); err != nil {
		return err
	}
	logger.Debugf("postgresWeatherRepository: %s へ %d 行を upsert しました。", r.table, len(rows))
	return nil
}

func (r *postgresWeatherRepository) Close() error {
	// 接続はステージ側が管理するため、ここでは閉じない
	return nil
}
