package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
)

// mysqlWeatherRepository は MySQL 向けの WeatherRepository 実装です。
type mysqlWeatherRepository struct {
	table string
}

func (r *mysqlWeatherRepository) BulkInsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (time, temperature_c, humidity_percent, wind_speed_kmph, city, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`, r.table)
	if err := execBatch(ctx, tx, query, rows); err != nil {
		return err
	}
	logger.Debugf("mysqlWeatherRepository: %s に %d 行を挿入しました。", r.table, len(rows))
	return nil
}

func (r *mysqlWeatherRepository) BulkUpsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (time, temperature_c, humidity_percent, wind_speed_kmph, city, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			temperature_c = VALUES(temperature_c),
			humidity_percent = VALUES(humidity_percent),
			wind_speed_kmph = VALUES(wind_speed_kmph),
			extracted_at = VALUES(extracted_at);
	`, r.table)
	if err := execBatch(ctx, tx, query, rows); err != nil {
		return err
	}
	logger.Debugf("mysqlWeatherRepository: %s へ %d 行を upsert しました。", r.table, len(rows))
	return nil
}

func (r *mysqlWeatherRepository) Close() error {
	return nil
}
