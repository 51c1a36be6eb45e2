package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/domain/entity"
)

// snowflakeWeatherRepository は Snowflake 向けの WeatherRepository 実装です。
// 挿入のみをサポートし、upsert はファクトリで拒否されます。
type snowflakeWeatherRepository struct {
	table string
}

func (r *snowflakeWeatherRepository) BulkInsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
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
	logger.Debugf("snowflakeWeatherRepository: %s に %d 行を挿入しました。", r.table, len(rows))
	return nil
}

func (r *snowflakeWeatherRepository) BulkUpsert(ctx context.Context, tx *sql.Tx, rows []entity.HourlyWeatherRow) error {
	return exception.NewBatchErrorf("weather_repository", exception.KindConfiguration,
		"Snowflake では upsert がサポートされていません")
}

func (r *snowflakeWeatherRepository) Close() error {
	return nil
}
