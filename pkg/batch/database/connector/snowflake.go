package connector

import (
	"database/sql"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake ドライバ
	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// snowflakeConnector は Snowflake データベースへの接続を確立する DBConnector の実装です。
type snowflakeConnector struct{}

// Connect は Snowflake データベースへの接続を確立し、*sql.DB を返します。
func (c *snowflakeConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("snowflake", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", "Snowflake への接続に失敗しました", err, exception.KindConnection)
	}

	applyPool(db, cfg)

	logger.Debugf("Snowflake コネクタを初期化しました。Account: %s, Database: %s", cfg.Host, cfg.Database)
	return db, nil
}

// init 関数で snowflakeConnector を登録します。
func init() {
	RegisterConnector("snowflake", &snowflakeConnector{})
}
