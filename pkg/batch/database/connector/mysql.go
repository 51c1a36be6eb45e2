package connector

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // MySQL ドライバ
	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// mysqlConnector は MySQL データベースへの接続を確立する DBConnector の実装です。
type mysqlConnector struct{}

// Connect は MySQL データベースへの接続を確立し、*sql.DB を返します。
func (c *mysqlConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", "MySQL への接続に失敗しました", err, exception.KindConnection)
	}

	applyPool(db, cfg)

	logger.Debugf("MySQL コネクタを初期化しました。Host: %s, Database: %s", cfg.Host, cfg.Database)
	return db, nil
}

// init 関数で mysqlConnector を登録します。
func init() {
	RegisterConnector("mysql", &mysqlConnector{})
}
