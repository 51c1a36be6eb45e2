package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // Redshift は PostgreSQL と互換性があるため、pq ドライバを使用
	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// redshiftConnector は Redshift データベースへの接続を確立する DBConnector の実装です。
type redshiftConnector struct{}

// Connect は Redshift データベースへの接続を確立し、*sql.DB を返します。
func (c *redshiftConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString()) // Redshift は PostgreSQL ドライバを使用
	if err != nil {
		return nil, exception.NewBatchError("database", "Redshift への接続に失敗しました", err, exception.KindConnection)
	}

	applyPool(db, cfg)

	logger.Debugf("Redshift コネクタを初期化しました。Host: %s, Database: %s", cfg.Host, cfg.Database)
	return db, nil
}

// init 関数で redshiftConnector を登録します。
func init() {
	RegisterConnector("redshift", &redshiftConnector{})
}
