package connector

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL ドライバ
	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// postgresConnector は PostgreSQL データベースへの接続を確立する DBConnector の実装です。
// Supabase などのホスト型 Postgres もこのコネクタで扱います。
type postgresConnector struct{}

// Connect は PostgreSQL データベースへの接続を確立し、*sql.DB を返します。
func (c *postgresConnector) Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, exception.NewBatchError("database", "PostgreSQL への接続に失敗しました", err, exception.KindConnection)
	}

	applyPool(db, cfg)

	logger.Debugf("PostgreSQL コネクタを初期化しました。Host: %s, Database: %s", cfg.Host, cfg.Database)
	return db, nil
}

// init 関数で postgresConnector を登録します。
func init() {
	RegisterConnector("postgres", &postgresConnector{})
}
