package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/util/exception"
)

// DBConnector は特定のデータベースタイプへの接続を確立するためのインターフェースです。
type DBConnector interface {
	Connect(cfg config.DatabaseConfig) (*sql.DB, error)
}

// connectors は登録された DBConnector の実装を保持するマップです。
var connectors = make(map[string]DBConnector)

// RegisterConnector は指定されたタイプ名で DBConnector を登録します。
func RegisterConnector(dbType string, c DBConnector) {
	connectors[dbType] = c
}

// GetSQLDB は設定に基づいて適切なデータベース接続を確立します。
// 登録されたコネクタの中から適切なものを選択して接続します。
func GetSQLDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	c, ok := connectors[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, exception.NewBatchError("database",
			fmt.Sprintf("未対応のデータベースタイプ: %s", cfg.Type), nil, exception.KindConfiguration)
	}
	return c.Connect(cfg)
}

// Open は接続を確立し、PingContext で到達可能性を確認して返します。
// 到達不能な場合は接続エラー (KindConnection) を返します。
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := GetSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, exception.NewBatchError("database", "データベースへの Ping に失敗しました", err, exception.KindConnection)
	}
	return db, nil
}

// applyPool はコネクションプール設定を *sql.DB に適用します。
func applyPool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.ConnectionPool.MaxOpenConns)
	db.SetMaxIdleConns(cfg.ConnectionPool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnectionPool.ConnMaxLifetimeSeconds) * time.Second)
}
