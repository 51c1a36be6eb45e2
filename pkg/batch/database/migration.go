package database

import (
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"    // MySQL ドライバを登録
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL および Redshift ドライバを登録
	_ "github.com/golang-migrate/migrate/v4/source/file"       // ファイルソースドライバを登録

	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
)

// RunMigrations は指定されたデータベースにマイグレーションを実行します。
//
// dbType: データベースの種類 (例: "postgres", "mysql", "redshift")
// connectionString: データベースへの接続文字列 (config.DatabaseConfig.ConnectionString() から取得される形式)
// migrationsPath: SQL マイグレーションファイルが配置されているパス (例: "./migrations")
//
// migrationsPath が空の場合はスキップします。Snowflake は golang-migrate のドライバを
// 登録していないため、テーブルは手動で用意してください。
func RunMigrations(dbType, connectionString, migrationsPath string) error {
	if migrationsPath == "" {
		logger.Infof("マイグレーションパスが指定されていません。スキップします。")
		return nil
	}

	logger.Infof("データベースマイグレーションを開始します。DB タイプ: %s, マイグレーションパス: %s", dbType, migrationsPath)

	// golang-migrate/migrate が期待するデータベース URL 形式に調整
	databaseURL := connectionString
	switch strings.ToLower(dbType) {
	case "postgres", "redshift":
		// postgres://... 形式はそのまま使用できる
	case "mysql":
		databaseURL = "mysql://" + connectionString
	case "snowflake":
		// golang-migrate のドライバを登録していないためスキップする。
		// テーブルは手動で用意してください (migrations/ の SQL を参照)。
		logger.Warnf("Snowflake はマイグレーション対象外です。スキップします。")
		return nil
	default:
		return exception.NewBatchErrorf("migration", exception.KindConfiguration,
			"マイグレーション未対応のデータベースタイプ: %s", dbType)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		return exception.NewBatchError("migration", "マイグレーションインスタンスの作成に失敗しました", err, exception.KindConnection)
	}

	if err = m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			logger.Infof("マイグレーションは不要です。データベースは最新の状態です。")
			return nil
		}
		return exception.NewBatchError("migration", "マイグレーションの実行に失敗しました", err, exception.KindConnection)
	}

	logger.Infof("データベースマイグレーションが正常に完了しました。")
	return nil
}
