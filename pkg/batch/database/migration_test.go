package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wxbatch/pkg/batch/database"
	"wxbatch/pkg/batch/util/exception"
)

// マイグレーションパス未指定とドライバ未登録 (Snowflake) はエラーにせずスキップする。
// Snowflake がエラーになると、デフォルト設定のままでは Load ステージが挿入に到達できない。
func TestRunMigrations_Skips(t *testing.T) {
	tests := []struct {
		name           string
		dbType         string
		migrationsPath string
	}{
		{"Empty Migration Path", "postgres", ""},
		{"Snowflake With Default Path", "snowflake", "migrations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := database.RunMigrations(tt.dbType, "etl:secret@myaccount/weather", tt.migrationsPath)
			assert.NoError(t, err)
		})
	}
}

func TestRunMigrations_UnsupportedType(t *testing.T) {
	err := database.RunMigrations("oracle", "oracle://localhost/weather", "migrations")
	assert.Error(t, err)
	assert.True(t, exception.IsConfiguration(err))
}
