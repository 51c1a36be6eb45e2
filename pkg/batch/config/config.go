package config

import (
	"fmt"
	"strings"
	"time"

	"wxbatch/pkg/batch/util/exception"
)

// EmbeddedConfig は、設定ファイルの内容を保持するためのフィールドです。
// go:embed で埋め込まれた application.yaml を格納します。
type EmbeddedConfig []byte

// ConnectionPoolConfig はデータベースコネクションプールの設定を保持します。
type ConnectionPoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// DatabaseConfig は宛先データベースへの接続設定を保持します。
// URL が設定されている場合は個別フィールドより優先されます (Supabase 等のホスト型 DB 向け)。
type DatabaseConfig struct {
	Type           string               `yaml:"type"`
	URL            string               `yaml:"url"`
	Host           string               `yaml:"host"`
	Port           int                  `yaml:"port"`
	Database       string               `yaml:"database"`
	User           string               `yaml:"user"`
	Password       string               `yaml:"password"`
	Sslmode        string               `yaml:"sslmode"`
	MigrationPath  string               `yaml:"migration_path"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

// ConnectionString はデータベースタイプに応じた DSN を組み立てます。
func (c DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	switch strings.ToLower(c.Type) {
	case "postgres", "redshift":
		// golang-migrate/migrate が期待する形式に合わせる
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Database, c.Sslmode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "snowflake":
		// Host にはアカウント識別子を指定する
		return fmt.Sprintf("%s:%s@%s/%s", c.User, c.Password, c.Host, c.Database)
	default:
		return ""
	}
}

// Validate は接続に必要な資格情報が揃っているかを検証します。
// 欠落している場合はステージを開始する前に致命的エラーとします。
func (c DatabaseConfig) Validate() error {
	if c.URL != "" {
		return nil
	}
	if c.Type == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration, "データベースタイプが指定されていません")
	}
	if c.Host == "" || c.User == "" || c.Password == "" || c.Database == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration,
			"データベース資格情報が不足しています (host/user/password/database)")
	}
	return nil
}

// LocationConfig は対象地点の設定を保持します。
// City はステージングされた全レコードに付与される定数ラベルです。
type LocationConfig struct {
	City      string  `yaml:"city"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// FilesConfig はステージ間のファイル受け渡しに関する設定を保持します。
type FilesConfig struct {
	DataDir      string `yaml:"data_dir"`
	ManifestPath string `yaml:"manifest_path"`
	StagedPath   string `yaml:"staged_path"`
}

// BreakerConfig は外部 API 呼び出しのサーキットブレーカ設定です。
type BreakerConfig struct {
	Threshold           uint32 `yaml:"threshold"`
	ResetTimeoutSeconds int    `yaml:"reset_timeout_seconds"`
}

// ExtractConfig は Extract ステージの設定を保持します。
type ExtractConfig struct {
	WeatherEndpoint       string        `yaml:"weather_endpoint"`
	APODEndpoint          string        `yaml:"apod_endpoint"`
	APODAPIKey            string        `yaml:"apod_api_key"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	RateLimitRPS          float64       `yaml:"rate_limit_rps"`
	RateLimitBurst        int           `yaml:"rate_limit_burst"`
	Breaker               BreakerConfig `yaml:"circuit_breaker"`
}

// RequestTimeout はリクエストタイムアウトを time.Duration で返します。
func (c ExtractConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate は Extract ステージに必要な設定を検証します。
func (c ExtractConfig) Validate() error {
	if c.WeatherEndpoint == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration, "天気 API エンドポイントが指定されていません")
	}
	if c.APODEndpoint != "" && c.APODAPIKey == "" {
		return exception.NewBatchErrorf("config", exception.KindConfiguration, "APOD API キーが指定されていません")
	}
	return nil
}

// LoadConfig は Load ステージの設定を保持します。
type LoadConfig struct {
	BatchSize        int    `yaml:"batch_size"`
	BatchDelayMillis int    `yaml:"batch_delay_ms"`
	Upsert           bool   `yaml:"upsert"`
	Table            string `yaml:"table"`
}

// BatchDelay はバッチ間ディレイを time.Duration で返します。
func (c LoadConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMillis) * time.Millisecond
}

// PipelineConfig はパイプライン一括実行の設定を保持します。
// Schedule が空の場合は一度だけ実行して終了します。
type PipelineConfig struct {
	Schedule string `yaml:"schedule"`
}

// LoggingConfig はロギングの設定を保持します。
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SystemConfig はシステム全体の設定を保持します。
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	Database       DatabaseConfig `yaml:"database"`
	Location       LocationConfig `yaml:"location"`
	Files          FilesConfig    `yaml:"files"`
	Extract        ExtractConfig  `yaml:"extract"`
	Load           LoadConfig     `yaml:"load"`
	Pipeline       PipelineConfig `yaml:"pipeline"`
	System         SystemConfig   `yaml:"system"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"` // 埋め込み設定を格納するためのフィールド。YAML からは読み込まない。
}

// NewConfig は Config の新しいインスタンスをデフォルト値付きで返します。
func NewConfig() *Config {
	return &Config{
		System: SystemConfig{
			Timezone: "UTC",
			Logging:  LoggingConfig{Level: "INFO"},
		},
		Location: LocationConfig{
			City:      "Budapest",
			Latitude:  47.4979,
			Longitude: 19.0402,
		},
		Files: FilesConfig{
			DataDir:      "data",
			ManifestPath: "data/manifest.json",
			StagedPath:   "data/staged_weather.csv",
		},
		Extract: ExtractConfig{
			WeatherEndpoint:       "https://api.open-meteo.com/v1/forecast",
			APODEndpoint:          "https://api.nasa.gov/planetary/apod",
			RequestTimeoutSeconds: 10,
			RateLimitRPS:          1,
			RateLimitBurst:        1,
			Breaker: BreakerConfig{
				Threshold:           3,
				ResetTimeoutSeconds: 30,
			},
		},
		Load: LoadConfig{
			BatchSize:        20,
			BatchDelayMillis: 500,
			Upsert:           false,
			Table:            "hourly_weather",
		},
		Database: DatabaseConfig{
			Type:    "postgres",
			Sslmode: "require",
			ConnectionPool: ConnectionPoolConfig{
				MaxOpenConns:           0, // デフォルトは無制限 (Go のデフォルト)
				MaxIdleConns:           0,
				ConnMaxLifetimeSeconds: 0,
			},
		},
	}
}
