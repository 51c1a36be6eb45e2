package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BytesConfigLoader はバイトスライスから設定をロードする ConfigLoader の実装です。
type BytesConfigLoader struct {
	data []byte
}

// NewBytesConfigLoader は新しい BytesConfigLoader のインスタンスを作成します。
func NewBytesConfigLoader(data []byte) *BytesConfigLoader {
	return &BytesConfigLoader{data: data}
}

// Load は埋め込まれたバイトスライスから設定をロードし、環境変数で上書きします。
func (l *BytesConfigLoader) Load() (*Config, error) {
	cfg := NewConfig()

	if len(l.data) > 0 {
		if err := yaml.Unmarshal(l.data, cfg); err != nil {
			return nil, fmt.Errorf("YAML設定のパースに失敗しました: %w", err)
		}
	}

	// 環境変数で個別の設定値を上書き
	loadEnvVars(cfg)

	return cfg, nil
}

// loadEnvVars は環境変数で個別の設定値を上書きします。
// 環境を読むのはこの層だけで、各コンポーネントは Config 構造体経由で設定を受け取ります。
func loadEnvVars(cfg *Config) {
	// Database 設定
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DATABASE"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DATABASE_SSLMODE"); v != "" {
		cfg.Database.Sslmode = v
	}
	if v := os.Getenv("DATABASE_MIGRATION_PATH"); v != "" {
		cfg.Database.MigrationPath = v
	}

	// Location 設定
	if v := os.Getenv("LOCATION_CITY"); v != "" {
		cfg.Location.City = v
	}
	if v := os.Getenv("LOCATION_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Latitude = lat
		}
	}
	if v := os.Getenv("LOCATION_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Longitude = lon
		}
	}

	// Files 設定
	if v := os.Getenv("FILES_DATA_DIR"); v != "" {
		cfg.Files.DataDir = v
		cfg.Files.ManifestPath = v + "/manifest.json"
		cfg.Files.StagedPath = v + "/staged_weather.csv"
	}
	if v := os.Getenv("FILES_MANIFEST_PATH"); v != "" {
		cfg.Files.ManifestPath = v
	}
	if v := os.Getenv("FILES_STAGED_PATH"); v != "" {
		cfg.Files.StagedPath = v
	}

	// Extract 設定
	if v := os.Getenv("EXTRACT_WEATHER_ENDPOINT"); v != "" {
		cfg.Extract.WeatherEndpoint = v
	}
	if v := os.Getenv("EXTRACT_APOD_ENDPOINT"); v != "" {
		cfg.Extract.APODEndpoint = v
	}
	if v := os.Getenv("APOD_API_KEY"); v != "" {
		cfg.Extract.APODAPIKey = v
	}
	if v := os.Getenv("EXTRACT_REQUEST_TIMEOUT_SECONDS"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.Extract.RequestTimeoutSeconds = sec
		} else {
			fmt.Printf("警告: EXTRACT_REQUEST_TIMEOUT_SECONDS の値 '%s' が無効です。設定ファイルの値を使用します。\n", v)
		}
	}

	// Load 設定
	if v := os.Getenv("LOAD_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			cfg.Load.BatchSize = size
		} else {
			fmt.Printf("警告: LOAD_BATCH_SIZE の値 '%s' が無効です。設定ファイルの値を使用します。\n", v)
		}
	}
	if v := os.Getenv("LOAD_BATCH_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Load.BatchDelayMillis = ms
		} else {
			fmt.Printf("警告: LOAD_BATCH_DELAY_MS の値 '%s' が無効です。設定ファイルの値を使用します。\n", v)
		}
	}
	if v := os.Getenv("LOAD_UPSERT"); v != "" {
		cfg.Load.Upsert = strings.EqualFold(v, "true") || v == "1"
	}

	// Pipeline 設定
	if v := os.Getenv("PIPELINE_SCHEDULE"); v != "" {
		cfg.Pipeline.Schedule = v
	}

	// System 設定
	if v := os.Getenv("SYSTEM_LOGGING_LEVEL"); v != "" {
		cfg.System.Logging.Level = v
	}
	if v := os.Getenv("SYSTEM_TIMEZONE"); v != "" {
		cfg.System.Timezone = v
	}
}
