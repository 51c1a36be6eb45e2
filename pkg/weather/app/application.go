package app

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"

	"wxbatch/pkg/batch/config"
	"wxbatch/pkg/batch/database"
	"wxbatch/pkg/batch/database/connector"
	"wxbatch/pkg/batch/scheduler"
	"wxbatch/pkg/batch/util/exception"
	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/extract"
	"wxbatch/pkg/weather/load"
	"wxbatch/pkg/weather/repository"
	"wxbatch/pkg/weather/transform"
)

//go:embed resources/application.yaml
var embeddedConfig []byte

// Stage はパイプラインの実行単位を表す型です。
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
)

// Setup は .env のロード、設定の解決、ロガーの初期化を行います。
// 各コンポーネントはここで構築された Config 構造体経由で設定を受け取り、
// 以降は誰も環境変数を読みません。
func Setup(envFilePath string) (*config.Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env ファイル '%s' のロードをスキップしました (本番環境では環境変数を使用): %v", envFilePath, err)
		} else {
			logger.Infof(".env ファイル '%s' をロードしました。", envFilePath)
		}
	}

	cfg, err := config.NewBytesConfigLoader(embeddedConfig).Load()
	if err != nil {
		return nil, exception.NewBatchError("app", "設定のロードに失敗しました", err, exception.KindConfiguration)
	}

	logger.SetLogLevel(cfg.System.Logging.Level)
	return cfg, nil
}

// RunStage は単一ステージを実行し、終了コードを返します。
// 完全成功で 0、致命的エラーまたは失敗バッチありで 1 を返します。
func RunStage(ctx context.Context, envFilePath string, stage Stage) int {
	defer logger.Sync()

	cfg, err := Setup(envFilePath)
	if err != nil {
		logger.Errorf("初期化に失敗しました: %v", err)
		return 1
	}

	switch stage {
	case StageExtract:
		err = RunExtract(ctx, cfg)
	case StageTransform:
		err = RunTransform(ctx, cfg)
	case StageLoad:
		err = RunLoad(ctx, cfg)
	default:
		logger.Errorf("不明なステージです: %s", stage)
		return 1
	}

	return handleStageError(stage, err)
}

// RunExtract は Extract ステージを実行します。
func RunExtract(ctx context.Context, cfg *config.Config) error {
	e, err := extract.NewExtractor(cfg.Extract, cfg.Location, cfg.Files)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}

// RunTransform は Transform ステージを実行します。
func RunTransform(ctx context.Context, cfg *config.Config) error {
	t := transform.NewTransformer(cfg.Location, cfg.Files)
	return t.Run(ctx, "")
}

// RunLoad は Load ステージを実行します。
// 資格情報の検証とリポジトリの構成は接続前に行い、構成エラーは挿入開始前に失敗させます。
func RunLoad(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	repo, err := repository.NewWeatherRepository(cfg.Database, cfg.Load)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := database.RunMigrations(cfg.Database.Type, cfg.Database.ConnectionString(), cfg.Database.MigrationPath); err != nil {
		return err
	}

	db, err := connector.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	loader := load.NewLoader(cfg.Load, cfg.Files, db, repo)
	report, err := loader.Run(ctx, "")
	if err != nil {
		return err
	}
	if !report.Ok() {
		// 部分的成功。コミット済みバッチはそのまま残し、失敗をオペレータへ報告する。
		return exception.NewBatchErrorf("loader", exception.KindInsert,
			"%d/%d バッチが失敗しました (挿入済み: %d/%d 行)",
			len(report.Failed), report.Batches, report.Inserted, report.Total)
	}
	return nil
}

// RunPipeline は extract → transform → load を 1 プロセスで順に実行し、終了コードを返します。
// スケジュールが設定されている場合は cron でシグナル受信まで繰り返します。
func RunPipeline(ctx context.Context, envFilePath string) int {
	defer logger.Sync()

	cfg, err := Setup(envFilePath)
	if err != nil {
		logger.Errorf("初期化に失敗しました: %v", err)
		return 1
	}

	runAll := func(ctx context.Context) error {
		if err := RunExtract(ctx, cfg); err != nil {
			return err
		}
		if err := RunTransform(ctx, cfg); err != nil {
			return err
		}
		return RunLoad(ctx, cfg)
	}

	if cfg.Pipeline.Schedule == "" {
		return handleStageError("pipeline", runAll(ctx))
	}

	// スケジュールは設定されたタイムゾーンで解釈する
	loc, err := time.LoadLocation(cfg.System.Timezone)
	if err != nil {
		logger.Errorf("タイムゾーン '%s' の解決に失敗しました: %v", cfg.System.Timezone, err)
		return 1
	}

	s, err := scheduler.New(cfg.Pipeline.Schedule, loc, func(ctx context.Context) {
		if err := runAll(ctx); err != nil {
			logger.Errorf("スケジュール実行が失敗しました: %v", err)
		}
	})
	if err != nil {
		logger.Errorf("スケジューラの構成に失敗しました: %v", err)
		return 1
	}
	s.Run(ctx)
	return 0
}

// handleStageError はステージの実行結果をログへ出力し、終了コードへ変換します。
func handleStageError(stage Stage, err error) int {
	if err == nil {
		logger.Infof("ステージ '%s' は正常に完了しました。", stage)
		return 0
	}

	logger.Errorf("ステージ '%s' が失敗しました: %v", stage, err)

	var be *exception.BatchError
	if errors.As(err, &be) {
		logger.Errorf("BatchError 詳細: Module=%s, Kind=%s, Message=%s", be.Module, be.Kind, be.Message)
		if be.StackTrace != "" {
			logger.Debugf("BatchError StackTrace:\n%s", be.StackTrace)
		}
	}
	return 1
}

// EnvFilePath は ENV_FILE_PATH 環境変数を解決します。未設定時は ".env" を返します。
func EnvFilePath() string {
	if p := os.Getenv("ENV_FILE_PATH"); p != "" {
		return p
	}
	return ".env"
}
