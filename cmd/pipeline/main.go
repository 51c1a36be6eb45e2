package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/app"
)

// pipeline は extract → transform → load を 1 プロセスで順に実行します。
// PIPELINE_SCHEDULE が設定されている場合は cron スケジュールで繰り返します。
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warnf("シグナル '%v' を受信しました。シャットダウンを開始します。", sig)
		cancel()
	}()

	os.Exit(app.RunPipeline(ctx, app.EnvFilePath()))
}
