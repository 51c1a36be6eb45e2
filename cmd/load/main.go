package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wxbatch/pkg/batch/util/logger"
	"wxbatch/pkg/weather/app"
)

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

	os.Exit(app.RunStage(ctx, app.EnvFilePath(), app.StageLoad))
}
