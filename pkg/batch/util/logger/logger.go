package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sugar はパッケージ全体で共有する zap の SugaredLogger です。
// SetLogLevel が呼ばれるまではデフォルト (INFO) の設定で動作します。
var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar = newSugar()
)

func newSugar() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// 設定は静的なため通常ここには到達しない
		l = zap.NewNop()
	}
	return l.Sugar()
}

// SetLogLevel はログレベルを設定します。
// 不明なレベルが指定された場合は INFO レベルで続行します。
func SetLogLevel(lv string) {
	switch strings.ToUpper(lv) {
	case "DEBUG":
		level.SetLevel(zapcore.DebugLevel)
	case "INFO":
		level.SetLevel(zapcore.InfoLevel)
	case "WARN":
		level.SetLevel(zapcore.WarnLevel)
	case "ERROR":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		sugar.Warnf("不明なログレベル '%s' が指定されました。INFO レベルで続行します。", lv)
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Debugf は DEBUG レベルのログを出力します。
func Debugf(format string, v ...any) { sugar.Debugf(format, v...) }

// Infof は INFO レベルのログを出力します。
func Infof(format string, v ...any) { sugar.Infof(format, v...) }

// Warnf は WARN レベルのログを出力します。
func Warnf(format string, v ...any) { sugar.Warnf(format, v...) }

// Errorf は ERROR レベルのログを出力します。
func Errorf(format string, v ...any) { sugar.Errorf(format, v...) }

// Fatalf は FATAL レベルのログを出力し、プログラムを終了します。
func Fatalf(format string, v ...any) { sugar.Fatalf(format, v...) }

// Sync はバッファされたログをフラッシュします。プロセス終了前に呼び出してください。
func Sync() {
	_ = sugar.Sync()
}
