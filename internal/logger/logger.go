// Package logger builds the process-wide *zap.Logger: structured JSON to a
// rotating file under <root>/log, optionally teed to stdout for local
// development. Rotation is handled by lumberjack rather than a hand-rolled
// dated-file scheme, since the config server is a long-running daemon (not
// a one-shot CLI) and needs size-bounded rotation, not just a new file at
// midnight.
package logger

import (
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxSizeMB  = 100
	maxBackups = 7
	maxAgeDays = 28
)

// New returns a *zap.Logger that writes structured JSON to
// <rootDir>/log/configserver.log, rotated by lumberjack. When tee is true,
// the logger also writes human-readable console output to stdout, making
// local development easier.
func New(rootDir string, tee bool) (*zap.Logger, error) {
	logDir := filepath.Join(rootDir, "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "configserver.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)

	cores := []zapcore.Core{fileCore}
	if tee {
		consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderCfg),
			zapcore.AddSync(os.Stdout),
			zap.DebugLevel,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	l.Info("logger online", zap.Bool("tee", tee), zap.String("logDir", logDir))
	return l, nil
}
