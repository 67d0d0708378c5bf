// Package simlog builds the simulation's structured logger, replacing the
// teacher's bare log.Printf calls with a go.uber.org/zap logger writing
// through gopkg.in/natefinch/lumberjack.v2 for rotation. Per spec.md §7, it
// is used for exactly two failure classes: user-intent rejections and
// streaming failures — never for machine/conveyor transient state, which is
// pure data (Blocked/Idle), not a log event.
package simlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures log rotation. A zero value disables file output and
// logs to stderr only, which is the console driver's "don't clutter stdout"
// default.
type Options struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a production-style zap logger. With a FilePath set, output is
// split between stderr (for the console operator) and the rotating file;
// otherwise it logs to stderr only.
func New(opts Options) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	stderrCore := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zap.InfoLevel)
	if opts.FilePath == "" {
		return zap.New(stderrCore, zap.AddCaller()), nil
	}

	rotate := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
	}
	fileCore := zapcore.NewCore(encoder, zapcore.AddSync(rotate), zap.InfoLevel)

	core := zapcore.NewTee(stderrCore, fileCore)
	return zap.New(core, zap.AddCaller()), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// IntentRejected logs a single user-intent failure, per spec.md §7's "drop
// the intent, emit a structured log event, do not mutate state."
func IntentRejected(log *zap.Logger, kind string, err error) {
	log.Warn("intent rejected", zap.String("kind", kind), zap.Error(err))
}

// StreamingFailed logs a chunk generation failure escalating past its retry
// budget, per spec.md §7's streaming-failure class.
func StreamingFailed(log *zap.Logger, err error) {
	log.Error("chunk generation failed", zap.Error(err))
}
