// Package logging builds the zap logger shared by sitectl's components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lydakis/sitectl/internal/config"
	"github.com/lydakis/sitectl/internal/paths"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 14
)

// New returns a logger writing to stderr and, when cfg.File is set, to a
// rotated file. Console format goes to stderr; files always get JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LogConfig, stderr io.Writer) (*zap.Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = config.DefaultLogLevel
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stderrEncoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		stderrEncoder = zapcore.NewConsoleEncoder(consoleCfg)
	case "json":
		stderrEncoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log format: unsupported %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stderrEncoder, zapcore.AddSync(stderr), zap.NewAtomicLevelAt(level)),
	}

	if cfg.File != "" {
		if err := paths.EnsureDir(filepath.Dir(cfg.File)); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), file, zap.NewAtomicLevelAt(level)))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
