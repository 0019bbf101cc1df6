// Package logging builds the zap logger used across devin.
// Output goes to stderr, so the launched application keeps stdout to itself,
// and optionally to a rotated log file.
package logging

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents the logging section of the YAML config.
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`             // "debug", "info", "warn", "error"
	ToStderr   bool   `mapstructure:"to_stderr" yaml:"to_stderr"`     // Enable output to stderr
	ToFile     bool   `mapstructure:"to_file" yaml:"to_file"`         // Enable output to file
	FilePath   string `mapstructure:"file" yaml:"file"`               // Log file path, e.g. ~/devin-dcc/log.txt
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`       // Max size before rotation (in MB)
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`         // Max age of logs (in days)
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // Number of rotated backups to keep
	Compress   bool   `mapstructure:"compress" yaml:"compress"`       // Gzip compress old log files
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		ToStderr:   true,
		FilePath:   "~/devin-dcc/log.txt",
		MaxSizeMB:  10,
		MaxAge:     30,
		MaxBackups: 3,
	}
}

// ParseLevel returns the zap level for name, defaulting to info.
// Python style names (WARNING, CRITICAL) are accepted.
func ParseLevel(name string) zapcore.Level {
	level := zapcore.InfoLevel
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warning":
		return zapcore.WarnLevel
	case "critical", "fatal":
		return zapcore.ErrorLevel
	case "notset":
		return zapcore.DebugLevel
	}
	_ = level.Set(strings.ToLower(name))
	return level
}

// PythonLevel maps a level name to the Python logging name that the
// bootstrap scripts pass to logging.basicConfig.
func PythonLevel(name string) string {
	switch ParseLevel(name) {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// New creates a logger from cfg. stderr is the console sink (os.Stderr in main).
func New(cfg Config, stderr io.Writer) *zap.Logger {
	var cores []zapcore.Core

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := ParseLevel(cfg.Level)

	if cfg.ToStderr && stderr != nil {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(stderr), level))
	}

	if cfg.ToFile && cfg.FilePath != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		// the file always records debug detail for bug reports
		cores = append(cores, zapcore.NewCore(encoder, writer, zapcore.DebugLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...))
}
