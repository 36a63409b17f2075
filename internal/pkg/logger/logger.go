package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DroppedLink/feedback/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup 根据全局配置初始化日志系统
func Setup() error {
	if config.GlobalConfig == nil {
		return fmt.Errorf("配置未初始化")
	}
	l, err := New(config.GlobalConfig.Log)
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(l)
	Info("Logger initialized successfully")
	return nil
}

// New 按配置构建 zap logger
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	var sink zapcore.WriteSyncer
	switch strings.ToLower(cfg.Output) {
	case "console":
		sink = zapcore.Lock(os.Stdout)
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		sink = file
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		sink = zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), file)
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", s)
}

func openLogFile(path string) (zapcore.WriteSyncer, error) {
	// 确保日志目录存在
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	return zapcore.AddSync(file), nil
}

// L 返回结构化 logger，未初始化时为 no-op
func L() *zap.Logger {
	return zap.L()
}

func Sync() {
	_ = zap.L().Sync()
}

func sugar() *zap.SugaredLogger {
	return zap.L().Sugar()
}

// 便捷方法
func Debug(args ...interface{}) { sugar().Debug(args...) }

func Debugf(format string, args ...interface{}) { sugar().Debugf(format, args...) }

func Info(args ...interface{}) { sugar().Info(args...) }

func Infof(format string, args ...interface{}) { sugar().Infof(format, args...) }

func Warn(args ...interface{}) { sugar().Warn(args...) }

func Warnf(format string, args ...interface{}) { sugar().Warnf(format, args...) }

func Error(args ...interface{}) { sugar().Error(args...) }

func Errorf(format string, args ...interface{}) { sugar().Errorf(format, args...) }

func Fatal(args ...interface{}) { sugar().Fatal(args...) }

func Fatalf(format string, args ...interface{}) { sugar().Fatalf(format, args...) }
