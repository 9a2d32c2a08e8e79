// Package logger 封装 zap，提供全局日志入口
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = zap.NewNop()

// New 根据运行环境构建 logger 并替换全局实例。
// production 输出 JSON，其余环境输出带颜色的控制台格式。
func New(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return l, nil
}

// SetLogger 替换全局 logger（测试中可传入 zap.NewNop()）
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
	zap.ReplaceGlobals(l)
}

// L 返回当前全局 logger
func L() *zap.Logger { return global }

func Debug(msg string, fields ...zap.Field) {
	global.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	global.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	global.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	global.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Sync 刷新缓冲区，进程退出前调用
func Sync() error { return global.Sync() }
