package service

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	now func() time.Time
	log *zap.Logger
}

// Option 服务的可选依赖
type Option func(*options)

// WithClock 替换时钟，测试中用来构造窗口边界
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger 指定日志，缺省为 Nop
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// 所有写入数据库的时间统一为 UTC 微秒精度
func (o options) clock() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}
