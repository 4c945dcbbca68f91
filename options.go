package linkrecover

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dep2p/go-linkrecover/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 配置
	config *config.Config
	preset Preset

	// 恢复
	strategy  Strategy
	reconnect ReconnectHandler
	callbacks *Callbacks

	// 网络变化
	source  NetworkSource
	sampler Sampler
	prober  Prober

	// 运行时
	clock      clock.Clock
	registerer prometheus.Registerer
	fxLogger   *zap.Logger
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// resolveConfig 合并配置与预设并验证
func (o *options) resolveConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if o.config != nil {
		cfg = config.CloneConfig(o.config)
	}
	if err := config.ApplyPreset(cfg, string(o.preset)); err != nil {
		return nil, err
	}
	if err := config.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Signaling.Enabled() && o.reconnect != nil {
		return nil, ErrConflictingHandler
	}
	return cfg, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置选项
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 配置会被复制，之后修改原对象不影响引擎。WithPreset 在其之上生效。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 应用预设
func WithPreset(p Preset) Option {
	return func(o *options) error {
		switch p {
		case PresetMedia, PresetSignaling:
			o.preset = p
			return nil
		default:
			return fmt.Errorf("unknown preset: %s", p)
		}
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              恢复选项
// ════════════════════════════════════════════════════════════════════════════

// WithStrategy 使用自定义恢复策略，覆盖配置中的策略名
func WithStrategy(s Strategy) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("strategy is nil")
		}
		o.strategy = s
		return nil
	}
}

// WithReconnectHandler 设置 reconnect 策略的回调
func WithReconnectHandler(h ReconnectHandler) Option {
	return func(o *options) error {
		if h == nil {
			return errors.New("reconnect handler is nil")
		}
		o.reconnect = h
		return nil
	}
}

// WithCallbacks 设置生命周期回调
func WithCallbacks(cb Callbacks) Option {
	return func(o *options) error {
		o.callbacks = &cb
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              网络变化选项
// ════════════════════════════════════════════════════════════════════════════

// WithNetworkSource 替换系统网络事件源
func WithNetworkSource(src NetworkSource) Option {
	return func(o *options) error {
		o.source = src
		return nil
	}
}

// WithSampler 替换网络信息采样
func WithSampler(s Sampler) Option {
	return func(o *options) error {
		o.sampler = s
		return nil
	}
}

// WithProber 替换 RTT 探测
func WithProber(p Prober) Option {
	return func(o *options) error {
		o.prober = p
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              运行时选项
// ════════════════════════════════════════════════════════════════════════════

// WithClock 注入时钟（测试使用 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithRegisterer 把指标注册到 Prometheus
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithFxLogger 输出 Fx 容器事件，默认丢弃
func WithFxLogger(l *zap.Logger) Option {
	return func(o *options) error {
		o.fxLogger = l
		return nil
	}
}
