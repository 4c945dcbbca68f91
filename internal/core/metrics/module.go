package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Config 指标配置
type Config struct {
	// HistoryLimit 尝试历史上限
	// 默认值: 50
	HistoryLimit int

	// Namespace Prometheus 指标前缀
	// 默认值: "linkrecover"
	Namespace string

	// ConstLabels 附加到所有指标的固定标签（如 link="ice"）
	ConstLabels prometheus.Labels
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		HistoryLimit: 50,
		Namespace:    "linkrecover",
	}
}

// Validate 修正无效值为默认值
func (c *Config) Validate() {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
	if c.Namespace == "" {
		c.Namespace = "linkrecover"
	}
}

// Params Recorder 依赖参数
type Params struct {
	fx.In

	Config     *Config              `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewRecorderFromParams),
)

// NewRecorderFromParams 从参数创建 Recorder，并在提供 Registerer 时注册
func NewRecorderFromParams(p Params) (*Recorder, error) {
	cfg := DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}
	rec := NewRecorder(cfg)
	if p.Registerer != nil {
		if err := p.Registerer.Register(rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
