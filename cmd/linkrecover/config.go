package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/dep2p/go-linkrecover/config"
)

// ============================================================================
//                              环境变量（CLI 专用）
// ============================================================================

// 环境变量名，均使用 LINKRECOVER_ 前缀
const (
	envPrefix        = "LINKRECOVER_"
	envPreset        = "PRESET"
	envURL           = "URL"
	envServer        = "SERVER"
	envAOR           = "AOR"
	envMaxAttempts   = "MAX_ATTEMPTS"
	envAutoReconnect = "AUTO_RECONNECT"
	envMetricsAddr   = "METRICS_ADDR"
	envLogLevel      = "LOG_LEVEL"
	envSTUNServers   = "STUN_SERVERS"
)

// envOverrides 不属于 config.Config 的运行时参数
type envOverrides struct {
	preset      string
	metricsAddr string
	logLevel    string
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
func applyEnvOverrides(cfg *config.Config, rt *envOverrides) {
	if v := getenv(envPreset); v != "" {
		rt.preset = v
	}
	if v := getenv(envURL); v != "" {
		cfg.Signaling.URL = v
	}
	if v := getenv(envServer); v != "" {
		cfg.Signaling.Server = v
	}
	if v := getenv(envAOR); v != "" {
		cfg.Signaling.AOR = v
	}
	if v := getenv(envMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Recovery.MaxAttempts = n
		}
	}
	if v := getenv(envAutoReconnect); v != "" {
		cfg.Network.AutoReconnectOnNetworkChange = parseBool(v)
	}
	if v := getenv(envSTUNServers); v != "" {
		cfg.Network.STUNServers = splitAndTrim(v, ",")
	}
	if v := getenv(envMetricsAddr); v != "" {
		rt.metricsAddr = v
	}
	if v := getenv(envLogLevel); v != "" {
		rt.logLevel = v
	}
}

func getenv(name string) string {
	return os.Getenv(envPrefix + name)
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseBool 解析布尔值
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
