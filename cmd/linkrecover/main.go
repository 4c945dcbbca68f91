// Package main 提供 linkrecover 命令行入口
//
// 维持一条 SIP over WebSocket 注册链路：传输断开后自动重拨，
// 重新连通后由恢复引擎重新注册，并通过 /metrics 暴露恢复指标。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	linkrecover "github.com/dep2p/go-linkrecover"
	"github.com/dep2p/go-linkrecover/config"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("linkrecover/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	preset      = flag.String("preset", "signaling", "预设配置 (signaling/media)")
	wsURL       = flag.String("url", "", "SIP WebSocket 地址（ws:// 或 wss://）")
	server      = flag.String("server", "", "注册服务器 URI（如 sip:example.com）")
	aor         = flag.String("aor", "", "注册的 AOR（如 sip:alice@example.com）")
	metricsAddr = flag.String("metrics-addr", ":9464", "Prometheus 指标监听地址（空 = 禁用）")
	logLevel    = flag.String("log-level", "info", "日志级别 (debug/info/warn/error)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(linkrecover.VersionInfo())
		return nil
	}

	cfg, rt, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	level, err := log.ParseLevel(rt.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []linkrecover.Option{
		linkrecover.WithConfig(cfg),
		linkrecover.WithRegisterer(reg),
		linkrecover.WithCallbacks(linkrecover.Callbacks{
			OnRecoveryStart: func() {
				fmt.Println("⏳ 链路恢复中...")
			},
			OnRecoverySuccess: func(a linkrecover.RecoveryAttempt) {
				fmt.Printf("✅ 第 %d 次尝试恢复成功 (%s)\n", a.AttemptNumber, a.Duration.Round(time.Millisecond))
			},
			OnRecoveryFailed: func(msg string) {
				fmt.Printf("❌ %s\n", msg)
			},
			OnNetworkChange: func(info linkrecover.NetworkInfo) {
				logger.Info("网络变化", "type", info.ConnectionType, "online", info.IsOnline)
			},
		}),
	}
	if rt.preset != "" {
		opts = append(opts, linkrecover.WithPreset(linkrecover.Preset(rt.preset)))
	}

	fmt.Printf("📦 %s\n", linkrecover.VersionInfo())
	engine, err := linkrecover.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = engine.Close() }()

	printStatus(engine)
	fmt.Println("引擎已启动，按 Ctrl+C 退出")

	g, gctx := errgroup.WithContext(ctx)
	if rt.metricsAddr != "" {
		srv := &http.Server{
			Addr:              rt.metricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("指标服务已启动", "addr", rt.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	fmt.Println("\n正在关闭引擎...")
	return err
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（LINKRECOVER_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig() (*config.Config, *envOverrides, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	rt := &envOverrides{}
	applyEnvOverrides(cfg, rt)

	// 配置文件中的恢复参数不被默认预设覆盖
	if isFlagSet("preset") || (rt.preset == "" && *configFile == "") {
		rt.preset = *preset
	}
	if isFlagSet("url") {
		cfg.Signaling.URL = *wsURL
	}
	if isFlagSet("server") {
		cfg.Signaling.Server = *server
	}
	if isFlagSet("aor") {
		cfg.Signaling.AOR = *aor
	}
	if isFlagSet("metrics-addr") || rt.metricsAddr == "" {
		rt.metricsAddr = *metricsAddr
	}
	if isFlagSet("log-level") || rt.logLevel == "" {
		rt.logLevel = *logLevel
	}

	if !cfg.Signaling.Enabled() {
		return nil, nil, errors.New("需要 -url 与 -aor（或配置文件中的 signaling 段）")
	}
	return cfg, rt, nil
}

// metricsHandler /metrics 与 /healthz
func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// printStatus 打印链路状态
func printStatus(engine *linkrecover.Engine) {
	cfg := engine.Config()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  链路:     %s\n", cfg.Recovery.LinkName)
	fmt.Printf("  地址:     %s\n", cfg.Signaling.URL)
	fmt.Printf("  AOR:      %s\n", cfg.Signaling.AOR)
	fmt.Printf("  策略:     %s (最多 %d 次)\n", cfg.Recovery.Strategy, cfg.Recovery.MaxAttempts)
	if link, err := engine.SignalingLink(); err == nil {
		fmt.Printf("  状态:     %s\n", link.State())
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
