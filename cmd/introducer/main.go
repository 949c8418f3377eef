// Package main 提供 introducer 命令行入口
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

	introducer "github.com/dep2p/go-introducer"
	"github.com/dep2p/go-introducer/pkg/lib/log"
	"github.com/dep2p/go-introducer/pkg/types"
)

var logger = log.Logger("introducer/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（「这次运行」想怎么跑）
//   JSON 配置文件：持久化配置（「这个身份」的固定节奏）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile    = flag.String("config", "", "配置文件路径")
	preset        = flag.String("preset", "", "预设配置 (default/aggressive/quiet)")
	dataDir       = flag.String("data-dir", "", "数据目录（默认: ./data）")
	localIdentity = flag.String("local-identity", "", "执行下载的本地身份")
	metricsAddr   = flag.String("metrics-addr", "", "Prometheus /metrics 监听地址")
	statusEvery   = flag.Duration("status-interval", time.Minute, "状态输出间隔（0 关闭）")
	demo          = flag.Bool("demo", false, "内存模式运行并预置演示身份与谜题")

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
		fmt.Println(introducer.VersionInfo())
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if cfg.Log.Level != "" || cfg.Log.Format != "" {
		log.Configure(cfg.Log.Level, cfg.Log.Format)
	}

	// 指标使用独立注册表，附带 Go 运行时与进程指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	n, err := introducer.New(
		introducer.WithConfig(cfg),
		introducer.WithRegisterer(reg),
	)
	if err != nil {
		return fmt.Errorf("创建失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📦 %s\n", introducer.VersionInfo())
	logger.Info("启动介绍客户端", "version", introducer.Version, "commit", introducer.GitCommit, "buildDate", introducer.BuildDate)

	if err := n.Start(ctx); err != nil {
		_ = n.Stop(context.Background())
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Stop(stopCtx); err != nil {
			logger.Warn("关闭失败", "error", err)
		}
	}()

	if *demo {
		if err := seedDemo(ctx, n); err != nil {
			return fmt.Errorf("预置演示数据失败: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("指标服务监听", "addr", srv.Addr)
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

	if *statusEvery > 0 {
		g.Go(func() error {
			reportStatus(gctx, n, *statusEvery)
			return nil
		})
	}

	fmt.Println("介绍客户端已启动，按 Ctrl+C 退出")
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = g.Wait()

	fmt.Println("\n正在关闭...")
	return err
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// reportStatus 周期性输出调度器状态
func reportStatus(ctx context.Context, n *introducer.Introducer, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st := n.Stats()
		stored, err := n.Puzzles().Count(ctx)
		if err != nil {
			logger.Warn("读取谜题数量失败", "error", err)
		}
		var last string
		if !st.LastCycle.IsZero() {
			last = st.LastCycle.Format(time.RFC3339)
		}
		logger.Info("状态",
			"state", st.State.String(),
			"cycles", st.Cycles,
			"pendingFetches", st.PendingFetches,
			"pendingInserts", st.PendingInserts,
			"chains", st.ActiveChains,
			"window", st.WindowSize,
			"puzzles", stored,
			"lastCycle", last)
	}
}

// ============================================================================
//                              演示数据
// ============================================================================

// demoIdentity 预置的演示身份
type demoIdentity struct {
	id      types.IdentityID
	nick    string
	score   int
	puzzles int
}

var demoIdentities = []demoIdentity{
	{id: "alice", nick: "Alice", score: 80, puzzles: 3},
	{id: "bob", nick: "Bob", score: 40, puzzles: 2},
	{id: "carol", nick: "Carol", score: 5, puzzles: 1},
}

// seedDemo 导入演示身份并以它们的名义发布谜题
//
// alice 的谜题可被下载并展示；bob 只会被下载；carol 的评分不够，不会被请求。
func seedDemo(ctx context.Context, n *introducer.Introducer) error {
	now := time.Now()
	idents := make([]types.Identity, 0, len(demoIdentities))
	scores := make(map[types.IdentityID]int, len(demoIdentities))
	for _, d := range demoIdentities {
		idents = append(idents, types.Identity{
			ID:         d.id,
			Nickname:   d.nick,
			LastChange: now,
			Contexts:   []string{types.IntroductionContext},
		})
		scores[d.id] = d.score
	}
	if err := n.ImportIdentities(ctx, idents, scores); err != nil {
		return err
	}

	for _, d := range demoIdentities {
		for i := 0; i < d.puzzles; i++ {
			data := []byte(fmt.Sprintf("captcha %s #%d", d.nick, i))
			if _, err := n.PublishPuzzle(d.id, types.PuzzleTypeCaptcha, "text/plain", data, i); err != nil {
				return err
			}
		}
	}
	logger.Info("演示数据已预置", "identities", len(idents))
	return nil
}
