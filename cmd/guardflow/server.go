package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/analyzer"
	"github.com/BaSui01/guardflow/api/handlers"
	"github.com/BaSui01/guardflow/config"
	"github.com/BaSui01/guardflow/internal/metrics"
	"github.com/BaSui01/guardflow/internal/server"
	"github.com/BaSui01/guardflow/pipeline"
	"github.com/BaSui01/guardflow/sandbox"
	"github.com/BaSui01/guardflow/scanner"
	"github.com/BaSui01/guardflow/types"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 GuardFlow 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 管线组件
	executor *sandbox.Executor
	pipeline *pipeline.Pipeline

	// Handlers
	healthHandler  *handlers.HealthHandler
	inspectHandler *handlers.InspectHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// 后台 goroutine 生命周期管理
	bgCtx    context.Context
	bgCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("guardflow", prometheus.DefaultRegisterer, s.logger)

	// 2. 初始化管线
	s.initPipeline()

	// 3. 初始化 Handlers
	s.initHandlers()

	// 4. 启动后台任务
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.pollPoolStats(s.bgCtx)

	// 5. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 6. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("executor_pool_size", s.cfg.Executor.PoolSize),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initPipeline 组装信任边界管线
func (s *Server) initPipeline() {
	sc := scanner.New(&scanner.Config{
		EnabledCategories: toCategories(s.cfg.Scanner.EnabledCategories),
		CustomPatterns:    toCustomPatterns(s.cfg.Scanner.CustomPatterns),
	})

	an := analyzer.New(&analyzer.Config{
		DeniedCalls:    s.cfg.Analyzer.DeniedCalls,
		AllowedModules: s.cfg.Analyzer.AllowedModules,
	})

	// 执行器与分析器共享同一语法选项，保证两阶段接受同一方言
	s.executor = sandbox.New(&sandbox.Config{
		PoolSize:           s.cfg.Executor.PoolSize,
		AcquireTimeout:     s.cfg.Executor.AcquireTimeout,
		StepsPerMemoryByte: s.cfg.Executor.StepsPerMemoryByte,
		AllowedModules:     s.cfg.Analyzer.AllowedModules,
		DefaultLimits: types.Limits{
			MaxDurationMs:  s.cfg.Executor.MaxDuration.Milliseconds(),
			MaxMemoryBytes: s.cfg.Executor.MaxMemoryBytes,
			MaxOutputBytes: s.cfg.Executor.MaxOutputBytes,
		},
	}, an.FileOptions(), s.logger)

	s.pipeline = pipeline.New(sc, an, s.executor, s.metricsCollector, s.logger)

	s.logger.Info("Pipeline initialized",
		zap.Int("scanner_rules", sc.Rules()),
		zap.Strings("allowed_modules", s.cfg.Analyzer.AllowedModules),
	)
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	// 健康检查 handler
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewExecutorHealthCheck("executor", s.probeExecutor))

	// 载荷检查 handler
	s.inspectHandler = handlers.NewInspectHandler(s.pipeline, s.cfg.Server.MaxPayloadBytes, s.logger)

	s.logger.Info("Handlers initialized")
}

// probeExecutor 就绪探针：执行槽位全部占用时报告未就绪
func (s *Server) probeExecutor(ctx context.Context) error {
	stats := s.executor.PoolStats()
	if stats.InUse >= stats.Capacity {
		return fmt.Errorf("execution pool saturated: %d/%d slots in use", stats.InUse, stats.Capacity)
	}
	return nil
}

// pollPoolStats 周期性上报执行槽位占用指标
func (s *Server) pollPoolStats(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metricsCollector.SetSlotsBusy(s.executor.PoolStats().InUse)
		}
	}
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// API 路由
	// ========================================
	mux.HandleFunc("/api/v1/inspect", s.inspectHandler.HandleInspect)

	// ========================================
	// 构建中间件链
	// ========================================
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		RateLimiter(s.bgCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout, // 2x ReadTimeout
		MaxHeaderBytes:  1 << 20,                      // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	// 使用 httpManager 的 WaitForShutdown（它会监听信号）
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	// 执行清理
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 1. 停止后台 goroutine
	if s.bgCancel != nil {
		s.bgCancel()
	}

	// 2. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 4. 等待所有 goroutine 完成
	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}

// toCategories 将配置中的类别字符串转换为枚举
func toCategories(names []string) []types.Category {
	cats := make([]types.Category, 0, len(names))
	for _, n := range names {
		cats = append(cats, types.Category(n))
	}
	return cats
}

// toCustomPatterns 将配置中的自定义规则转换为扫描器规则
func toCustomPatterns(patterns []config.CustomPatternConfig) []scanner.CustomPattern {
	out := make([]scanner.CustomPattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, scanner.CustomPattern{
			ID:       p.ID,
			Category: types.Category(p.Category),
			Severity: types.Severity(p.Severity),
			Pattern:  p.Pattern,
		})
	}
	return out
}
