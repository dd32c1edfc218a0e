package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/api/handler"
	"github.com/Saking-tech/Resume-parser/internal/api/router"
	"github.com/Saking-tech/Resume-parser/internal/config"
	appCoreLogger "github.com/Saking-tech/Resume-parser/internal/logger"
	"github.com/Saking-tech/Resume-parser/internal/outbox"
	"github.com/Saking-tech/Resume-parser/internal/processor"
	"github.com/Saking-tech/Resume-parser/internal/storage"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file (默认在常见位置查找 config.yaml)")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	closeLog, err := initLogger(cfg.Logger)
	if err != nil {
		glog.Fatalf("初始化日志失败: %v", err)
	}
	defer closeLog()
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 必须在创建 hertz tracer 之前设置全局 TracerProvider
	shutdownTracing, err := initTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	if storageManager.Outbox != nil {
		relay := outbox.NewMessageRelay(storageManager.MySQL, storageManager.RabbitMQ,
			outbox.WithLogger(appCoreLogger.Component("outbox")),
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.OutboxPollInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.OutboxBatchSize),
		)
		relay.Start(ctx)
		defer relay.Stop()
		glog.Info("消息中继服务已启动")
	}

	serviceLogger := appCoreLogger.Component("resume_service")
	resumeService, err := processor.NewResumeServiceFromConfig(ctx, cfg, storageManager, &serviceLogger)
	if err != nil {
		glog.Fatalf("初始化简历解析服务失败: %v", err)
	}
	handlerLogger := appCoreLogger.Component("http")
	resumeHandler := handler.NewResumeHandler(cfg, resumeService, &handlerLogger)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBody),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s -> %d (%s)", string(ctx.Method()), string(ctx.Path()),
			ctx.Response.StatusCode(), time.Since(start))
	})

	router.RegisterRoutes(h, resumeHandler, cfg)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Warnf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化全局 zerolog，并把 hertz 的 hlog 桥接过去
func initLogger(cfg config.LoggerConfig) (func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out = zerolog.MultiLevelWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
		Output:       out,
	})

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(hlogLevel(cfg.Level))
	return closeFn, nil
}

func hlogLevel(level string) glog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return glog.LevelDebug
	case "warn", "warning":
		return glog.LevelWarn
	case "error":
		return glog.LevelError
	default:
		return glog.LevelInfo
	}
}
