// Package app 提供应用程序的初始化、装配与优雅退出.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/uachado/uachado/pkg/cache"
	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/context"
	"github.com/uachado/uachado/pkg/internal/storage"
	"github.com/uachado/uachado/pkg/log"
	"github.com/uachado/uachado/pkg/mail"
	"github.com/uachado/uachado/pkg/metrics"
	"github.com/uachado/uachado/pkg/middleware"
)

const tagsRouteCacheTTL = 30 * time.Second

type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	cancel  contextPkg.CancelFunc
}

// NewApp 完成配置加载、日志、指标、存储与通知器的装配，返回可运行的应用.
func NewApp(configPath string) *App {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	// 初始化监控
	metrics.Init(config.Metrics)

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
	)

	// KV 可用时对静态读取接口加一层短 TTL 响应缓存.
	// 只覆盖标签目录；物品端点必须每次读库，删除或领取后不能再返回旧记录
	if manager.KV != nil {
		engine.Use(middleware.ResponseCacheMiddleware(
			cache.NewCache(manager.KV), tagsRouteCacheTTL,
			"/api/v1/items/tags",
		))
	}

	if config.Metrics.Enabled {
		metrics.Register(config.Metrics, engine)
	}

	// 邮件通知器消费物品事件，发信失败只记日志
	notifier := mail.NewNotifier(mail.NewSMTPSender(config.Mail), manager.MQ)
	if err := notifier.Start(ctx); err != nil {
		l.Error().Err(err).Msg("邮件通知器启动失败")
	}

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		cancel:  cancel,
	}
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消，随后优雅收尾.
func (a *App) Run(ctx contextPkg.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Logger().Info().Str("addr", srv.Addr).Msg("HTTP服务已启动")

	select {
	case err := <-errCh:
		a.Shutdown()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), a.config.Server.GetTimeoutDuration())
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.Shutdown()

	return err
}

// Shutdown 停止后台消费并关闭存储连接.
func (a *App) Shutdown() {
	a.cancel()

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			log.Logger().Error().Err(err).Msg("存储关闭失败")
		}
	}
}

// StorageContext 返回携带存储管理器的上下文，供 CLI 子命令复用装配结果.
func (a *App) StorageContext(ctx contextPkg.Context) contextPkg.Context {
	return context.WithStorageManager(ctx, a.manager)
}
