package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-guide-go/internal/api/handler"
	"career-guide-go/internal/api/router"
	"career-guide-go/internal/bookmark"
	"career-guide-go/internal/bootstrap"
	appconfig "career-guide-go/internal/config"
	"career-guide-go/internal/logger"
	"career-guide-go/internal/parser"
	"career-guide-go/internal/processor"
	"career-guide-go/internal/report"
	"career-guide-go/internal/storage"
	"career-guide-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "configs/config.yaml", "配置文件路径")
	pflag.Parse()

	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	log := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	hlog.SetLogger(hertzadapter.From(log))
	log.Info().Str("config", configPath).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化链路追踪失败")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	st, err := storage.NewStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer st.Close()

	embedder, err := parser.NewOpenAIEmbedder(cfg.Embedding, parser.WithEmbedderLogger(logger.Component("embedder")))
	if err != nil {
		log.Fatal().Err(err).Msg("初始化向量化客户端失败")
	}

	cat, err := bootstrap.LoadCatalog(ctx, cfg, st, embedder, logger.Component("catalog"))
	if err != nil {
		log.Fatal().Err(err).Msg("加载职业目录失败")
	}

	cache, err := bootstrap.QueryCache(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化查询向量缓存失败")
	}
	if mem, ok := cache.(*processor.MemoryQueryCache); ok {
		defer mem.Stop()
	}

	recommender := processor.NewRecommender(cat,
		processor.NewQueryEmbedder(embedder, cache, logger.Component("query")),
		processor.WithTopNBounds(cfg.Recommend.DefaultTopN, cfg.Recommend.MaxTopN),
		processor.WithRecommenderLogger(logger.Component("recommender")),
	)

	extractor, err := parser.NewProfileExtractor(ctx, parser.WithExtractorLogger(logger.Component("profile")))
	if err != nil {
		log.Fatal().Err(err).Msg("初始化 PDF 解析器失败")
	}
	careerOpts := []handler.CareerHandlerOption{handler.WithProfileExtractor(extractor)}
	if st.MinIO != nil {
		expiry := appconfig.GetDuration(cfg.MinIO.PresignExpiry, 24*time.Hour)
		careerOpts = append(careerOpts, handler.WithReportArchiver(
			report.NewArchiver(st.MinIO, expiry, logger.Component("report"))))
	}

	store, err := bootstrap.BookmarkStore(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化收藏存储失败")
	}
	if mem, ok := store.(*bookmark.MemoryStore); ok {
		defer mem.Stop()
	}
	bookmarks := bookmark.NewService(store, cat, logger.Component("bookmark"))

	serverOpts := bootstrap.ServerOptions(cfg)
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tc := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracer)
		tracerCfg = tc
	}
	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	router.RegisterRoutes(h,
		handler.NewCareerHandler(recommender, careerOpts...),
		handler.NewBookmarkHandler(bookmarks),
		router.Options{APIKeys: cfg.Auth.APIKeys, Logger: logger.Component("http")},
	)

	go func() {
		log.Info().Str("address", cfg.Server.Address).Int("careers", cat.Len()).Msg("HTTP服务器正在启动")
		h.Spin()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("收到退出信号，正在关闭服务")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		appconfig.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer shutdownCancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Hertz服务器关闭失败")
	}
	log.Info().Msg("服务已关闭")
}
