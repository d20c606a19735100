// Command shoprec 运行商品推荐服务。
//
//	shoprec -config configs/shoprec.yaml
//
// 配置优先级：环境变量（SHOPREC_*）> 配置文件 > 默认值；启动时会读取当前目录的 .env。
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

	"github.com/joho/godotenv"
	"github.com/thejerf/suture/v4"

	"github.com/rushteam/shoprec/api"
	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/config/builders"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/events"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/logging"
	"github.com/rushteam/shoprec/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: $SHOPREC_CONFIG)")
	flag.Parse()

	_ = godotenv.Load() // .env 不存在时继续使用系统环境变量

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shoprec: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log)
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("shoprec exited")
	}
	log.Info().Msg("shoprec stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("main")

	kv, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()
	builders.UseStore(kv)

	products, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	defer closeCatalog()

	opts := []engine.Option{
		engine.WithConfig(cfg.Recommend.Engine()),
		engine.WithLogger(logging.Logger()),
		engine.WithInStockOnly(cfg.Recommend.InStockOnly),
		engine.WithHistory(history.NewTracker(kv,
			history.WithCap(cfg.Recommend.HistoryCap),
			history.WithLogger(logging.Logger()),
		)),
	}
	if cfg.Recommend.PipelinesFile != "" {
		pipelines, err := config.LoadPipelines(cfg.Recommend.PipelinesFile)
		if err != nil {
			return fmt.Errorf("load pipelines: %w", err)
		}
		opts = append(opts, engine.WithPipelines(pipelines))
		log.Info().Str("file", cfg.Recommend.PipelinesFile).Int("pipelines", len(pipelines)).Msg("pipelines loaded")
	}

	sup := suture.New("shoprec", suture.Spec{
		EventHook: func(ev suture.Event) {
			log.Warn().Fields(ev.Map()).Str("event", ev.String()).Msg("supervisor event")
		},
		Timeout: cfg.Server.ShutdownTimeout,
	})

	var views api.ViewCounts
	if cfg.Events.Enabled {
		pubsub := events.NewGoChannel(cfg.Events.BufferSize, false, logging.Logger())
		defer pubsub.Close()

		counter := events.NewViewCounter(pubsub, cfg.Events.Topic, kv, logging.Logger())
		sup.Add(counter)
		views = counter
		opts = append(opts, engine.WithViewObserver(events.NewPublisher(pubsub, cfg.Events.Topic, logging.Logger())))
	}

	eng, err := engine.New(products, opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if cfg.Recommend.CacheSweepInterval > 0 {
		sup.Add(&janitor{engine: eng, interval: cfg.Recommend.CacheSweepInterval})
	}

	handler := api.NewServer(eng, products, views, logging.Logger()).Router(api.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	sup.Add(&httpService{server: srv, shutdownTimeout: cfg.Server.ShutdownTimeout})

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("store", kv.Name()).
		Str("catalog", cfg.Catalog.Source).
		Bool("events", cfg.Events.Enabled).
		Msg("shoprec starting")
	return sup.Serve(ctx)
}

// openCatalog 按配置打开目录来源；MySQL 来源外面包一层熔断器。
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (core.CatalogProvider, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case "file":
		m, err := catalog.NewFile(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog file: %w", err)
		}
		return m, noop, nil
	case "mysql":
		db, err := catalog.OpenMySQL(cfg.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql catalog: %w", err)
		}
		b := catalog.NewBreaker(db, cfg.Breaker, logging.Logger())
		if _, err := b.Products(ctx); err != nil {
			l := logging.Component("main")
			l.Warn().Err(err).Msg("initial catalog load failed")
		}
		return b, func() { _ = db.Close() }, nil
	default:
		return catalog.NewDemo(), noop, nil
	}
}

// janitor 周期清理推荐缓存中的过期条目。
type janitor struct {
	engine   *engine.Engine
	interval time.Duration
}

func (j *janitor) Serve(ctx context.Context) error { return j.engine.Cache().Run(ctx, j.interval) }
func (j *janitor) String() string                  { return "cache-janitor" }

// httpService 把 http.Server 适配为 suture.Service。
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *httpService) String() string { return "http-server" }
