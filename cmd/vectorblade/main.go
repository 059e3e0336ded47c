package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"

	"github.com/flarexio/vectorblade"
	"github.com/flarexio/vectorblade/embedding"
	"github.com/flarexio/vectorblade/llm"
	"github.com/flarexio/vectorblade/persistence/chromem"
	"github.com/flarexio/vectorblade/registry"

	mcpE "github.com/flarexio/vectorblade/mcp"
	httpT "github.com/flarexio/vectorblade/transport/http"
	natsT "github.com/flarexio/vectorblade/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:    "vectorblade",
		Usage:   "VectorBlade document index service",
		Version: vectorblade.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the VectorBlade home directory",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8000",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL, NATS transport is disabled when empty",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key used when the config leaves it empty",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func newLogger() (*zap.Logger, error) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func loadConfig(path string) (vectorblade.Config, error) {
	var cfg vectorblade.Config

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return cfg, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".flarex", "vectorblade")
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	switch dir := cfg.Storage.Dir; {
	case dir == "":
		cfg.Storage.Dir = filepath.Join(path, "storage")
	case !filepath.IsAbs(dir):
		cfg.Storage.Dir = filepath.Join(path, dir)
	}

	cfg.Registry.Root = cfg.Storage.Dir

	if apiKey := cmd.String("openai-api-key"); apiKey != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = apiKey
		}

		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = apiKey
		}
	}

	embed, err := embedding.New(cfg.Embedding)
	if err != nil {
		return err
	}

	synth, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}

	engine := chromem.NewEngine(cfg.Vector, embed, cfg.Embedding.ModelName())
	engine = vectorblade.InstrumentingEngine(engine,
		kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: "vectorblade",
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Number of index builds and loads.",
		}, []string{"op", "error"}),
		kitprometheus.NewHistogramFrom(prometheus.HistogramOpts{
			Namespace: "vectorblade",
			Subsystem: "engine",
			Name:      "duration_seconds",
			Help:      "Duration of index builds and loads in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"op", "error"}),
	)

	reg, err := registry.New(cfg.Registry, engine)
	if err != nil {
		return err
	}

	n := reg.Discover()
	log.Info("storage scanned",
		zap.String("dir", cfg.Storage.Dir),
		zap.Int("indexes", n),
	)

	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "vectorblade",
		Name:      "loaded_indexes",
		Help:      "Number of indexes held in memory.",
	}, func() float64 {
		return float64(len(reg.ListLoaded()))
	}))

	svc, err := vectorblade.NewService(ctx, cfg, reg, engine, synth)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = vectorblade.LoggingMiddleware(log)(svc)
	svc = vectorblade.InstrumentingMiddleware(
		kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: "vectorblade",
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Number of requests received.",
		}, []string{"method", "error"}),
		kitprometheus.NewHistogramFrom(prometheus.HistogramOpts{
			Namespace: "vectorblade",
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "error"}),
	)(svc)
	svc = vectorblade.TracingMiddleware()(svc)

	endpoints := vectorblade.MakeEndpoints(svc)

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		idBytes, err := os.ReadFile(filepath.Join(path, "id"))
		if err != nil {
			return err
		}

		edgeID := strings.TrimSpace(string(idBytes))

		opts := []nats.Option{
			nats.Name("VectorBlade Server - " + edgeID),
		}

		natsCreds := filepath.Join(path, "user.creds")
		if _, err := os.Stat(natsCreds); err == nil {
			opts = append(opts, nats.UserCredentials(natsCreds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "vectorblade",
			Version: vectorblade.Version,
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		topic := "edges." + edgeID + ".vectorblade"

		root := srv.AddGroup(topic)
		if err := natsT.AddEndpoints(root, endpoints); err != nil {
			return err
		}

		log.Info("nats transport enabled", zap.String("topic", topic))
	}

	// Add HTTP Transport
	r := gin.New()
	r.Use(gin.Recovery())

	httpT.AddRouters(r, endpoints)
	httpT.AddMetricsRouter(r)
	httpT.AddStreamableRouters(r, mcpE.MakeEndpoints(svc))

	server := &http.Server{
		Addr:    cmd.String("http-addr"),
		Handler: r,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("http transport enabled", zap.String("addr", server.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sign := <-quit:
		log.Info("graceful shutdown", zap.String("signal", sign.String()))

	case err := <-errs:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
