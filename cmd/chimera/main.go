package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harunnryd/chimera/pkg/chimera"
	"github.com/harunnryd/chimera/pkg/dispatch"
	"github.com/harunnryd/chimera/pkg/keypool"
	"github.com/harunnryd/chimera/pkg/logging"
	"github.com/harunnryd/chimera/pkg/metrics"
	"github.com/harunnryd/chimera/pkg/redact"
	"github.com/harunnryd/chimera/pkg/runner"
	"github.com/harunnryd/chimera/pkg/tool"
	"github.com/harunnryd/chimera/pkg/tools"
)

func main() {
	configPath := flag.String("config", "", "path to the config file (yaml)")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	flag.Parse()

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "chimera:", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	cfg, err := chimera.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(logger)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	var obs metrics.Observer = metrics.NoopObserver{}
	if cfg.Metrics.Path != "" {
		sink, err := os.OpenFile(cfg.Metrics.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open metrics sink: %w", err)
		}
		defer sink.Close()
		obs = metrics.NewJSONLObserver(sink)
	}

	registry := tool.NewRegistry()
	for _, spec := range tools.Builtin(cfg.Tools.Directory) {
		if err := registry.Register(spec); err != nil {
			return fmt.Errorf("register builtin: %w", err)
		}
	}
	loader := tool.NewLoader(tool.LoaderConfig{
		Dir:         cfg.Tools.Directory,
		ExecTimeout: cfg.Tools.ExecTimeout(),
	}, logging.NewComponentLogger(logger, "tool_loader"))
	loader.SetObserver(obs)
	discovered := loader.Load(registry)
	logger.Info("tools_ready", "registered", registry.Len(), "discovered", discovered)

	pool, err := keypool.New(cfg.LLM.APIKeys, cfg.PoolConfig(), logging.NewComponentLogger(logger, "keypool"))
	if err != nil {
		return fmt.Errorf("key pool: %w (set llm.api_keys or CHIMERA_API_KEYS)", err)
	}
	pool.SetObserver(obs)

	client, err := chimera.DefaultProviders().Build(cfg)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}

	dispatcher := dispatch.New(registry, logging.NewComponentLogger(logger, "dispatch"))
	dispatcher.SetObserver(obs)

	engine, err := chimera.NewEngine(chimera.EngineOptions{
		Client:      client,
		Pool:        pool,
		Registry:    registry,
		Dispatcher:  dispatcher,
		Logger:      logging.NewComponentLogger(logger, "engine"),
		Observer:    obs,
		MaxAttempts: cfg.LLM.MaxAttempts,
		MaxHistory:  cfg.Context.MaxHistory,
		BasePrompt:  cfg.Context.BasePrompt,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repl := runner.NewREPL(engine, logging.NewComponentLogger(logger, "runner"), os.Stdin, os.Stdout)
	go func() {
		<-ctx.Done()
		_ = repl.Stop()
	}()
	return repl.Run(ctx)
}
