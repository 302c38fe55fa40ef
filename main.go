package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath  = flag.String("config", getEnv("CONFIG_FILE", ""), "path to a TOML config file")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config and ADDR)")
		historySize = flag.Int("history-size", 0, "messages retained per topic (overrides config and HISTORY_SIZE)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *historySize != 0 {
		cfg.HistorySize = *historySize
		if err := cfg.validate(); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
	log.Printf("server exited")
}

func run(ctx context.Context, cfg Config) error {
	a := newApp(cfg)
	// hijacked websocket connections outlive Shutdown, so their request
	// context is tied to ctx instead
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (history size %d)", cfg.Addr, cfg.HistorySize)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("shutting down")
		a.topics.CloseAllGracefully(cfg.ShutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
