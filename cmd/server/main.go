// Command server exposes the root finder over HTTP: start a run, follow its
// iterations as server-sent events, stop it, or export its trace as CSV.
//
// Configuration comes from the environment (see internal/config); flags
// override it.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adamehabm/Numerical-Project/internal/config"
	"github.com/adamehabm/Numerical-Project/internal/logging"
	"github.com/adamehabm/Numerical-Project/internal/server"
)

func main() {
	cfg := config.LoadOrDefault()

	addr := flag.String("addr", cfg.Server.Addr, "listen address")
	dev := flag.Bool("dev", cfg.Logging.Development, "development logging")
	flag.Parse()
	cfg.Server.Addr = *addr
	cfg.Logging.Development = *dev

	log, err := logging.New(cfg.Logging.Logger())
	if err != nil {
		log = logging.NewDefault()
		log.Warn("invalid log config, using defaults", zap.Error(err))
	}
	defer log.Sync()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(cfg, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}
}
