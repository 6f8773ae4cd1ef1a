// cmd/configserver/main.go
//
// Process entrypoint: loads configuration, wires every component, and serves
// the management HTTP API until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/api"
	"github.com/yanizio/gitconf/internal/cache"
	"github.com/yanizio/gitconf/internal/config"
	"github.com/yanizio/gitconf/internal/configstore"
	"github.com/yanizio/gitconf/internal/crypto"
	"github.com/yanizio/gitconf/internal/logger"
	"github.com/yanizio/gitconf/internal/notify"
	"github.com/yanizio/gitconf/internal/repo"
	"github.com/yanizio/gitconf/internal/resolver"
	"github.com/yanizio/gitconf/internal/secret"
	"github.com/yanizio/gitconf/internal/server"
	"github.com/yanizio/gitconf/internal/vault"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configserver: failed to load configuration:", err)
		os.Exit(1)
	}

	// spec.md §6: "Process exits non-zero if the base directory does not
	// exist at startup."
	if info, err := os.Stat(cfg.ConfigServer.BasePath); err != nil || !info.IsDir() {
		fmt.Fprintln(os.Stderr, "configserver: base path does not exist:", cfg.ConfigServer.BasePath)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Paths.Root, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configserver: failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	masterKey, err := crypto.LoadMasterKey(cfg.ConfigServer.VaultMasterKey, log)
	if err != nil {
		log.Fatal("failed to load vault master key", zap.Error(err))
	}
	cipher, err := crypto.New(masterKey)
	if err != nil {
		log.Fatal("failed to construct cipher", zap.Error(err))
	}

	c := cache.New(time.Duration(cfg.ConfigServer.CacheTTLSeconds)*time.Second, log)
	gateway := repo.New(cfg.ConfigServer.BasePath, log)

	vaultStore := vault.New(gateway, cipher, c, log)
	secretProcessor := secret.New(vaultStore, log)

	notifyStore := notify.NewStore()
	notifier := notify.New(notifyStore, cfg.ConfigServer.RefreshNotifyURL, prometheus.DefaultRegisterer, log)
	defer notifier.Shutdown()

	configStore := configstore.New(gateway, secretProcessor, c, notifier, cfg.ConfigServer.CommitHistorySize, log)
	res := resolver.New(configStore, secretProcessor, log)

	srv := api.New(gateway, configStore, vaultStore, res, notifyStore, c, log)

	httpServer := server.New(cfg.HTTP.ListenAddr, srv.Router())

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
