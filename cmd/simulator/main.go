package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mesctx/internal/sim"
	"mesctx/internal/util"
	"mesctx/pkg/logger"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(logger.Params{
		Debug: debug,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	basePort := int(util.GetEnvNumeric("SIM_BASE_PORT", 9001))

	var servers []*http.Server
	for i, svc := range sim.Demo() {
		addr := fmt.Sprintf(":%d", basePort+i)
		srv := &http.Server{
			Addr:    addr,
			Handler: svc.Handler(),
		}
		servers = append(servers, srv)

		logger.Info("Starting simulated service", "name", svc.Name(), "addr", addr)
		go func(name string, srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Simulated service failed", "name", name, "err", err)
			}
		}(svc.Name(), srv)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown simulated service", "addr", srv.Addr, "err", err)
		}
	}
}
