package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PriceWindow/internal/usecase"
	xhttp "PriceWindow/pkg/http"
	applogger "PriceWindow/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	log        *applogger.Logger
	refresher  *usecase.Refresher
	collector  *usecase.TradeCollector
	httpServer *xhttp.Server
}

// New creates an App. collector may be nil when no trade stream is
// configured. Resources shared with the injector (cache, sinks) are closed
// by the injector's cleanup, not here.
func New(
	l *applogger.Logger,
	refresher *usecase.Refresher,
	collector *usecase.TradeCollector,
	httpServer *xhttp.Server,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		log:        l,
		refresher:  refresher,
		collector:  collector,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.collector != nil {
		// Until the stream connects the finnhub source fails and the chain falls through.
		if err := a.collector.Start(runCtx); err != nil {
			a.log.Warn("trade collector not connected, retrying in background", applogger.Error(err))
		} else {
			a.log.Info("trade collector started")
		}
	}

	a.refresher.Start(runCtx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		_ = a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.refresher.Stop(a.httpServer.ShutdownTimeout()); err != nil {
		a.log.Warn("refresher stop error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
