package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

// configExtension is the suffix of the files the watcher reacts to.
const configExtension = ".hcl"

// Run serves the HTTP API, the hardware interfaces and, when enabled, the
// configuration watcher until ctx is done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	addr := fmt.Sprintf(":%d", a.Config().Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	a.httpServer = &http.Server{Handler: a.router}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("🛰️ Server listening", "address", ln.Addr().String())
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	for _, mod := range a.modules {
		g.Go(func() error {
			mctx := ctxlog.With(gctx, "interface", mod.Name())
			if err := mod.Run(mctx); err != nil {
				return fmt.Errorf("interface %s: %w", mod.Name(), err)
			}
			return nil
		})
	}

	if a.appConfig.Watch {
		w := watcher.New(a.appConfig.ConfigPaths, configExtension, watcher.DefaultDebounce, a.reload)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(ctx)
	})

	err = g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

// shutdown runs the registry's shutdown listeners and stops the HTTP server.
// Listener failures are logged; they do not fail the shutdown.
func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down...")

	if err := a.registry.RunGlobalShutdown(ctx); err != nil {
		a.logger.Warn("Shutdown listeners failed.", "error", err)
	}
	a.editors.close()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(sctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("HTTP server shut down gracefully.")
	return nil
}
