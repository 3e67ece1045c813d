package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/gorouter"
	"github.com/goliatone/go-rmg-dashboard/components/dashboard/httpapi"
	dashboardpkg "github.com/goliatone/go-rmg-dashboard/pkg/dashboard"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct {
	Addr      string `help:"Listen address (overrides server.addr)."`
	BasePath  string `name:"base-path" help:"Route prefix (overrides server.base_path)."`
	Transport string `enum:"fiber,http" default:"fiber" help:"fiber serves HTML, assets and WebSocket; http serves the JSON API and SSE only."`
}

func (cmd *serveCmd) Run(rt *runtime) error {
	logger, err := newLogger(rt.cfg.Log.Verbose)
	if err != nil {
		return err
	}
	rt.logger = logger

	addr := firstNonEmpty(cmd.Addr, rt.cfg.Server.Addr)
	base := firstNonEmpty(cmd.BasePath, rt.cfg.Server.BasePath)

	app, err := rt.buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var srv server
	switch cmd.Transport {
	case "http":
		srv = newHTTPServer(app, addr, base)
	default:
		srv, err = newFiberServer(app, base)
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rmg dashboard listening",
			zap.String("addr", addr),
			zap.String("base_path", base),
			zap.String("transport", cmd.Transport),
		)
		errCh <- srv.Serve(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-rt.ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("rmgdash: shutdown: %w", err)
	}
	return nil
}

// server is the part of both transports the serve loop drives.
type server interface {
	Serve(addr string) error
	Shutdown(ctx context.Context) error
}

func newFiberServer(app *dashboardpkg.App, base string) (server, error) {
	adapter := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     adapter.Router(),
		Controller: app.Controller,
		API:        app.Executor,
		Broadcast:  app.Broadcast,
		BasePath:   base,
	}); err != nil {
		return nil, fmt.Errorf("rmgdash: register routes: %w", err)
	}
	return adapter, nil
}

type httpServer struct {
	srv *http.Server
}

func newHTTPServer(app *dashboardpkg.App, addr, base string) *httpServer {
	handlers := &httpapi.Handlers{API: app.Executor}
	mux := handlers.Mux(base)
	mux.HandleFunc("GET "+base+"/events", app.Broadcast.ServeSSE)
	return &httpServer{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *httpServer) Serve(addr string) error {
	s.srv.Addr = addr
	return s.srv.ListenAndServe()
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
