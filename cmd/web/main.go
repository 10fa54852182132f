package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/config"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/controller/auth"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/controller/calculator"
	chatController "github.com/zhouzirui/carbon-tracker/webclient/internal/controller/chat"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/controller/forecast"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/controller/history"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/handler"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/page"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/session"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/api"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions, closeSessions, err := openSessionStore(cfg.Session)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer closeSessions()

	pages := page.NewMemoryStore(page.Seed())
	rt, err := dispatch.New(pages, sessions, page.Index)
	if err != nil {
		log.Fatalf("failed to create runtime: %v", err)
	}

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, sessions)
	log.Printf("using carbon backend at %s", cfg.Backend.BaseURL)

	if err := registerControllers(rt, pages, sessions, client); err != nil {
		log.Fatalf("failed to register controllers: %v", err)
	}

	router, err := handler.NewRouter(rt, pages, sessions, cfg.Security)
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	startServer(ctx, cfg.Server, router)
}

func openSessionStore(cfg config.SessionConfig) (session.Store, func(), error) {
	if cfg.Store == config.SessionStoreMemory {
		log.Println("session store: memory (sign-in is lost on restart)")
		return session.NewMemoryStore(), func() {}, nil
	}

	store, err := session.OpenSQLiteStore(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("session store: sqlite at %s", cfg.Path)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close session store: %v", err)
		}
	}, nil
}

func registerControllers(rt *dispatch.Runtime, pages page.Store, sessions session.Store, client *api.Client) error {
	entry, ok := pages.FindByID(page.Index)
	if !ok {
		return dispatch.ErrUnknownPage
	}
	landing, ok := pages.FindByID(page.Dashboard)
	if !ok {
		return dispatch.ErrUnknownPage
	}

	registrations := []struct {
		id          page.ID
		controllers []dispatch.Controller
	}{
		{page.Index, []dispatch.Controller{auth.NewLogin(client, sessions, landing), auth.NewSignup(client)}},
		{page.Forgot, []dispatch.Controller{auth.NewForgot(entry)}},
		{page.Dashboard, []dispatch.Controller{calculator.New(client)}},
		{page.History, []dispatch.Controller{history.New(client)}},
		{page.Forecast, []dispatch.Controller{forecast.New(client)}},
		{page.Chat, []dispatch.Controller{chatController.New(client)}},
	}
	for _, reg := range registrations {
		if err := rt.Register(reg.id, reg.controllers...); err != nil {
			return err
		}
	}
	return nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Carbon tracker client listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
