package app

import (
	"context"
	"net/http"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/config"

	"github.com/gin-gonic/gin"
)

const keyWatchDebounce = 500 * time.Millisecond

type App struct {
	cfg        config.Config
	httpServer *http.Server
	infra      *Infra
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	router, err := setupHTTP(ctx, cfg, infra)
	if err != nil {
		_ = infra.close()
		return nil, err
	}

	return newApp(cfg, infra, router), nil
}

func newApp(cfg config.Config, infra *Infra, router *gin.Engine) *App {
	return &App{
		cfg:   cfg,
		infra: infra,
		httpServer: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ReloadKeys re-reads the signing keys, e.g. on SIGHUP.
func (a *App) ReloadKeys(ctx context.Context) error {
	return a.infra.Keys.Reload(ctx)
}

// WatchKeys follows the key directory until ctx ends. It returns at once in
// single-key mode.
func (a *App) WatchKeys(ctx context.Context) error {
	if a.cfg.KeysDir == "" {
		return nil
	}
	return a.infra.Keys.Watch(ctx, a.cfg.KeysDir, keyWatchDebounce)
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return a.infra.close()
}
