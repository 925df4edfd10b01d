package app

import (
	"context"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/config"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/db"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

type Infra struct {
	Users user.Store
	Keys  *keys.Store
	close func() error
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{close: func() error { return nil }}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, database.DB); err != nil {
			_ = database.Close()
			return nil, err
		}
		infra.Users = db.NewUserStore(database)
		infra.close = database.Close
		logger.Info("database ready", nil)

	case config.DriverMemory:
		infra.Users = user.NewMemoryStore()
		logger.Warn("using in-memory user store, accounts are lost on restart", nil)
	}

	infra.Keys = keys.NewStore(keySource(cfg), cfg.KeyRetention)
	if err := infra.Keys.Load(ctx); err != nil {
		_ = infra.close()
		return nil, err
	}

	return infra, nil
}

// keySource picks directory mode when a key directory is configured.
func keySource(cfg config.Config) keys.Source {
	if cfg.KeysDir != "" {
		return keys.DirSource{Dir: cfg.KeysDir}
	}
	return keys.EnvSource{
		KeyID:         cfg.KeyID,
		PrivateKeyPEM: cfg.PrivateKeyBase64,
		PublicKeyPEM:  cfg.PublicKeyBase64,
	}
}
