package bootstrap

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/config"
	"github.com/quantumcode/quantumcode-backend/internal/projects/repository"
)

// OpenStore builds the project store selected by STORE_BACKEND. The returned
// close func releases the underlying client and is never nil.
func OpenStore(ctx context.Context, cfg config.StoreConfig, app *firebase.App, log *zap.Logger) (repository.Store, func() error, error) {
	switch cfg.Backend {
	case config.StoreFirestore:
		if app == nil {
			return nil, nil, fmt.Errorf("firestore store needs a Firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		log.Info("project store ready", zap.String("backend", cfg.Backend))
		return repository.NewFirestoreStore(client), client.Close, nil

	case config.StorePostgres:
		db, err := OpenDB(ctx, DBOptions{DSN: cfg.DSN})
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("project store ready", zap.String("backend", cfg.Backend))
		return store, db.Close, nil

	case config.StoreMemory:
		log.Warn("using in-memory project store; projects are lost on restart")
		return repository.NewMemoryStore(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
