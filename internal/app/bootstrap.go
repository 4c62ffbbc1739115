package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"visualeditor/internal/config"
	"visualeditor/internal/domain"
	"visualeditor/internal/plugins"
	"visualeditor/internal/secret"
	"visualeditor/internal/service"
	"visualeditor/internal/storage"
	"visualeditor/internal/watch"
)

// ─────────────────────────────────────────────────────────────
// Core: storage, services and watchers shared by both front ends
// ─────────────────────────────────────────────────────────────

// core is everything the desktop app and the standalone MCP server have in
// common.
type core struct {
	cfg     *config.Config
	logger  *log.Logger
	store   io.Closer
	editors *service.EditorService
	imports *watch.Watcher
}

// stores bundles the persistence side of one configured backend.
type stores struct {
	docs    domain.DocumentStore
	journal domain.SnapshotStore
	closer  io.Closer
}

// openStores connects to the configured backend. A "{password}" placeholder
// in the DSN is filled from secrets under cfg.PasswordKey.
func openStores(ctx context.Context, cfg config.Storage, journalLimit int, secrets secret.SecretStore) (stores, error) {
	dsn, err := secret.ExpandDSN(secrets, cfg.DSN, cfg.PasswordKey)
	if err != nil {
		return stores{}, fmt.Errorf("storage dsn: %w", err)
	}

	if cfg.Driver == config.DriverMongo {
		m, err := storage.OpenMongo(ctx, dsn, cfg.Database, journalLimit)
		if err != nil {
			return stores{}, err
		}
		return stores{docs: m, journal: m, closer: m}, nil
	}

	db, err := storage.Open(ctx, cfg.Driver, dsn)
	if err != nil {
		return stores{}, err
	}
	return stores{
		docs:    storage.NewDocumentStore(db),
		journal: storage.NewSnapshotStore(db, journalLimit),
		closer:  db,
	}, nil
}

// startCore opens storage, builds the editor service over the default
// palette, schedules autosave and starts watching the configured import
// files.
func startCore(ctx context.Context, cfg *config.Config, emitter service.EventEmitter, logger *log.Logger, secrets secret.SecretStore) (*core, error) {
	st, err := openStores(ctx, cfg.Storage, cfg.History.JournalLimit, secrets)
	if err != nil {
		return nil, err
	}

	registry := domain.NewComponentRegistry()
	plugins.RegisterDefaults(registry)

	editors := service.NewEditorService(st.docs, emitter,
		service.WithJournal(st.journal),
		service.WithRegistry(registry),
		service.WithLogger(logger.WithPrefix("editor")),
	)
	if err := editors.StartAutosave(cfg.Autosave.Schedule); err != nil {
		st.closer.Close()
		return nil, err
	}

	c := &core{
		cfg:     cfg,
		logger:  logger,
		store:   st.closer,
		editors: editors,
	}

	if len(cfg.Imports) > 0 {
		imports, err := watch.New(func(documentID string, data []byte) error {
			return editors.ImportJSON(ctx, documentID, data)
		}, watch.WithLogger(logger.WithPrefix("import")))
		if err != nil {
			c.close(ctx)
			return nil, err
		}
		c.imports = imports
		for _, imp := range cfg.Imports {
			if err := imports.Watch(imp.Path, imp.DocumentID); err != nil {
				logger.Warn("watch import", "path", imp.Path, "err", err)
			}
		}
	}

	logger.Info("storage ready", "driver", cfg.Storage.Driver, "journal_limit", cfg.History.JournalLimit)
	return c, nil
}

// close stops the watchers, saves and closes every document and releases
// the store.
func (c *core) close(ctx context.Context) {
	if c.imports != nil {
		c.imports.Close()
	}
	c.editors.Stop(ctx)
	c.editors.CloseAll(ctx)
	if err := c.store.Close(); err != nil {
		c.logger.Error("close storage", "err", err)
	}
}
