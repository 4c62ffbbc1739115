package app

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"visualeditor/internal/config"
	"visualeditor/internal/logging"
	mcpserver "visualeditor/internal/mcp"
	"visualeditor/internal/secret"
	"visualeditor/internal/service"
)

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	core    *core
	editors *service.EditorService
	docs    *documentWatcher
	mcp     *mcpserver.Server
	logger  *log.Logger
	emitter service.EventEmitter
}

// New creates a new App.
func New() *App {
	return &App{emitter: wailsEmitter{}, logger: logging.Discard()}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	a.logger = logging.New(os.Stderr, level)
	a.ctx = logging.WithLogger(a.ctx, a.logger)

	c, err := startCore(a.ctx, cfg, a.emitter, a.logger, secret.NewKeychainStore(cfg.Storage.KeychainService))
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open storage: %v", err)
		return
	}
	a.core = c
	a.editors = c.editors

	// Another process (the standalone MCP server) may write to the same store.
	a.docs = newDocumentWatcher(a.ctx, a.editors, a.emitter, a.logger.WithPrefix("watch"))
	a.docs.Start()

	if cfg.MCP.Addr != "" {
		a.mcp = mcpserver.New(a.ctx, mcpserver.Deps{
			Name:            cfg.MCP.Name,
			Version:         cfg.MCP.Version,
			Emitter:         a.emitter,
			Editors:         a.editors,
			Logger:          a.logger.WithPrefix("mcp"),
			RequireApproval: true,
			ApprovalTimeout: cfg.MCP.ApprovalTimeout,
		})
		go func() {
			if err := a.mcp.ServeSSE(a.ctx, cfg.MCP.Addr); err != nil {
				a.logger.Error("MCP server stopped", "err", err)
			}
		}()
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.docs != nil {
		a.docs.Stop()
	}
	if a.core != nil {
		a.core.close(ctx)
	}
}

var errNotReady = errors.New("editor is not ready")

// ready reports an error until Startup has opened storage.
func (a *App) ready() error {
	if a.editors == nil {
		return errNotReady
	}
	return nil
}
