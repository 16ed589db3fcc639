package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
	"github.com/vk/realityserver/internal/registry"
	"github.com/vk/realityserver/internal/screenbridge"
)

// App encapsulates the server's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	loader    config.Loader
	config    atomic.Pointer[config.Model]

	resolver *objectid.Resolver
	registry *registry.Registry
	bridge   *screenbridge.Bridge
	editors  *editorHub
	modules  []hardware.Module

	router     *gin.Engine
	httpServer *http.Server
}

// NewApp is the constructor for the server. It loads the configuration,
// builds the registry and the screen bridge, and configures every hardware
// interface. When no modules are given the core interfaces are used.
//
// A configuration that cannot be loaded and duplicate interface names are
// startup errors and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...hardware.Module) *App {
	logger := NewLogger(appConfig.LogLevel, appConfig.LogFormat, "realityserver", outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	applyOverrides(appConfig, cfgModel)
	logger.Debug("Configuration loaded.", "objects", len(cfgModel.Objects), "interfaces", len(cfgModel.Interfaces), "screens", len(cfgModel.Screens))

	if len(modules) == 0 {
		modules = coreModules()
	}
	seen := make(map[string]struct{}, len(modules))
	for _, mod := range modules {
		if _, dup := seen[mod.Name()]; dup {
			panic(fmt.Sprintf("hardware interface %q registered more than once", mod.Name()))
		}
		seen[mod.Name()] = struct{}{}
	}

	a := &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		loader:    loader,
		resolver:  objectid.NewResolver(nil),
		editors:   newEditorHub(),
		modules:   modules,
	}
	a.config.Store(cfgModel)

	a.registry = registry.New(registry.Options{
		Resolver: a.resolver,
		Settings: registry.Settings{
			Developer: cfgModel.Server.Developer,
			Debug:     cfgModel.Server.Debug,
		},
		ObjectsPath: cfgModel.Server.ObjectsPath,
		Callbacks:   a.registryCallbacks(),
	})
	a.bindObjects(cfgModel)

	a.bridge = screenbridge.New(a.resolver)
	a.bridge.SetOutboundCallback(func(ctx context.Context, touch model.OutboundTouch) {
		a.editors.emit(eventScreenObjectServer, touch)
	})
	a.bindEditors(ctx)

	if err := a.configure(ctx, cfgModel); err != nil {
		panic(fmt.Errorf("failed to configure hardware interfaces: %w", err))
	}
	logger.Debug("Hardware interfaces configured.", "count", len(modules))

	a.router = a.newRouter()
	return a
}

// applyOverrides lets command line settings win over the files.
func applyOverrides(appConfig *Config, cfgModel *config.Model) {
	if appConfig.Port > 0 {
		cfgModel.Server.Port = appConfig.Port
	}
}

// bindObjects records the objects the configuration names. Objects with a
// fixed id keep it; the others get a generated one on first sight.
func (a *App) bindObjects(cfgModel *config.Model) {
	for _, o := range cfgModel.Objects {
		id := objectid.ObjectID(o.ID)
		if id == "" {
			id = a.resolver.Ensure(o.Name)
		}
		if _, exists := a.registry.Object(id); exists {
			continue
		}
		a.registry.AddObject(model.NewObject(id, o.Name))
	}
}

// configure hands cfgModel to every hardware interface. Failures do not stop
// the remaining interfaces.
func (a *App) configure(ctx context.Context, cfgModel *config.Model) error {
	host := hardware.Host{Registry: a.registry, Bridge: a.bridge}
	var errs []error
	for _, mod := range a.modules {
		if err := mod.Configure(ctxlog.With(ctx, "interface", mod.Name()), host, cfgModel); err != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", mod.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// reload loads the configuration again, reconfigures every interface and
// resets the registry. A configuration that fails to load leaves the running
// one in place.
func (a *App) reload(ctx context.Context, changed []string) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Reloading configuration.", "changed", changed)

	cfgModel, err := a.loader.Load(ctx, a.appConfig.ConfigPaths...)
	if err != nil {
		logger.Error("Failed to reload configuration, keeping the previous one.", "error", err)
		return
	}
	applyOverrides(a.appConfig, cfgModel)
	a.config.Store(cfgModel)
	a.bindObjects(cfgModel)
	a.registry.EnableDeveloperUI(cfgModel.Server.Developer)

	if err := a.configure(ctx, cfgModel); err != nil {
		logger.Error("Hardware interface rejected the new configuration.", "error", err)
	}
	a.registry.ResetAll(ctx)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Bridge returns the application's screen bridge.
func (a *App) Bridge() *screenbridge.Bridge {
	return a.bridge
}

// Config returns the configuration currently in effect.
func (a *App) Config() *config.Model {
	return a.config.Load()
}

// Handler serves the HTTP API and the editor hub.
func (a *App) Handler() http.Handler {
	return a.router
}
