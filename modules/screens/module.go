// Package screens is the hardware interface behind companion touch screens.
//
// Each configured screen gets its own socket.io server on its own port. A
// screen page that connects is told which object it shows, the marker size
// of that object and the frames it holds; afterwards it receives the touch
// events routed to the object and frames created in AR. Touches made on the
// page flow back through the screen bridge.
package screens

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/screenclient"
)

// Name is the interface name of the module.
const Name = "screens"

const shutdownTimeout = 5 * time.Second

// Module implements hardware.Module.
type Module struct {
	mu          sync.Mutex
	host        hardware.Host
	screens     map[string]*screen
	frameHooked map[string]struct{}
	runCtx      context.Context
}

// New creates the module.
func New() *Module {
	return &Module{
		screens:     make(map[string]*screen),
		frameHooked: make(map[string]struct{}),
	}
}

func (m *Module) Name() string {
	return Name
}

// screen is one socket.io server and the object it shows.
type screen struct {
	cfg    atomic.Pointer[config.Screen]
	io     *socket.Server
	server *http.Server
	closed atomic.Bool
}

func (s *screen) config() config.Screen {
	return *s.cfg.Load()
}

// emit broadcasts to every page connected to the screen.
func (s *screen) emit(event string, payload any) {
	if s.closed.Load() {
		return
	}
	s.io.Emit(event, payload)
}

// Configure registers the screens of cfg with the bridge. Screens that were
// removed are stopped; screens added after Run started are served at once.
func (m *Module) Configure(ctx context.Context, host hardware.Host, cfg *config.Model) error {
	logger := ctxlog.FromContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.host = host

	current := make(map[string]struct{}, len(cfg.Screens))
	var errs []error
	for _, sc := range cfg.Screens {
		current[sc.Name] = struct{}{}
		sc := *sc
		m.hookFrameAdded(ctx, sc.Object)
		if s, ok := m.screens[sc.Name]; ok && s.config().Port == sc.Port {
			s.cfg.Store(&sc)
			m.register(ctx, s)
			m.announce(ctx, s)
			continue
		} else if ok {
			m.stop(ctx, sc.Name, s)
		}

		s := m.newScreen(ctx, sc)
		m.screens[sc.Name] = s
		if m.runCtx != nil {
			if err := m.start(m.runCtx, s); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for name, s := range m.screens {
		if _, ok := current[name]; !ok {
			m.stop(ctx, name, s)
		}
	}
	logger.Info("Screens configured.", "count", len(m.screens))
	return errors.Join(errs...)
}

// newScreen wires a screen into the registry and the bridge. m.mu must be held.
func (m *Module) newScreen(ctx context.Context, sc config.Screen) *screen {
	s := &screen{io: socket.NewServer(nil, nil)}
	s.cfg.Store(&sc)

	host := m.host
	m.register(ctx, s)

	s.io.On("connection", func(clients ...any) {
		if len(clients) == 0 {
			return
		}
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		logger := ctxlog.FromContext(ctx).With("screen", sc.Name, "page", client.Id())
		pctx := ctxlog.WithLogger(ctx, logger)
		logger.Debug("Screen page connected.")

		for _, ev := range welcome(host, s.config()) {
			client.Emit(ev.name, ev.payload)
		}
		client.On(screenclient.EventWriteScreen, func(args ...any) {
			if err := forward(pctx, host, args...); err != nil {
				logger.Warn("Dropping malformed screen touch.", "error", err)
			}
		})
	})

	m.announce(ctx, s)
	return s
}

// register gives the screen the port and the driver slot of its object.
func (m *Module) register(ctx context.Context, s *screen) {
	sc := s.config()
	m.host.Bridge.RegisterPort(sc.Object, sc.Port)
	m.host.Bridge.RegisterScreenDriver(ctx, sc.Object, func(ctx context.Context, msg model.ScreenObjectMessage) {
		s.emit(screenclient.EventScreenObject, msg)
	})
}

// hookFrameAdded subscribes to the frames added to object once. Each event
// goes to the screens showing the object when it fires. m.mu must be held.
func (m *Module) hookFrameAdded(ctx context.Context, object string) {
	if _, ok := m.frameHooked[object]; ok {
		return
	}
	m.frameHooked[object] = struct{}{}
	m.host.Registry.SubscribeFrameAdded(ctx, object, func(ctx context.Context, frame *model.Frame) {
		msg := model.NewFrameAddedMessage{
			Frame:        frame,
			TargetScreen: &model.TargetScreen{Object: string(frame.ObjectID)},
		}
		for _, s := range m.showing(object) {
			s.emit(screenclient.EventNewFrameAdded, msg)
		}
	})
}

// showing returns the live screens whose object is object.
func (m *Module) showing(object string) []*screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*screen
	for _, s := range m.screens {
		if s.config().Object == object {
			out = append(out, s)
		}
	}
	return out
}

// announce records the marker size of the screen's object and repeats the
// welcome to pages that are already connected.
func (m *Module) announce(ctx context.Context, s *screen) {
	sc := s.config()
	if sc.TargetWidth > 0 && sc.TargetHeight > 0 {
		m.host.Registry.SetMarkerSize(sc.Object, model.TargetSize{Width: sc.TargetWidth, Height: sc.TargetHeight})
	}
	for _, ev := range welcome(m.host, sc) {
		s.emit(ev.name, ev.payload)
	}
	ctxlog.FromContext(ctx).Debug("Screen announced.", "screen", sc.Name, "object", sc.Object, "port", sc.Port)
}

// start binds the screen's port and serves it in the background.
func (m *Module) start(ctx context.Context, s *screen) error {
	sc := s.config()
	logger := ctxlog.FromContext(ctx).With("screen", sc.Name)

	addr := fmt.Sprintf(":%d", sc.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("screen %s: failed to listen on %s: %w", sc.Name, addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	s.server = &http.Server{Handler: mux}

	go func() {
		logger.Info("🖥️ Screen server starting", "address", ln.Addr().String(), "object", sc.Object)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Screen server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

// stop closes a screen and forgets it. The socket.io server only has an
// engine once the screen was started. m.mu must be held.
func (m *Module) stop(ctx context.Context, name string, s *screen) {
	s.closed.Store(true)
	if s.server != nil {
		s.io.Close(nil)
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(sctx); err != nil {
			ctxlog.FromContext(ctx).Warn("Screen server shutdown failed.", "screen", name, "error", err)
		}
	}
	delete(m.screens, name)
	ctxlog.FromContext(ctx).Info("Screen stopped.", "screen", name)
}

// Run serves every configured screen until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	m.mu.Lock()
	m.runCtx = ctx
	var errs []error
	for _, s := range m.screens {
		if err := m.start(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	m.mu.Unlock()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	<-ctx.Done()

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, s := range m.screens {
		m.stop(ctx, name, s)
	}
	m.runCtx = nil
	return nil
}
