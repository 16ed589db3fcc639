// Package screenclient connects a screen page to the server over socket.io
// and feeds the events it receives into a visualization.Machine.
package screenclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/visualization"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names exchanged with the screen server.
const (
	EventObjectName       = "objectName"
	EventObjectTargetSize = "objectTargetSize"
	EventFramesForScreen  = "framesForScreen"
	EventScreenObject     = "screenObject"
	EventNewFrameAdded    = "newFrameAdded"
	EventWriteScreen      = "writeScreenObject"
)

const connectTimeout = 15 * time.Second

// Config is where and how to connect.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Client is a connected screen page.
type Client struct {
	io *socket.Socket
}

// Dial connects to the screen server and waits for the connection to be
// established.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to screen server", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Client{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}

// Bind routes the server events into m. Events that cannot be decoded are
// logged and dropped.
func (c *Client) Bind(ctx context.Context, m *visualization.Machine) {
	logger := ctxlog.FromContext(ctx)
	for event, handle := range Handlers(m) {
		c.io.On(types.EventName(event), func(args ...any) {
			if err := handle(ctx, args...); err != nil {
				logger.Warn("Dropping malformed event.", "event", event, "error", err)
			}
		})
	}
}

// EmitTouch sends a touch made on the screen back to the server.
func (c *Client) EmitTouch(touch model.OutboundTouch) {
	c.io.Emit(EventWriteScreen, touch)
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.io.Disconnect()
}

// Handler decodes the arguments of one socket.io event and applies it.
type Handler func(ctx context.Context, args ...any) error

// Handlers returns the event handlers that drive m, keyed by event name.
func Handlers(m *visualization.Machine) map[string]Handler {
	return map[string]Handler{
		EventObjectName: func(ctx context.Context, args ...any) error {
			var msg model.ObjectNameMessage
			if err := decode(args, &msg); err != nil {
				return err
			}
			m.HandleObjectName(ctx, msg)
			return nil
		},
		EventObjectTargetSize: func(ctx context.Context, args ...any) error {
			var msg model.TargetSizeMessage
			if err := decode(args, &msg); err != nil {
				return err
			}
			m.HandleTargetSize(ctx, msg)
			return nil
		},
		EventFramesForScreen: func(ctx context.Context, args ...any) error {
			frames, target, err := decodeFrames(args)
			if err != nil {
				return err
			}
			m.HandleFramesForScreen(ctx, frames, target)
			return nil
		},
		EventScreenObject: func(ctx context.Context, args ...any) error {
			var msg model.ScreenObjectMessage
			if err := decode(args, &msg); err != nil {
				return err
			}
			m.HandleScreenObject(ctx, msg)
			return nil
		},
		EventNewFrameAdded: func(ctx context.Context, args ...any) error {
			var msg model.NewFrameAddedMessage
			if err := decode(args, &msg); err != nil {
				return err
			}
			m.HandleNewFrameAdded(ctx, msg)
			return nil
		},
	}
}

// decode re-marshals the first event argument into v.
func decode(args []any, v any) error {
	if len(args) == 0 {
		return errors.New("event has no payload")
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// decodeFrames splits a framesForScreen payload into its frames and the
// optional targetScreen entry that shares the same map.
func decodeFrames(args []any) (map[string]*model.Frame, *model.TargetScreen, error) {
	var raw map[string]json.RawMessage
	if err := decode(args, &raw); err != nil {
		return nil, nil, err
	}
	var target *model.TargetScreen
	if t, ok := raw["targetScreen"]; ok {
		target = &model.TargetScreen{}
		if err := json.Unmarshal(t, target); err != nil {
			return nil, nil, fmt.Errorf("failed to decode targetScreen: %w", err)
		}
		delete(raw, "targetScreen")
	}
	frames := make(map[string]*model.Frame, len(raw))
	for id, body := range raw {
		frame := &model.Frame{}
		if err := json.Unmarshal(body, frame); err != nil {
			return nil, nil, fmt.Errorf("failed to decode frame %q: %w", id, err)
		}
		frames[id] = frame
	}
	return frames, target, nil
}
