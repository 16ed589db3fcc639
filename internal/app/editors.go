package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
	"github.com/vk/realityserver/internal/registry"
)

// Events editors send to the server.
const (
	eventScreenObject   = "screenObject"
	eventNewFrameAdded  = "newFrameAdded"
	eventNodeValue      = "nodeValue"
	eventPublicData     = "publicData"
	eventNodeConnection = "nodeConnection"
)

// Events the server broadcasts to editors.
const (
	eventScreenObjectServer = "screenObjectServer"
	eventValueChanged       = "nodeValueChanged"
	eventPublicDataChanged  = "publicDataChanged"
	eventAction             = "action"
)

// nodeMessage addresses a node by object name or id and frame and node names
// or wire ids.
type nodeMessage struct {
	Object string `json:"object"`
	Frame  string `json:"frame"`
	Node   string `json:"node"`
}

type nodeValueMessage struct {
	nodeMessage
	Data model.Data `json:"data"`
}

type publicDataMessage struct {
	nodeMessage
	PublicData map[string]any `json:"publicData"`
}

type connectionMessage struct {
	nodeMessage
	State any `json:"state"`
}

type frameAddedMessage struct {
	Object string `json:"object"`
	Frame  string `json:"frame"`
}

// editorHub is the socket.io server editors connect to.
type editorHub struct {
	io *socket.Server
}

func newEditorHub() *editorHub {
	return &editorHub{io: socket.NewServer(nil, nil)}
}

func (h *editorHub) handler() http.Handler {
	return h.io.ServeHandler(nil)
}

// emit broadcasts to every connected editor.
func (h *editorHub) emit(event string, payload any) {
	h.io.Emit(event, payload)
}

func (h *editorHub) close() {
	h.io.Close(nil)
}

// editorHandler decodes the arguments of one editor event and applies it.
type editorHandler func(ctx context.Context, args ...any) error

// bindEditors installs the inbound event handlers on every editor that
// connects.
func (a *App) bindEditors(ctx context.Context) {
	handlers := a.editorHandlers()
	a.editors.io.On("connection", func(clients ...any) {
		if len(clients) == 0 {
			return
		}
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		logger := ctxlog.FromContext(ctx).With("editor", client.Id())
		ectx := ctxlog.WithLogger(ctx, logger)
		logger.Debug("Editor connected.")

		for event, handle := range handlers {
			client.On(event, func(args ...any) {
				if err := handle(ectx, args...); err != nil {
					logger.Warn("Dropping malformed editor event.", "event", event, "error", err)
				}
			})
		}
	})
}

func (a *App) editorHandlers() map[string]editorHandler {
	return map[string]editorHandler{
		eventScreenObject: func(ctx context.Context, args ...any) error {
			var msg model.ScreenObjectMessage
			if err := decodeEvent(args, &msg); err != nil {
				return err
			}
			a.dispatchScreenObject(ctx, msg.Object, msg)
			return nil
		},
		eventNewFrameAdded: func(ctx context.Context, args ...any) error {
			var msg frameAddedMessage
			if err := decodeEvent(args, &msg); err != nil {
				return err
			}
			a.notifyFrameAdded(ctx, msg.Object, msg.Frame)
			return nil
		},
		eventNodeValue: func(ctx context.Context, args ...any) error {
			var msg nodeValueMessage
			if err := decodeEvent(args, &msg); err != nil {
				return err
			}
			if key, ok := a.nodeKey(msg.nodeMessage); ok {
				a.registry.DispatchValue(ctx, key, msg.Data)
			}
			return nil
		},
		eventPublicData: func(ctx context.Context, args ...any) error {
			var msg publicDataMessage
			if err := decodeEvent(args, &msg); err != nil {
				return err
			}
			if key, ok := a.nodeKey(msg.nodeMessage); ok {
				a.registry.DispatchPublicData(ctx, key, msg.PublicData)
			}
			return nil
		},
		eventNodeConnection: func(ctx context.Context, args ...any) error {
			var msg connectionMessage
			if err := decodeEvent(args, &msg); err != nil {
				return err
			}
			if key, ok := a.nodeKey(msg.nodeMessage); ok {
				a.registry.DispatchConnection(ctx, key, msg.State)
			}
			return nil
		},
	}
}

// registryCallbacks forwards registry events to the editors.
func (a *App) registryCallbacks() registry.Callbacks {
	return registry.Callbacks{
		OnValueChanged: func(ctx context.Context, change registry.ValueChange) {
			a.editors.emit(eventValueChanged, nodeValueMessage{
				nodeMessage: wireNode(change.Node),
				Data:        change.Data,
			})
		},
		OnPublicDataChanged: func(ctx context.Context, key objectid.NodeKey) {
			msg := publicDataMessage{nodeMessage: wireNode(key)}
			if object, ok := a.registry.Object(key.Object); ok {
				if frame, ok := object.Frames[key.FrameKey()]; ok {
					if node, ok := frame.Nodes[key]; ok {
						msg.PublicData = node.PublicData
					}
				}
			}
			a.editors.emit(eventPublicDataChanged, msg)
		},
		OnAction: func(ctx context.Context, action model.Action) {
			a.editors.emit(eventAction, action)
		},
		OnPersist: func(ctx context.Context, object objectid.ObjectID) {
			ctxlog.FromContext(ctx).Debug("Object changed, persistence requested.", "object", object)
		},
	}
}

func wireNode(key objectid.NodeKey) nodeMessage {
	return nodeMessage{
		Object: string(key.Object),
		Frame:  key.FrameKey().String(),
		Node:   key.String(),
	}
}

// decodeEvent re-marshals the first event argument into v.
func decodeEvent(args []any, v any) error {
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
