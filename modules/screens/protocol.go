package screens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/screenclient"
)

type event struct {
	name    string
	payload any
}

// welcome is what a page learns on connect: its object, the marker size and
// the object's frames. The frames share their map with the targetScreen
// entry, as the page expects.
func welcome(host hardware.Host, sc config.Screen) []event {
	reg := host.Registry
	id := reg.Resolver().Ensure(sc.Object)
	target := &model.TargetScreen{Object: string(id)}

	events := []event{{
		name:    screenclient.EventObjectName,
		payload: model.ObjectNameMessage{ObjectName: sc.Object, TargetScreen: target},
	}}

	size, ok := reg.MarkerSize(sc.Object)
	if !ok && sc.TargetWidth > 0 && sc.TargetHeight > 0 {
		size, ok = model.TargetSize{Width: sc.TargetWidth, Height: sc.TargetHeight}, true
	}
	if ok {
		events = append(events, event{
			name:    screenclient.EventObjectTargetSize,
			payload: model.TargetSizeMessage{TargetSize: size, TargetScreen: target},
		})
	}

	frames := reg.Frames(sc.Object)
	payload := make(map[string]any, len(frames)+1)
	for frameID, frame := range frames {
		payload[frameID] = frame
	}
	payload["targetScreen"] = target
	events = append(events, event{name: screenclient.EventFramesForScreen, payload: payload})
	return events
}

// forward hands a touch made on a page to the bridge.
func forward(ctx context.Context, host hardware.Host, args ...any) error {
	if len(args) == 0 {
		return errors.New("event has no payload")
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	var touch model.OutboundTouch
	if err := json.Unmarshal(raw, &touch); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if touch.Object == "" {
		return errors.New("touch has no object")
	}
	host.Bridge.ForwardOutbound(ctx, touch.Object, touch.Frame, touch.Node, touch.TouchOffsetX, touch.TouchOffsetY)
	return nil
}
