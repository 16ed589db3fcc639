package screens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
	"github.com/vk/realityserver/internal/registry"
	"github.com/vk/realityserver/internal/screenbridge"
	"github.com/vk/realityserver/internal/screenclient"
)

const kioskID = objectid.ObjectID("kioskQw3rty123456")

func newHost() hardware.Host {
	resolver := objectid.NewResolver(map[string]objectid.ObjectID{"kiosk": kioskID})
	return hardware.Host{
		Registry: registry.New(registry.Options{Resolver: resolver}),
		Bridge:   screenbridge.New(resolver),
	}
}

func kiosk() *config.Screen {
	return &config.Screen{Name: "kiosk", Object: "kiosk", Port: 3033, TargetWidth: 0.3, TargetHeight: 0.2}
}

func configWith(screens ...*config.Screen) *config.Model {
	m := config.NewModel()
	m.Screens = screens
	return m
}

func TestConfigure_RegistersScreenWithBridge(t *testing.T) {
	ctx := context.Background()
	host := newHost()
	host.Registry.AddObject(model.NewObject(kioskID, "kiosk"))
	m := New()

	require.NoError(t, m.Configure(ctx, host, configWith(kiosk())))

	port, ok := host.Bridge.Port(kioskID)
	require.True(t, ok)
	assert.Equal(t, 3033, port)

	size, ok := host.Registry.MarkerSize("kiosk")
	require.True(t, ok)
	assert.Equal(t, model.TargetSize{Width: 0.3, Height: 0.2}, size)

	delivered := host.Bridge.DispatchToScreenDriver(ctx, kioskID, model.ScreenObjectMessage{Object: string(kioskID)})
	assert.True(t, delivered, "the screen should own the object's driver slot")
}

func TestConfigure_RemovedScreenIsForgotten(t *testing.T) {
	ctx := context.Background()
	host := newHost()
	m := New()

	require.NoError(t, m.Configure(ctx, host, configWith(kiosk())))
	require.Len(t, m.screens, 1)

	require.NoError(t, m.Configure(ctx, host, configWith()))
	assert.Empty(t, m.screens)
}

func TestConfigure_PortChangeKeepsOneFrameSubscription(t *testing.T) {
	ctx := context.Background()
	host := newHost()
	m := New()

	for _, port := range []int{3033, 3034, 3035} {
		sc := kiosk()
		sc.Port = port
		require.NoError(t, m.Configure(ctx, host, configWith(sc)))
	}

	assert.Equal(t, map[string]struct{}{"kiosk": {}}, m.frameHooked, "one frame-added subscription per object")
	live := m.showing("kiosk")
	require.Len(t, live, 1, "frame-added events reach only the live screen")
	assert.Equal(t, 3035, live[0].config().Port)

	port, ok := host.Bridge.Port(kioskID)
	require.True(t, ok)
	assert.Equal(t, 3035, port)

	assert.NotPanics(t, func() {
		host.Registry.NotifyFrameAdded(ctx, kioskID, model.NewFrame(kioskID, "sphere"))
	})
}

func TestConfigure_ObjectChangeOnSamePort(t *testing.T) {
	ctx := context.Background()
	host := newHost()
	m := New()
	require.NoError(t, m.Configure(ctx, host, configWith(kiosk())))

	sc := kiosk()
	sc.Object = "lobby"
	require.NoError(t, m.Configure(ctx, host, configWith(sc)))

	assert.Len(t, m.frameHooked, 2)
	assert.Empty(t, m.showing("kiosk"))
	require.Len(t, m.showing("lobby"), 1)

	lobbyID, ok := host.Registry.Resolver().Lookup("lobby")
	require.True(t, ok)
	assert.True(t, host.Bridge.DispatchToScreenDriver(ctx, lobbyID, model.ScreenObjectMessage{}),
		"the screen takes over the driver slot of its new object")
}

func TestWelcome(t *testing.T) {
	ctx := context.Background()
	host := newHost()
	host.Registry.DeclareNode(ctx, "kiosk", "sphere", "hue", "node", nil)

	events := welcome(host, *kiosk())
	require.Len(t, events, 3)

	names := []string{events[0].name, events[1].name, events[2].name}
	assert.Equal(t, []string{
		screenclient.EventObjectName,
		screenclient.EventObjectTargetSize,
		screenclient.EventFramesForScreen,
	}, names)

	objectName, ok := events[0].payload.(model.ObjectNameMessage)
	require.True(t, ok)
	assert.Equal(t, "kiosk", objectName.ObjectName)
	assert.Equal(t, string(kioskID), objectName.TargetScreen.Object)

	frames, ok := events[2].payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, frames, objectid.NewFrameKey(kioskID, "sphere").String())
	assert.Contains(t, frames, "targetScreen")
}

func TestWelcome_NoMarkerSize(t *testing.T) {
	host := newHost()
	sc := kiosk()
	sc.TargetWidth, sc.TargetHeight = 0, 0

	events := welcome(host, *sc)
	require.Len(t, events, 2)
	assert.Equal(t, screenclient.EventFramesForScreen, events[1].name)
}

func TestForward(t *testing.T) {
	ctx := context.Background()
	host := newHost()

	var got []model.OutboundTouch
	host.Bridge.SetOutboundCallback(func(ctx context.Context, touch model.OutboundTouch) {
		got = append(got, touch)
	})

	testCases := []struct {
		name    string
		args    []any
		wantErr bool
	}{
		{
			name: "map payload",
			args: []any{map[string]any{"object": "kiosk", "frame": "sphere", "node": "null", "touchOffsetX": 0.5, "touchOffsetY": 0.25}},
		},
		{name: "no payload", args: nil, wantErr: true},
		{name: "no object", args: []any{map[string]any{"frame": "sphere"}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := forward(ctx, host, tc.args...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	require.Len(t, got, 1)
	assert.Equal(t, string(kioskID), got[0].Object)
	assert.Equal(t, objectid.NewFrameKey(kioskID, "sphere").String(), got[0].Frame)
	assert.Empty(t, got[0].Node)
	assert.Equal(t, 0.5, got[0].TouchOffsetX)
}
