package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/internal/hcl"
	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
	"github.com/vk/realityserver/internal/registry"
)

const lampID = objectid.ObjectID("lampAbC123xyz789")

const lampConfig = `
object "lamp" {
  id = "lampAbC123xyz789"
}

interface "sphere" {
  object = "lamp"
  frame  = "sphere"

  node "hue" {
    type  = "node"
    x     = 10
    y     = 20
    value = 0.5
  }

  node "saturation" {
    type = "node"
  }
}

screen "kiosk" {
  object        = "lamp"
  port          = 3033
  target_width  = 0.3
  target_height = 0.2
}
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubModule records what the app hands it.
type stubModule struct {
	name       string
	configured int
}

func (s *stubModule) Name() string { return s.name }

func (s *stubModule) Configure(ctx context.Context, host hardware.Host, cfg *config.Model) error {
	s.configured++
	return nil
}

func (s *stubModule) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func serve(t *testing.T, a *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func lampNode(t *testing.T, a *App, name string) *model.Node {
	t.Helper()
	node, ok := a.Registry().Nodes("lamp", "sphere")[objectid.NewNodeKey(lampID, "sphere", name).String()]
	require.True(t, ok, "node %q should exist", name)
	return node
}

func TestNewApp_ConfiguresCoreInterfaces(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	hue := lampNode(t, a, "hue")
	assert.Equal(t, 10.0, hue.X)
	assert.Equal(t, 0.5, hue.Data.Value)
	lampNode(t, a, "saturation")

	port, ok := a.Bridge().Port(lampID)
	require.True(t, ok)
	assert.Equal(t, 3033, port)

	size, ok := a.Registry().MarkerSize("lamp")
	require.True(t, ok)
	assert.Equal(t, 0.3, size.Width)
}

func TestNewApp_PanicsOnInvalidConfig(t *testing.T) {
	appConfig := &Config{ConfigPaths: []string{WriteConfig(t, `interface "x" {`)}}
	assert.Panics(t, func() {
		NewApp(&SafeBuffer{}, appConfig, hcl.NewLoader())
	})
}

func TestNewApp_PanicsOnDuplicateModule(t *testing.T) {
	appConfig := &Config{ConfigPaths: []string{WriteConfig(t, lampConfig)}}
	assert.PanicsWithValue(t, `hardware interface "stub" registered more than once`, func() {
		NewApp(&SafeBuffer{}, appConfig, hcl.NewLoader(), &stubModule{name: "stub"}, &stubModule{name: "stub"})
	})
}

func TestNewApp_PortOverride(t *testing.T) {
	appConfig := &Config{ConfigPaths: []string{WriteConfig(t, lampConfig)}, Port: 9191}
	stub := &stubModule{name: "stub"}
	a := NewApp(&SafeBuffer{}, appConfig, hcl.NewLoader(), stub)
	assert.Equal(t, 9191, a.Config().Server.Port)
	assert.Equal(t, 1, stub.configured)
}

func TestHealth(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	rec := serve(t, a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)
	serve(t, a, http.MethodGet, "/health", "")

	rec := serve(t, a, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "realityserver_http_requests_total")
	assert.Contains(t, rec.Body.String(), "realityserver_registry_declarations_total")
}

func TestScreenPose(t *testing.T) {
	testCases := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "frame by name",
			path:       "/object/lampAbC123xyz789/frame/sphere/size/",
			body:       `{"x": 12, "y": -4, "scale": 1.5, "scaleARFactor": 2, "ignoreActionSender": true}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "frame by wire id",
			path:       "/object/lampAbC123xyz789/frame/lampAbC123xyz789sphere/size/",
			body:       `{"x": 12, "y": -4, "scale": 1.5}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown frame",
			path:       "/object/lampAbC123xyz789/frame/cube/size/",
			body:       `{"x": 1, "y": 1, "scale": 1}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid body",
			path:       "/object/lampAbC123xyz789/frame/sphere/size/",
			body:       `{"x": "left"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := SetupAppTest(t, lampConfig)

			rec := serve(t, a, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantStatus != http.StatusOK {
				return
			}
			frame := a.Registry().Frames("lamp")[objectid.NewFrameKey(lampID, "sphere").String()]
			require.NotNil(t, frame)
			assert.Equal(t, model.ScreenPose{X: 12, Y: -4, Scale: 1.5}, frame.Screen)
		})
	}
}

func TestFrames(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	rec := serve(t, a, http.MethodGet, "/object/lamp/frames", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var frames map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frames))
	assert.Contains(t, frames, objectid.NewFrameKey(lampID, "sphere").String())

	rec = serve(t, a, http.MethodGet, "/object/nothing/frames", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNodeValue_RoutesToInterface(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	rec := serve(t, a, http.MethodPost, "/object/lamp/frame/sphere/node/hue/value", `{"value": 0.8, "mode": "f", "unitMin": 0, "unitMax": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The declarative interface writes routed values back onto the node.
	assert.Equal(t, 0.8, lampNode(t, a, "hue").Data.Value)

	rec = serve(t, a, http.MethodPost, "/object/nothing/frame/sphere/node/hue/value", `{"value": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicData_RoutesToSubscribers(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	var got []any
	a.Registry().SubscribePublicData(context.Background(), "lamp", "sphere", "saturation", "label", func(ctx context.Context, value any) {
		got = append(got, value)
	})

	rec := serve(t, a, http.MethodPost, "/object/lamp/frame/sphere/node/saturation/publicData", `{"label": "sat", "other": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"sat"}, got)
}

func TestScreenTouch(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig, &stubModule{name: "stub"})

	var got []model.ScreenObjectMessage
	a.Bridge().RegisterScreenDriver(context.Background(), "lamp", func(ctx context.Context, msg model.ScreenObjectMessage) {
		got = append(got, msg)
	})

	body := `{"object": "lampAbC123xyz789", "frame": "lampAbC123xyz789sphere", "x": 10, "y": 20, "touchState": "touchstart", "touches": [{"x": 10, "y": 20}]}`
	rec := serve(t, a, http.MethodPost, "/screen/lamp/touch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, got, 1)
	assert.Equal(t, "touchstart", got[0].TouchState)

	rec = serve(t, a, http.MethodPost, "/screen/nothing/touch", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReset(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)

	resets := 0
	a.Registry().AddLifecycleListener(registry.LifecycleReset, func(ctx context.Context) error {
		resets++
		return nil
	})
	a.Registry().WriteValue(context.Background(), "lamp", "sphere", "hue", 0.9)

	rec := serve(t, a, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resets)
	assert.Equal(t, 0.5, lampNode(t, a, "hue").Data.Value, "a reset restores the configured value")
}

func TestNotifyFrameAdded(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig, &stubModule{name: "stub"})
	ctx := context.Background()
	a.Registry().DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	var added []string
	a.Registry().SubscribeFrameAdded(ctx, "lamp", func(ctx context.Context, frame *model.Frame) {
		added = append(added, frame.Name)
	})

	assert.True(t, a.notifyFrameAdded(ctx, "lamp", "sphere"))
	assert.False(t, a.notifyFrameAdded(ctx, "lamp", "cube"))
	assert.False(t, a.notifyFrameAdded(ctx, "nothing", "sphere"))
	assert.Equal(t, []string{"sphere"}, added)
}

func TestEditorHandlers(t *testing.T) {
	a, _ := SetupAppTest(t, lampConfig)
	ctx := context.Background()
	handlers := a.editorHandlers()

	var state []any
	a.Registry().SubscribeConnection(ctx, "lamp", "sphere", "hue", func(ctx context.Context, s any) {
		state = append(state, s)
	})

	err := handlers[eventNodeValue](ctx, map[string]any{
		"object": "lamp", "frame": "sphere", "node": "lampAbC123xyz789spherehue",
		"data": map[string]any{"value": 0.3, "mode": "f", "unitMax": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, lampNode(t, a, "hue").Data.Value)

	err = handlers[eventNodeConnection](ctx, map[string]any{"object": "lamp", "frame": "sphere", "node": "hue", "state": true})
	require.NoError(t, err)
	assert.Equal(t, []any{true}, state)

	assert.Error(t, handlers[eventScreenObject](ctx))
	assert.Error(t, handlers[eventPublicData](ctx, "not an object"))
}

func TestReload(t *testing.T) {
	a, logs := SetupAppTest(t, lampConfig)
	ctx := ctxlog.WithLogger(context.Background(), a.logger)

	updated := strings.Replace(lampConfig, `
  node "saturation" {
    type = "node"
  }
`, `
  node "brightness" {
    type = "node"
  }
`, 1)
	require.NoError(t, os.WriteFile(a.appConfig.ConfigPaths[0], []byte(updated), 0o600))

	a.reload(ctx, a.appConfig.ConfigPaths)

	nodes := a.Registry().Nodes("lamp", "sphere")
	assert.Contains(t, nodes, objectid.NewNodeKey(lampID, "sphere", "brightness").String())
	assert.NotContains(t, nodes, objectid.NewNodeKey(lampID, "sphere", "saturation").String())
	assert.Contains(t, logs.String(), "Reloading configuration.")
}

func TestReload_KeepsRunningConfigOnError(t *testing.T) {
	a, logs := SetupAppTest(t, lampConfig)
	ctx := ctxlog.WithLogger(context.Background(), a.logger)

	require.NoError(t, os.WriteFile(a.appConfig.ConfigPaths[0], []byte(`interface "x" {`), 0o600))
	a.reload(ctx, a.appConfig.ConfigPaths)

	assert.Len(t, a.Registry().Nodes("lamp", "sphere"), 2)
	assert.Contains(t, logs.String(), "keeping the previous one")
}

const (
	eventuallyTimeout = 5 * time.Second
	eventuallyTick    = 20 * time.Millisecond
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRun_StopsOnCancel(t *testing.T) {
	port := freePort(t)
	appConfig := &Config{ConfigPaths: []string{WriteConfig(t, lampConfig)}, Port: port, LogLevel: "debug"}
	a := NewApp(&SafeBuffer{}, appConfig, hcl.NewLoader(), &stubModule{name: "stub"})
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	shutdowns := 0
	a.Registry().AddLifecycleListener(registry.LifecycleShutdown, func(ctx context.Context) error {
		shutdowns++
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, eventuallyTimeout, eventuallyTick)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, shutdowns)
}
