package screenclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/realityserver/internal/model"
)

func TestPoseURL(t *testing.T) {
	assert.Equal(t, "http://host:8080/object/kioskX/frame/kioskXsphere/size/", PoseURL("http://host:8080", "kioskX", "kioskXsphere"))
}

func TestPosePoster_SendsInOrder(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var bodies []model.ScreenPoseUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update model.ScreenPoseUpdate
		_ = json.NewDecoder(r.Body).Decode(&update)
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		bodies = append(bodies, update)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewPosePoster(srv.URL, WithRateLimit(1000, 10))
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	p.PostPose(ctx, "kioskX", "kioskXsphere", model.ScreenPoseUpdate{X: 1, Scale: 1, IgnoreActionSender: true})
	p.PostPose(ctx, "kioskX", "kioskXsphere", model.ScreenPoseUpdate{X: 2, Scale: 1, IgnoreActionSender: true})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "POST /object/kioskX/frame/kioskXsphere/size/", paths[0])
	assert.Equal(t, 1.0, bodies[0].X)
	assert.Equal(t, 2.0, bodies[1].X)
	assert.True(t, bodies[0].IgnoreActionSender)
	mu.Unlock()

	cancel()
	<-done
}

func TestPosePoster_FailureIsNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewPosePoster(srv.URL)
	go func() { _ = p.Run(ctx) }()

	p.PostPose(ctx, "kioskX", "kioskXsphere", model.ScreenPoseUpdate{})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestPosePoster_DropsWhenQueueFull(t *testing.T) {
	p := NewPosePoster("http://unused")
	for i := 0; i < poseQueueSize+10; i++ {
		p.PostPose(context.Background(), "o", "f", model.ScreenPoseUpdate{})
	}
	assert.Len(t, p.queue, poseQueueSize)
}
