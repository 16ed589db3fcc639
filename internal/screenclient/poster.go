package screenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/model"
)

const (
	defaultPoseRate  = 20
	defaultPoseBurst = 5
	poseQueueSize    = 64
)

type poseRequest struct {
	ctx      context.Context
	objectID string
	frameID  string
	update   model.ScreenPoseUpdate
}

// PosePoster sends screen poses to the server in the order they were made.
// Posts are rate limited; a failed post is logged and not retried.
type PosePoster struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	queue   chan poseRequest
}

// PosterOption adjusts a PosePoster.
type PosterOption func(*PosePoster)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) PosterOption {
	return func(p *PosePoster) { p.client = client }
}

// WithRateLimit sets how many posts per second are sent.
func WithRateLimit(perSecond float64, burst int) PosterOption {
	return func(p *PosePoster) { p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewPosePoster creates a poster for the server at baseURL, e.g.
// "http://127.0.0.1:8080". Run must be started for posts to be sent.
func NewPosePoster(baseURL string, opts ...PosterOption) *PosePoster {
	p := &PosePoster{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(defaultPoseRate, defaultPoseBurst),
		queue:   make(chan poseRequest, poseQueueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostPose queues a pose update. It never blocks; when the queue is full the
// update is dropped, since the next gesture sends a fresh pose anyway.
func (p *PosePoster) PostPose(ctx context.Context, objectID, frameID string, update model.ScreenPoseUpdate) {
	select {
	case p.queue <- poseRequest{ctx: ctx, objectID: objectID, frameID: frameID, update: update}:
	default:
		ctxlog.FromContext(ctx).Warn("Pose queue full, dropping update.", "frame", frameID)
	}
}

// Run sends queued poses until ctx is done.
func (p *PosePoster) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-p.queue:
			if err := p.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := p.send(ctx, req); err != nil {
				logger.Warn("Failed to post screen pose.", "object", req.objectID, "frame", req.frameID, "error", err)
			}
		}
	}
}

// PoseURL is the endpoint a frame's pose is posted to.
func PoseURL(baseURL, objectID, frameID string) string {
	return fmt.Sprintf("%s/object/%s/frame/%s/size/", baseURL, url.PathEscape(objectID), url.PathEscape(frameID))
}

func (p *PosePoster) send(ctx context.Context, req poseRequest) error {
	body, err := json.Marshal(req.update)
	if err != nil {
		return fmt.Errorf("failed to encode pose: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, PoseURL(p.baseURL, req.objectID, req.frameID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	ctxlog.FromContext(req.ctx).Debug("Screen pose posted.", "frame", req.frameID, "x", req.update.X, "y", req.update.Y, "scale", req.update.Scale)
	return nil
}
