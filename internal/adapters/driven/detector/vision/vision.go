// Package vision detects objects by asking an OpenAI-compatible vision model.
//
// Each image is shrunk to a thumbnail, sent as a JPEG data URI and answered
// with JSON boxes in thumbnail pixels. Boxes are scaled back to the size of
// the original image before they are returned.
package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/pikia/internal/adapters/driven/imaging"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// Default configuration values.
const (
	DefaultModel      = "gpt-4o-mini"
	DefaultMaxSide    = 1024
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 2
)

// Fallback prompts when no PromptStore is configured.
const (
	defaultSystemPrompt = `You are an object detector. Report every distinct object in the photo with a tight bounding box. Respond with JSON only.`
	defaultImagePrompt  = `The image is %d pixels wide and %d pixels high. Return {"objects": [{"label": "<noun>", "box": [x1, y1, x2, y2]}]} in pixels.`
)

// Config holds vision detector configuration.
type Config struct {
	// APIKey authenticates requests (required).
	APIKey string

	// BaseURL is the API base URL. Empty uses the OpenAI default.
	BaseURL string

	// Model is the vision model name (default: gpt-4o-mini).
	Model string

	// MaxSide bounds the longest side of the image sent (default: 1024).
	MaxSide int

	// RequestsPerSecond paces requests. Zero disables pacing.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request (default: 120s).
	Timeout time.Duration

	// MaxRetries is how often a rate-limited request is retried (default: 2).
	MaxRetries int

	// Backoff is the pause after a rate-limit response (default: DefaultBackoff).
	Backoff time.Duration
}

// Detector sends images to a vision model.
type Detector struct {
	client     *openai.Client
	model      string
	maxSide    int
	maxRetries int
	backoff    time.Duration
	limiter    *RateLimiter
	prompts    driven.PromptStore
}

// New creates a vision detector. prompts may be nil.
func New(cfg Config, prompts driven.PromptStore) (*Detector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: vision: API key is required", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = DefaultMaxSide
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Detector{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxSide:    cfg.MaxSide,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		limiter:    NewRateLimiter(cfg.RequestsPerSecond, 1),
		prompts:    prompts,
	}, nil
}

// Name identifies the detector in logs.
func (d *Detector) Name() string { return "vision:" + d.model }

// Close releases resources.
func (d *Detector) Close() error { return nil }

// Detect sends the image at path to the model and returns its detections
// in the image's own pixel coordinates.
func (d *Detector) Detect(ctx context.Context, path string) (*domain.RawAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	frame := imaging.FrameOf(img)
	thumb := imaging.Thumbnail(img, d.maxSide)
	sent := imaging.FrameOf(thumb)

	uri, err := imaging.DataURI(thumb)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAnalysisFailed, path, err)
	}

	req := openai.ChatCompletionRequest{
		Model: d.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: d.loadPrompt(driven.PromptDetectSystem, defaultSystemPrompt),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf(d.loadPrompt(driven.PromptDetectImage, defaultImagePrompt), sent.Width, sent.Height),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    uri,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	start := time.Now()
	content, err := d.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("%s: model answered in %s", path, time.Since(start).Round(time.Millisecond))

	dets, err := parseResponse(content, sent, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAnalysisFailed, path, err)
	}
	return &domain.RawAnalysis{Path: path, Frame: frame, Detections: dets}, nil
}

// complete sends req, retrying after rate-limit responses.
func (d *Detector) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	for attempt := 0; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", err
		}

		resp, err := d.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("vision: no choices in response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRateLimited(err) || attempt >= d.maxRetries {
			return "", fmt.Errorf("vision request: %w", err)
		}
		logger.Warn("Rate limited by vision API, retrying (%d/%d)", attempt+1, d.maxRetries)
		d.limiter.Backoff(d.backoff)
	}
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (d *Detector) loadPrompt(name, fallback string) string {
	if d.prompts == nil {
		return fallback
	}
	prompt, err := d.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}
