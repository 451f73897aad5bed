package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sonit33/aarya-sub000/internal/ailink/content"
	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
	"github.com/sonit33/aarya-sub000/internal/ailink/driver/openai"
)

// ErrMissingToken is returned when no bearer token is available.
var ErrMissingToken = errors.New("llm bearer token is missing")

// ErrImagesUnsupported is returned when an image is sent to a text-only driver.
var ErrImagesUnsupported = errors.New("llm driver does not accept images")

// Request is a single completion request.
type Request struct {
	Prompt string
	// ImageBase64 is an optional base64 JPEG payload attached after the prompt.
	ImageBase64 string
	// Model overrides the configured model when set.
	Model string
	// Temperature and MaxTokens are passed through when set.
	Temperature *float64
	MaxTokens   *int
}

// Gateway sends one chat completion per call and returns the reply text.
type Gateway struct {
	drv     driver.Driver
	cfg     Config
	limiter *rate.Limiter
}

// New builds a gateway over the OpenAI chat-completions driver.
func New(cfg Config, token string) (*Gateway, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	cfg = cfg.withDefaults()
	client := openai.NewClient(cfg.BaseURL, token)
	client.Timeout = cfg.Timeout
	return NewWithDriver(client, cfg), nil
}

// NewWithDriver builds a gateway over an arbitrary driver.
func NewWithDriver(drv driver.Driver, cfg Config) *Gateway {
	cfg = cfg.withDefaults()
	g := &Gateway{drv: drv, cfg: cfg}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return g
}

// Model returns the configured model id.
func (g *Gateway) Model() string {
	return g.cfg.Model
}

// Complete sends prompt (and the optional image) and returns the first choice text.
func (g *Gateway) Complete(ctx context.Context, prompt, imageBase64 string) (string, error) {
	return g.Send(ctx, Request{Prompt: prompt, ImageBase64: imageBase64})
}

// Send is Complete with a per-request model override.
func (g *Gateway) Send(ctx context.Context, req Request) (string, error) {
	if g == nil || g.drv == nil {
		return "", fmt.Errorf("gateway not configured")
	}

	if req.ImageBase64 != "" && !g.drv.Capabilities().SupportsImages {
		return "", fmt.Errorf("%s: %w", g.drv.Name(), ErrImagesUnsupported)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for request slot: %w", err)
		}
	}

	blocks := []content.ContentBlock{content.Text(req.Prompt)}
	if req.ImageBase64 != "" {
		blocks = append(blocks, content.JPEGBase64(req.ImageBase64))
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.cfg.Model
	}

	resp, err := g.drv.Complete(ctx, &driver.Request{
		Model:       model,
		Messages:    []content.Message{content.UserMessage(blocks...)},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, driver.ErrMissingAPIKey) {
			return "", ErrMissingToken
		}
		return "", err
	}
	if resp == nil || len(resp.Content) == 0 {
		return "", driver.ErrEmptyChoices
	}
	return resp.FirstText(), nil
}
