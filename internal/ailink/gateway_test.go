package ailink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/ailink/content"
	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
)

type recordingDriver struct {
	requests []*driver.Request
	reply    string
	err      error
	textOnly bool
}

func (d *recordingDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	return &driver.Response{Content: []content.ContentBlock{content.Text(d.reply)}}, nil
}

func (d *recordingDriver) Name() string { return "recording" }
func (d *recordingDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsImages: !d.textOnly}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{}, "  ")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestGatewayTextOnly(t *testing.T) {
	drv := &recordingDriver{reply: "[]"}
	g := NewWithDriver(drv, Config{Model: "m1"})

	got, err := g.Complete(context.Background(), "hello", "")
	require.NoError(t, err)
	require.Equal(t, "[]", got)

	require.Len(t, drv.requests, 1)
	req := drv.requests[0]
	require.Equal(t, "m1", req.Model)
	require.Len(t, req.Messages, 1)
	require.Equal(t, "user", req.Messages[0].Role)
	require.Len(t, req.Messages[0].Content, 1)
	require.Equal(t, "hello", req.Messages[0].Content[0].Text)
}

func TestGatewayAppendsImageAndOverridesModel(t *testing.T) {
	drv := &recordingDriver{reply: "ok"}
	g := NewWithDriver(drv, Config{})

	_, err := g.Send(context.Background(), Request{Prompt: "p", ImageBase64: "QUJD", Model: "vision"})
	require.NoError(t, err)

	req := drv.requests[0]
	require.Equal(t, "vision", req.Model)
	blocks := req.Messages[0].Content
	require.Len(t, blocks, 2)
	require.Equal(t, content.ContentTypeText, blocks[0].Type)
	require.Equal(t, content.ContentTypeImageJPEG, blocks[1].Type)
	require.Equal(t, "data:image/jpeg;base64,QUJD", blocks[1].DataURL)
}

func TestGatewayPassesSamplingOptions(t *testing.T) {
	drv := &recordingDriver{reply: "ok"}
	g := NewWithDriver(drv, Config{})

	temperature, maxTokens := 0.2, 900
	_, err := g.Send(context.Background(), Request{Prompt: "p", Temperature: &temperature, MaxTokens: &maxTokens})
	require.NoError(t, err)
	require.Equal(t, &temperature, drv.requests[0].Temperature)
	require.Equal(t, &maxTokens, drv.requests[0].MaxTokens)

	_, err = g.Send(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	require.Nil(t, drv.requests[1].Temperature)
	require.Nil(t, drv.requests[1].MaxTokens)
}

func TestGatewayRefusesImageForTextOnlyDriver(t *testing.T) {
	drv := &recordingDriver{reply: "ok", textOnly: true}
	g := NewWithDriver(drv, Config{})

	_, err := g.Send(context.Background(), Request{Prompt: "p", ImageBase64: "QUJD"})
	require.ErrorIs(t, err, ErrImagesUnsupported)
	require.Empty(t, drv.requests)
}

func TestGatewayDefaultsModel(t *testing.T) {
	g := NewWithDriver(&recordingDriver{}, Config{})
	require.Equal(t, DefaultModel, g.Model())
}

func TestGatewayOverHTTP(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "m2", payload["model"])
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  verbatim  "}}]}`))
	}))
	defer server.Close()

	g, err := New(Config{BaseURL: server.URL, Model: "m2"}, "secret")
	require.NoError(t, err)

	got, err := g.Complete(context.Background(), "x", "")
	require.NoError(t, err)
	require.Equal(t, "  verbatim  ", got)
	require.EqualValues(t, 1, calls.Load())
}

func TestGatewayPacingHonoursCancellation(t *testing.T) {
	g := NewWithDriver(&recordingDriver{reply: "ok"}, Config{RequestsPerMinute: 1})

	_, err := g.Complete(context.Background(), "first", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, "second", "")
	require.Error(t, err)
}
