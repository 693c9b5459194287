// Package tts synthesizes speech with the ElevenLabs HTTP API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/announce"
)

// ErrMissingCredential is returned when no API key or voice is configured.
var ErrMissingCredential = errors.New("tts: missing api key or voice id")

const (
	DefaultBaseURL    = "https://api.elevenlabs.io"
	DefaultModelID    = "eleven_flash_v2_5"
	DefaultSampleRate = 22050
	DefaultTimeout    = 30 * time.Second
)

// Config configures the ElevenLabs client.
type Config struct {
	APIKey        string
	VoiceID       string
	ModelID       string
	BaseURL       string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// Client is an announce.Synthesizer backed by ElevenLabs. Audio is requested
// as raw 16-bit little-endian mono PCM.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client. A non-positive RatePerSecond disables limiting.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != "" && c.cfg.VoiceID != ""
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize converts text to PCM at DefaultSampleRate.
func (c *Client) Synthesize(ctx context.Context, text string) (announce.Clip, error) {
	if !c.Configured() {
		return announce.Clip{}, ErrMissingCredential
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return announce.Clip{}, errors.New("tts: empty text")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return announce.Clip{}, fmt.Errorf("tts: rate limit: %w", err)
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(c.cfg.VoiceID))
	if err != nil {
		return announce.Clip{}, fmt.Errorf("tts: base url: %w", err)
	}
	q := u.Query()
	q.Set("output_format", fmt.Sprintf("pcm_%d", DefaultSampleRate))
	u.RawQuery = q.Encode()

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return announce.Clip{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return announce.Clip{}, err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return announce.Clip{}, fmt.Errorf("tts: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return announce.Clip{}, fmt.Errorf("tts: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return announce.Clip{}, fmt.Errorf("tts: read: %w", err)
	}
	if len(pcm)%2 == 1 {
		pcm = pcm[:len(pcm)-1]
	}
	c.logger.Debug("tts synthesized",
		zap.Int("bytes", len(pcm)),
		zap.Duration("latency", time.Since(start)),
	)
	return announce.Clip{PCM: pcm, SampleRate: DefaultSampleRate}, nil
}
