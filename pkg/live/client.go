package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the native audio Live model.
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultAPIVersion is the Gemini API version serving Live sessions.
	DefaultAPIVersion = "v1beta"
)

// Client dials Gemini Live sessions.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	dialer     Dialer
	retries    int
	backoff    gax.Backoff
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a Live client. An empty apiKey is accepted so the
// client can be built at startup; Connect then fails with
// ErrMissingAPIKey.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		backoff: gax.Backoff{
			Initial:    500 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.dialer == nil {
		cfg.dialer = &genaiDialer{config: cfg}
	}
	return &Client{config: cfg}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithAPIVersion overrides the API version. Live requires one to be set.
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets the HTTP client used by the underlying genai client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithDialer replaces the genai dialer, typically with a fake in tests.
func WithDialer(d Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// WithRetry retries a failed dial up to n times with exponential backoff.
func WithRetry(n int) Option {
	return func(c *clientConfig) {
		c.retries = n
	}
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.config.apiKey != ""
}

// Connect dials a Live session and starts its read loop.
func (c *Client) Connect(ctx context.Context, config *ConnectConfig) (*Session, error) {
	if c.config.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config == nil {
		config = &ConnectConfig{}
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	bo := c.config.backoff
	var lastErr error
	for attempt := 0; attempt <= c.config.retries; attempt++ {
		if attempt > 0 {
			pause := bo.Pause()
			slog.Warn("live: dial failed, retrying", "attempt", attempt, "pause", pause, "error", lastErr)
			if err := gax.Sleep(ctx, pause); err != nil {
				return nil, newError("connect", err)
			}
		}
		conn, err := c.config.dialer.Dial(ctx, model, config.genai())
		if err == nil {
			return newSession(conn, model), nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return nil, newError("connect", lastErr)
}

// Dialer opens the underlying connection.
type Dialer interface {
	Dial(ctx context.Context, model string, config *genai.LiveConnectConfig) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, model string, config *genai.LiveConnectConfig) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, model string, config *genai.LiveConnectConfig) (Conn, error) {
	return f(ctx, model, config)
}

type genaiDialer struct {
	config *clientConfig
}

func (d *genaiDialer) Dial(ctx context.Context, model string, config *genai.LiveConnectConfig) (Conn, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     d.config.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: d.config.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    d.config.baseURL,
			APIVersion: d.config.apiVersion,
		},
	})
	if err != nil {
		return nil, err
	}
	return client.Live.Connect(ctx, model, config)
}
