// Package gemini extracts transactions from bank SMS text with Gemini when
// the bot runs without a backend session.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used unless WithModel overrides it.
const DefaultModel = "gemini-2.5-flash"

// ContentGenerator is the slice of the genai API the parser needs.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// ErrMissingAPIKey is returned by NewClient for a blank key.
var ErrMissingAPIKey = errors.New("gemini API key is required")

// Client parses SMS text through a ContentGenerator.
type Client struct {
	generator ContentGenerator
	model     string
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithModel selects the Gemini model. Blank names are ignored.
func WithModel(name string) Option {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.model = name
		}
	}
}

// WithClock sets the clock used for "today" in prompts.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewClientWithGenerator(&modelsAdapter{models: client.Models}, opts...), nil
}

// NewClientWithGenerator builds a Client on top of any generator.
func NewClientWithGenerator(generator ContentGenerator, opts ...Option) *Client {
	c := &Client{
		generator: generator,
		model:     DefaultModel,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}
