// Package gateway talks to the Sydia claim-management API. Every endpoint is
// reached through the same POST form-encoded call shape; responses are
// normalized into contract.Result because the remote mixes two success
// conventions (a numeric status field, or the mere presence of an id field).
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
)

const maxResponseSizeBytes = 8 << 20

type Config struct {
	URL     string        `split_words:"true" default:"https://preprod.sydia.fr"`
	Token   string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"30s"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("sydia url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid sydia url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("sydia token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Call posts form-encoded values to /api/v2/{endpoint} with the shared token
// injected, and normalizes the JSON response. Timeouts and transport errors
// come back as failed Results.
func (c *Client) Call(ctx context.Context, endpoint string, form url.Values) contractx.Result {
	raw, _, err := c.post(ctx, endpoint, form)
	if err != nil {
		return contractx.Failure(err.Error())
	}
	return normalize(raw)
}

// post performs the HTTP exchange and returns the raw body plus status code.
// Callers that need non-JSON bodies (document generation) use it directly.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/"+strings.TrimLeft(endpoint, "/"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("build sydia request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("appel Sydia %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read sydia response: %w", err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("sydia call")

	return body, resp.StatusCode, nil
}

// normalize maps the remote's inconsistent payloads onto a Result. Endpoints
// either report {"status": 200, "data": ...} or return the entity fields
// directly with an id field signaling success. A top-level JSON array is a
// successful listing.
func normalize(raw []byte) contractx.Result {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return contractx.Failure("réponse vide de l'API Sydia")
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err != nil {
			return contractx.Failure("réponse Sydia illisible: " + err.Error())
		}
		return contractx.Result{Success: true, List: list}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return contractx.Failure("réponse Sydia illisible: " + err.Error())
	}

	if statusOK(payload) || hasAnyID(payload) {
		return contractx.Result{Success: true, Data: payload}
	}

	msg, _ := payload["message"].(string)
	if msg == "" {
		msg = "Erreur"
	}
	return contractx.Failure(msg)
}

func statusOK(payload map[string]any) bool {
	switch v := payload["status"].(type) {
	case float64:
		return v == 200
	case string:
		return v == "200"
	default:
		return false
	}
}

// hasAnyID accepts the "presence of an identifier means success" convention
// used by the mutating endpoints.
func hasAnyID(payload map[string]any) bool {
	for _, key := range []string{"id_sinistre", "id_assure", "id_ged", "id_tache"} {
		if v, ok := payload[key]; ok && v != nil {
			return true
		}
	}
	return false
}
