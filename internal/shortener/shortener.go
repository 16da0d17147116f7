package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eopbot/internal/breaker"
	logx "eopbot/pkg/logx"
)

// Shortener maps a long URL to a short one.
type Shortener interface {
	Shorten(ctx context.Context, long string) (string, error)
}

var ErrEmptyResponse = errors.New("shortener returned an empty url")

type Config struct {
	// Endpoint is called as GET <endpoint>&url=<long> (or ?url= when it has
	// no query). The response body is the short URL as plain text, the way
	// is.gd's format=simple API answers.
	Endpoint string
	Timeout  time.Duration
	Breaker  breaker.Config
}

// Client is an HTTP shortener guarded by a circuit breaker.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	cb       *breaker.Breaker
}

var _ Shortener = (*Client)(nil)

func New(cfg Config, log logx.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("parse shortener endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("shortener endpoint must be http(s), got %q", cfg.Endpoint)
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "shortener"
	}
	return &Client{
		endpoint: u,
		http:     &http.Client{Timeout: cfg.Timeout},
		cb:       breaker.New(cfg.Breaker, log),
	}, nil
}

func (c *Client) Shorten(ctx context.Context, long string) (string, error) {
	var short string
	err := c.cb.Do(ctx, func(ctx context.Context) error {
		var err error
		short, err = c.call(ctx, long)
		return err
	})
	if err != nil {
		return "", err
	}
	return short, nil
}

func (c *Client) call(ctx context.Context, long string) (string, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("url", long)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("shorten: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("shorten: http %d", resp.StatusCode)
	}
	short := strings.TrimSpace(string(body))
	if short == "" {
		return "", ErrEmptyResponse
	}
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		return "", fmt.Errorf("shorten: unexpected response %q", short)
	}
	return short, nil
}
