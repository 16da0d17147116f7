package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eopbot/internal/breaker"
	logx "eopbot/pkg/logx"
)

// RevisionInfo is the context the change feed leaves out of log events.
type RevisionInfo struct {
	User     string
	Comment  string
	ParentID int64
}

// Lookuper resolves a revision to its author, summary and parent.
type Lookuper interface {
	Lookup(ctx context.Context, title string, revID int64) (RevisionInfo, bool)
}

type ClientConfig struct {
	// APIURL is the api.php endpoint, e.g. https://psychonautwiki.org/w/api.php.
	APIURL string
	// Timeout bounds one lookup. Zero means no timeout.
	Timeout time.Duration
	Breaker breaker.Config
}

// Client queries the MediaWiki action API for a single revision.
//
// It never returns errors: every failure collapses to "not found" and is
// logged, so callers can always render a degraded message.
type Client struct {
	api  string
	http *http.Client
	cb   *breaker.Breaker
	log  logx.Logger
}

var _ Lookuper = (*Client)(nil)

var errNoRevision = errors.New("revision not found")

func NewClient(cfg ClientConfig, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "wiki.lookup"
	}
	return &Client{
		api:  strings.TrimSpace(cfg.APIURL),
		http: &http.Client{Timeout: cfg.Timeout},
		cb:   breaker.New(cfg.Breaker, log),
		log:  log,
	}
}

func (c *Client) Lookup(ctx context.Context, title string, revID int64) (RevisionInfo, bool) {
	var (
		info  RevisionInfo
		found bool
	)
	err := c.cb.Do(ctx, func(ctx context.Context) error {
		var err error
		info, err = c.fetch(ctx, title, revID)
		if errors.Is(err, errNoRevision) {
			// A missing revision is an answer, not an upstream failure.
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		c.log.Warn("revision lookup failed",
			logx.String("title", title),
			logx.Int64("rev_id", revID),
			logx.Err(err),
		)
		return RevisionInfo{}, false
	}
	if !found {
		c.log.Debug("revision not found", logx.String("title", title), logx.Int64("rev_id", revID))
		return RevisionInfo{}, false
	}
	return info, true
}

type queryResponse struct {
	Query struct {
		Pages map[string]struct {
			Revisions []struct {
				User     string      `json:"user"`
				Comment  string      `json:"comment"`
				ParentID json.Number `json:"parentid"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) fetch(ctx context.Context, title string, revID int64) (RevisionInfo, error) {
	id := strconv.FormatInt(revID, 10)
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "revisions")
	q.Set("titles", title)
	q.Set("rvprop", "timestamp|user|comment|ids")
	q.Set("rvstartid", id)
	q.Set("rvendid", id)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return RevisionInfo{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return RevisionInfo{}, fmt.Errorf("query api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return RevisionInfo{}, fmt.Errorf("query api: http %d", resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RevisionInfo{}, fmt.Errorf("decode response: %w", err)
	}

	pages := out.Query.Pages
	// "-1" is MediaWiki's page id for a missing page.
	if _, missing := pages["-1"]; missing || len(pages) != 1 {
		return RevisionInfo{}, errNoRevision
	}
	for _, page := range pages {
		if len(page.Revisions) == 0 {
			return RevisionInfo{}, errNoRevision
		}
		rev := page.Revisions[0]
		parent, _ := rev.ParentID.Int64()
		return RevisionInfo{User: rev.User, Comment: rev.Comment, ParentID: parent}, nil
	}
	return RevisionInfo{}, errNoRevision
}
