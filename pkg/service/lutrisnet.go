package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"lutra/internal/logging"
	"lutra/pkg/library"
)

// DefaultBaseURL is the public lutris.net instance.
const DefaultBaseURL = "https://lutris.net"

// lutrisService tags service games pulled from the remote library.
const lutrisService = "lutris"

// Client talks to the lutris.net API. Requests retry with exponential
// backoff on network errors and 5xx responses; 4xx responses fail at once.
type Client struct {
	baseURL       string
	token         string
	httpc         *http.Client
	retryInterval time.Duration
	log           *slog.Logger
}

// NewClient builds a Client for baseURL. tokenPath names the auth token file
// in the cache dir; a missing file means anonymous access.
func NewClient(baseURL, tokenPath string, log *slog.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	token := ""
	if raw, err := os.ReadFile(tokenPath); err == nil {
		token = strings.TrimSpace(string(raw))
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpc:         &http.Client{Timeout: 30 * time.Second},
		retryInterval: 500 * time.Millisecond,
		log:           log,
	}
}

// Installer is one install script as served by the API.
type Installer struct {
	ID       int64                  `json:"id"`
	Slug     string                 `json:"slug"`
	Version  string                 `json:"version"`
	Name     string                 `json:"name"`
	GameSlug string                 `json:"game_slug"`
	Year     int                    `json:"year"`
	Runner   string                 `json:"runner"`
	Script   map[string]interface{} `json:"script"`
}

// LibraryGame is one entry of the user's remote library.
type LibraryGame struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Runner   string `json:"runner"`
	Platform string `json:"platform"`
	Year     int    `json:"year"`
}

// Installers fetches the install scripts for a game slug. revision pins one
// script revision and may be empty.
func (c *Client) Installers(ctx context.Context, slug, revision string) ([]Installer, error) {
	path := "/api/installers/" + url.PathEscape(slug)
	if revision != "" {
		path += "?revision=" + url.QueryEscape(revision)
	}
	var out struct {
		Count   int         `json:"count"`
		Results []Installer `json:"results"`
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Library fetches the user's remote game library. Anonymous clients get an
// empty library without a request.
func (c *Client) Library(ctx context.Context) ([]LibraryGame, error) {
	if c.token == "" {
		c.log.Debug("no lutris.net token, skipping library fetch")
		return nil, nil
	}
	var out struct {
		Games []LibraryGame `json:"games"`
	}
	if err := c.getJSON(ctx, "/api/games/library", &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}

// SyncLibrary pulls the remote library and records each entry as a lutris
// service game. Returns the number of entries written.
func (c *Client) SyncLibrary(ctx context.Context, lib *library.Library) (int, error) {
	games, err := c.Library(ctx)
	if err != nil {
		return 0, err
	}
	for i, g := range games {
		details, err := json.Marshal(g)
		if err != nil {
			return i, fmt.Errorf("library details: %w", err)
		}
		sg := library.ServiceGame{
			Service: lutrisService,
			AppID:   g.Slug,
			Name:    g.Name,
			Slug:    g.Slug,
			Details: string(details),
		}
		if err := lib.UpsertServiceGame(ctx, sg); err != nil {
			return i, err
		}
	}
	return len(games), nil
}

// getJSON fetches baseURL+path and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxInterval = 10 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Token "+c.token)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return struct{}{}, fmt.Errorf("lutris.net returned %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return struct{}{}, backoff.Permanent(fmt.Errorf("lutris.net returned %s", resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(4),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Debug("retrying lutris.net request", "path", path, "err", err, "next", next)
		}),
	)
	return err
}
