// Package oneprovider reads the file tree of a Oneprovider through its REST API.
package oneprovider

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

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
)

const (
	spacesPath     = "/api/v3/oneprovider/spaces/"
	filesPath      = "/api/v3/oneprovider/files/"
	attributesPath = "/api/v3/oneprovider/attributes/"

	// AuthHeader carries the Onedata access token
	AuthHeader = "X-Auth-Token"

	maxErrorBodySize = 512
)

// Accessor is the read-only view of the remote tree used by the walker
type Accessor interface {
	ListEntries(ctx context.Context, path string) ([]models.FilePathInfo, error)
	GetAttributes(ctx context.Context, path string) (models.EntryAttributes, error)
}

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Oneprovider REST API. It performs no retries;
// the poll loop decides what to do with failures.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a provider client. host is a bare host[:port], in which
// case https is assumed, or a full base URL.
func NewClient(host, token string, timeout time.Duration, httpClient HTTPDoer, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    BaseURL(host),
		token:      token,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "OneproviderClient").Logger(),
	}
}

// BaseURL normalises a configured host into a base URL without trailing slash
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// Host returns the base URL the client talks to
func (c *Client) Host() string {
	return c.baseURL
}

type fileEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type fileAttributes struct {
	Type  string `json:"type"`
	Mtime int64  `json:"mtime"`
}

// ListEntries returns the direct children of path ("{space}/{folder}/...").
func (c *Client) ListEntries(ctx context.Context, path string) ([]models.FilePathInfo, error) {
	var entries []fileEntry
	if err := c.getJSON(ctx, filesPath+escapePath(path), "directory", &entries); err != nil {
		return nil, err
	}

	result := make([]models.FilePathInfo, 0, len(entries))
	for _, e := range entries {
		result = append(result, models.FilePathInfo{ID: models.FileIdentity(e.ID), Path: e.Path})
	}
	c.logger.Debug().Str("path", path).Int("entries", len(result)).Msg("Listed directory")
	return result, nil
}

// GetAttributes returns type and modification time of the entry at path
func (c *Client) GetAttributes(ctx context.Context, path string) (models.EntryAttributes, error) {
	var attrs fileAttributes
	if err := c.getJSON(ctx, attributesPath+escapePath(path), "entry", &attrs); err != nil {
		return models.EntryAttributes{}, err
	}
	return models.EntryAttributes{
		Type:       models.ParseEntryType(attrs.Type),
		ModifiedAt: time.Unix(attrs.Mtime, 0).UTC(),
	}, nil
}

// ListSpaces returns the spaces visible to the token
func (c *Client) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var spaces []models.Space
	if err := c.getJSON(ctx, spacesPath, "spaces", &spaces); err != nil {
		return nil, asAuthError(err)
	}
	return spaces, nil
}

// GetSpace returns a single space by ID
func (c *Client) GetSpace(ctx context.Context, spaceID string) (models.Space, error) {
	var space models.Space
	if err := c.getJSON(ctx, spacesPath+url.PathEscape(spaceID), "space", &space); err != nil {
		return models.Space{}, asAuthError(err)
	}
	if space.SpaceID == "" {
		space.SpaceID = spaceID
	}
	return space, nil
}

// ResolveSpace finds the space whose name, or failing that ID, matches nameOrID
func (c *Client) ResolveSpace(ctx context.Context, nameOrID string) (models.Space, error) {
	spaces, err := c.ListSpaces(ctx)
	if err != nil {
		return models.Space{}, err
	}
	for _, s := range spaces {
		if s.Name == nameOrID {
			return s, nil
		}
	}
	for _, s := range spaces {
		if s.SpaceID == nameOrID {
			if s.Name == "" {
				return c.GetSpace(ctx, s.SpaceID)
			}
			return s, nil
		}
	}
	return models.Space{}, common.NewNotFoundError(fmt.Sprintf("space %q", nameOrID), c.baseURL+spacesPath)
}

// CheckFolder verifies that folder exists inside space
func (c *Client) CheckFolder(ctx context.Context, space, folder string) error {
	_, err := c.ListEntries(ctx, space+"/"+strings.Trim(folder, "/"))
	return err
}

// getJSON issues an authenticated GET and decodes a 2xx JSON body into out.
// 404 maps to NotFoundError, any other failure to ConnectivityError.
func (c *Client) getJSON(ctx context.Context, path, resource string, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return common.NewConnectivityError(reqURL, "failed to create request", err)
	}
	req.Header.Set(AuthHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}
		return common.NewConnectivityError(reqURL, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return common.NewNotFoundError(resource, reqURL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return common.NewStatusError(reqURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return common.NewConnectivityError(reqURL, "malformed response body", err)
	}
	return nil
}

// asAuthError turns a 401 from the spaces endpoints into an AuthError
func asAuthError(err error) error {
	var connErr *common.ConnectivityError
	if errors.As(err, &connErr) && connErr.StatusCode == http.StatusUnauthorized {
		return &common.AuthError{URL: connErr.URL}
	}
	return err
}

// escapePath escapes each segment of a slash separated path
func escapePath(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
