package oneprovider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", 2*time.Second, server.Client(), zerolog.Nop()), server
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"provider.example.org", "https://provider.example.org"},
		{"provider.example.org:8443/", "https://provider.example.org:8443"},
		{"http://127.0.0.1:9000", "http://127.0.0.1:9000"},
		{" https://p.org/ ", "https://p.org"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, BaseURL(tt.host))
		})
	}
}

func TestClient_ListEntries(t *testing.T) {
	client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get(AuthHeader))
		assert.Equal(t, "/api/v3/oneprovider/files/my space/input", r.URL.Path)
		writeJSON(w, []map[string]string{
			{"id": "id-1", "path": "/my space/input/a.txt"},
			{"id": "id-2", "path": "/my space/input/sub"},
		})
	})

	entries, err := client.ListEntries(context.Background(), "my space/input")
	require.NoError(t, err)
	assert.Equal(t, []models.FilePathInfo{
		{ID: "id-1", Path: "/my space/input/a.txt"},
		{ID: "id-2", Path: "/my space/input/sub"},
	}, entries)
}

func TestClient_GetAttributes(t *testing.T) {
	client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/oneprovider/attributes/space/a.txt", r.URL.Path)
		writeJSON(w, map[string]interface{}{"type": "REG", "mtime": 1549533064, "size": 12})
	})

	attrs, err := client.GetAttributes(context.Background(), "/space/a.txt")
	require.NoError(t, err)
	assert.True(t, attrs.IsRegular())
	assert.Equal(t, time.Unix(1549533064, 0).UTC(), attrs.ModifiedAt)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.True(t, common.IsNotFoundError(err))
				assert.False(t, common.IsConnectivityError(err))
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				var connErr *common.ConnectivityError
				require.ErrorAs(t, err, &connErr)
				assert.Equal(t, http.StatusInternalServerError, connErr.StatusCode)
				assert.Equal(t, "boom", connErr.Reason)
			},
		},
		{
			name:   "unauthorized on files is connectivity",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, common.IsConnectivityError(err))
				assert.False(t, errors.Is(err, common.ErrInvalidToken))
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   "{not json",
			check: func(t *testing.T, err error) {
				assert.True(t, common.IsConnectivityError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.ListEntries(context.Background(), "space")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "tok", time.Second, http.DefaultClient, zerolog.Nop())
	_, err := client.GetAttributes(context.Background(), "space/file")
	require.Error(t, err)
	assert.True(t, common.IsConnectivityError(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "tok", 50*time.Millisecond, server.Client(), zerolog.Nop())
	_, err := client.ListEntries(context.Background(), "space")
	require.Error(t, err)
	assert.True(t, common.IsConnectivityError(err))
}

func TestClient_Spaces(t *testing.T) {
	client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/oneprovider/spaces/":
			writeJSON(w, []models.Space{{Name: "alpha", SpaceID: "id-a"}, {SpaceID: "id-b"}})
		case "/api/v3/oneprovider/spaces/id-b":
			writeJSON(w, map[string]interface{}{"name": "beta", "spaceId": "id-b", "providers": map[string]int{}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	spaces, err := client.ListSpaces(ctx)
	require.NoError(t, err)
	assert.Len(t, spaces, 2)

	space, err := client.ResolveSpace(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "id-a", space.SpaceID)

	space, err = client.ResolveSpace(ctx, "id-b")
	require.NoError(t, err)
	assert.Equal(t, "beta", space.Name)

	_, err = client.ResolveSpace(ctx, "missing")
	require.Error(t, err)
	assert.True(t, common.IsNotFoundError(err))
}

func TestClient_InvalidToken(t *testing.T) {
	client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListSpaces(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClient_CheckFolder(t *testing.T) {
	client, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/oneprovider/files/space/input" {
			writeJSON(w, []map[string]string{})
			return
		}
		http.NotFound(w, r)
	})

	assert.NoError(t, client.CheckFolder(context.Background(), "space", "/input/"))
	err := client.CheckFolder(context.Background(), "space", "missing")
	assert.True(t, common.IsNotFoundError(err))
}
