package monitor

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/config"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTree is an in-memory provider keyed by paths without a leading slash
type memTree struct {
	children map[string][]string
	attrs    map[string]models.EntryAttributes
	attrErr  map[string]error
}

func newMemTree() *memTree {
	return &memTree{
		children: map[string][]string{},
		attrs:    map[string]models.EntryAttributes{},
		attrErr:  map[string]error{},
	}
}

func (m *memTree) add(path string, kind models.EntryType, mtime time.Time) {
	m.attrs[path] = models.EntryAttributes{Type: kind, ModifiedAt: mtime}
	if i := strings.LastIndex(path, "/"); i > 0 {
		parent := path[:i]
		m.children[parent] = append(m.children[parent], path)
	}
}

func (m *memTree) ListEntries(_ context.Context, path string) ([]models.FilePathInfo, error) {
	var out []models.FilePathInfo
	for _, child := range m.children[path] {
		out = append(out, models.FilePathInfo{ID: models.FileIdentity("id:" + child), Path: "/" + child})
	}
	return out, nil
}

func (m *memTree) GetAttributes(_ context.Context, path string) (models.EntryAttributes, error) {
	if err := m.attrErr[path]; err != nil {
		return models.EntryAttributes{}, err
	}
	attrs, ok := m.attrs[path]
	if !ok {
		return models.EntryAttributes{}, common.NewNotFoundError("entry", "/attributes/"+path)
	}
	return attrs, nil
}

type targetedRecorder struct {
	calls map[string][]string
	fail  map[string]error
}

func (r *targetedRecorder) NotifyTo(_ context.Context, url string, files []models.FilePathInfo) []models.DeliveryResult {
	if r.calls == nil {
		r.calls = map[string][]string{}
	}
	var results []models.DeliveryResult
	for _, f := range files {
		r.calls[url] = append(r.calls[url], f.Path)
		results = append(results, models.DeliveryResult{
			Event:      models.WebhookEvent{ID: f.ID, Path: f.Path},
			WebhookURL: url,
			Err:        r.fail[f.Path],
		})
	}
	return results
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	old := now.Add(-time.Hour)

	tree := newMemTree()
	tree.add("space/in", models.EntryTypeDirectory, recent)
	tree.add("space/in/new.csv", models.EntryTypeRegular, recent)
	tree.add("space/in/old.csv", models.EntryTypeRegular, old)
	tree.add("space/in/sub", models.EntryTypeDirectory, recent)
	tree.add("space/in/sub/deep.csv", models.EntryTypeRegular, recent)
	tree.add("space/archive", models.EntryTypeDirectory, old)
	tree.add("space/archive/stale.csv", models.EntryTypeRegular, recent)

	notifier := &targetedRecorder{fail: map[string]error{
		"/space/in/sub/deep.csv": &common.DeliveryError{URL: "http://in", StatusCode: 500},
	}}
	sweeper := NewSweeper(tree, notifier, 1, zerolog.Nop())
	sweeper.now = func() time.Time { return now }

	folders := []SweepFolder{
		{Key: "A", Folder: "archive", Webhook: "http://archive"},
		{Key: "B", Folder: "/in/", Webhook: "http://in"},
		{Key: "C", Folder: "missing", Webhook: "http://missing"},
	}

	result, err := sweeper.Sweep(context.Background(), "space", folders, 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []string{"/space/in/new.csv", "/space/in/sub/deep.csv"}, result.NewFiles)
	assert.Equal(t, []string{"/space/in/new.csv", "/space/in/sub/deep.csv"}, notifier.calls["http://in"])
	assert.NotContains(t, notifier.calls, "http://archive")
	require.Len(t, result.Warnings, 2)
	assert.True(t, strings.HasPrefix(result.Warnings[0], "Error sending event to http://in - "))
	assert.Equal(t, `The folder "missing" does not exist. Ignoring it.`, result.Warnings[1])
}

func TestSweep_ProviderErrorAborts(t *testing.T) {
	tree := newMemTree()
	tree.attrErr["space/in"] = common.NewStatusError("/attributes/space/in", 502, "bad gateway")

	sweeper := NewSweeper(tree, &targetedRecorder{}, 1, zerolog.Nop())
	_, err := sweeper.Sweep(context.Background(), "space", []SweepFolder{{Key: "A", Folder: "in", Webhook: "http://x"}}, time.Minute)
	require.Error(t, err)
	assert.True(t, common.IsConnectivityError(err))
}

func TestSweepResult_JSON(t *testing.T) {
	out, err := json.Marshal(SweepResult{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	out, err = json.Marshal(SweepResult{NewFiles: []string{"/s/a"}, Warnings: []string{"w"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"new_files":["/s/a"],"warnings":["w"]}`, string(out))
}

func TestSweepFoldersFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Webhook.URL = "http://default"
	cfg.Sweep.Folders = map[string]string{"B": "two", "A": "one"}
	cfg.Sweep.Webhooks = map[string]string{"B": "http://b"}

	assert.Equal(t, []SweepFolder{
		{Key: "A", Folder: "one", Webhook: "http://default"},
		{Key: "B", Folder: "two", Webhook: "http://b"},
	}, SweepFoldersFromConfig(cfg))
}
