package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexussleep/sleepnexus-system/internal/config"
)

func TestFileBlob_LoadNotFoundOnFirstRun(t *testing.T) {
	blob := NewFileBlob(filepath.Join(t.TempDir(), "state.json"))

	_, err := blob.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileBlob_SaveLoadRoundTrip(t *testing.T) {
	blob := NewFileBlob(filepath.Join(t.TempDir(), "state.json"))
	ctx := context.Background()

	doc := []byte(`{"activeProfileId":"p1","profiles":[]}`)
	require.NoError(t, blob.Save(ctx, doc))

	got, err := blob.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestFileBlob_SaveOverwritesWholeDocument(t *testing.T) {
	blob := NewFileBlob(filepath.Join(t.TempDir(), "state.json"))
	ctx := context.Background()

	require.NoError(t, blob.Save(ctx, []byte(`{"v":1}`)))
	require.NoError(t, blob.Save(ctx, []byte(`{"v":2}`)))

	got, err := blob.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got)
}

func TestNew_SelectsFileBackendWithoutDatabase(t *testing.T) {
	cfg := &config.Config{StateFile: filepath.Join(t.TempDir(), "state.json")}

	blob, err := New(cfg)
	require.NoError(t, err)
	defer blob.Close()

	_, ok := blob.(*FileBlob)
	assert.True(t, ok, "expected file backend when no database URI is configured")
}
