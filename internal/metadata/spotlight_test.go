package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appdock/appdock/internal/testutil"
)

func TestParseMdlsOutput(t *testing.T) {
	hint := parseMdlsOutput("public.app-category.developer-tools\x00Developer Tools")
	assert.Equal(t, "public.app-category.developer-tools", hint.typeUTI)
	assert.Equal(t, "Developer Tools", hint.name)

	hint = parseMdlsOutput("(null)\x00\"Games\"")
	assert.Empty(t, hint.typeUTI)
	assert.Equal(t, "Games", hint.name)

	hint = parseMdlsOutput("")
	assert.Empty(t, hint.typeUTI)
	assert.Empty(t, hint.name)
}

func TestSpotlightReader_CachesPerPath(t *testing.T) {
	calls := 0
	reader := newSpotlightReader(1000, func(ctx context.Context, path string) (string, error) {
		calls++
		return "public.app-category.music\x00Music", nil
	})

	for i := 0; i < 3; i++ {
		typeUTI, name, err := reader.Lookup(context.Background(), "/Applications/Music.app")
		require.NoError(t, err)
		assert.Equal(t, "public.app-category.music", typeUTI)
		assert.Equal(t, "Music", name)
	}
	assert.Equal(t, 1, calls)
}

func TestSpotlightReader_RequeriesReplacedBundle(t *testing.T) {
	bundle := testutil.WriteBundle(t, t.TempDir(), "Music", testutil.App("com.example.music", "Music", "1.0"))
	calls := 0
	reader := newSpotlightReader(1000, func(ctx context.Context, path string) (string, error) {
		calls++
		return "public.app-category.music\x00Music", nil
	})

	_, _, err := reader.Lookup(context.Background(), bundle)
	require.NoError(t, err)
	_, _, err = reader.Lookup(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(bundle, DescriptorPath), later, later))
	_, _, err = reader.Lookup(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a rewritten descriptor invalidates the cached answer")
}

func TestSpotlightReader_ErrorsAreNotCached(t *testing.T) {
	calls := 0
	reader := newSpotlightReader(1000, func(ctx context.Context, path string) (string, error) {
		calls++
		return "", errors.New("mdls failed")
	})

	_, _, err := reader.Lookup(context.Background(), "/Applications/X.app")
	require.Error(t, err)
	_, _, err = reader.Lookup(context.Background(), "/Applications/X.app")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestSpotlightReader_HonorsCancelledContext(t *testing.T) {
	reader := newSpotlightReader(1, func(ctx context.Context, path string) (string, error) {
		return "", nil
	})
	// Drain the burst so the next Wait has to block
	for i := 0; i < 10; i++ {
		_, _, _ = reader.Lookup(context.Background(), "/a"+string(rune('a'+i)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := reader.Lookup(ctx, "/blocked")
	assert.Error(t, err)
}

func TestDefaultSourceDisabled(t *testing.T) {
	assert.Nil(t, DefaultSource(false, 10))
}
