package store

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when PERSONA_TEST_REDIS_URL is set.
func TestRedisBackendRoundTrip(t *testing.T) {
	url := os.Getenv("PERSONA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PERSONA_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	b, err := NewRedisBackend(ctx, url, "persona-panel-test:")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Get(ctx, "missing-key")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, KeyTemplate, []byte(`"x"`)))
	got, err := b.Get(ctx, KeyTemplate)
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(got))
}

func TestRedisBackendInProcess(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	b, err := NewRedisBackend(ctx, "redis://"+mr.Addr(), "")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Get(ctx, KeyState)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, KeyState, []byte(`{"version":"20.0.0"}`)))
	got, err := b.Get(ctx, KeyState)
	require.NoError(t, err)
	assert.Equal(t, `{"version":"20.0.0"}`, string(got))
	assert.True(t, mr.Exists("persona-panel:"+KeyState))

	st := New(b, WithDebounce(0))
	st.SaveTemplate("name: x\n")
	assert.Equal(t, "name: x\n", st.LoadTemplate(ctx))
}

func TestNewRedisBackendRejectsBadURL(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), "not a url", "")
	assert.Error(t, err)
}

func TestFileBackendMissingKey(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	_, err = b.Get(context.Background(), KeyHistory)
	assert.ErrorIs(t, err, ErrNotFound)
}
