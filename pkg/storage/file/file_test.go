package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
	"github.com/mpapenbr/swimprotocol/testsupport/backendtest"
)

func TestBackend(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	backendtest.Run(t, b)
}

func TestBackend_Watched(t *testing.T) {
	b, err := New(t.TempDir(), WithWatch(true))
	require.NoError(t, err)
	defer b.Close()
	backendtest.Run(t, b)
}

func TestBackend_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(filepath.Join(dir, "protocols"))
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "comp-1", []byte(`{}`)))
	data, err := os.ReadFile(filepath.Join(dir, "protocols", "comp-1.json"))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "protocols"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files must remain")
}

func TestBackend_IgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".comp-2-123.tmp"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))
	require.NoError(t, b.Put(ctx, "comp-1", []byte(`{}`)))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"comp-1"}, keys)
}

func TestBackend_RejectsPathSeparators(t *testing.T) {
	ctx := context.Background()
	b, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"../evil", "a/b", ".."} {
		assert.ErrorIs(t, b.Put(ctx, key, []byte(`{}`)), storage.ErrInvalidID, key)
		_, err := b.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrInvalidID, key)
	}
}

func TestBackend_FailedWriteKeepsOldContent(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "comp-1", []byte(`{"v":1}`)))

	require.NoError(t, os.Chmod(dir, 0o500))
	defer os.Chmod(dir, 0o755) //nolint:errcheck // test cleanup
	require.Error(t, b.Put(ctx, "comp-1", []byte(`{"v":2}`)))

	got, err := b.Get(ctx, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))
}

func TestBackend_WatchInvalidatesExternalChanges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := New(dir, WithWatch(true))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Put(ctx, "comp-1", []byte(`{"v":1}`)))
	got, err := b.Get(ctx, "comp-1")
	require.NoError(t, err)
	require.Equal(t, `{"v":1}`, string(got))

	// written by another process
	require.NoError(t, os.WriteFile(filepath.Join(dir, "comp-1.json"), []byte(`{"v":2}`), 0o600))
	assert.Eventually(t, func() bool {
		got, err := b.Get(ctx, "comp-1")
		return err == nil && string(got) == `{"v":2}`
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFactory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := factory.New(ctx, StoreTypeFile, nil, []Option{WithDir(dir)})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, model.NewSavedProtocol("comp-1", &model.Protocol{})))
	_, err = os.Stat(filepath.Join(dir, "comp-1.json"))
	require.NoError(t, err)

	_, err = factory.New[Option](ctx, StoreTypeFile, nil, nil)
	assert.ErrorIs(t, err, ErrMissingDir)
}
