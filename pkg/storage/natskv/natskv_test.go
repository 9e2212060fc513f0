package natskv

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/testsupport/backendtest"
	"github.com/mpapenbr/swimprotocol/testsupport/tcnats"
)

func TestComposeKey(t *testing.T) {
	assert.Equal(t, "protocol.comp-1", composeKey("comp-1"))
}

func TestBackend(t *testing.T) {
	url := tcnats.SetupNats(t)
	b, err := New(context.Background(), WithURL(url), WithBucket("conformance"))
	require.NoError(t, err)
	defer b.Close()
	backendtest.Run(t, b)
}

func TestBackend_SharedConnection(t *testing.T) {
	ctx := context.Background()
	url := tcnats.SetupNats(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	b, err := New(ctx, WithConn(nc), WithBucket("shared"))
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "comp-1", []byte(`{}`)))
	require.NoError(t, b.Close())
	assert.False(t, nc.IsClosed(), "borrowed connection must stay open")

	// a second backend on the same bucket sees the record
	other, err := New(ctx, WithConn(nc), WithBucket("shared"))
	require.NoError(t, err)
	got, err := other.Get(ctx, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestBackend_InvalidKey(t *testing.T) {
	ctx := context.Background()
	url := tcnats.SetupNats(t)
	b, err := New(ctx, WithURL(url), WithBucket("invalid"))
	require.NoError(t, err)
	defer b.Close()

	err = b.Put(ctx, "with space", []byte(`{}`))
	assert.ErrorIs(t, err, storage.ErrInvalidID)
}
