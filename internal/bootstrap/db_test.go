package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/config"
)

func TestOpenDB_RejectsBadDSN(t *testing.T) {
	_, err := OpenDB(context.Background(), DBOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN is not set")

	_, err = OpenDB(context.Background(), DBOptions{DSN: "host=localhost port=notaport"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db config")
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeFn, err := OpenStore(context.Background(), config.StoreConfig{Backend: config.StoreMemory}, nil, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, closeFn())

	_, _, err = OpenStore(context.Background(), config.StoreConfig{Backend: "nope"}, nil, zap.NewNop())
	assert.Error(t, err)
}
