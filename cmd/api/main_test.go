package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/healthfirst/scheduling-assistant/internal/config"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

func TestBuildStoreFileBackend(t *testing.T) {
	cfg := &appconfig.Config{StoreBackend: "file", DataDir: t.TempDir()}

	st, cleanup, err := buildStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &store.FileStore{}, st)
}

func TestBuildLockerWithoutRedis(t *testing.T) {
	cfg := &appconfig.Config{}

	locker := buildLocker(cfg, logging.New("error"))
	assert.IsType(t, store.NoopLocker{}, locker)
}
