package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(hashIDs bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return Wrap(zap.New(core), hashIDs), logs
}

func TestLogger_HashesUserIDs(t *testing.T) {
	l, logs := observed(true)

	l.Info("plan advanced", "user_id", "alice", "plan_id", "p1")
	l.With("user_id", "alice").Warn("retrying")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "p1", first["plan_id"])
	hashed, ok := first["user_id"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(hashed, "h:"))
	assert.NotContains(t, hashed, "alice")

	assert.Equal(t, hashed, entries[1].ContextMap()["user_id"], "same user hashes the same way")
}

func TestLogger_DevKeepsUserIDs(t *testing.T) {
	l, logs := observed(false)

	l.Debug("session recorded", "user_id", "alice", "exercises", 2)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "alice", logs.All()[0].ContextMap()["user_id"])
}

func TestLogger_OddKeyValues(t *testing.T) {
	l, logs := observed(true)

	l.Error("dangling", "user_id")

	// zap reports the dangling key separately
	assert.Equal(t, 1, logs.FilterMessage("dangling").Len())
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.Equal(t, strings.EqualFold(mode, "prod") || strings.EqualFold(mode, "production"), l.hashIDs, mode)
	}
}
