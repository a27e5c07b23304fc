package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/recovery-coach/internal/domain"
	"github.com/ashureev/recovery-coach/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestExercisesCommand(t *testing.T) {
	out, err := execute(t, "exercises")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "box"))
	assert.True(t, strings.HasPrefix(lines[2], "4-7-8"))
	assert.True(t, strings.HasPrefix(lines[3], "calm"))
	assert.Contains(t, lines[1], "1m4s")
}

func TestBreatheCommandCompletes(t *testing.T) {
	out, err := execute(t, "breathe", "box", "--cycles", "1", "--speed", "200")
	require.NoError(t, err)

	assert.Contains(t, out, "Box Breathing")
	assert.Equal(t, 4, strings.Count(out, "[cycle 1/1]"))
	assert.Contains(t, out, "Exercise completed")
}

func TestBreatheCommandRejectsBadCycles(t *testing.T) {
	_, err := execute(t, "breathe", "calm", "--cycles", "-2")
	require.Error(t, err)
}

func TestBreatheCommandUnknownExerciseFallsBack(t *testing.T) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"breathe", "square", "--cycles", "1", "--speed", "200"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, root.ExecuteContext(ctx))

	assert.Contains(t, errOut.String(), `unknown exercise "square", using calm`)
	assert.Contains(t, out.String(), "Exercise completed")
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	repo, err := store.NewSQLite(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, msg := range []string{"first", "second", "third"} {
		require.NoError(t, repo.SaveConversationTurn(ctx, &domain.ConversationTurn{
			SessionID:        "sess-cli",
			UserMessage:      msg,
			AssistantMessage: "reply to " + msg,
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Close())

	out, err := execute(t, "history", "sess-cli", "--db", dbPath, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "user: third")
	assert.Contains(t, out, "user: second")
	assert.NotContains(t, out, "user: first")
	assert.Less(t, strings.Index(out, "third"), strings.Index(out, "second"))

	out, err = execute(t, "history", "nobody", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation turns")
}

func TestHealthcheckRequiresAddress(t *testing.T) {
	t.Setenv("GRPC_HEALTH_ADDR", "")
	_, err := execute(t, "healthcheck")
	require.Error(t, err)
}
