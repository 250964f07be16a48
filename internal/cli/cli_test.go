package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the command tree against a private data directory.
func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...), &out, &errOut)
	return out.String(), err
}

func TestCLI_TableLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "table", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Default")

	out, err = runCLI(t, dir, "table", "add", "drinks", "tea,coffee", "tea")
	require.NoError(t, err)
	assert.Contains(t, out, `created table 2 "drinks"`)

	out, err = runCLI(t, dir, "item", "ls", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "tea")
	assert.Contains(t, out, "coffee")

	out, err = runCLI(t, dir, "item", "add", "2", "juice；tea")
	require.NoError(t, err)
	assert.Contains(t, out, "added 1 item(s)")

	_, err = runCLI(t, dir, "table", "default", "2")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "prefs")
	require.NoError(t, err)
	assert.Contains(t, out, "default table: 2")
	assert.Contains(t, out, "no-repeat:     true")

	_, err = runCLI(t, dir, "table", "rename", "2", "beverages")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "table", "rm", "2")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "prefs")
	require.NoError(t, err)
	assert.Contains(t, out, "default table: (none)")

	_, err = runCLI(t, dir, "table", "rm", "1")
	assert.Error(t, err, "last table cannot be removed")
}

func TestCLI_DrawUntilExhausted(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "table", "add", "coin", "heads", "tails")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := runCLI(t, dir, "draw", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "coin")
		assert.Contains(t, out, "no-repeat")
	}

	_, err = runCLI(t, dir, "draw", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "randpick reset")

	_, err = runCLI(t, dir, "reset", "2")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "draw", "2")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "history", "2", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent draws")

	_, err = runCLI(t, dir, "prefs", "no-repeat", "off")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		out, err := runCLI(t, dir, "draw", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "with replacement")
	}

	_, err = runCLI(t, dir, "prefs", "no-repeat", "maybe")
	assert.Error(t, err)
}

func TestCLI_SourceAndSync(t *testing.T) {
	dir := t.TempDir()
	lists := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(lists, "pets.txt"), []byte("cat dog"), 0o644))

	out, err := runCLI(t, dir, "source", "add", lists)
	require.NoError(t, err)
	assert.Contains(t, out, "local")

	out, err = runCLI(t, dir, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "created 1")

	out, err = runCLI(t, dir, "table", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "pets")

	out, err = runCLI(t, dir, "source", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, lists)

	_, err = runCLI(t, dir, "source", "rm", "999")
	assert.Error(t, err)
}

func TestCLI_BadArguments(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "draw", "abc")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "item", "rm", "999")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "table", "default")
	assert.Error(t, err)
}
