package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/config"
)

// setupCLI points the CLI at a fresh data directory and returns a runner.
func setupCLI(t *testing.T) func(args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "guide:\n  data_path: " + filepath.Join(dir, "guide.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	t.Setenv(config.PathEnv, cfgPath)

	return func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}
}

func TestCLI_CustomPlaceLifecycle(t *testing.T) {
	run := setupCLI(t)

	out, err := run("add", "Miradouro", "da", "Graca", "--latitude", "38.716", "--longitude", "-9.131", "--tags", "view, sunset")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Added place: "))
	id := strings.TrimSpace(strings.TrimPrefix(out, "Added place: "))

	out, err = run("places", "--json")
	require.NoError(t, err)
	var places []types.Place
	require.NoError(t, json.Unmarshal([]byte(out), &places))
	require.Len(t, places, 1)
	assert.Equal(t, "Miradouro da Graca", places[0].Name)
	assert.Equal(t, []string{"view", "sunset"}, places[0].Tags)

	_, err = run("update", id, "--name", "Miradouro da Graça")
	require.NoError(t, err)

	out, err = run("visit", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Visits to Miradouro da Graça: 1")

	out, err = run("favorite", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Favorited: "+id)

	out, err = run("favorites")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = run("delete", id)
	require.NoError(t, err)

	out, err = run("places")
	require.NoError(t, err)
	assert.Contains(t, out, "No places.")
}

func TestCLI_AddRequiresCoordinates(t *testing.T) {
	run := setupCLI(t)

	_, err := run("add", "Nowhere")
	assert.Error(t, err)
}

func TestCLI_UnknownCategory(t *testing.T) {
	run := setupCLI(t)

	_, err := run("discover", "--category", "volcanoes")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCLI_Categories(t *testing.T) {
	run := setupCLI(t)

	out, err := run("categories")
	require.NoError(t, err)
	assert.Contains(t, out, "restaurants")
	assert.Contains(t, out, "museums")
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTags(" a, ,b "))
	assert.Nil(t, splitTags(""))
}
