package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lotuspetal/lotuspetal-api/gateway/internal/routes"
)

func init() {
	color.NoColor = true
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"serve": false, "migrate": false, "events": false, "routes": false}
	for _, c := range rootCmd.Commands() {
		name := strings.Fields(c.Use)[0]
		if _, ok := expected[name]; ok {
			expected[name] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "command %s should be registered", name)
	}
}

func TestEventsSubcommands(t *testing.T) {
	var names []string
	for _, c := range eventsCmd.Commands() {
		names = append(names, strings.Fields(c.Use)[0])
	}
	assert.ElementsMatch(t, []string{"list", "upsert", "seed", "publish"}, names)
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "output"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.NotNil(t, serveCmd.Flags().Lookup("migrate"))
}

func TestMigrateHelpNamesSource(t *testing.T) {
	assert.Contains(t, migrateCmd.Long, "database.migrations")
	assert.Contains(t, migrateCmd.Long, "relative to the working")
	assert.Contains(t, migrateCmd.Long, "GATEWAY_DATABASE_MIGRATIONS")
}

func TestRoutesCommand_JSON(t *testing.T) {
	out, err := runCommand(t, "routes", "--output", "json")
	require.NoError(t, err)

	var rows []routeRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, len(routes.Table()))

	for _, r := range rows {
		if r.Name == routes.NameListTables {
			assert.True(t, r.Relaxed)
			assert.Equal(t, []string{"/connections/d365/tables"}, r.Aliases)
		}
		if r.Name == routes.NameReadRows {
			assert.Equal(t, "read", r.Timeout)
		}
	}
}

func TestRoutesCommand_YAML(t *testing.T) {
	out, err := runCommand(t, "routes", "--output", "yaml")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	assert.Equal(t, routes.NameConnectionTest, rows[0]["name"])
}

func TestRoutesCommand_Table(t *testing.T) {
	out, err := runCommand(t, "routes", "--output", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "/connections/{tenant}/d365/test")
	assert.Contains(t, out, "/connections/d365/test")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := runCommand(t, "routes", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestEventsList_RequiresDatabase(t *testing.T) {
	t.Setenv("GATEWAY_DATABASE_URL", "")
	t.Setenv("LP_DB_URL", "")

	_, err := runCommand(t, "events", "list", "acme", "--output", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is not configured")
}

func TestEventsUpsert_RejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := runCommand(t, "events", "upsert", path, "--output", "table")
	require.Error(t, err)
}

func TestReadEvents_Stdin(t *testing.T) {
	eventsUpsertCmd.SetIn(strings.NewReader(`[{"id":"se-1","tenant_id":"acme"},{"id":"se-2","tenant_id":"acme"}]`))
	t.Cleanup(func() { eventsUpsertCmd.SetIn(nil) })

	batch, err := readEvents(eventsUpsertCmd, "-")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "se-2", batch[1].ID)
}

func TestDeref(t *testing.T) {
	s := "open"
	assert.Equal(t, "open", deref(&s))
	assert.Equal(t, "-", deref(nil))
}
