package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	color.NoColor = true
}

func newTestPrinter(format string) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Out: &out, Err: &errOut, Format: format}, &out, &errOut
}

func TestMessages(t *testing.T) {
	p, out, errOut := newTestPrinter(FormatTable)

	p.Success("Created %d items", 5)
	p.Info("plain info")
	p.Warn("careful")
	p.Error("failed: %s", "boom")

	assert.Contains(t, out.String(), "✓ Created 5 items")
	assert.Contains(t, out.String(), "plain info")
	assert.Contains(t, out.String(), "⚠ careful")
	assert.Equal(t, "✗ failed: boom\n", errOut.String())
}

func TestStructured(t *testing.T) {
	v := map[string]any{"id": "se-1", "count": 2}

	t.Run("json", func(t *testing.T) {
		p, out, _ := newTestPrinter(FormatJSON)
		done, err := p.Structured(v)
		require.NoError(t, err)
		assert.True(t, done)

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "se-1", got["id"])
	})

	t.Run("yaml", func(t *testing.T) {
		p, out, _ := newTestPrinter(FormatYAML)
		done, err := p.Structured(v)
		require.NoError(t, err)
		assert.True(t, done)

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, 2, got["count"])
	})

	t.Run("table", func(t *testing.T) {
		p, out, _ := newTestPrinter(FormatTable)
		done, err := p.Structured(v)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Empty(t, out.String())
	})
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("xml"))
	assert.False(t, ValidFormat(""))
}

func TestTable_Render(t *testing.T) {
	table := NewTable("ID", "Title")
	table.AddRow("se-1", "Steel tender")
	table.AddRow("se-22", "Q3")

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID     Title         ", lines[0])
	assert.Equal(t, "-----  ------------  ", lines[1])
	assert.Equal(t, "se-1   Steel tender  ", lines[2])
	assert.Equal(t, 2, table.Len())
}

func TestTable_ExtraCellsIgnored(t *testing.T) {
	table := NewTable("A")
	table.AddRow("x", "overflow")

	var buf bytes.Buffer
	table.Render(&buf)
	assert.NotContains(t, buf.String(), "overflow")
}
