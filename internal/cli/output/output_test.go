package output

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	SetWriter(&buf)
	t.Cleanup(func() { SetWriter(os.Stdout) })
	return &buf
}

func TestTableAligns(t *testing.T) {
	buf := capture(t)
	Table([]string{"ID", "TITLE"}, [][]string{{"1", "Clean water"}, {"22", "Meals"}})
	assert.Equal(t, "ID  TITLE\n1   Clean water\n22  Meals\n", buf.String())
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetFormat("json")
	defer SetFormat("text")
	assert.True(t, IsJSON())

	require.NoError(t, JSON(map[string]int{"likes": 3}))
	assert.JSONEq(t, `{"likes":3}`, buf.String())

	SetFormat("yaml")
	assert.False(t, IsJSON())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Café …", Truncate("Café society", 6))
	assert.Equal(t, "a", Truncate("abc", 1))
}
