package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dazzle-tools/sesslog/internal/channel"
)

func TestReadChannelJoinsSegmentsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, channel.ToolCall.Filename())
	require.NoError(t, os.WriteFile(base+".overflow.1", []byte("first\n"), 0o644))
	require.NoError(t, os.WriteFile(base+".overflow.2", []byte("second\n"), 0o644))
	require.NoError(t, os.WriteFile(base, []byte("active\n"), 0o644))

	assert.Equal(t, "first\nsecond\nactive\n", readChannel(dir, channel.ToolCall))
}

func TestReadChannelEmptyDir(t *testing.T) {
	assert.Equal(t, "(no records yet)", readChannel(t.TempDir(), channel.Shell))
}

func TestNewLoadsContentForEveryTab(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, channel.Task.Filename()), []byte("tasks here\n"), 0o644))

	m := New("widgets", dir)
	assert.Equal(t, "(no records yet)", m.content[0])
	assert.Equal(t, "tasks here\n", m.content[2])
}
