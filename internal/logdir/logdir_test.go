package logdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirName(t *testing.T) {
	assert.Equal(t, "my-project__abc-123_dev", DirName("my-project", "abc-123", "dev"))
	assert.Equal(t, "__abc-123_dev", DirName("", "abc-123", "dev"), "unnamed placeholder form")
}

func TestNameFromDir(t *testing.T) {
	assert.Equal(t, "my-project", NameFromDir("my-project__abc-123_dev", "abc-123"))
	assert.Equal(t, "", NameFromDir("__abc-123_dev", "abc-123"))
	assert.Equal(t, "", NameFromDir("unrelated-dir", "abc-123"))
}

func TestEnsureIsIdempotent(t *testing.T) {
	root := t.TempDir()

	first, err := Ensure(root, "n__id_u")
	require.NoError(t, err)
	second, err := Ensure(root, "n__id_u")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFindByID(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "old-name__abc-123_dev"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "other__zzz-999_dev"), 0o755))

	got, ok := FindByID(root, "abc-123")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "old-name__abc-123_dev"), got)

	_, ok = FindByID(root, "nope")
	assert.False(t, ok)
}

func TestMove(t *testing.T) {
	t.Run("moves everything, nothing left behind", func(t *testing.T) {
		root := t.TempDir()
		oldDir := filepath.Join(root, "old__id_u")
		require.NoError(t, os.MkdirAll(oldDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(oldDir, "toolcalls.log"), []byte("a\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(oldDir, "toolcalls.log.overflow.1"), []byte("b\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(oldDir, "shell.log"), []byte("c\n"), 0o644))

		newDir := filepath.Join(root, "new__id_u")
		require.NoError(t, Move(oldDir, newDir))

		_, err := os.Stat(oldDir)
		assert.True(t, os.IsNotExist(err), "old directory must be gone")

		for _, f := range []string{"toolcalls.log", "toolcalls.log.overflow.1", "shell.log"} {
			_, err := os.Stat(filepath.Join(newDir, f))
			assert.NoError(t, err, "file %s must arrive", f)
		}
	})

	t.Run("same path is a no-op", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "d__id_u")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, Move(dir, dir))
		_, err := os.Stat(dir)
		assert.NoError(t, err)
	})

	t.Run("refuses to clobber an existing destination", func(t *testing.T) {
		root := t.TempDir()
		a := filepath.Join(root, "a__id_u")
		b := filepath.Join(root, "b__id_u")
		require.NoError(t, os.MkdirAll(a, 0o755))
		require.NoError(t, os.MkdirAll(b, 0o755))
		assert.Error(t, Move(a, b))
	})
}

func TestCopyTreeFallbackPreservesContent(t *testing.T) {
	// exercise the copy path directly; rename covers the common case
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.log"), []byte("alpha\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.log"), []byte("beta\n"), 0o644))

	dst := filepath.Join(root, "dst")
	require.NoError(t, copyTree(src, dst))
	require.NoError(t, verifyTree(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "nested", "b.log"))
	require.NoError(t, err)
	assert.Equal(t, "beta\n", string(got))
}
