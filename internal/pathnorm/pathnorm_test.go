package pathnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDriveVariants(t *testing.T) {
	// every notation of the same location must map to one canonical string
	variants := []string{
		`C:\Users\dev\project`,
		`C:/Users/dev/project`,
		`c:\Users\dev\project`,
		`/c/Users/dev/project`,
		`/mnt/c/Users/dev/project`,
		`/cygdrive/c/Users/dev/project`,
		`C:\Users\dev\project\`,
	}

	for _, v := range variants {
		got, err := Normalize(v)
		require.NoError(t, err, "input %q", v)
		require.Equal(t, "c:/Users/dev/project", got, "input %q", v)
	}
}

func TestNormalizeDriveRoot(t *testing.T) {
	for _, v := range []string{`C:`, `C:\`, `/c`, `/c/`, `/mnt/c`, `/cygdrive/c/`} {
		got, err := Normalize(v)
		require.NoError(t, err, "input %q", v)
		require.Equal(t, "c:/", got, "input %q", v)
	}
}

func TestNormalizePosixPassThrough(t *testing.T) {
	got, err := Normalize("/home/dev/project")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project", got)

	got, err = Normalize("/home/dev/project/")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project", got)

	got, err = Normalize("/")
	require.NoError(t, err)
	require.Equal(t, "/", got)
}

func TestNormalizeUnknownFormsSlashUnified(t *testing.T) {
	// unknown but well-formed input never errors, only slash direction changes
	got, err := Normalize(`relative\sub\dir`)
	require.NoError(t, err)
	require.Equal(t, "relative/sub/dir", got)

	got, err = Normalize(`//server/share/dir`)
	require.NoError(t, err)
	require.Equal(t, "//server/share/dir", got)
}

func TestNormalizeCollapsesDuplicateSlashes(t *testing.T) {
	got, err := Normalize("/home//dev///project")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project", got)
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize("")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = Normalize("   ")
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestNormalizeIsStable(t *testing.T) {
	// normalizing an already-canonical path is a no-op
	once, err := Normalize(`/mnt/c/Users/dev/project`)
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}
