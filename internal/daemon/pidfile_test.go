package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

func TestAcquirePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "d.pid")

	pf, err := AcquirePIDFile(path)
	require.NoError(t, err)

	pid, alive := ReadPID(path)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)

	_, err = AcquirePIDFile(path)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))

	require.NoError(t, pf.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquirePIDFile_ReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	// Pid values above the kernel's pid_max never name a live process.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)+"\n"), 0o600))

	pf, err := AcquirePIDFile(path)
	require.NoError(t, err)
	defer pf.Release()

	pid, _ := ReadPID(path)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquirePIDFile_ReplacesGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o600))

	pf, err := AcquirePIDFile(path)
	require.NoError(t, err)
	require.NoError(t, pf.Release())
}

func TestPIDFile_ReleaseLeavesForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	pf, err := AcquirePIDFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))
	require.NoError(t, pf.Release())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	var nilPF *PIDFile
	assert.NoError(t, nilPF.Release())
}
