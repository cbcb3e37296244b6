package lockfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)

	_, err = Acquire(path)
	assert.Error(t, err, "second acquire must fail while the lock is held")

	require.NoError(t, lock.Release())

	lock2, err := Acquire(path)
	require.NoError(t, err, "lock must be reacquirable after release")
	require.NoError(t, lock2.Release())
}

func TestRelease_NilSafe(t *testing.T) {
	var lock *Lock
	assert.NoError(t, lock.Release())
}
