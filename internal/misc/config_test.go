package misc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPort(t *testing.T) {
	t.Setenv("PORT", "")
	assert.Equal(t, DefaultPort, Port())

	t.Setenv("PORT", "8081")
	assert.Equal(t, "8081", Port())
}

func TestGetSQLiteAddress(t *testing.T) {
	t.Setenv("DIFUBOT_DATA_DIR", t.TempDir())
	dataDir = "" // force re-resolution under the test dir

	addr := GetSQLiteAddress("test.db")
	assert.Contains(t, addr, "file:")
	assert.Contains(t, addr, "test.db")
	assert.Contains(t, addr, "_foreign_keys=on")
}
