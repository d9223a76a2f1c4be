package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(404, "item not found")
	assert.Equal(t, "Code: 404, Message: item not found", err.Error())

	wrapped := fmt.Errorf("delete item: %w", err)
	assert.True(t, HasCode(wrapped, 404))
	assert.False(t, HasCode(wrapped, 500))
	assert.False(t, HasCode(fmt.Errorf("plain"), 404))
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = NewLogger(LogConfig{Format: "xml"})
	assert.Error(t, err)

	logger, err = NewLogger(LogConfig{Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestGetProjectRoot_FindsGoMod(t *testing.T) {
	root := GetProjectRoot()
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
	assert.NotEmpty(t, DefaultDataDir())
}
