package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "store.log")
	log := New(path, true)
	log.Info("subject added", zap.String("subject_id", "a"))
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))
	assert.Contains(t, line, `"message":"subject added"`)
	assert.Contains(t, line, `"subject_id":"a"`)
	assert.Contains(t, line, `"level":"INFO"`)
}
