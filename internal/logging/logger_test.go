package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSplitsFilesByLevel(t *testing.T) {
	root := t.TempDir()
	log, err := Init(root, Rotation{Directory: "logs", MaxSize: 1})
	require.NoError(t, err)

	log.Info("interview started")
	log.Warn("camera denied")
	_ = log.Sync()

	entries, err := os.ReadDir(filepath.Join(root, "logs"))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(root, "logs", e.Name()))
		require.NoError(t, err)
		for _, level := range []string{"info", "warn"} {
			if strings.HasSuffix(e.Name(), "-"+level+".log") {
				contents[level] = string(data)
			}
		}
	}

	assert.Contains(t, contents["info"], "interview started")
	assert.NotContains(t, contents["info"], "camera denied")
	assert.Contains(t, contents["warn"], "camera denied")
}
