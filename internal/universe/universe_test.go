package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestReadFile_Formats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"json", "u.json", `["AAPL","MSFT","0700.HK"]`},
		{"yaml", "u.yaml", "- AAPL\n- MSFT\n- 0700.HK\n"},
		{"text", "u.txt", "# watchlist\nAAPL\n\n  MSFT  # software\n0700.HK\n"},
	}
	for _, tt := range tests {
		got, err := ReadFile(write(t, tt.file, tt.body))
		require.NoError(t, err, tt.name)
		assert.Equal(t, []string{"AAPL", "MSFT", "0700.HK"}, got, tt.name)
	}
}

func TestLoad_KeepsOrderAndDropsDuplicates(t *testing.T) {
	file := write(t, "u.txt", "TSLA\nAAPL\nNVDA\n")
	got, err := Load([]string{"AAPL", " ", "GOOG"}, file)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOG", "TSLA", "NVDA"}, got)
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(nil, "")
	assert.Error(t, err)

	_, err = Load(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
