package env

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{
			name: "empty",
			vars: map[string]string{},
			want: "",
		},
		{
			name: "sorted keys",
			vars: map[string]string{"B": "2", "A": "1"},
			want: "A=1\nB=2\n",
		},
		{
			name: "empty values skipped",
			vars: map[string]string{"A": "", "B": "x"},
			want: "B=x\n",
		},
		{
			name: "values with spaces quoted",
			vars: map[string]string{"MODEL": "gpt 4"},
			want: "MODEL=\"gpt 4\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Marshal(tt.vars))
		})
	}
}

func TestWriteFile_RoundTripsThroughGodotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".env")
	vars := map[string]string{
		"ARCHIVIST_LLM_MODEL":     "o3-mini",
		"ARCHIVIST_DISCORD_TOKEN": "abc#def",
	}

	require.NoError(t, WriteFile(path, vars))

	got, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, vars, got)

	err = WriteFile(path, vars)
	assert.True(t, errors.Is(err, ErrExists))
}
