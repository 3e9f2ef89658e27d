package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(file, []byte("  from-file\n"), 0o600))
	t.Setenv("CARE_MATCHER_TEST_KEY", " from-env ")

	got, err := Load(Source{Name: "gemini api key", Value: "inline", Env: "CARE_MATCHER_TEST_KEY", File: file})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Load(Source{Value: "inline", Env: "CARE_MATCHER_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Load(Source{Value: " inline ", Env: "CARE_MATCHER_UNSET_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(Source{Name: "claude api key"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorContains(t, err, "claude api key")

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = Load(Source{File: empty, Value: "ignored"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = Load(Source{File: filepath.Join(dir, "missing")})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}
