package credentials

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewire/pkg/core"
)

func TestResolve_ExplicitTakesPrecedence(t *testing.T) {
	t.Setenv("POLONIEX_KEY", "env-key")
	t.Setenv("POLONIEX_SECRET", "env-secret")

	creds := Resolve("poloniex", &core.Credentials{Key: "arg-key", Secret: "arg-secret"})

	assert.NotNil(t, creds)
	assert.Equal(t, "arg-key", creds.Key)
	assert.Equal(t, "arg-secret", creds.Secret)
}

func TestResolve_EnvironmentFallback(t *testing.T) {
	t.Setenv("POLONIEX_KEY", "env-key")
	t.Setenv("POLONIEX_SECRET", "env-secret")

	creds := Resolve("poloniex", nil)

	assert.NotNil(t, creds)
	assert.Equal(t, "env-key", creds.Key)
	assert.Equal(t, "env-secret", creds.Secret)
}

func TestResolve_NoCredentialsIsValid(t *testing.T) {
	t.Setenv("GEMINI_KEY", "")
	t.Setenv("GEMINI_SECRET", "")

	creds := Resolve("gemini", nil)

	assert.Nil(t, creds)
}

func TestResolve_DotenvFallback(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the variables truly
	// absent so the .env file is allowed to supply them.
	for _, v := range []string{"DOTVENUE_KEY", "DOTVENUE_SECRET"} {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}

	dir := t.TempDir()
	env := "DOTVENUE_KEY=file-key\nDOTVENUE_SECRET=file-secret\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	// The .env load happens once per process; rearm it for this test.
	dotenvOnce = sync.Once{}

	creds := Resolve("dotvenue", nil)

	require.NotNil(t, creds)
	assert.Equal(t, "file-key", creds.Key)
	assert.Equal(t, "file-secret", creds.Secret)
}

func TestResolve_HyphenatedExchangeName(t *testing.T) {
	t.Setenv("SOME_VENUE_KEY", "k")
	t.Setenv("SOME_VENUE_SECRET", "s")

	creds := Resolve("some-venue", nil)

	assert.NotNil(t, creds)
	assert.Equal(t, "k", creds.Key)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", Mask("short"))
	assert.Equal(t, "abcd****wxyz", Mask("abcdefghijklmnopqrstuvwxyz"))
}
