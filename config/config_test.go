package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}

func TestFromEnvValues(t *testing.T) {
	c, err := FromEnv(lookupMap(map[string]string{
		"PORT":                  "9000",
		"PERSONA_DATA_DIR":      "/var/lib/persona",
		"GEMINI_API_KEY":        "g-key",
		"PERSONA_DEBOUNCE":      "2s",
		"PERSONA_POLL_INTERVAL": "1m",
		"PERSONA_KEYRING":       "true",
		"PERSONA_LANG":          "ZH",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, "/var/lib/persona", c.DataDir)
	assert.Equal(t, "g-key", c.GeminiAPIKey)
	assert.Equal(t, 2*time.Second, c.Debounce)
	assert.Equal(t, time.Minute, c.PollInterval)
	assert.True(t, c.Keyring)
	assert.Equal(t, "zh", c.Lang)
}

func TestFromEnvAddrWinsOverPort(t *testing.T) {
	c, err := FromEnv(lookupMap(map[string]string{"PORT": "9000", "PERSONA_ADDR": "127.0.0.1:7000"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", c.Addr)
}

func TestFromEnvInvalid(t *testing.T) {
	_, err := FromEnv(lookupMap(map[string]string{
		"PERSONA_DEBOUNCE": "soon",
		"PERSONA_KEYRING":  "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSONA_DEBOUNCE")
	assert.Contains(t, err.Error(), "PERSONA_KEYRING")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PERSONA_HOST_URL=http://host.local\n"), 0644))
	t.Setenv("PERSONA_HOST_URL", "")
	require.NoError(t, os.Unsetenv("PERSONA_HOST_URL"))

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"), path)
	require.NoError(t, err)
	assert.Equal(t, "http://host.local", c.HostURL)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", ":1234", "--ephemeral", "--debounce", "0s"}))

	c := Defaults()
	c.DataDir = "/from/env"
	c.ApplyFlags(fs)
	assert.Equal(t, ":1234", c.Addr)
	assert.True(t, c.Ephemeral)
	assert.Equal(t, time.Duration(0), c.Debounce)
	assert.Equal(t, "/from/env", c.DataDir)
}
