package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShowCmd_MasksSecret(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)
	tr.Settings.Google.ClientID = "client-id.apps.example.com"
	tr.Settings.Google.ClientSecret = "GOCSPX-supersecretvalue"

	out, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Task list: Notes")
	assert.Contains(t, out, "client-id.apps.example.com")
	assert.Contains(t, out, "GOCS...alue")
	assert.NotContains(t, out, "supersecret")
	assert.Contains(t, out, "Listen: 127.0.0.1:7878")
}

func TestConfigSetCmd_TypesValues(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)
	_, err := execute(t, "config", "set", "daemon.watch", "true")
	require.NoError(t, err)

	active = tr.Runtime
	_, err = execute(t, "config", "set", "daemon.memory_limit_mb", "512")
	require.NoError(t, err)

	active = tr.Runtime
	_, err = execute(t, "config", "set", "sync.interval", "30m")
	require.NoError(t, err)

	assert.True(t, tr.config.GetBool("daemon.watch"))
	assert.Equal(t, 512, tr.config.GetInt("daemon.memory_limit_mb"))
	assert.Equal(t, "30m", tr.config.GetString("sync.interval"))
}

func TestConfigSetCmd_ReadsSecretFromInput(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)

	_, err := executeWithInput(t, "typed-secret\n", "config", "set", "google.client_secret")

	require.NoError(t, err)
	assert.Equal(t, "typed-secret", tr.config.GetString("google.client_secret"))
}

func TestConfigSetCmd_RequiresValue(t *testing.T) {
	newTestRuntime(t, noopEngine(), nil)

	_, err := execute(t, "config", "set", "sync.tasklist")

	assert.Error(t, err)
}

func TestConfigGetCmd(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)
	require.NoError(t, tr.config.Set("sync.tasklist", "Inbox"))
	require.NoError(t, tr.config.Set("google.client_secret", "GOCSPX-supersecretvalue"))

	out, err := execute(t, "config", "get", "sync.tasklist")
	require.NoError(t, err)
	assert.Equal(t, "Inbox\n", out)

	active = tr.Runtime
	out, err = execute(t, "config", "get", "google.client_secret")
	require.NoError(t, err)
	assert.Equal(t, "GOCS...alue\n", out)

	active = tr.Runtime
	_, err = execute(t, "config", "get", "missing.key")
	assert.Error(t, err)
}

func TestConfigPathCmd(t *testing.T) {
	newTestRuntime(t, noopEngine(), nil)

	out, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, ":memory:\n", out)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, "1h", parseValue("1h"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd...mnop", maskSecret("abcdefghijklmnop"))
}

func TestConfigUnsetCmd(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)
	require.NoError(t, tr.config.Set("daemon.watch", true))

	out, err := execute(t, "config", "unset", "daemon.watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Unset daemon.watch")
	_, ok := tr.config.Get("daemon.watch")
	assert.False(t, ok)
}

func TestConfigListCmd(t *testing.T) {
	tr := newTestRuntime(t, noopEngine(), nil)
	require.NoError(t, tr.config.Set("sync.tasklist", "Inbox"))
	require.NoError(t, tr.config.Set("google.client_secret", "GOCSPX-supersecretvalue"))

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Equal(t, "google.client_secret = GOCS...alue\nsync.tasklist = Inbox\n", out)
}
