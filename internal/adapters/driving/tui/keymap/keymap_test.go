package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Cancel.Keys(), "esc")
	assert.Contains(t, km.Cancel.Keys(), "ctrl+c")
	assert.Contains(t, km.Quit.Keys(), "q")
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	require.Len(t, help, 1)
	assert.Equal(t, "cancel sync", help[0].Help().Desc)
}

