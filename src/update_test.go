package src

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionalUpdateChanges(t *testing.T) {
	initTestSystem(t)
	System.DBVersion = "1.0.0"
	System.Compatibility = "1.0.0"

	// A fresh settings file has no content yet
	require.NoError(t, saveMapToJSONFile(System.File.Settings, map[string]any{}))
	assert.NoError(t, conditionalUpdateChanges())

	// The current version passes
	require.NoError(t, saveMapToJSONFile(System.File.Settings, map[string]any{"version": "1.0.0"}))
	assert.NoError(t, conditionalUpdateChanges())

	// A settings database written by a newer release is refused
	require.NoError(t, saveMapToJSONFile(System.File.Settings, map[string]any{"version": "2.0.0"}))
	err := conditionalUpdateChanges()
	require.Error(t, err)
	assert.Equal(t, getErrMsg(1031), err.Error())

	// One from before the compatibility floor as well
	System.Compatibility = "1.0.0"
	require.NoError(t, saveMapToJSONFile(System.File.Settings, map[string]any{"version": "0.9.0"}))
	err = conditionalUpdateChanges()
	require.Error(t, err)
	assert.Equal(t, getErrMsg(1013), err.Error())

	// A version entry of the wrong type never came from this program
	require.NoError(t, saveMapToJSONFile(System.File.Settings, map[string]any{"version": 2, "port": "34400"}))
	err = conditionalUpdateChanges()
	require.Error(t, err)
	assert.Equal(t, getErrMsg(1013), err.Error())
}
