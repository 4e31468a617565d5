package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalSnapshotIsDeterministic(t *testing.T) {
	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, result)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, result)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), `"scenario_name": "ocynk_malowanie"`)
}
