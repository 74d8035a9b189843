package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/test/util"
)

func TestCheckListsLoadedTables(t *testing.T) {
	t.Setenv("EFFECTS_OUTPUT__DIR", t.TempDir())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"check", "--batch", util.WriteBatch(t)})

	err := Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session a2")
	assert.Contains(t, out.String(), "effects_vehicles")
	assert.Contains(t, out.String(), "emission_rates_egu")
}
