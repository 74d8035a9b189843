package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleeteffects/core/effects"
	"github.com/kilianp07/fleeteffects/core/model"
)

func costRows(session string, n int) []effects.CostRow {
	rows := make([]effects.CostRow, n)
	for i := range rows {
		rows[i] = effects.CostRow{
			Identity: effects.Identity{
				SessionPolicy: model.PolicyNoAction, SessionName: session,
				VehicleID: model.AnalysisID(i + 1), CalendarYear: 2030, ModelYear: 2030,
			},
			FuelRetailDollars: 10,
		}
	}
	return rows
}

func TestSQLiteStoreWriteDetail(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "detail.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteDetail("cost", effects.AsRecords(costRows("na", 3))))
	require.NoError(t, s.WriteDetail("cost", effects.AsRecords(costRows("a1", 2))))
	require.NoError(t, s.WriteDetail("cost", nil))

	n, err := s.Count("cost", "na")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	sum, err := s.Sum("cost", "a1", effects.ColFuelRetail)
	require.NoError(t, err)
	assert.Equal(t, 20.0, sum)

	// rewriting a session replaces its rows
	require.NoError(t, s.WriteDetail("cost", effects.AsRecords(costRows("na", 3))))
	n, err = s.Count("cost", "na")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
