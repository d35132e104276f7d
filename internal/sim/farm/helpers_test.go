package farm

import (
	"testing"

	"farmgrid.io/internal/sim/catalogs"
	"farmgrid.io/internal/sim/tuning"
)

func loadTestCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// newTestFarm builds a farm with weather changes disabled so per-system tests
// stay on the Sunny multipliers unless they warp the weather themselves.
func newTestFarm(t *testing.T, seed int64) *Farm {
	t.Helper()
	tune := tuning.Defaults()
	tune.WeatherChangeChance = 0
	return newTestFarmTuned(t, seed, tune)
}

func newTestFarmTuned(t *testing.T, seed int64, tune tuning.Tuning) *Farm {
	t.Helper()
	f, err := New(FarmConfig{ID: "farm_test", TickRateHz: 10, Seed: seed}, tune, loadTestCatalogs(t), nil)
	if err != nil {
		t.Fatalf("new farm: %v", err)
	}
	return f
}

// warpTo moves the clock without ticking, for tests that reason in whole days.
func warpTo(f *Farm, day int, season string) {
	f.clock.Day = day
	f.clock.Season = season
}
