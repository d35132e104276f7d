package farm

import (
	"testing"

	"farmgrid.io/internal/protocol"
)

func TestFeedAnimalsWalksBudgetOnce(t *testing.T) {
	f := newTestFarm(t, 1)
	f.addAnimal("chicken", protocol.Vec3{X: 1})
	f.addAnimal("chicken", protocol.Vec3{X: 2})
	warpTo(f, 2, SeasonSpring)

	upkeep := f.catalogs.Livestock.ByID["chicken"].DailyUpkeep
	f.setMoney(upkeep + 1) // covers the first animal only

	fed, penalized, cost := f.feedAnimals()
	if fed != 1 || penalized != 1 || cost != upkeep {
		t.Fatalf("feed = (%d,%d,%d), want (1,1,%d)", fed, penalized, cost, upkeep)
	}
	if f.Money() != 1 {
		t.Fatalf("money = %d, want 1", f.Money())
	}

	a1, a2 := f.animals["L1"], f.animals["L2"]
	if a1.Happiness != 100 || a1.Health != 100 {
		t.Fatalf("fed animal capped at 100, got %v/%v", a1.Happiness, a1.Health)
	}
	if a2.Happiness != 90 || a2.Health != 95 {
		t.Fatalf("penalized animal = %v/%v, want 90/95", a2.Happiness, a2.Health)
	}
	if !f.fedToday(a1) || f.fedToday(a2) {
		t.Fatalf("fed-today flags wrong")
	}

	// A second pass the same day feeds nobody and penalizes the skipped animal
	// again.
	fed, penalized, cost = f.feedAnimals()
	if fed != 0 || cost != 0 || penalized != 1 {
		t.Fatalf("repeat feed = (%d,%d,%d)", fed, penalized, cost)
	}
}

func TestCollectProductsRequiresEligibility(t *testing.T) {
	f := newTestFarm(t, 1)
	young := f.addAnimal("cow", protocol.Vec3{})
	sick := f.addAnimal("cow", protocol.Vec3{})
	sad := f.addAnimal("cow", protocol.Vec3{})
	warpTo(f, 10, SeasonSpring) // age 9, past cow maturity
	young.BornDay = 8           // age 2, too young
	sick.Health = 50            // needs strictly above 50
	sad.Happiness = 30          // needs strictly above 30

	counts, credit := f.collectProducts()
	if len(counts) != 0 || credit != 0 {
		t.Fatalf("ineligible animals produced: %v credit %d", counts, credit)
	}
}

func TestCollectProductsCreditsCashDirectly(t *testing.T) {
	f := newTestFarm(t, 1)
	for i := 0; i < 10; i++ {
		f.addAnimal("chicken", protocol.Vec3{X: float64(i)})
	}
	warpTo(f, 20, SeasonSpring)
	start := f.Money()

	def := f.catalogs.Livestock.ByID["chicken"]
	counts, credit := f.collectProducts()
	if credit != counts[def.Product]*def.ProductValue {
		t.Fatalf("credit %d does not match %d x %d", credit, counts[def.Product], def.ProductValue)
	}
	if f.Money() != start+credit {
		t.Fatalf("money = %d, want %d", f.Money(), start+credit)
	}
	if len(f.inventory) != 0 {
		t.Fatalf("products must convert to cash, not storage: %v", f.inventory)
	}
}

func TestLivestockDailyPenalizesStaleFeeding(t *testing.T) {
	f := newTestFarm(t, 1)
	a := f.addAnimal("sheep", protocol.Vec3{})

	// One day since feeding: inside the grace window.
	warpTo(f, 2, SeasonSpring)
	f.livestockDaily()
	if a.Happiness != 100 || a.Health != 100 {
		t.Fatalf("grace day penalized: %v/%v", a.Happiness, a.Health)
	}

	warpTo(f, 3, SeasonSpring)
	f.livestockDaily()
	if a.Happiness != 90 || a.Health != 95 {
		t.Fatalf("stale feeding = %v/%v, want 90/95", a.Happiness, a.Health)
	}
}

func TestLivestockDriftLowersHappinessOverTime(t *testing.T) {
	f := newTestFarm(t, 1)
	a := f.addAnimal("pig", protocol.Vec3{})

	// Ten in-game days of drift in one call.
	dt := 10.0 * 1440 * 60 / f.clock.TimeScale
	f.livestockDrift(dt)
	if a.Happiness >= 100 {
		t.Fatalf("drift did not lower happiness: %v", a.Happiness)
	}
	if a.Happiness < 0 {
		t.Fatalf("happiness below floor: %v", a.Happiness)
	}
	if a.Health != 100 {
		t.Fatalf("drift must not touch health: %v", a.Health)
	}
}

func TestAnimalAgeWrapsSeasons(t *testing.T) {
	f := newTestFarm(t, 1)
	warpTo(f, 25, SeasonWinter)
	a := f.addAnimal("cow", protocol.Vec3{})
	warpTo(f, 5, SeasonSpring)
	if got := f.AnimalAge(a); got != 10 {
		t.Fatalf("age = %d, want 10", got)
	}
	if got := f.AnimalsByType("cow"); len(got) != 1 {
		t.Fatalf("by-type lookup = %d entries", len(got))
	}
	if f.AnimalCount() != 1 {
		t.Fatalf("count = %d", f.AnimalCount())
	}
}
