package farm

import (
	"fmt"

	"farmgrid.io/internal/protocol"
)

// addAnimal creates an animal at full health, born now and counted as fed
// today. Land and cash checks are the command layer's job.
func (f *Farm) addAnimal(kind string, pos protocol.Vec3) *Animal {
	if _, known := f.catalogs.Livestock.ByID[kind]; !known {
		return nil
	}
	a := &Animal{
		ID:            fmt.Sprintf("L%d", f.nextAnimalNum.Add(1)),
		Kind:          kind,
		Pos:           pos,
		BornDay:       f.clock.Day,
		BornSeason:    f.clock.Season,
		Health:        100,
		Happiness:     100,
		LastFedDay:    f.clock.Day,
		LastFedSeason: f.clock.Season,
	}
	f.animals[a.ID] = a
	return a
}

// AnimalAge is elapsed in-game days since birth, season-aware like crop
// growth.
func (f *Farm) AnimalAge(a *Animal) int {
	return elapsedDays(a.BornDay, a.BornSeason, f.clock.Day, f.clock.Season)
}

func (f *Farm) fedToday(a *Animal) bool {
	return a.LastFedDay == f.clock.Day && a.LastFedSeason == f.clock.Season
}

// canProduce gates production on maturity, health above 50, and happiness
// above 30.
func (f *Farm) canProduce(a *Animal) bool {
	def, ok := f.catalogs.Livestock.ByID[a.Kind]
	if !ok {
		return false
	}
	return f.AnimalAge(a) >= def.MaturityDays && a.Health > 50 && a.Happiness > 30
}

// feedAnimals feeds every animal not yet fed today, walking a cash budget so
// the whole pass debits the ledger exactly once. Animals the budget cannot
// cover take the unfed penalty instead.
func (f *Farm) feedAnimals() (fed, penalized, cost int) {
	remaining := f.money
	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		if f.fedToday(a) {
			continue
		}
		def, ok := f.catalogs.Livestock.ByID[a.Kind]
		if !ok {
			continue
		}
		if remaining >= def.DailyUpkeep {
			remaining -= def.DailyUpkeep
			cost += def.DailyUpkeep
			a.Happiness = clampF(a.Happiness+20, 0, 100)
			a.Health = clampF(a.Health+10, 0, 100)
			a.LastFedDay = f.clock.Day
			a.LastFedSeason = f.clock.Season
			fed++
		} else {
			a.Happiness = clampF(a.Happiness-10, 0, 100)
			a.Health = clampF(a.Health-5, 0, 100)
			penalized++
		}
	}
	if cost > 0 {
		f.setMoney(f.money - cost)
	}
	return fed, penalized, cost
}

// collectProducts runs a Bernoulli trial per eligible animal and converts the
// yields straight to cash at each product's fixed value. Returns the
// per-product counts and the total credit.
func (f *Farm) collectProducts() (map[string]int, int) {
	counts := map[string]int{}
	credit := 0
	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		if !f.canProduce(a) {
			continue
		}
		def := f.catalogs.Livestock.ByID[a.Kind]
		if f.rng.Float64() < def.ProductionRate {
			counts[def.Product]++
			credit += def.ProductValue
		}
	}
	if credit > 0 {
		f.setMoney(f.money + credit)
	}
	return counts, credit
}

// livestockDaily applies the unfed penalty at each day boundary: any animal
// whose last meal is more than one day old loses happiness and health.
func (f *Farm) livestockDaily() {
	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		if elapsedDays(a.LastFedDay, a.LastFedSeason, f.clock.Day, f.clock.Season) > 1 {
			a.Happiness = clampF(a.Happiness-10, 0, 100)
			a.Health = clampF(a.Health-5, 0, 100)
		}
	}
}

// livestockDrift is the slow ambient happiness decay, averaging two points
// per in-game day.
func (f *Farm) livestockDrift(dt float64) {
	gameDays := dt * f.clock.TimeScale / 60 / 1440
	if gameDays <= 0 {
		return
	}
	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		a.Happiness = clampF(a.Happiness-gameDays*4*f.rng.Float64(), 0, 100)
	}
}

func (f *Farm) AnimalCount() int { return len(f.animals) }

func (f *Farm) AnimalsByType(kind string) []*Animal {
	out := []*Animal{}
	for _, id := range sortedMapKeys(f.animals) {
		if a := f.animals[id]; a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
