package farm

import (
	"math"

	"farmgrid.io/internal/protocol"
)

// growthStage buckets growth progress into quartiles 0..3. Progress is
// elapsed in-game days scaled by the current weather growth multiplier over
// the crop's base growth time; anything at or past 0.75 is harvestable.
func growthStage(elapsed int, growthMult, growthTimeDays float64) int {
	if growthTimeDays <= 0 {
		return 3
	}
	ratio := float64(elapsed) * growthMult / growthTimeDays
	stage := int(ratio * 4)
	if stage > 3 {
		stage = 3
	}
	if stage < 0 {
		stage = 0
	}
	return stage
}

// plantCrop validates land ownership, cell vacancy, and tillage, then records
// the crop at stage 0. Seed bookkeeping belongs to the command layer.
func (f *Farm) plantCrop(cropType string, pos protocol.Vec3) bool {
	if _, known := f.catalogs.Crops.ByID[cropType]; !known {
		return false
	}
	if !f.IsOnOwnedLand(pos) {
		return false
	}
	cell := cellForPos(pos)
	if _, occupied := f.crops[cell]; occupied {
		return false
	}
	if f.FieldStateAt(cell) != FieldTilled {
		return false
	}
	f.crops[cell] = &Crop{
		Type:          cropType,
		Cell:          cell,
		PlantedDay:    f.clock.Day,
		PlantedSeason: f.clock.Season,
		Stage:         0,
		Pos:           cellCenter(cell),
	}
	f.setFieldState(cell, FieldPlanted, cropType)
	return true
}

type HarvestResult struct {
	Type   string
	Amount int
}

// harvestCrop removes a fully grown crop and reports the yield. Returns nil
// when no crop is present or the crop is not at stage 3; the soil becomes
// harvested and starts its decay window.
func (f *Farm) harvestCrop(pos protocol.Vec3) *HarvestResult {
	cell := cellForPos(pos)
	c, ok := f.crops[cell]
	if !ok || c.Stage != 3 {
		return nil
	}
	eq := f.CombinedEquipmentEffects()
	at := f.mountedEffects()
	raw := (2 + f.rng.Float64()*2) * eq.CropYield * at.Efficiency * YieldMultiplier(f.weather.Kind)
	amount := int(math.Floor(raw))
	if amount < 1 {
		amount = 1
	}
	delete(f.crops, cell)
	f.setFieldState(cell, FieldHarvested, c.Type)
	return &HarvestResult{Type: c.Type, Amount: amount}
}

// advanceGrowth recomputes every crop's stage from the clock and the weather
// multiplier already advanced earlier in the same tick, then mirrors the
// stage into the soil state.
func (f *Farm) advanceGrowth() {
	mult := GrowthMultiplier(f.weather.Kind)
	for _, k := range f.sortedCropKeys() {
		c := f.crops[k]
		def, ok := f.catalogs.Crops.ByID[c.Type]
		if !ok {
			continue
		}
		elapsed := elapsedDays(c.PlantedDay, c.PlantedSeason, f.clock.Day, f.clock.Season)
		c.Stage = growthStage(elapsed, mult, def.GrowthTimeDays)
		f.syncFieldToStage(k, c.Stage)
	}
}

func (f *Farm) CropAt(cell CellKey) *Crop { return f.crops[cell] }

func (f *Farm) AllCrops() []*Crop {
	out := make([]*Crop, 0, len(f.crops))
	for _, k := range f.sortedCropKeys() {
		out = append(out, f.crops[k])
	}
	return out
}
