package farm

import (
	"fmt"
	"strconv"
	"strings"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/protocol"
)

// ImportSave replaces the live state with the document's contents. The swap is
// all or nothing: a hard validation failure returns an error and leaves the
// current state untouched. Individual entries referencing unknown catalog ids
// are skipped with a log line instead of failing the whole load.
func (f *Farm) ImportSave(doc *save.SaveV1) error {
	if doc == nil {
		return fmt.Errorf("nil save document")
	}
	if doc.Version != save.Version {
		f.logf("save version %q differs from engine version %q, loading anyway", doc.Version, save.Version)
	}

	clock, err := clockFromDoc(doc.Time, f.tune.TimeScale)
	if err != nil {
		return fmt.Errorf("timeData: %w", err)
	}

	weather := f.weatherFromDoc(doc.Weather)

	money := 0
	priceTimer := 0.0
	inventory := map[string]int{}
	marketPrices := map[string]int{}
	for _, id := range f.catalogs.Crops.IDs {
		marketPrices[id] = f.catalogs.Crops.ByID[id].BasePrice
	}
	if e := doc.Economy; e != nil {
		if e.Money > 0 {
			money = e.Money
		}
		if e.PriceTimer > 0 {
			priceTimer = e.PriceTimer
		}
		for item, n := range e.Inventory {
			if n > 0 {
				inventory[item] = n
			}
		}
		for crop, price := range e.MarketPrices {
			if _, known := f.catalogs.Crops.ByID[crop]; !known {
				f.logf("load: dropping market price for unknown crop %q", crop)
				continue
			}
			if price >= 1 {
				marketPrices[crop] = price
			}
		}
	}

	ownedPlots := map[string]bool{}
	if doc.Expansion != nil {
		for _, id := range doc.Expansion.OwnedPlots {
			if _, known := f.catalogs.Plots.ByID[id]; !known {
				f.logf("load: dropping unknown plot %q", id)
				continue
			}
			ownedPlots[id] = true
		}
	}
	ownedEquipment := map[string]bool{}
	if doc.Equipment != nil {
		for _, id := range doc.Equipment.Owned {
			if _, known := f.catalogs.Equipment.ByID[id]; !known {
				f.logf("load: dropping unknown equipment %q", id)
				continue
			}
			ownedEquipment[id] = true
		}
	}
	// Starter grants survive every load.
	for _, id := range f.catalogs.Plots.IDs {
		if f.catalogs.Plots.ByID[id].Starter {
			ownedPlots[id] = true
		}
	}
	for _, id := range f.catalogs.Equipment.IDs {
		if f.catalogs.Equipment.ByID[id].Starter {
			ownedEquipment[id] = true
		}
	}

	vehicles := map[string]*Vehicle{}
	var maxVehicle uint64
	for _, v := range doc.Vehicles {
		def, known := f.catalogs.Equipment.ByID[v.Type]
		if !known || def.Type != "vehicle" {
			f.logf("load: dropping vehicle %s of unknown type %q", v.ID, v.Type)
			continue
		}
		if v.ID == "" || vehicles[v.ID] != nil {
			f.logf("load: dropping vehicle with duplicate or empty id %q", v.ID)
			continue
		}
		vehicles[v.ID] = &Vehicle{
			ID:       v.ID,
			Kind:     v.Type,
			Pos:      vec3FromDoc(v.Position),
			Rotation: v.Rotation,
			Fuel:     clampF(v.Fuel, 0, def.Fuel),
			MaxFuel:  def.Fuel,
		}
		bumpCounter(&maxVehicle, v.ID, "V")
	}

	ownedAttachments := map[string]bool{}
	mounts := map[string]string{}
	for _, a := range doc.Attachments {
		if _, known := f.catalogs.Attachments.ByID[a.Type]; !known {
			f.logf("load: dropping unknown attachment %q", a.Type)
			continue
		}
		if a.Owned || a.VehicleID != "" {
			ownedAttachments[a.Type] = true
		}
		if a.VehicleID == "" {
			continue
		}
		if vehicles[a.VehicleID] == nil {
			f.logf("load: dropping mount of %q on unknown vehicle %q", a.Type, a.VehicleID)
			continue
		}
		mounts[a.VehicleID] = a.Type
	}

	fields := map[CellKey]*FieldCell{}
	for _, c := range doc.Fields {
		if !validFieldState(c.State) || !validSeason(c.ChangedSeason) || c.ChangedDay < 1 {
			f.logf("load: dropping field cell %v with invalid state", c.Cell)
			continue
		}
		fields[CellKey{X: c.Cell[0], Z: c.Cell[1]}] = &FieldCell{
			State:         c.State,
			ChangedDay:    c.ChangedDay,
			ChangedSeason: c.ChangedSeason,
			CropType:      c.CropType,
		}
	}

	crops := map[CellKey]*Crop{}
	for _, c := range doc.Crops {
		if _, known := f.catalogs.Crops.ByID[c.Type]; !known {
			f.logf("load: dropping crop of unknown type %q", c.Type)
			continue
		}
		if !validSeason(c.PlantedSeason) || c.PlantedDay < 1 {
			f.logf("load: dropping crop %q with invalid planting stamp", c.Type)
			continue
		}
		cell := CellKey{X: c.Cell[0], Z: c.Cell[1]}
		stage := c.GrowthStage
		if stage < 0 {
			stage = 0
		}
		if stage > 3 {
			stage = 3
		}
		pos := vec3FromDoc(c.Position)
		if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
			pos = cellCenter(cell)
		}
		crops[cell] = &Crop{
			Type:          c.Type,
			Cell:          cell,
			PlantedDay:    c.PlantedDay,
			PlantedSeason: c.PlantedSeason,
			Stage:         stage,
			Pos:           pos,
		}
		// A crop cell always has a soil record; rebuild it when the document
		// lacks one.
		if fields[cell] == nil {
			st := FieldPlanted
			switch {
			case stage >= 3:
				st = FieldMature
			case stage >= 1:
				st = FieldGrowing
			}
			fields[cell] = &FieldCell{
				State:         st,
				ChangedDay:    c.PlantedDay,
				ChangedSeason: c.PlantedSeason,
				CropType:      c.Type,
			}
		}
	}

	buildings := map[string]*Building{}
	var maxBuilding uint64
	for _, b := range doc.Buildings {
		def, known := f.catalogs.Buildings.ByID[b.BuildingID]
		if !known {
			f.logf("load: dropping building %s of unknown kind %q", b.ID, b.BuildingID)
			continue
		}
		if b.ID == "" || buildings[b.ID] != nil {
			f.logf("load: dropping building with duplicate or empty id %q", b.ID)
			continue
		}
		dims := b.Dimensions
		if dims.Width <= 0 || dims.Height <= 0 || dims.Depth <= 0 {
			dims = save.DimensionsV1{
				Width:  def.Dimensions.Width,
				Height: def.Dimensions.Height,
				Depth:  def.Dimensions.Depth,
			}
		}
		buildings[b.ID] = &Building{
			ID:         b.ID,
			BuildingID: b.BuildingID,
			Pos:        vec3FromDoc(b.Position),
			Rotation:   b.Rotation,
			Width:      dims.Width,
			Height:     dims.Height,
			Depth:      dims.Depth,
		}
		bumpCounter(&maxBuilding, b.ID, "B")
	}

	animals := map[string]*Animal{}
	var maxAnimal uint64
	for _, a := range doc.Animals {
		if _, known := f.catalogs.Livestock.ByID[a.Type]; !known {
			f.logf("load: dropping animal %s of unknown type %q", a.ID, a.Type)
			continue
		}
		if a.ID == "" || animals[a.ID] != nil || !validSeason(a.BornSeason) || a.BornDay < 1 {
			f.logf("load: dropping animal with invalid identity %q", a.ID)
			continue
		}
		fedDay, fedSeason := a.LastFedDay, a.LastFedSeason
		if fedDay < 1 || !validSeason(fedSeason) {
			fedDay, fedSeason = 0, ""
		}
		animals[a.ID] = &Animal{
			ID:            a.ID,
			Kind:          a.Type,
			Pos:           vec3FromDoc(a.Position),
			BornDay:       a.BornDay,
			BornSeason:    a.BornSeason,
			Health:        clampF(a.Health, 0, 100),
			Happiness:     clampF(a.Happiness, 0, 100),
			LastFedDay:    fedDay,
			LastFedSeason: fedSeason,
		}
		bumpCounter(&maxAnimal, a.ID, "L")
	}

	// Commit point: nothing below can fail.
	f.clock = clock
	f.weather = weather
	f.money = money
	f.priceTimer = priceTimer
	f.inventory = inventory
	f.marketPrices = marketPrices
	f.ownedPlots = ownedPlots
	f.ownedEquipment = ownedEquipment
	f.ownedAttachments = ownedAttachments
	f.mounts = mounts
	f.fields = fields
	f.crops = crops
	f.buildings = buildings
	f.animals = animals
	f.vehicles = vehicles
	f.nextBuildingNum.Store(maxBuilding)
	f.nextAnimalNum.Store(maxAnimal)
	f.nextVehicleNum.Store(maxVehicle)
	f.cooldownUntil = map[string]uint64{}
	if doc.PlayerPosition != nil {
		f.playerPos = vec3FromDoc(*doc.PlayerPosition)
	}
	if doc.PlayerRotation != nil {
		f.playerRot = vec3FromDoc(*doc.PlayerRotation)
	}
	return nil
}

func clockFromDoc(t save.TimeV1, fallbackScale float64) (*Clock, error) {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return nil, fmt.Errorf("invalid time %02d:%02d", t.Hour, t.Minute)
	}
	if t.Day < 1 || t.Day > daysPerSeason {
		return nil, fmt.Errorf("invalid day %d", t.Day)
	}
	if !validSeason(t.Season) {
		return nil, fmt.Errorf("invalid season %q", t.Season)
	}
	if t.Year < 1 {
		return nil, fmt.Errorf("invalid year %d", t.Year)
	}
	scale := t.TimeScale
	if scale <= 0 {
		scale = fallbackScale
	}
	return &Clock{
		Hour:      t.Hour,
		Minute:    t.Minute,
		Day:       t.Day,
		Season:    t.Season,
		Year:      t.Year,
		TimeScale: scale,
	}, nil
}

func (f *Farm) weatherFromDoc(w *save.WeatherV1) *Weather {
	if w == nil || !validWeatherKind(w.Type) {
		return NewWeather(f.tune.WeatherChangeSeconds, f.tune.WeatherChangeChance, f.rng)
	}
	out := &Weather{
		Kind:          w.Type,
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		WindSpeed:     w.WindSpeed,
		ChangeSeconds: f.tune.WeatherChangeSeconds,
		ChangeChance:  f.tune.WeatherChangeChance,
	}
	if w.Timer > 0 {
		out.timer = w.Timer
	}
	return out
}

func vec3FromDoc(v save.Vec3) protocol.Vec3 {
	return protocol.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func validFieldState(s string) bool {
	switch s {
	case FieldUntilled, FieldTilled, FieldPlanted, FieldGrowing, FieldMature, FieldHarvested, FieldStubble:
		return true
	}
	return false
}

func bumpCounter(max *uint64, id, prefix string) {
	rest := strings.TrimPrefix(id, prefix)
	if rest == id {
		return
	}
	if n, err := strconv.ParseUint(rest, 10, 64); err == nil && n > *max {
		*max = n
	}
}
