package farm

import "farmgrid.io/internal/protocol"

// buildState renders the full authoritative state for one tick. Every slice
// follows a sorted order so consecutive payloads diff cleanly.
func (f *Farm) buildState(nowTick uint64) protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Time: protocol.TimeState{
			Hour:      f.clock.Hour,
			Minute:    f.clock.Minute,
			Day:       f.clock.Day,
			Season:    f.clock.Season,
			Year:      f.clock.Year,
			TimeScale: f.clock.TimeScale,
			Daytime:   f.clock.IsDaytime(),
			Formatted: f.clock.Formatted(),
		},
		Weather: protocol.WeatherState{
			Kind:        f.weather.Kind,
			Temperature: f.weather.Temperature,
			Humidity:    f.weather.Humidity,
			WindSpeed:   f.weather.WindSpeed,
			Growth:      GrowthMultiplier(f.weather.Kind),
			Yield:       YieldMultiplier(f.weather.Kind),
		},
		Economy: protocol.EconomyState{
			Money:        f.money,
			Inventory:    f.inventoryStacks(),
			StorageUsed:  f.storageUsed(),
			StorageCap:   f.StorageCapacity(),
			MarketPrices: f.MarketPrices(),
			SeedPrices:   f.SeedPrices(),
		},
		Player: protocol.PlayerState{
			Pos:      f.playerPos,
			Rotation: f.playerRot.Y,
		},
		Equipment: sortedStrings(f.ownedEquipment),
	}

	for _, id := range f.catalogs.Plots.IDs {
		def := f.catalogs.Plots.ByID[id]
		msg.Plots = append(msg.Plots, protocol.PlotState{
			ID:    id,
			Name:  def.Name,
			Price: def.Price,
			Owned: f.ownedPlots[id],
			MinX:  def.Bounds.MinX,
			MinZ:  def.Bounds.MinZ,
			MaxX:  def.Bounds.MaxX,
			MaxZ:  def.Bounds.MaxZ,
		})
	}

	for _, k := range f.sortedCellKeys(f.fields) {
		c := f.fields[k]
		msg.Fields = append(msg.Fields, protocol.FieldState{
			Cell:          [2]int{k.X, k.Z},
			State:         c.State,
			ChangedDay:    c.ChangedDay,
			ChangedSeason: c.ChangedSeason,
			Crop:          c.CropType,
		})
	}

	for _, k := range f.sortedCropKeys() {
		c := f.crops[k]
		msg.Crops = append(msg.Crops, protocol.CropState{
			Crop:          c.Type,
			Cell:          [2]int{k.X, k.Z},
			Stage:         c.Stage,
			PlantedDay:    c.PlantedDay,
			PlantedSeason: c.PlantedSeason,
			Pos:           c.Pos,
		})
	}

	for _, vid := range sortedMapKeys(f.mounts) {
		msg.Attachments = append(msg.Attachments, protocol.MountState{
			VehicleID:  vid,
			Attachment: f.mounts[vid],
		})
	}

	for _, id := range sortedMapKeys(f.buildings) {
		b := f.buildings[id]
		msg.Buildings = append(msg.Buildings, protocol.BuildingState{
			ID:         b.ID,
			BuildingID: b.BuildingID,
			Pos:        b.Pos,
			Rotation:   b.Rotation,
			Width:      b.Width,
			Height:     b.Height,
			Depth:      b.Depth,
		})
	}

	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		msg.Animals = append(msg.Animals, protocol.AnimalState{
			ID:        a.ID,
			Kind:      a.Kind,
			Pos:       a.Pos,
			AgeDays:   f.AnimalAge(a),
			Health:    int(a.Health),
			Happiness: int(a.Happiness),
			FedToday:  f.fedToday(a),
		})
	}

	for _, id := range sortedMapKeys(f.vehicles) {
		v := f.vehicles[id]
		msg.Vehicles = append(msg.Vehicles, protocol.VehicleState{
			ID:         v.ID,
			Kind:       v.Kind,
			Pos:        v.Pos,
			Rotation:   v.Rotation,
			Fuel:       v.Fuel,
			MaxFuel:    v.MaxFuel,
			Attachment: f.mounts[v.ID],
		})
	}

	if len(f.events) > 0 {
		msg.Events = append(msg.Events, f.events...)
	}
	return msg
}

func (f *Farm) inventoryStacks() []protocol.CropStack {
	out := make([]protocol.CropStack, 0, len(f.inventory))
	for _, item := range sortedMapKeys(f.inventory) {
		out = append(out, protocol.CropStack{Crop: item, Count: f.inventory[item]})
	}
	return out
}

// TimeData is the read-only clock projection for collaborating layers.
func (f *Farm) TimeData() (hour, minute, day int, season string, year int) {
	return f.clock.Hour, f.clock.Minute, f.clock.Day, f.clock.Season, f.clock.Year
}

func (f *Farm) FormattedTime() string { return f.clock.Formatted() }
func (f *Farm) IsDaytime() bool       { return f.clock.IsDaytime() }

// WeatherData is the read-only weather projection for collaborating layers.
func (f *Farm) WeatherData() (kind string, temperature, humidity, windSpeed float64) {
	return f.weather.Kind, f.weather.Temperature, f.weather.Humidity, f.weather.WindSpeed
}
