package farm

import (
	"time"

	"farmgrid.io/internal/persistence/save"
)

// ExportSave projects the live state into a save document. Every slice is
// emitted in sorted order so identical states encode to identical bytes.
func (f *Farm) ExportSave() *save.SaveV1 {
	doc := &save.SaveV1{
		Version:   save.Version,
		Timestamp: time.Now().UnixMilli(),
		Time: save.TimeV1{
			Hour:      f.clock.Hour,
			Minute:    f.clock.Minute,
			Day:       f.clock.Day,
			Season:    f.clock.Season,
			Year:      f.clock.Year,
			TimeScale: f.clock.TimeScale,
		},
		Economy: &save.EconomyV1{
			Money:        f.money,
			Inventory:    copyNonZero(f.inventory),
			MarketPrices: copyNonZero(f.marketPrices),
			PriceTimer:   f.priceTimer,
		},
		Weather: &save.WeatherV1{
			Type:        f.weather.Kind,
			Temperature: f.weather.Temperature,
			Humidity:    f.weather.Humidity,
			WindSpeed:   f.weather.WindSpeed,
			Timer:       f.weather.timer,
		},
		Expansion: &save.ExpansionV1{OwnedPlots: sortedStrings(f.ownedPlots)},
		Equipment: &save.EquipmentV1{Owned: sortedStrings(f.ownedEquipment)},
	}

	for _, k := range f.sortedCropKeys() {
		c := f.crops[k]
		doc.Crops = append(doc.Crops, save.CropV1{
			Type:          c.Type,
			Cell:          [2]int{k.X, k.Z},
			PlantedDay:    c.PlantedDay,
			PlantedSeason: c.PlantedSeason,
			GrowthStage:   c.Stage,
			Position:      save.Vec3{X: c.Pos.X, Y: c.Pos.Y, Z: c.Pos.Z},
		})
	}

	for _, k := range f.sortedCellKeys(f.fields) {
		c := f.fields[k]
		doc.Fields = append(doc.Fields, save.FieldCellV1{
			Cell:          [2]int{k.X, k.Z},
			State:         c.State,
			ChangedDay:    c.ChangedDay,
			ChangedSeason: c.ChangedSeason,
			CropType:      c.CropType,
		})
	}

	mounted := make(map[string]bool, len(f.mounts))
	for _, vid := range sortedMapKeys(f.mounts) {
		at := f.mounts[vid]
		mounted[at] = true
		doc.Attachments = append(doc.Attachments, save.AttachmentV1{
			Type:      at,
			Owned:     f.ownedAttachments[at],
			VehicleID: vid,
		})
	}
	for _, at := range sortedStrings(f.ownedAttachments) {
		if !mounted[at] {
			doc.Attachments = append(doc.Attachments, save.AttachmentV1{Type: at, Owned: true})
		}
	}

	for _, id := range sortedMapKeys(f.vehicles) {
		v := f.vehicles[id]
		doc.Vehicles = append(doc.Vehicles, save.VehicleV1{
			ID:       v.ID,
			Type:     v.Kind,
			Position: save.Vec3{X: v.Pos.X, Y: v.Pos.Y, Z: v.Pos.Z},
			Rotation: v.Rotation,
			Fuel:     v.Fuel,
		})
	}

	for _, id := range sortedMapKeys(f.buildings) {
		b := f.buildings[id]
		doc.Buildings = append(doc.Buildings, save.BuildingV1{
			ID:         b.ID,
			BuildingID: b.BuildingID,
			Position:   save.Vec3{X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z},
			Rotation:   b.Rotation,
			Dimensions: save.DimensionsV1{Width: b.Width, Height: b.Height, Depth: b.Depth},
		})
	}

	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		doc.Animals = append(doc.Animals, save.AnimalV1{
			ID:            a.ID,
			Type:          a.Kind,
			Position:      save.Vec3{X: a.Pos.X, Y: a.Pos.Y, Z: a.Pos.Z},
			BornDay:       a.BornDay,
			BornSeason:    a.BornSeason,
			Happiness:     a.Happiness,
			Health:        a.Health,
			LastFedDay:    a.LastFedDay,
			LastFedSeason: a.LastFedSeason,
		})
	}

	doc.PlayerPosition = &save.Vec3{X: f.playerPos.X, Y: f.playerPos.Y, Z: f.playerPos.Z}
	doc.PlayerRotation = &save.Vec3{X: f.playerRot.X, Y: f.playerRot.Y, Z: f.playerRot.Z}
	return doc
}

func copyNonZero(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}
