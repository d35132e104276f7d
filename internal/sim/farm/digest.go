package farm

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest hashes the whole sim state for the tick log. Replaying the same
// seed and command stream must reproduce the same digest at every tick.
func (f *Farm) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	f.digestHeader(h, &tmp, nowTick)
	f.digestEconomy(h, &tmp)
	f.digestOwnership(h, &tmp)
	f.digestFields(h, &tmp)
	f.digestCrops(h, &tmp)
	f.digestBuildings(h, &tmp)
	f.digestAnimals(h, &tmp)
	f.digestVehicles(h, &tmp)
	f.digestPlayer(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (f *Farm) digestHeader(h hashWriter, tmp *[8]byte, nowTick uint64) {
	digestWriteU64(h, tmp, nowTick)
	digestWriteU64(h, tmp, uint64(f.cfg.Seed))
	digestWriteI64(h, tmp, int64(f.clock.Hour))
	digestWriteI64(h, tmp, int64(f.clock.Minute))
	digestWriteI64(h, tmp, int64(f.clock.Day))
	h.Write([]byte(f.clock.Season))
	digestWriteI64(h, tmp, int64(f.clock.Year))
	digestWriteF64(h, tmp, f.clock.TimeScale)
	digestWriteF64(h, tmp, f.clock.acc)
	h.Write([]byte(f.weather.Kind))
	digestWriteF64(h, tmp, f.weather.Temperature)
	digestWriteF64(h, tmp, f.weather.Humidity)
	digestWriteF64(h, tmp, f.weather.WindSpeed)
	digestWriteF64(h, tmp, f.weather.timer)
}

func (f *Farm) digestEconomy(h hashWriter, tmp *[8]byte) {
	digestWriteI64(h, tmp, int64(f.money))
	digestWriteF64(h, tmp, f.priceTimer)
	for _, item := range sortedMapKeys(f.inventory) {
		h.Write([]byte(item))
		digestWriteI64(h, tmp, int64(f.inventory[item]))
	}
	for _, crop := range sortedMapKeys(f.marketPrices) {
		h.Write([]byte(crop))
		digestWriteI64(h, tmp, int64(f.marketPrices[crop]))
	}
}

func (f *Farm) digestOwnership(h hashWriter, tmp *[8]byte) {
	for _, id := range sortedStrings(f.ownedPlots) {
		h.Write([]byte(id))
	}
	for _, id := range sortedStrings(f.ownedEquipment) {
		h.Write([]byte(id))
	}
	for _, id := range sortedStrings(f.ownedAttachments) {
		h.Write([]byte(id))
	}
	for _, vid := range sortedMapKeys(f.mounts) {
		h.Write([]byte(vid))
		h.Write([]byte(f.mounts[vid]))
	}
	for _, action := range sortedMapKeys(f.cooldownUntil) {
		h.Write([]byte(action))
		digestWriteU64(h, tmp, f.cooldownUntil[action])
	}
}

func (f *Farm) digestFields(h hashWriter, tmp *[8]byte) {
	for _, k := range f.sortedCellKeys(f.fields) {
		c := f.fields[k]
		digestWriteI64(h, tmp, int64(k.X))
		digestWriteI64(h, tmp, int64(k.Z))
		h.Write([]byte(c.State))
		digestWriteI64(h, tmp, int64(c.ChangedDay))
		h.Write([]byte(c.ChangedSeason))
		h.Write([]byte(c.CropType))
	}
}

func (f *Farm) digestCrops(h hashWriter, tmp *[8]byte) {
	for _, k := range f.sortedCropKeys() {
		c := f.crops[k]
		digestWriteI64(h, tmp, int64(k.X))
		digestWriteI64(h, tmp, int64(k.Z))
		h.Write([]byte(c.Type))
		digestWriteI64(h, tmp, int64(c.PlantedDay))
		h.Write([]byte(c.PlantedSeason))
		digestWriteI64(h, tmp, int64(c.Stage))
		digestWriteF64(h, tmp, c.Pos.X)
		digestWriteF64(h, tmp, c.Pos.Y)
		digestWriteF64(h, tmp, c.Pos.Z)
	}
}

func (f *Farm) digestBuildings(h hashWriter, tmp *[8]byte) {
	for _, id := range sortedMapKeys(f.buildings) {
		b := f.buildings[id]
		h.Write([]byte(id))
		h.Write([]byte(b.BuildingID))
		digestWriteF64(h, tmp, b.Pos.X)
		digestWriteF64(h, tmp, b.Pos.Y)
		digestWriteF64(h, tmp, b.Pos.Z)
		digestWriteF64(h, tmp, b.Rotation)
		digestWriteF64(h, tmp, b.Width)
		digestWriteF64(h, tmp, b.Height)
		digestWriteF64(h, tmp, b.Depth)
	}
}

func (f *Farm) digestAnimals(h hashWriter, tmp *[8]byte) {
	for _, id := range sortedMapKeys(f.animals) {
		a := f.animals[id]
		h.Write([]byte(id))
		h.Write([]byte(a.Kind))
		digestWriteF64(h, tmp, a.Pos.X)
		digestWriteF64(h, tmp, a.Pos.Y)
		digestWriteF64(h, tmp, a.Pos.Z)
		digestWriteI64(h, tmp, int64(a.BornDay))
		h.Write([]byte(a.BornSeason))
		digestWriteF64(h, tmp, a.Health)
		digestWriteF64(h, tmp, a.Happiness)
		digestWriteI64(h, tmp, int64(a.LastFedDay))
		h.Write([]byte(a.LastFedSeason))
	}
}

func (f *Farm) digestVehicles(h hashWriter, tmp *[8]byte) {
	for _, id := range sortedMapKeys(f.vehicles) {
		v := f.vehicles[id]
		h.Write([]byte(id))
		h.Write([]byte(v.Kind))
		digestWriteF64(h, tmp, v.Pos.X)
		digestWriteF64(h, tmp, v.Pos.Y)
		digestWriteF64(h, tmp, v.Pos.Z)
		digestWriteF64(h, tmp, v.Rotation)
		digestWriteF64(h, tmp, v.Fuel)
		digestWriteF64(h, tmp, v.MaxFuel)
	}
}

func (f *Farm) digestPlayer(h hashWriter, tmp *[8]byte) {
	digestWriteF64(h, tmp, f.playerPos.X)
	digestWriteF64(h, tmp, f.playerPos.Y)
	digestWriteF64(h, tmp, f.playerPos.Z)
	digestWriteF64(h, tmp, f.playerRot.X)
	digestWriteF64(h, tmp, f.playerRot.Y)
	digestWriteF64(h, tmp, f.playerRot.Z)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
