package farm

import (
	"fmt"
	"math"

	"farmgrid.io/internal/protocol"
)

// Fuel burn per world unit driven, before the fuel-efficiency multiplier, and
// the refuel price per fuel unit.
const (
	fuelBurnPerUnit = 0.1
	fuelCostPerUnit = 0.2
)

// addVehicle instantiates a vehicle for a vehicle-type equipment purchase.
func (f *Farm) addVehicle(kind string, pos protocol.Vec3) *Vehicle {
	def, ok := f.catalogs.Equipment.ByID[kind]
	if !ok || def.Type != "vehicle" {
		return nil
	}
	v := &Vehicle{
		ID:      fmt.Sprintf("V%d", f.nextVehicleNum.Add(1)),
		Kind:    kind,
		Pos:     pos,
		Fuel:    def.Fuel,
		MaxFuel: def.Fuel,
	}
	f.vehicles[v.ID] = v
	return v
}

// moveVehicle teleports the vehicle to the target transform, burning fuel
// proportional to XZ distance. Fails without moving when the tank cannot
// cover the trip.
func (f *Farm) moveVehicle(id string, pos protocol.Vec3, rotation float64) bool {
	v, ok := f.vehicles[id]
	if !ok {
		return false
	}
	eff := f.CombinedEquipmentEffects().FuelEfficiency
	if eff <= 0 {
		eff = 1
	}
	need := distXZ(v.Pos, pos) * fuelBurnPerUnit / eff
	if need > v.Fuel {
		return false
	}
	v.Fuel -= need
	v.Pos = pos
	v.Rotation = rotation
	return true
}

// refuelCost prices a full tank top-up, rounded up to whole money.
func (f *Farm) refuelCost(v *Vehicle) int {
	missing := v.MaxFuel - v.Fuel
	if missing <= 0 {
		return 0
	}
	return int(math.Ceil(missing * fuelCostPerUnit))
}

func (f *Farm) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(f.vehicles))
	for _, id := range sortedMapKeys(f.vehicles) {
		out = append(out, f.vehicles[id])
	}
	return out
}
