package farm

import (
	"testing"

	"farmgrid.io/internal/protocol"
)

func TestVehicleMoveBurnsFuelByDistance(t *testing.T) {
	f := newTestFarm(t, 1)
	v := f.addVehicle("tractor", protocol.Vec3{})
	if v == nil {
		t.Fatalf("add tractor")
	}
	if v.Fuel != v.MaxFuel {
		t.Fatalf("new vehicle fuel = %v/%v", v.Fuel, v.MaxFuel)
	}

	if !f.moveVehicle(v.ID, protocol.Vec3{X: 30}, 0.5) {
		t.Fatalf("move within range")
	}
	if v.Pos.X != 30 || v.Rotation != 0.5 {
		t.Fatalf("pose not applied: %+v", v)
	}
	want := v.MaxFuel - 30*fuelBurnPerUnit
	if v.Fuel != want {
		t.Fatalf("fuel = %v, want %v", v.Fuel, want)
	}
}

func TestVehicleMoveFailsWhenTankCannotCover(t *testing.T) {
	f := newTestFarm(t, 1)
	v := f.addVehicle("tractor", protocol.Vec3{})
	v.Fuel = 0.5 // covers 5 units at the base burn rate

	if f.moveVehicle(v.ID, protocol.Vec3{X: 10}, 0) {
		t.Fatalf("move beyond fuel range must fail")
	}
	if v.Pos.X != 0 || v.Fuel != 0.5 {
		t.Fatalf("failed move must not mutate: %+v", v)
	}
	if f.moveVehicle("V99", protocol.Vec3{X: 1}, 0) {
		t.Fatalf("unknown vehicle must fail")
	}
}

func TestFuelEfficiencyStretchesRange(t *testing.T) {
	f := newTestFarm(t, 1)
	f.equipmentPurchase("fuel_depot")
	v := f.addVehicle("tractor", protocol.Vec3{})

	eff := f.CombinedEquipmentEffects().FuelEfficiency
	if eff != 1.25 {
		t.Fatalf("fuel efficiency = %v, want 1.25", eff)
	}
	if !f.moveVehicle(v.ID, protocol.Vec3{X: 10}, 0) {
		t.Fatalf("move")
	}
	if v.Fuel != v.MaxFuel-10*fuelBurnPerUnit/eff {
		t.Fatalf("fuel = %v, want %v", v.Fuel, v.MaxFuel-10*fuelBurnPerUnit/eff)
	}
}

func TestRefuelCostRoundsUp(t *testing.T) {
	f := newTestFarm(t, 1)
	v := f.addVehicle("harvester", protocol.Vec3{})
	if got := f.refuelCost(v); got != 0 {
		t.Fatalf("full tank refuel cost = %d, want 0", got)
	}
	v.Fuel = v.MaxFuel - 10.5
	want := 3 // ceil(10.5 * 0.2)
	if got := f.refuelCost(v); got != want {
		t.Fatalf("refuel cost = %d, want %d", got, want)
	}
}

func TestAddVehicleRejectsNonVehicleEquipment(t *testing.T) {
	f := newTestFarm(t, 1)
	if f.addVehicle("silo", protocol.Vec3{}) != nil {
		t.Fatalf("storage equipment must not spawn a vehicle")
	}
	if f.addVehicle("unknown", protocol.Vec3{}) != nil {
		t.Fatalf("unknown equipment must not spawn a vehicle")
	}
}
