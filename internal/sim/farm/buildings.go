package farm

import (
	"fmt"
	"math"

	"farmgrid.io/internal/protocol"
)

// IsOccupied reports whether a candidate footprint (centered on pos, sized
// width x depth on the XZ plane) intersects any placed building. Touching
// edges do not collide.
func (f *Farm) IsOccupied(pos protocol.Vec3, width, depth float64) bool {
	for _, id := range sortedMapKeys(f.buildings) {
		b := f.buildings[id]
		if math.Abs(pos.X-b.Pos.X)*2 < width+b.Width && math.Abs(pos.Z-b.Pos.Z)*2 < depth+b.Depth {
			return true
		}
	}
	return false
}

// placeBuilding appends a placed instance with dimensions snapshotted from
// the catalog at call time. Land, collision, and cash checks are the command
// layer's job; this never re-validates.
func (f *Farm) placeBuilding(buildingID string, pos protocol.Vec3, rotation float64) *Building {
	def, ok := f.catalogs.Buildings.ByID[buildingID]
	if !ok {
		return nil
	}
	b := &Building{
		ID:         fmt.Sprintf("B%d", f.nextBuildingNum.Add(1)),
		BuildingID: buildingID,
		Pos:        pos,
		Rotation:   rotation,
		Width:      def.Dimensions.Width,
		Height:     def.Dimensions.Height,
		Depth:      def.Dimensions.Depth,
	}
	f.buildings[b.ID] = b
	return b
}

// totalBuildingStorage sums the storage effect of each placed building's
// catalog entry, skipping entries whose definition has since disappeared.
func (f *Farm) totalBuildingStorage() int {
	total := 0
	for _, id := range sortedMapKeys(f.buildings) {
		def, ok := f.catalogs.Buildings.ByID[f.buildings[id].BuildingID]
		if !ok {
			continue
		}
		total += def.Effects.StorageCapacity
	}
	return total
}

func (f *Farm) PlacedBuildings() []*Building {
	out := make([]*Building, 0, len(f.buildings))
	for _, id := range sortedMapKeys(f.buildings) {
		out = append(out, f.buildings[id])
	}
	return out
}
