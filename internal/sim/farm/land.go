package farm

import "farmgrid.io/internal/protocol"

// landPurchase flips ownership one-way. Returns false for unknown ids and for
// plots already owned; cash deduction belongs to the command layer.
func (f *Farm) landPurchase(plotID string) bool {
	if _, known := f.catalogs.Plots.ByID[plotID]; !known {
		return false
	}
	if f.ownedPlots[plotID] {
		return false
	}
	f.ownedPlots[plotID] = true
	return true
}

func (f *Farm) OwnsPlot(id string) bool { return f.ownedPlots[id] }

func (f *Farm) OwnedPlots() []string { return sortedStrings(f.ownedPlots) }

// IsOnOwnedLand reports whether the position lies inside any owned plot's
// bounds (inclusive point-in-AABB on the XZ plane).
func (f *Farm) IsOnOwnedLand(p protocol.Vec3) bool {
	for _, id := range f.catalogs.Plots.IDs {
		if !f.ownedPlots[id] {
			continue
		}
		b := f.catalogs.Plots.ByID[id].Bounds
		if p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ {
			return true
		}
	}
	return false
}
