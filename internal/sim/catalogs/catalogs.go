package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Crops       CropCatalog
	Equipment   EquipmentCatalog
	Attachments AttachmentCatalog
	Buildings   BuildingCatalog
	Livestock   LivestockCatalog
	Plots       PlotCatalog
}

type CropCatalog struct {
	ByID   map[string]CropDef
	IDs    []string
	Digest string
}

type CropDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	GrowthTimeDays float64 `json:"growth_time_days"`
	SeedPrice      int     `json:"seed_price"`
	BasePrice      int     `json:"base_price"`
}

type EquipmentCatalog struct {
	ByID   map[string]EquipmentDef
	IDs    []string
	Digest string
}

// Equipment types: "tool", "vehicle", "storage", "processing".
type EquipmentDef struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Price   int       `json:"price"`
	Starter bool      `json:"starter,omitempty"`
	Fuel    float64   `json:"fuel,omitempty"` // tank size for vehicles
	Effects EffectDef `json:"effects,omitempty"`
}

// EffectDef uses 0 to mean "not set"; multiplicative fields fold with
// identity 1.0, storage adds. See farm.EffectSet.
type EffectDef struct {
	PlantingSpeed   float64 `json:"planting_speed,omitempty"`
	HarvestSpeed    float64 `json:"harvest_speed,omitempty"`
	TillingSpeed    float64 `json:"tilling_speed,omitempty"`
	CropYield       float64 `json:"crop_yield,omitempty"`
	Efficiency      float64 `json:"efficiency,omitempty"`
	FuelEfficiency  float64 `json:"fuel_efficiency,omitempty"`
	ProcessingRate  float64 `json:"processing_rate,omitempty"`
	StorageCapacity int     `json:"storage_capacity,omitempty"`
	WorkingArea     int     `json:"working_area,omitempty"`
}

type AttachmentCatalog struct {
	ByID   map[string]AttachmentDef
	IDs    []string
	Digest string
}

// Attachment types: "plow", "seeder", "cultivator".
type AttachmentDef struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Price   int       `json:"price"`
	Effects EffectDef `json:"effects,omitempty"`
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	IDs    []string
	Digest string
}

type BuildingDef struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Price      int        `json:"price"`
	Dimensions Dimensions `json:"dimensions"`
	Effects    EffectDef  `json:"effects,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type LivestockCatalog struct {
	ByID   map[string]LivestockDef
	IDs    []string
	Digest string
}

// Livestock types: "chicken", "cow", "pig", "sheep".
type LivestockDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          int     `json:"price"`
	MaturityDays   int     `json:"maturity_days"`
	ProductionRate float64 `json:"production_rate"`
	Product        string  `json:"product"`
	ProductValue   int     `json:"product_value"`
	DailyUpkeep    int     `json:"daily_upkeep"`
}

type PlotCatalog struct {
	ByID   map[string]PlotDef
	IDs    []string
	Digest string
}

type PlotDef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int    `json:"price"`
	Starter bool   `json:"starter,omitempty"`
	Bounds  Bounds `json:"bounds"`
}

type Bounds struct {
	MinX float64 `json:"min_x"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxZ float64 `json:"max_z"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadCrops(filepath.Join(configDir, "crops.json"), &c.Crops); err != nil {
		return nil, err
	}
	if err := loadEquipment(filepath.Join(configDir, "equipment.json"), &c.Equipment); err != nil {
		return nil, err
	}
	if err := loadAttachments(filepath.Join(configDir, "attachments.json"), &c.Attachments); err != nil {
		return nil, err
	}
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadLivestock(filepath.Join(configDir, "livestock.json"), &c.Livestock); err != nil {
		return nil, err
	}
	if err := loadPlots(filepath.Join(configDir, "plots.json"), &c.Plots); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func sortedKeys[D any](m map[string]D) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func loadCrops(path string, out *CropCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []CropDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("crops.json: %w", err)
	}
	out.ByID = map[string]CropDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("crops.json: empty id")
		}
		if d.GrowthTimeDays <= 0 {
			return fmt.Errorf("crops.json: %s: growth_time_days must be positive", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadEquipment(path string, out *EquipmentCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EquipmentDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("equipment.json: %w", err)
	}
	out.ByID = map[string]EquipmentDef{}
	starter := false
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("equipment.json: empty id")
		}
		switch d.Type {
		case "tool", "vehicle", "storage", "processing":
		default:
			return fmt.Errorf("equipment.json: %s: unknown type %q", d.ID, d.Type)
		}
		if d.Starter {
			starter = true
		}
		out.ByID[d.ID] = d
	}
	if !starter {
		return fmt.Errorf("equipment.json: no starter item")
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadAttachments(path string, out *AttachmentCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Allow running without attachments.
		if os.IsNotExist(err) {
			out.ByID = map[string]AttachmentDef{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []AttachmentDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("attachments.json: %w", err)
	}
	out.ByID = map[string]AttachmentDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("attachments.json: empty id")
		}
		switch d.Type {
		case "plow", "seeder", "cultivator":
		default:
			return fmt.Errorf("attachments.json: %s: unknown type %q", d.ID, d.Type)
		}
		if d.Effects.WorkingArea != 0 && d.Effects.WorkingArea%2 == 0 {
			return fmt.Errorf("attachments.json: %s: working_area must be odd", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out.ByID = map[string]BuildingDef{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = map[string]BuildingDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if d.Dimensions.Width <= 0 || d.Dimensions.Depth <= 0 {
			return fmt.Errorf("buildings.json: %s: bad dimensions", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadLivestock(path string, out *LivestockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out.ByID = map[string]LivestockDef{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []LivestockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("livestock.json: %w", err)
	}
	out.ByID = map[string]LivestockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("livestock.json: empty id")
		}
		if d.ProductionRate < 0 || d.ProductionRate > 1 {
			return fmt.Errorf("livestock.json: %s: production_rate out of [0,1]", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadPlots(path string, out *PlotCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []PlotDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("plots.json: %w", err)
	}
	out.ByID = map[string]PlotDef{}
	starter := 0
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("plots.json: empty id")
		}
		b := d.Bounds
		if b.MinX >= b.MaxX || b.MinZ >= b.MaxZ {
			return fmt.Errorf("plots.json: %s: degenerate bounds", d.ID)
		}
		if d.Starter {
			starter++
		}
		out.ByID[d.ID] = d
	}
	if starter != 1 {
		return fmt.Errorf("plots.json: exactly one starter plot required, found %d", starter)
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

// Ordered def lists for catalog wire messages; order follows the sorted IDs
// so the payload is stable across runs.

func (c *Catalogs) CropList() []CropDef {
	out := make([]CropDef, 0, len(c.Crops.IDs))
	for _, id := range c.Crops.IDs {
		out = append(out, c.Crops.ByID[id])
	}
	return out
}

func (c *Catalogs) EquipmentList() []EquipmentDef {
	out := make([]EquipmentDef, 0, len(c.Equipment.IDs))
	for _, id := range c.Equipment.IDs {
		out = append(out, c.Equipment.ByID[id])
	}
	return out
}

func (c *Catalogs) AttachmentList() []AttachmentDef {
	out := make([]AttachmentDef, 0, len(c.Attachments.IDs))
	for _, id := range c.Attachments.IDs {
		out = append(out, c.Attachments.ByID[id])
	}
	return out
}

func (c *Catalogs) BuildingList() []BuildingDef {
	out := make([]BuildingDef, 0, len(c.Buildings.IDs))
	for _, id := range c.Buildings.IDs {
		out = append(out, c.Buildings.ByID[id])
	}
	return out
}

func (c *Catalogs) LivestockList() []LivestockDef {
	out := make([]LivestockDef, 0, len(c.Livestock.IDs))
	for _, id := range c.Livestock.IDs {
		out = append(out, c.Livestock.ByID[id])
	}
	return out
}

func (c *Catalogs) PlotList() []PlotDef {
	out := make([]PlotDef, 0, len(c.Plots.IDs))
	for _, id := range c.Plots.IDs {
		out = append(out, c.Plots.ByID[id])
	}
	return out
}
