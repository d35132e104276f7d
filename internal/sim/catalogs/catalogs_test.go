package catalogs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load configs: %v", err)
	}

	counts := []struct {
		name string
		ids  []string
		want int
	}{
		{"crops", c.Crops.IDs, 6},
		{"equipment", c.Equipment.IDs, 8},
		{"attachments", c.Attachments.IDs, 3},
		{"buildings", c.Buildings.IDs, 4},
		{"livestock", c.Livestock.IDs, 4},
		{"plots", c.Plots.IDs, 4},
	}
	for _, tc := range counts {
		if len(tc.ids) != tc.want {
			t.Fatalf("%s: expected %d entries, got %d (%v)", tc.name, tc.want, len(tc.ids), tc.ids)
		}
		if !sort.StringsAreSorted(tc.ids) {
			t.Fatalf("%s: IDs not sorted: %v", tc.name, tc.ids)
		}
	}

	for _, d := range []string{c.Crops.Digest, c.Equipment.Digest, c.Attachments.Digest, c.Buildings.Digest, c.Livestock.Digest, c.Plots.Digest} {
		if len(d) != 64 {
			t.Fatalf("expected sha256 hex digest, got %q", d)
		}
	}

	if w := c.Crops.ByID["wheat"]; w.GrowthTimeDays != 5 || w.SeedPrice != 5 || w.BasePrice != 12 {
		t.Fatalf("unexpected wheat def: %+v", w)
	}
	if !c.Equipment.ByID["basic_tools"].Starter {
		t.Fatalf("basic_tools should be the starter equipment")
	}
	if p := c.Plots.ByID["starter"]; !p.Starter || p.Price != 0 {
		t.Fatalf("unexpected starter plot: %+v", p)
	}
	if a := c.Attachments.ByID["cultivator"]; a.Effects.WorkingArea != 5 {
		t.Fatalf("cultivator working area: %+v", a)
	}
}

func TestCatalogListsFollowSortedIDs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load configs: %v", err)
	}
	crops := c.CropList()
	for i, id := range c.Crops.IDs {
		if crops[i].ID != id {
			t.Fatalf("crop list out of order at %d: %s vs %s", i, crops[i].ID, id)
		}
	}
	eq := c.EquipmentList()
	for i, id := range c.Equipment.IDs {
		if eq[i].ID != id {
			t.Fatalf("equipment list out of order at %d: %s vs %s", i, eq[i].ID, id)
		}
	}
	plots := c.PlotList()
	for i, id := range c.Plots.IDs {
		if plots[i].ID != id {
			t.Fatalf("plot list out of order at %d: %s vs %s", i, plots[i].ID, id)
		}
	}
}

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// minimalDir holds just the three required files.
func minimalDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "crops.json", `[{"id":"wheat","name":"Wheat","growth_time_days":5,"seed_price":5,"base_price":12}]`)
	writeFixture(t, dir, "equipment.json", `[{"id":"basic_tools","name":"Basic Tools","type":"tool","price":0,"starter":true}]`)
	writeFixture(t, dir, "plots.json", `[{"id":"starter","name":"Starter","price":0,"starter":true,"bounds":{"min_x":-20,"min_z":-20,"max_x":20,"max_z":20}}]`)
	return dir
}

func TestLoad_OptionalCatalogsMayBeAbsent(t *testing.T) {
	c, err := Load(minimalDir(t))
	if err != nil {
		t.Fatalf("load minimal dir: %v", err)
	}
	if len(c.Attachments.IDs) != 0 || c.Attachments.ByID == nil {
		t.Fatalf("attachments should load empty: %+v", c.Attachments)
	}
	if len(c.Buildings.IDs) != 0 || c.Buildings.ByID == nil {
		t.Fatalf("buildings should load empty: %+v", c.Buildings)
	}
	if len(c.Livestock.IDs) != 0 || c.Livestock.ByID == nil {
		t.Fatalf("livestock should load empty: %+v", c.Livestock)
	}
	if len(c.Attachments.Digest) != 64 {
		t.Fatalf("empty catalog still needs a digest, got %q", c.Attachments.Digest)
	}
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "equipment.json", `[{"id":"basic_tools","name":"Basic Tools","type":"tool","price":0,"starter":true}]`)
	writeFixture(t, dir, "plots.json", `[{"id":"starter","name":"Starter","price":0,"starter":true,"bounds":{"min_x":-1,"min_z":-1,"max_x":1,"max_z":1}}]`)
	_, err := Load(dir)
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error for missing crops.json, got %v", err)
	}
}

func TestLoad_CropValidation(t *testing.T) {
	dir := minimalDir(t)
	writeFixture(t, dir, "crops.json", `[{"id":"wheat","name":"Wheat","growth_time_days":0,"seed_price":5,"base_price":12}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for non-positive growth_time_days")
	}
	writeFixture(t, dir, "crops.json", `[{"id":"","name":"Nameless","growth_time_days":5,"seed_price":5,"base_price":12}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for empty crop id")
	}
}

func TestLoad_EquipmentValidation(t *testing.T) {
	dir := minimalDir(t)
	writeFixture(t, dir, "equipment.json", `[{"id":"basic_tools","name":"Basic Tools","type":"tool","price":0}]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "no starter item") {
		t.Fatalf("expected no-starter error, got %v", err)
	}

	writeFixture(t, dir, "equipment.json", `[{"id":"sword","name":"Sword","type":"weapon","price":10,"starter":true}]`)
	_, err = Load(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Fatalf("expected unknown-type error, got %v", err)
	}
}

func TestLoad_PlotValidation(t *testing.T) {
	dir := minimalDir(t)
	writeFixture(t, dir, "plots.json", `[
		{"id":"a","name":"A","price":0,"starter":true,"bounds":{"min_x":-1,"min_z":-1,"max_x":1,"max_z":1}},
		{"id":"b","name":"B","price":0,"starter":true,"bounds":{"min_x":1,"min_z":1,"max_x":2,"max_z":2}}
	]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "exactly one starter plot") {
		t.Fatalf("expected starter-count error for two starters, got %v", err)
	}

	writeFixture(t, dir, "plots.json", `[{"id":"a","name":"A","price":100,"bounds":{"min_x":-1,"min_z":-1,"max_x":1,"max_z":1}}]`)
	_, err = Load(dir)
	if err == nil || !strings.Contains(err.Error(), "exactly one starter plot") {
		t.Fatalf("expected starter-count error for zero starters, got %v", err)
	}

	writeFixture(t, dir, "plots.json", `[{"id":"a","name":"A","price":0,"starter":true,"bounds":{"min_x":5,"min_z":-1,"max_x":1,"max_z":1}}]`)
	_, err = Load(dir)
	if err == nil || !strings.Contains(err.Error(), "degenerate bounds") {
		t.Fatalf("expected bounds error, got %v", err)
	}
}

func TestLoad_AttachmentWorkingAreaMustBeOdd(t *testing.T) {
	dir := minimalDir(t)
	writeFixture(t, dir, "attachments.json", `[{"id":"plow","name":"Plow","type":"plow","price":300,"effects":{"tilling_speed":1.6,"working_area":4}}]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "working_area must be odd") {
		t.Fatalf("expected working-area error, got %v", err)
	}

	writeFixture(t, dir, "attachments.json", `[{"id":"plow","name":"Plow","type":"plow","price":300,"effects":{"tilling_speed":1.6,"working_area":3}}]`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("odd working_area should load: %v", err)
	}
	if c.Attachments.ByID["plow"].Effects.WorkingArea != 3 {
		t.Fatalf("unexpected plow def: %+v", c.Attachments.ByID["plow"])
	}
}

func TestLoad_LivestockProductionRateRange(t *testing.T) {
	dir := minimalDir(t)
	writeFixture(t, dir, "livestock.json", `[{"id":"chicken","name":"Chicken","price":50,"maturity_days":3,"production_rate":1.5,"product":"egg","product_value":5,"daily_upkeep":2}]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "production_rate") {
		t.Fatalf("expected production_rate error, got %v", err)
	}
}
