package save

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func sampleDoc() *SaveV1 {
	return &SaveV1{
		Version:   Version,
		Timestamp: 1756100000000,
		Time:      TimeV1{Hour: 14, Minute: 30, Day: 12, Season: "Summer", Year: 2, TimeScale: 60},
		Economy: &EconomyV1{
			Money:        1240,
			Inventory:    map[string]int{"corn": 5, "wheat": 18},
			MarketPrices: map[string]int{"corn": 24, "wheat": 13},
			PriceTimer:   42.5,
		},
		Weather: &WeatherV1{Type: "Rainy", Temperature: 16, Humidity: 88, WindSpeed: 12, Timer: 107.25},
		Crops: []CropV1{
			{Type: "wheat", Cell: [2]int{3, -2}, PlantedDay: 9, PlantedSeason: "Summer", GrowthStage: 2, Position: Vec3{X: 6, Z: -4}},
		},
		Fields: []FieldCellV1{
			{Cell: [2]int{3, -2}, State: "growing", ChangedDay: 9, ChangedSeason: "Summer", CropType: "wheat"},
		},
		Expansion:   &ExpansionV1{OwnedPlots: []string{"plot_1", "plot_2"}},
		Equipment:   &EquipmentV1{Owned: []string{"basic_tools", "tractor"}},
		Attachments: []AttachmentV1{{Type: "plow", Owned: true, VehicleID: "V1"}},
		Vehicles:    []VehicleV1{{ID: "V1", Type: "tractor", Position: Vec3{X: 10, Z: 8}, Rotation: 90, Fuel: 73.5}},
		Buildings: []BuildingV1{
			{ID: "B1", BuildingID: "barn", Position: Vec3{X: -20, Z: 14}, Dimensions: DimensionsV1{Width: 8, Height: 6, Depth: 10}},
		},
		Animals: []AnimalV1{
			{ID: "L1", Type: "chicken", Position: Vec3{X: -18, Z: 12}, BornDay: 2, BornSeason: "Summer", Happiness: 80, Health: 95, LastFedDay: 12, LastFedSeason: "Summer"},
		},
		PlayerPosition: &Vec3{X: 1, Z: 2},
		PlayerRotation: &Vec3{Y: 45},
	}
}

func TestWriteReadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot1.save.zst")
	doc := sampleDoc()
	if err := WriteFile(path, "slot1", doc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

func TestWriteFileHeaderLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.save.zst")
	if err := WriteFile(path, "autosave", sampleDoc()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// The first decompressed line identifies the file without decoding the
	// whole document.
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		t.Fatalf("header line: %v", err)
	}
	var hdr fileHeader
	if err := json.Unmarshal(line, &hdr); err != nil {
		t.Fatalf("header json: %v", err)
	}
	if hdr.Slot != "autosave" {
		t.Fatalf("header slot = %q, want autosave", hdr.Slot)
	}
	if hdr.Version != Version {
		t.Fatalf("header version = %q, want %q", hdr.Version, Version)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"version":"1.1.0","timestamp":5,"timeData":{"hour":6,"minute":0,"day":1,"season":"Spring","year":1,"timeScale":60},"futureData":{"flag":true}}`)
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != "1.1.0" {
		t.Fatalf("version = %q, want 1.1.0", doc.Version)
	}
	if doc.Time.Season != "Spring" || doc.Time.Hour != 6 {
		t.Fatalf("time = %+v", doc.Time)
	}
}

func TestReadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.save.zst")
	if err := os.WriteFile(path, []byte("not a zstd stream"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("ReadFile accepted a corrupt file")
	}
}
