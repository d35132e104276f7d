// Package save defines the versioned on-disk farm save document. The JSON
// shape is frozen by schemas/save.schema.json; changing a field name or
// dropping one is a format break and needs a version bump.
package save

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = "1.0.0"

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type TimeV1 struct {
	Hour      int     `json:"hour"`
	Minute    int     `json:"minute"`
	Day       int     `json:"day"`
	Season    string  `json:"season"`
	Year      int     `json:"year"`
	TimeScale float64 `json:"timeScale"`
}

type EconomyV1 struct {
	Money        int            `json:"money"`
	Inventory    map[string]int `json:"inventory,omitempty"`
	MarketPrices map[string]int `json:"marketPrices,omitempty"`
	PriceTimer   float64        `json:"priceTimer"`
}

type WeatherV1 struct {
	Type        string  `json:"type"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Timer       float64 `json:"timer"`
}

type CropV1 struct {
	Type          string `json:"type"`
	Cell          [2]int `json:"cell"`
	PlantedDay    int    `json:"plantedDay"`
	PlantedSeason string `json:"plantedSeason"`
	GrowthStage   int    `json:"growthStage"`
	Position      Vec3   `json:"position"`
}

type FieldCellV1 struct {
	Cell          [2]int `json:"cell"`
	State         string `json:"state"`
	ChangedDay    int    `json:"changedDay"`
	ChangedSeason string `json:"changedSeason"`
	CropType      string `json:"cropType,omitempty"`
}

type ExpansionV1 struct {
	OwnedPlots []string `json:"ownedPlots"`
}

type EquipmentV1 struct {
	Owned []string `json:"owned"`
}

// AttachmentV1 carries one owned attachment type; VehicleID is set when the
// attachment is currently mounted.
type AttachmentV1 struct {
	Type      string `json:"type"`
	Owned     bool   `json:"owned"`
	VehicleID string `json:"vehicleId,omitempty"`
}

type VehicleV1 struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Position Vec3    `json:"position"`
	Rotation float64 `json:"rotation"`
	Fuel     float64 `json:"fuel"`
}

type DimensionsV1 struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type BuildingV1 struct {
	ID         string       `json:"id"`
	BuildingID string       `json:"buildingId"`
	Position   Vec3         `json:"position"`
	Rotation   float64      `json:"rotation"`
	Dimensions DimensionsV1 `json:"dimensions"`
}

type AnimalV1 struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Position      Vec3    `json:"position"`
	BornDay       int     `json:"bornDay"`
	BornSeason    string  `json:"bornSeason"`
	Happiness     float64 `json:"happiness"`
	Health        float64 `json:"health"`
	LastFedDay    int     `json:"lastFedDay"`
	LastFedSeason string  `json:"lastFedSeason"`
}

// SaveV1 is the complete farm state at one instant. Slices are sorted by the
// exporter so two saves of identical state are byte-identical.
type SaveV1 struct {
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`

	Time        TimeV1         `json:"timeData"`
	Economy     *EconomyV1     `json:"economyData,omitempty"`
	Weather     *WeatherV1     `json:"weatherData,omitempty"`
	Crops       []CropV1       `json:"cropsData,omitempty"`
	Fields      []FieldCellV1  `json:"fieldStateData,omitempty"`
	Expansion   *ExpansionV1   `json:"farmExpansionData,omitempty"`
	Equipment   *EquipmentV1   `json:"equipmentData,omitempty"`
	Attachments []AttachmentV1 `json:"attachmentData,omitempty"`
	Vehicles    []VehicleV1    `json:"vehicleData,omitempty"`
	Buildings   []BuildingV1   `json:"buildingData,omitempty"`
	Animals     []AnimalV1     `json:"livestockData,omitempty"`

	PlayerPosition *Vec3 `json:"playerPosition,omitempty"`
	PlayerRotation *Vec3 `json:"playerRotation,omitempty"`
}

// Encode renders the document as canonical JSON (no indent, sorted map keys
// courtesy of encoding/json).
func Encode(doc *SaveV1) ([]byte, error) {
	return json.Marshal(doc)
}

// Decode parses a save document. Unknown fields are ignored so documents
// written by a newer minor version still load; the caller decides what to do
// with the version string.
func Decode(data []byte) (*SaveV1, error) {
	var doc SaveV1
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("save decode: %w", err)
	}
	return &doc, nil
}

type fileHeader struct {
	Version   string `json:"version"`
	Slot      string `json:"slot"`
	Timestamp int64  `json:"timestamp"`
}

// WriteFile stores the document zstd-compressed with a one-line JSON header
// so `zstdcat save | head -1` identifies the file without full decode.
func WriteFile(path, slot string, doc *SaveV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(fileHeader{Version: doc.Version, Slot: slot, Timestamp: doc.Timestamp})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	body, err := Encode(doc)
	if err != nil {
		return err
	}
	_, err = bw.Write(body)
	return err
}

// ReadFile loads a document written by WriteFile.
func ReadFile(path string) (*SaveV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line; the body repeats everything it carries.
	if _, err := br.ReadBytes('\n'); err != nil {
		return nil, fmt.Errorf("save header: %w", err)
	}
	body, err := readAll(br)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

func readAll(br *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(br); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
