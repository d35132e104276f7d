package protocol

// Vec3 is the wire form of a world position ({x,y,z} floats).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	FarmID          string         `json:"farm_id"`
	FarmParams      FarmParams     `json:"farm_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type FarmParams struct {
	TickRateHz  int     `json:"tick_rate_hz"`
	TimeScale   float64 `json:"time_scale"`
	CellSize    float64 `json:"cell_size"`
	BaseStorage int     `json:"base_storage"`
	SaveVersion string  `json:"save_version"`
	Seed        int64   `json:"seed"`
}

type CatalogDigests struct {
	Crops       DigestRef `json:"crops"`
	Equipment   DigestRef `json:"equipment"`
	Attachments DigestRef `json:"attachments"`
	Buildings   DigestRef `json:"buildings"`
	Livestock   DigestRef `json:"livestock"`
	Plots       DigestRef `json:"plots"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CATALOG (server -> client): one catalog per message.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`   // e.g. "crops"
	Digest          string      `json:"digest"` // sha256 hex
	Part            int         `json:"part"`
	TotalParts      int         `json:"total_parts"`
	Data            interface{} `json:"data"`
}

// CMD (client -> server): a batch of command requests applied in order.
type CmdMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Commands        []CommandReq `json:"commands"`
}

// CommandReq is the union of all command parameters; Type selects which
// fields are meaningful. Unknown types are rejected with E_BAD_REQUEST.
type CommandReq struct {
	ID   string `json:"id"`
	Type string `json:"cmd"`

	Pos      *Vec3   `json:"pos,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`

	CropType   string `json:"crop_type,omitempty"`
	Qty        int    `json:"qty,omitempty"`
	PlotID     string `json:"plot_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	BuildingID string `json:"building_id,omitempty"`
	AnimalType string `json:"animal_type,omitempty"`

	VehicleID      string `json:"vehicle_id,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`

	Amount int    `json:"amount,omitempty"`
	Slot   string `json:"slot,omitempty"`
}

// STATE (server -> client): the per-tick observation of the whole farm.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Time    TimeState    `json:"time"`
	Weather WeatherState `json:"weather"`
	Economy EconomyState `json:"economy"`
	Player  PlayerState  `json:"player"`

	Plots       []PlotState     `json:"plots"`
	Fields      []FieldState    `json:"fields,omitempty"`
	Crops       []CropState     `json:"crops,omitempty"`
	Equipment   []string        `json:"equipment"`
	Attachments []MountState    `json:"attachments,omitempty"`
	Buildings   []BuildingState `json:"buildings,omitempty"`
	Animals     []AnimalState   `json:"animals,omitempty"`
	Vehicles    []VehicleState  `json:"vehicles,omitempty"`

	Events []Event `json:"events,omitempty"`
}

type TimeState struct {
	Hour      int     `json:"hour"`
	Minute    int     `json:"minute"`
	Day       int     `json:"day"`
	Season    string  `json:"season"`
	Year      int     `json:"year"`
	TimeScale float64 `json:"time_scale"`
	Daytime   bool    `json:"daytime"`
	Formatted string  `json:"formatted"`
}

type WeatherState struct {
	Kind        string  `json:"kind"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Growth      float64 `json:"growth_multiplier"`
	Yield       float64 `json:"yield_multiplier"`
}

type EconomyState struct {
	Money        int            `json:"money"`
	Inventory    []CropStack    `json:"inventory"`
	StorageUsed  int            `json:"storage_used"`
	StorageCap   int            `json:"storage_capacity"`
	MarketPrices map[string]int `json:"market_prices"`
	SeedPrices   map[string]int `json:"seed_prices"`
}

type CropStack struct {
	Crop  string `json:"crop"`
	Count int    `json:"count"`
}

type PlayerState struct {
	Pos      Vec3    `json:"pos"`
	Rotation float64 `json:"rotation"`
}

type PlotState struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price int     `json:"price"`
	Owned bool    `json:"owned"`
	MinX  float64 `json:"min_x"`
	MinZ  float64 `json:"min_z"`
	MaxX  float64 `json:"max_x"`
	MaxZ  float64 `json:"max_z"`
}

type FieldState struct {
	Cell          [2]int `json:"cell"`
	State         string `json:"state"`
	ChangedDay    int    `json:"changed_day"`
	ChangedSeason string `json:"changed_season"`
	Crop          string `json:"crop,omitempty"`
}

type CropState struct {
	Crop          string `json:"crop"`
	Cell          [2]int `json:"cell"`
	Stage         int    `json:"stage"`
	PlantedDay    int    `json:"planted_day"`
	PlantedSeason string `json:"planted_season"`
	Pos           Vec3   `json:"pos"`
}

type MountState struct {
	VehicleID  string `json:"vehicle_id"`
	Attachment string `json:"attachment"`
}

type BuildingState struct {
	ID         string  `json:"id"`
	BuildingID string  `json:"building_id"`
	Pos        Vec3    `json:"pos"`
	Rotation   float64 `json:"rotation"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Depth      float64 `json:"depth"`
}

type AnimalState struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Pos       Vec3   `json:"pos"`
	AgeDays   int    `json:"age_days"`
	Health    int    `json:"health"`
	Happiness int    `json:"happiness"`
	FedToday  bool   `json:"fed_today"`
}

type VehicleState struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Pos        Vec3    `json:"pos"`
	Rotation   float64 `json:"rotation"`
	Fuel       float64 `json:"fuel"`
	MaxFuel    float64 `json:"max_fuel"`
	Attachment string  `json:"attachment,omitempty"`
}

// Event is a loosely-typed notification (action results, day rollovers,
// weather changes). Shape: {"t":tick,"type":...,...}.
type Event map[string]interface{}
