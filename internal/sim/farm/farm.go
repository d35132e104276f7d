package farm

import (
	"log"
	"math/rand"
	"sort"
	"sync/atomic"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/protocol"
	"farmgrid.io/internal/sim/catalogs"
	"farmgrid.io/internal/sim/tuning"
)

type FarmConfig struct {
	ID         string
	TickRateHz int
	Seed       int64
}

// FieldCell tracks soil preparation for one grid cell. Cells with no record
// are implicitly untilled.
type FieldCell struct {
	State         string
	ChangedDay    int
	ChangedSeason string
	CropType      string
}

// Crop is a planted instance keyed by the same cell as its FieldCell.
type Crop struct {
	Type          string
	Cell          CellKey
	PlantedDay    int
	PlantedSeason string
	Stage         int // 0..3
	Pos           protocol.Vec3
}

// Building is a placed instance. Dimensions are snapshotted at placement so
// later catalog edits do not move existing footprints.
type Building struct {
	ID         string
	BuildingID string
	Pos        protocol.Vec3
	Rotation   float64
	Width      float64
	Height     float64
	Depth      float64
}

type Animal struct {
	ID            string
	Kind          string
	Pos           protocol.Vec3
	BornDay       int
	BornSeason    string
	Health        float64 // 0..100
	Happiness     float64 // 0..100
	LastFedDay    int
	LastFedSeason string
}

type Vehicle struct {
	ID       string
	Kind     string // equipment id, e.g. "tractor"
	Pos      protocol.Vec3
	Rotation float64
	Fuel     float64
	MaxFuel  float64
}

type CommandEnvelope struct {
	SessionID string
	Cmd       protocol.CommandReq
}

type JoinRequest struct {
	SessionID  string
	ClientName string
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	Welcome  protocol.WelcomeMsg
	Catalogs []protocol.CatalogMsg
}

type snapshotRequest struct {
	resp chan []byte
}

// SaveStore is the durable slot-keyed blob store behind SAVE/LOAD commands.
// Implemented in internal/persistence/savestore.
type SaveStore interface {
	Put(slot string, doc *save.SaveV1) error
	Get(slot string) (*save.SaveV1, error)
	Has(slot string) (bool, error)
	Delete(slot string) error
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Joins    []string          `json:"joins,omitempty"`
	Leaves   []string          `json:"leaves,omitempty"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	Digest   string            `json:"digest"`
}

type RecordedCommand struct {
	SessionID string              `json:"session_id"`
	Cmd       protocol.CommandReq `json:"cmd"`
}

// AuditEntry records money movement and ownership changes for offline review.
type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Action string `json:"action"` // e.g. "PURCHASE_LAND"
	Ref    string `json:"ref,omitempty"`
	Delta  int    `json:"delta,omitempty"`
	Money  int    `json:"money"`
	Reason string `json:"reason,omitempty"`
}

type clientState struct {
	Out chan []byte
}

// Farm is a single-threaded authoritative simulation of one player's farm.
// All state must be accessed only from the farm loop goroutine; tests may
// call methods directly because they own the goroutine.
type Farm struct {
	cfg      FarmConfig
	tune     tuning.Tuning
	catalogs *catalogs.Catalogs
	logger   *log.Logger
	rng      *rand.Rand

	tick atomic.Uint64

	clock   *Clock
	weather *Weather

	money        int
	inventory    map[string]int
	marketPrices map[string]int
	priceTimer   float64

	ownedPlots       map[string]bool
	ownedEquipment   map[string]bool
	ownedAttachments map[string]bool
	mounts           map[string]string // vehicle id -> attachment type

	fields map[CellKey]*FieldCell
	crops  map[CellKey]*Crop

	buildings map[string]*Building
	animals   map[string]*Animal
	vehicles  map[string]*Vehicle

	playerPos protocol.Vec3
	playerRot protocol.Vec3

	nextBuildingNum atomic.Uint64
	nextAnimalNum   atomic.Uint64
	nextVehicleNum  atomic.Uint64

	// Cooldowns gate repeated interaction commands; command type -> first
	// tick at which the command is allowed again.
	cooldownUntil map[string]uint64

	// Events accumulated during the current tick, drained into STATE.
	events []protocol.Event

	clients map[string]*clientState

	inbox   chan CommandEnvelope
	join    chan JoinRequest
	leave   chan string
	snapReq chan snapshotRequest
	stop    chan struct{}

	// Optional collaborators (may be nil).
	store       SaveStore
	saveSink    chan<- save.SaveV1
	tickLogger  TickLogger
	auditLogger AuditLogger

	stats Stats
}

func New(cfg FarmConfig, tune tuning.Tuning, cats *catalogs.Catalogs, logger *log.Logger) (*Farm, error) {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = tune.TickRateHz
	}
	f := &Farm{
		cfg:              cfg,
		tune:             tune,
		catalogs:         cats,
		logger:           logger,
		rng:              rand.New(rand.NewSource(cfg.Seed)),
		clock:            NewClock(tune.TimeScale),
		money:            tune.StartingMoney,
		inventory:        map[string]int{},
		marketPrices:     map[string]int{},
		ownedPlots:       map[string]bool{},
		ownedEquipment:   map[string]bool{},
		ownedAttachments: map[string]bool{},
		mounts:           map[string]string{},
		fields:           map[CellKey]*FieldCell{},
		crops:            map[CellKey]*Crop{},
		buildings:        map[string]*Building{},
		animals:          map[string]*Animal{},
		vehicles:         map[string]*Vehicle{},
		cooldownUntil:    map[string]uint64{},
		clients:          map[string]*clientState{},
		inbox:            make(chan CommandEnvelope, 256),
		join:             make(chan JoinRequest, 16),
		leave:            make(chan string, 16),
		snapReq:          make(chan snapshotRequest, 4),
		stop:             make(chan struct{}),
	}
	f.weather = NewWeather(tune.WeatherChangeSeconds, tune.WeatherChangeChance, f.rng)

	// Starter grants: every plot flagged as starter is owned from creation and
	// can never be revoked; likewise the starter tool.
	for _, id := range cats.Plots.IDs {
		if cats.Plots.ByID[id].Starter {
			f.ownedPlots[id] = true
		}
	}
	for _, id := range cats.Equipment.IDs {
		if cats.Equipment.ByID[id].Starter {
			f.ownedEquipment[id] = true
		}
	}

	// Seed market prices from base prices; the first timer expiry re-rolls.
	for _, id := range cats.Crops.IDs {
		f.marketPrices[id] = cats.Crops.ByID[id].BasePrice
	}
	return f, nil
}

func (f *Farm) SetStore(s SaveStore)              { f.store = s }
func (f *Farm) SetSaveSink(ch chan<- save.SaveV1) { f.saveSink = ch }
func (f *Farm) SetTickLogger(l TickLogger)        { f.tickLogger = l }
func (f *Farm) SetAuditLogger(l AuditLogger)      { f.auditLogger = l }

func (f *Farm) Inbox() chan<- CommandEnvelope { return f.inbox }
func (f *Farm) Join() chan<- JoinRequest      { return f.join }
func (f *Farm) Leave() chan<- string          { return f.leave }

func (f *Farm) CurrentTick() uint64 { return f.tick.Load() }

// setMoney is the single write path for the cash balance; it clamps at zero.
func (f *Farm) setMoney(v int) {
	if v < 0 {
		v = 0
	}
	f.money = v
}

func (f *Farm) audit(nowTick uint64, action, ref string, delta int, reason string) {
	if f.auditLogger == nil {
		return
	}
	_ = f.auditLogger.WriteAudit(AuditEntry{
		Tick:   nowTick,
		Action: action,
		Ref:    ref,
		Delta:  delta,
		Money:  f.money,
		Reason: reason,
	})
}

func (f *Farm) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

func (f *Farm) sortedCellKeys(m map[CellKey]*FieldCell) []CellKey {
	keys := make([]CellKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

func (f *Farm) sortedCropKeys() []CellKey {
	keys := make([]CellKey, 0, len(f.crops))
	for k := range f.crops {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

func sortedStrings(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedMapKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
