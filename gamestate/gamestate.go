// Package gamestate caches the observable game state posted by the
// game's state-integration endpoint: active weapon, round phase and
// player health. The cache is written only by the ingest goroutine and
// read as a snapshot by the control loop.
package gamestate

import (
	"sync"
	"time"
)

// Category buckets weapons by how aggressively the keyboard should be
// tuned while they are held.
type Category uint8

const (
	Rifle Category = iota
	AWP
	Pistol
	SMG
	Knife
	Other

	NumCategories = int(Other) + 1
)

var categoryNames = [...]string{"RIFLE", "AWP", "PISTOL", "SMG", "KNIFE", "OTHER"}

func (c Category) String() string { return categoryNames[c] }

// CategorizeType maps the type string reported by the game onto a
// Category. Unknown and empty types are Other (grenades, the bomb).
func CategorizeType(typ string) Category {
	switch typ {
	case "Rifle", "Machine Gun":
		return Rifle
	case "SniperRifle":
		return AWP
	case "Pistol":
		return Pistol
	case "Submachine Gun", "Shotgun":
		return SMG
	case "Knife":
		return Knife
	default:
		return Other
	}
}

// Round phases as reported by the game.
const (
	PhaseLive       = "live"
	PhaseFreezetime = "freezetime"
	PhaseOver       = "over"
)

// Snapshot is one coherent view of the game state.
type Snapshot struct {
	WeaponName  string
	WeaponType  string
	Category    Category
	WeaponSpeed float32
	RoundPhase  string
	Health      int
	Connected   bool
	LastUpdate  time.Time
}

// Update carries the fields extracted from one posted payload. Empty
// strings and a negative health mean the field was absent.
type Update struct {
	WeaponName string
	WeaponType string
	RoundPhase string
	Health     int
}

// Cache is the shared game-state record. The zero value is ready to
// use and reads as "not connected".
type Cache struct {
	mu   sync.Mutex
	snap Snapshot
}

// Snapshot returns the current state under the lock.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Apply merges an extracted update. Absent fields keep their previous
// values so a partial payload never degrades the snapshot.
func (c *Cache) Apply(u Update, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.WeaponName != "" {
		c.snap.WeaponName = u.WeaponName
		c.snap.WeaponType = u.WeaponType
		c.snap.Category = CategorizeType(u.WeaponType)
		c.snap.WeaponSpeed = MaxSpeed(u.WeaponName)
	}
	if u.RoundPhase != "" {
		c.snap.RoundPhase = u.RoundPhase
	}
	if u.Health >= 0 {
		c.snap.Health = u.Health
	}
	c.snap.Connected = true
	c.snap.LastUpdate = now
}
