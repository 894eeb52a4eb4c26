package gamestate_test

import (
	"testing"
	"time"

	"github.com/aduadu321/wooting-aim/gamestate"

	"github.com/stretchr/testify/assert"
)

const samplePayload = `{
  "provider": { "name": "Counter-Strike: Global Offensive", "timestamp": 1700000000 },
  "round": { "phase": "live", "bomb": "planted" },
  "player": {
    "steamid": "765611",
    "state": { "health": 87, "armor": 100, "flashed": 0 },
    "weapons": {
      "weapon_0": { "name": "weapon_knife_t", "type": "Knife", "state": "holstered" },
      "weapon_1": { "name": "weapon_ak47", "type": "Rifle", "state": "active", "ammo_clip": 30 },
      "weapon_2": { "name": "weapon_glock", "type": "Pistol", "state": "holstered" }
    }
  }
}`

func TestExtractStrict(t *testing.T) {
	u := gamestate.Extract([]byte(samplePayload))
	assert.Equal(t, "weapon_ak47", u.WeaponName)
	assert.Equal(t, "Rifle", u.WeaponType)
	assert.Equal(t, "live", u.RoundPhase)
	assert.Equal(t, 87, u.Health)
}

func TestExtractScanFallback(t *testing.T) {
	// Trailing comma makes the strict decoder reject the payload; the
	// scanner still recovers every field.
	broken := `{
  "round": { "phase": "freezetime", },
  "player": {
    "state": { "health": 100, },
    "weapons": {
      "weapon_0": { "name": "weapon_awp", "type": "SniperRifle", "state": "active", },
    }
  }
}`
	u := gamestate.Extract([]byte(broken))
	assert.Equal(t, "weapon_awp", u.WeaponName)
	assert.Equal(t, "SniperRifle", u.WeaponType)
	assert.Equal(t, "freezetime", u.RoundPhase)
	assert.Equal(t, 100, u.Health)
}

func TestExtractEmptyBody(t *testing.T) {
	u := gamestate.Extract([]byte("not json at all"))
	assert.Empty(t, u.WeaponName)
	assert.Empty(t, u.RoundPhase)
	assert.Equal(t, -1, u.Health)
}

func TestExtractNoActiveWeapon(t *testing.T) {
	u := gamestate.Extract([]byte(`{
  "player": { "weapons": {
    "weapon_0": { "name": "weapon_knife", "type": "Knife", "state": "holstered" }
  } }
}`))
	assert.Empty(t, u.WeaponName)
}

func TestCategorizeType(t *testing.T) {
	cases := []struct {
		typ  string
		want gamestate.Category
	}{
		{"Rifle", gamestate.Rifle},
		{"Machine Gun", gamestate.Rifle},
		{"SniperRifle", gamestate.AWP},
		{"Pistol", gamestate.Pistol},
		{"Submachine Gun", gamestate.SMG},
		{"Shotgun", gamestate.SMG},
		{"Knife", gamestate.Knife},
		{"C4", gamestate.Other},
		{"", gamestate.Other},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, gamestate.CategorizeType(tc.typ), "type=%q", tc.typ)
	}
}

func TestMaxSpeed(t *testing.T) {
	assert.Equal(t, float32(215), gamestate.MaxSpeed("weapon_ak47"))
	assert.Equal(t, float32(200), gamestate.MaxSpeed("weapon_awp"))
	assert.Equal(t, float32(250), gamestate.MaxSpeed("weapon_knife_karambit"))
	assert.Equal(t, float32(150), gamestate.MaxSpeed("weapon_negev"))
	assert.Equal(t, float32(gamestate.DefaultSpeed), gamestate.MaxSpeed("weapon_mystery"))
	assert.Equal(t, float32(gamestate.DefaultSpeed), gamestate.MaxSpeed(""))
}

func TestCacheApply(t *testing.T) {
	var c gamestate.Cache
	now := time.Unix(3000, 0)

	assert.False(t, c.Snapshot().Connected)

	c.Apply(gamestate.Update{
		WeaponName: "weapon_ak47",
		WeaponType: "Rifle",
		RoundPhase: "live",
		Health:     100,
	}, now)

	snap := c.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, gamestate.Rifle, snap.Category)
	assert.Equal(t, float32(215), snap.WeaponSpeed)
	assert.Equal(t, 100, snap.Health)

	// A partial update keeps the previous weapon.
	c.Apply(gamestate.Update{RoundPhase: "over", Health: -1}, now.Add(time.Second))
	snap = c.Snapshot()
	assert.Equal(t, "weapon_ak47", snap.WeaponName)
	assert.Equal(t, "over", snap.RoundPhase)
	assert.Equal(t, 100, snap.Health)
}
