package gamestate

import "strings"

// DefaultSpeed is the max speed assumed for unknown weapons, in
// units/second.
const DefaultSpeed = 225.0

// speedTable maps weapon-name substrings to max movement speeds. First
// match wins, so more specific names sit above broader ones.
var speedTable = []struct {
	substr string
	speed  float32
}{
	{"knife", 250}, {"bayonet", 250},
	{"awp", 200},
	{"ak47", 215},
	{"m4a1", 225},
	{"deagle", 230}, {"revolver", 230},
	{"ssg08", 230},
	{"g3sg1", 215}, {"scar20", 215},
	{"galil", 215},
	{"famas", 220},
	{"aug", 220},
	{"sg556", 210},
	{"glock", 240}, {"hkp2000", 240}, {"usp", 240}, {"p250", 240},
	{"fiveseven", 240}, {"tec9", 240}, {"cz75", 240}, {"elite", 240},
	{"mp9", 240}, {"mac10", 240}, {"bizon", 240},
	{"ump45", 230}, {"p90", 230},
	{"mp7", 220}, {"mp5", 220},
	{"negev", 150},
	{"m249", 195},
	{"nova", 220}, {"mag7", 220}, {"sawedoff", 220},
	{"xm1014", 215},
	{"c4", 245}, {"flashbang", 245}, {"hegrenade", 245},
	{"smokegrenade", 245}, {"molotov", 245}, {"incgrenade", 245},
	{"decoy", 245},
}

// MaxSpeed returns the max movement speed for a weapon by substring
// match on its reported name.
func MaxSpeed(name string) float32 {
	if name == "" {
		return DefaultSpeed
	}
	for _, e := range speedTable {
		if strings.Contains(name, e.substr) {
			return e.speed
		}
	}
	return DefaultSpeed
}
