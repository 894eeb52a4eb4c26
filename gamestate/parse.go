package gamestate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Extract pulls the consumed fields out of a posted state payload.
// Well-formed JSON goes through the strict decoder (unknown fields are
// ignored); anything the decoder rejects falls back to a tolerant
// substring scan, which is all the six consumed fields need. The
// payload arrives over loopback from the game and is trusted.
func Extract(body []byte) Update {
	if u, ok := extractStrict(body); ok {
		return u
	}
	return extractScan(string(body))
}

type payload struct {
	Round struct {
		Phase string `json:"phase"`
	} `json:"round"`
	Player struct {
		State struct {
			Health *int `json:"health"`
		} `json:"state"`
		Weapons map[string]struct {
			Name  string `json:"name"`
			Type  string `json:"type"`
			State string `json:"state"`
		} `json:"weapons"`
	} `json:"player"`
}

func extractStrict(body []byte) (Update, bool) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Update{}, false
	}

	u := Update{RoundPhase: p.Round.Phase, Health: -1}
	if p.Player.State.Health != nil {
		u.Health = *p.Player.State.Health
	}
	for _, w := range p.Player.Weapons {
		if w.State == "active" {
			u.WeaponName = w.Name
			u.WeaponType = w.Type
			break
		}
	}
	return u, true
}

// extractScan recovers the same fields by scanning for quoted keys.
// Section windows bound each search so a weapon's own "state" block
// cannot shadow the player's.
func extractScan(s string) Update {
	u := Update{Health: -1}

	if i := strings.Index(s, `"round"`); i >= 0 {
		u.RoundPhase = scanString(window(s, i, 200), `"phase"`)
	}

	if pi := strings.Index(s, `"player"`); pi >= 0 {
		// The player's "state" holds an object; a weapon's holds a string.
		for off := pi; ; {
			i := strings.Index(s[off:], `"state"`)
			if i < 0 {
				break
			}
			i += off
			if strings.HasPrefix(strings.TrimLeft(s[i+len(`"state"`):], " \t\r\n:"), "{") {
				u.Health = scanInt(window(s, i, 200), `"health"`)
				break
			}
			off = i + 1
		}
	}

	if wi := strings.Index(s, `"weapons"`); wi >= 0 {
		weapons := s[wi:]
		off := 0
		for {
			ai := strings.Index(weapons[off:], `"active"`)
			if ai < 0 {
				break
			}
			ai += off

			// The active marker must be a state value, not a name.
			back := ai - 30
			if back < 0 {
				back = 0
			}
			if !strings.Contains(weapons[back:ai], `"state"`) {
				off = ai + 1
				continue
			}

			block := enclosingBlock(weapons, ai)
			u.WeaponName = scanString(block, `"name"`)
			u.WeaponType = scanString(block, `"type"`)
			break
		}
	}

	return u
}

// window returns up to n bytes of s starting at i.
func window(s string, i, n int) string {
	end := i + n
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}

// enclosingBlock walks back from pos to the opening brace of the
// containing object and forward a bounded distance.
func enclosingBlock(s string, pos int) string {
	start := pos
	depth := 0
	for start > 0 {
		start--
		switch s[start] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				return window(s, start, pos-start+200)
			}
			depth--
		}
	}
	return window(s, 0, pos+200)
}

// scanString finds key and returns the quoted value after the colon.
func scanString(s, key string) string {
	i := strings.Index(s, key)
	if i < 0 {
		return ""
	}
	rest := s[i+len(key):]
	rest = strings.TrimLeft(rest, " \t:")
	if len(rest) == 0 || rest[0] != '"' {
		return ""
	}
	rest = rest[1:]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return ""
}

// scanInt finds key and parses the bare integer after the colon,
// returning -1 when absent.
func scanInt(s, key string) int {
	i := strings.Index(s, key)
	if i < 0 {
		return -1
	}
	rest := strings.TrimLeft(s[i+len(key):], " \t:")
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || end == 0 && rest[end] == '-') {
		end++
	}
	if end == 0 {
		return -1
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return -1
	}
	return n
}
