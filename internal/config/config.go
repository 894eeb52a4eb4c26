// Package config loads the tuning file that drives the adaptive
// policy. The native format is plain key=value text with '#' comments,
// created with defaults on first run; the same key set also loads from
// json, yaml or toml files, picked by extension. Values are immutable
// once loaded.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aduadu321/wooting-aim/gamestate"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// DefaultPath is the tuning file looked up in the working directory.
const DefaultPath = "wooting-aim.cfg"

// WeaponProfile is the AP/RT pair applied while a weapon category is
// active, in millimetres.
type WeaponProfile struct {
	AP float32
	RT float32
}

// Config is the full tuning surface. Values are read once at startup
// and handed to the loop as an immutable value.
type Config struct {
	// Base depths: normal while relaxed, aggro while counter-strafing
	// without game-state weapon info.
	APNormal float32
	APAggro  float32
	RTNormal float32
	RTAggro  float32

	WriteIntervalMS  float64
	PredictThreshold float32
	PredictMinPeak   float32
	CrouchRTFactor   float32
	WSAdaptive       bool
	StatsEnabled     bool

	// Per-category overrides used when the game reports the weapon.
	Weapons [gamestate.NumCategories]WeaponProfile

	GSIEnabled bool
	GSIPort    int

	VelEnabled      bool
	VelScaleEnabled bool
	JiggleEnabled   bool
	PhaseDecay      bool

	PollRateHz float64
}

// Default returns the shipped tuning values.
func Default() Config {
	cfg := Config{
		APNormal:         1.2,
		APAggro:          0.4,
		RTNormal:         1.0,
		RTAggro:          0.1,
		WriteIntervalMS:  50,
		PredictThreshold: 0.70,
		PredictMinPeak:   0.30,
		CrouchRTFactor:   0.5,
		WSAdaptive:       false,
		StatsEnabled:     true,
		GSIEnabled:       true,
		GSIPort:          58732,
		VelEnabled:       true,
		VelScaleEnabled:  true,
		JiggleEnabled:    true,
		PhaseDecay:       true,
		PollRateHz:       8000,
	}
	cfg.Weapons[gamestate.Rifle] = WeaponProfile{AP: 0.4, RT: 0.1}
	cfg.Weapons[gamestate.AWP] = WeaponProfile{AP: 0.8, RT: 0.4}
	cfg.Weapons[gamestate.Pistol] = WeaponProfile{AP: 0.3, RT: 0.1}
	cfg.Weapons[gamestate.SMG] = WeaponProfile{AP: 0.5, RT: 0.2}
	cfg.Weapons[gamestate.Knife] = WeaponProfile{AP: 1.5, RT: 1.0}
	cfg.Weapons[gamestate.Other] = WeaponProfile{AP: 1.0, RT: 0.5}
	return cfg
}

// FormatForPath maps a tuning-file path onto its format: "json",
// "yaml", "toml" by extension, "cfg" for everything else.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "cfg"
	}
}

// Load reads the tuning file at path, creating it with defaults when
// absent. Within a key=value file, unknown or malformed lines are
// skipped so defaults survive; within a structured file, unknown keys
// are ignored but a syntax error is reported.
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		rendered, rerr := cfg.Render(FormatForPath(path))
		if rerr != nil {
			return cfg, rerr
		}
		if err := os.WriteFile(path, rendered, 0o644); err != nil {
			return cfg, fmt.Errorf("config: create %s: %w", path, err)
		}
		logger.Info("default config created", "path", path)
		return cfg, nil
	}

	switch FormatForPath(path) {
	case "json":
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.applyMap(m)
	case "yaml":
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.applyMap(m)
	case "toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.applyMap(tree.ToMap())
	default:
		cfg.applyLines(string(data))
	}

	logger.Info("config loaded", "path", path)
	return cfg, nil
}

// applyLines parses key=value lines, skipping comments and anything
// malformed.
func (c *Config) applyLines(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rawVal, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(rawVal), 64)
		if err != nil {
			continue
		}
		c.set(strings.TrimSpace(key), val)
	}
}

// applyMap feeds a decoded structured document through the same key
// dispatch as the line parser. Decoders differ in the numeric types
// they produce, so everything funnels down to float64.
func (c *Config) applyMap(m map[string]any) {
	for key, raw := range m {
		switch v := raw.(type) {
		case bool:
			if v {
				c.set(key, 1)
			} else {
				c.set(key, 0)
			}
		case int:
			c.set(key, float64(v))
		case int64:
			c.set(key, float64(v))
		case float64:
			c.set(key, v)
		}
	}
}

func (c *Config) set(key string, val float64) {
	f := float32(val)
	b := val != 0

	switch key {
	case "ap_normal":
		c.APNormal = f
	case "ap_aggro":
		c.APAggro = f
	case "rt_normal":
		c.RTNormal = f
	case "rt_aggro":
		c.RTAggro = f
	case "write_interval_ms":
		c.WriteIntervalMS = val
	case "predict_threshold":
		c.PredictThreshold = f
	case "predict_min_peak":
		c.PredictMinPeak = f
	case "crouch_rt_factor":
		c.CrouchRTFactor = f
	case "ws_adaptive":
		c.WSAdaptive = b
	case "stats_enabled":
		c.StatsEnabled = b
	case "rifle_ap":
		c.Weapons[gamestate.Rifle].AP = f
	case "rifle_rt":
		c.Weapons[gamestate.Rifle].RT = f
	case "awp_ap":
		c.Weapons[gamestate.AWP].AP = f
	case "awp_rt":
		c.Weapons[gamestate.AWP].RT = f
	case "pistol_ap":
		c.Weapons[gamestate.Pistol].AP = f
	case "pistol_rt":
		c.Weapons[gamestate.Pistol].RT = f
	case "smg_ap":
		c.Weapons[gamestate.SMG].AP = f
	case "smg_rt":
		c.Weapons[gamestate.SMG].RT = f
	case "knife_ap":
		c.Weapons[gamestate.Knife].AP = f
	case "knife_rt":
		c.Weapons[gamestate.Knife].RT = f
	case "gsi_enabled":
		c.GSIEnabled = b
	case "gsi_port":
		c.GSIPort = int(val)
	case "vel_enabled":
		c.VelEnabled = b
	case "vel_scale_enabled":
		c.VelScaleEnabled = b
	case "jiggle_enabled":
		c.JiggleEnabled = b
	case "phase_decay":
		c.PhaseDecay = b
	case "poll_rate_hz":
		c.PollRateHz = val
	}
}

// mm widens a float32 depth for marshalling without the float32
// conversion noise (1.2 would otherwise render as 1.2000000476837158).
func mm(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}

func boolVal(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Map returns every tuning key with its current value, the shape the
// structured formats marshal and unmarshal.
func (c Config) Map() map[string]any {
	return map[string]any{
		"ap_normal":         mm(c.APNormal),
		"ap_aggro":          mm(c.APAggro),
		"rt_normal":         mm(c.RTNormal),
		"rt_aggro":          mm(c.RTAggro),
		"write_interval_ms": c.WriteIntervalMS,
		"predict_threshold": mm(c.PredictThreshold),
		"predict_min_peak":  mm(c.PredictMinPeak),
		"crouch_rt_factor":  mm(c.CrouchRTFactor),
		"ws_adaptive":       c.WSAdaptive,
		"stats_enabled":     c.StatsEnabled,
		"rifle_ap":          mm(c.Weapons[gamestate.Rifle].AP),
		"rifle_rt":          mm(c.Weapons[gamestate.Rifle].RT),
		"awp_ap":            mm(c.Weapons[gamestate.AWP].AP),
		"awp_rt":            mm(c.Weapons[gamestate.AWP].RT),
		"pistol_ap":         mm(c.Weapons[gamestate.Pistol].AP),
		"pistol_rt":         mm(c.Weapons[gamestate.Pistol].RT),
		"smg_ap":            mm(c.Weapons[gamestate.SMG].AP),
		"smg_rt":            mm(c.Weapons[gamestate.SMG].RT),
		"knife_ap":          mm(c.Weapons[gamestate.Knife].AP),
		"knife_rt":          mm(c.Weapons[gamestate.Knife].RT),
		"gsi_enabled":       c.GSIEnabled,
		"gsi_port":          c.GSIPort,
		"vel_enabled":       c.VelEnabled,
		"vel_scale_enabled": c.VelScaleEnabled,
		"jiggle_enabled":    c.JiggleEnabled,
		"phase_decay":       c.PhaseDecay,
		"poll_rate_hz":      c.PollRateHz,
	}
}

// Render serializes the configuration in the given format ("cfg",
// "json", "yaml" or "toml"). The cfg format is the commented template
// written on first run.
func (c Config) Render(format string) ([]byte, error) {
	switch format {
	case "cfg":
		return []byte(c.Template()), nil
	case "json":
		return json.MarshalIndent(c.Map(), "", "  ")
	case "yaml":
		return yaml.Marshal(c.Map())
	case "toml":
		tree, err := toml.TreeFromMap(c.Map())
		if err != nil {
			return nil, err
		}
		return []byte(tree.String()), nil
	default:
		return nil, fmt.Errorf("config: unsupported format %q", format)
	}
}

// Template renders the commented key=value file content.
func (c Config) Template() string {
	var sb strings.Builder
	sb.WriteString("# wooting-aim configuration\n\n")
	sb.WriteString("# Base settings (used when game state is not connected)\n")
	fmt.Fprintf(&sb, "ap_normal=%.1f\n", c.APNormal)
	fmt.Fprintf(&sb, "ap_aggro=%.1f\n", c.APAggro)
	fmt.Fprintf(&sb, "rt_normal=%.1f\n", c.RTNormal)
	fmt.Fprintf(&sb, "rt_aggro=%.1f\n", c.RTAggro)
	fmt.Fprintf(&sb, "write_interval_ms=%.0f\n", c.WriteIntervalMS)
	fmt.Fprintf(&sb, "predict_threshold=%.2f\n", c.PredictThreshold)
	fmt.Fprintf(&sb, "predict_min_peak=%.2f\n", c.PredictMinPeak)
	fmt.Fprintf(&sb, "crouch_rt_factor=%.2f\n", c.CrouchRTFactor)
	fmt.Fprintf(&sb, "ws_adaptive=%d\n", boolVal(c.WSAdaptive))
	fmt.Fprintf(&sb, "stats_enabled=%d\n\n", boolVal(c.StatsEnabled))
	sb.WriteString("# Weapon profiles (AP/RT while counter-strafing, game state active)\n")
	fmt.Fprintf(&sb, "rifle_ap=%.1f\nrifle_rt=%.1f\n", c.Weapons[gamestate.Rifle].AP, c.Weapons[gamestate.Rifle].RT)
	fmt.Fprintf(&sb, "awp_ap=%.1f\nawp_rt=%.1f\n", c.Weapons[gamestate.AWP].AP, c.Weapons[gamestate.AWP].RT)
	fmt.Fprintf(&sb, "pistol_ap=%.1f\npistol_rt=%.1f\n", c.Weapons[gamestate.Pistol].AP, c.Weapons[gamestate.Pistol].RT)
	fmt.Fprintf(&sb, "smg_ap=%.1f\nsmg_rt=%.1f\n", c.Weapons[gamestate.SMG].AP, c.Weapons[gamestate.SMG].RT)
	fmt.Fprintf(&sb, "knife_ap=%.1f\nknife_rt=%.1f\n\n", c.Weapons[gamestate.Knife].AP, c.Weapons[gamestate.Knife].RT)
	sb.WriteString("# Game state integration\n")
	fmt.Fprintf(&sb, "gsi_enabled=%d\n", boolVal(c.GSIEnabled))
	fmt.Fprintf(&sb, "gsi_port=%d\n\n", c.GSIPort)
	sb.WriteString("# Velocity estimation\n")
	fmt.Fprintf(&sb, "vel_enabled=%d\n", boolVal(c.VelEnabled))
	fmt.Fprintf(&sb, "vel_scale_enabled=%d\n\n", boolVal(c.VelScaleEnabled))
	fmt.Fprintf(&sb, "jiggle_enabled=%d\n", boolVal(c.JiggleEnabled))
	fmt.Fprintf(&sb, "phase_decay=%d\n", boolVal(c.PhaseDecay))
	fmt.Fprintf(&sb, "poll_rate_hz=%.0f\n", c.PollRateHz)
	return sb.String()
}
