package gsi

import (
	"fmt"
	"os"
	"path/filepath"
)

const gameConfigName = "gamestate_integration_wooting_aim.cfg"

// candidateCfgDirs lists the places the game's cfg directory is usually
// found, relative to common Steam library roots.
func candidateCfgDirs() []string {
	const suffix = "steamapps/common/Counter-Strike Global Offensive/game/csgo/cfg"

	var bases []string
	if home := os.Getenv("HOME"); home != "" {
		bases = append(bases,
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
		)
	}
	bases = append(bases, "/usr/lib/steam")

	dirs := make([]string, 0, len(bases))
	for _, b := range bases {
		dirs = append(dirs, filepath.Join(b, suffix))
	}
	return dirs
}

// WriteGameConfig drops the state-integration subscription file into
// the game's cfg directory so the game starts posting to the given
// port. Returns the written (or already existing) path, or "" when no
// cfg directory exists; the caller then instructs the user to create
// the file manually.
func WriteGameConfig(port int) (string, error) {
	for _, dir := range candidateCfgDirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		path := filepath.Join(dir, gameConfigName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if err := os.WriteFile(path, []byte(gameConfigBody(port)), 0o644); err != nil {
			return "", fmt.Errorf("gsi: write game config: %w", err)
		}
		return path, nil
	}
	return "", nil
}

// gameConfigBody renders the subscription block in the game's keyvalues
// format: the post URI plus the consumed data sections.
func gameConfigBody(port int) string {
	return fmt.Sprintf(`"wooting-aim"
{
    "uri" "http://127.0.0.1:%d"
    "timeout" "2.0"
    "buffer" "0.0"
    "throttle" "0.0"
    "heartbeat" "10.0"
    "data"
    {
        "provider" "1"
        "player_id" "1"
        "player_state" "1"
        "player_weapons" "1"
        "round" "1"
    }
}
`, port)
}
