// Package history reads the release history file used to compose the restart
// announcement. The file is read once at boot and never written.
package history

import (
	"encoding/json"
	"fmt"
	"os"
)

// Release is one entry of the ordered update history.
type Release struct {
	Version string   `json:"version"`
	Date    string   `json:"date"`
	Changes []string `json:"changes"`
}

// Load reads the ordered release history from path. The watcher's restart
// notice depends on it, so callers treat any failure as fatal at boot.
func Load(path string) ([]Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read update history: %w", err)
	}

	var releases []Release
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, fmt.Errorf("parse update history: %w", err)
	}
	return releases, nil
}

// Latest returns the most recent release record.
func Latest(releases []Release) (Release, bool) {
	if len(releases) == 0 {
		return Release{}, false
	}
	return releases[len(releases)-1], true
}
