package steam

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/andygrunwald/vdf"
)

// AppManifest is the parsed AppState block of an appmanifest_<id>.acf file.
type AppManifest struct {
	AppID      string
	Name       string
	InstallDir string
	StateFlags uint64
}

// stateFlagNames maps StateFlags bits, lowest first, to Steam's state names.
var stateFlagNames = []string{
	"Uninstalled",
	"Update Required",
	"Fully Installed",
	"Encrypted",
	"Locked",
	"Files Missing",
	"AppRunning",
	"Files Corrupt",
	"Update Running",
	"Update Paused",
	"Update Started",
	"Uninstalling",
	"Backup Running",
	"Reconfiguring",
	"Validating",
	"Adding Files",
	"Preallocating",
	"Downloading",
	"Staging",
	"Committing",
	"Update Stopping",
}

const stateFullyInstalled = 1 << 2

// States decodes StateFlags into Steam's state names.
func (m *AppManifest) States() []string {
	var states []string
	for i, name := range stateFlagNames {
		if m.StateFlags&(1<<uint(i)) != 0 {
			states = append(states, name)
		}
	}
	return states
}

// Installed reports whether the app is fully installed.
func (m *AppManifest) Installed() bool {
	return m.StateFlags&stateFullyInstalled != 0
}

// GameDir returns the game's install directory under the manifest's
// steamapps dir, or "" when the manifest does not name one.
func (m *AppManifest) GameDir(steamappsDir string) string {
	if m.InstallDir == "" {
		return ""
	}
	return filepath.Join(steamappsDir, "common", m.InstallDir)
}

// ReadManifest parses one appmanifest_<id>.acf file.
func ReadManifest(path string) (*AppManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	data, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	state, ok := data["AppState"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("manifest %s: no AppState block", path)
	}

	m := &AppManifest{}
	if v, ok := state["appid"].(string); ok {
		m.AppID = v
	}
	if v, ok := state["name"].(string); ok {
		m.Name = v
	}
	if v, ok := state["installdir"].(string); ok {
		m.InstallDir = v
	}
	if v, ok := state["StateFlags"].(string); ok {
		flags, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: bad StateFlags %q", path, v)
		}
		m.StateFlags = flags
	}
	return m, nil
}

var manifestRe = regexp.MustCompile(`^appmanifest_\d+\.acf$`)

// ManifestPaths lists the app manifests in a steamapps dir, sorted by name.
func ManifestPaths(steamappsDir string) ([]string, error) {
	entries, err := os.ReadDir(steamappsDir)
	if err != nil {
		return nil, fmt.Errorf("read steamapps dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && manifestRe.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(steamappsDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
