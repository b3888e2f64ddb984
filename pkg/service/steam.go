// Package service imports games from external stores into the library and
// talks to the lutris.net API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"lutra/internal/logging"
	"lutra/pkg/library"
	"lutra/pkg/steam"
)

// Fields stamped on imported Steam games.
const (
	steamService       = "steam"
	steamInstallerSlug = "steam"
	steamRunner        = "steam"
)

// excludedAppIDs are Steam tooling entries, not games.
var excludedAppIDs = map[string]bool{
	"228980":  true, // Steamworks Common Redistributables
	"1070560": true, // Steam Linux Runtime
}

var protonRe = regexp.MustCompile(`^Proton \d*`)

// importable reports whether a manifest names a game worth importing.
func importable(m *steam.AppManifest) bool {
	if !m.Installed() {
		return false
	}
	if excludedAppIDs[m.AppID] {
		return false
	}
	if protonRe.MatchString(m.Name) {
		return false
	}
	return true
}

// ImportSteam scans the given steamapps dirs and registers every installed
// game it finds, both as a steam service game and as an installed library
// row. Unreadable dirs and manifests are skipped with a warning. Returns the
// number of games imported.
func ImportSteam(ctx context.Context, lib *library.Library, dirs []steam.Dir, log *slog.Logger) (int, error) {
	if log == nil {
		log = logging.NewNop()
	}
	imported := 0
	for _, dir := range dirs {
		paths, err := steam.ManifestPaths(dir.Path)
		if err != nil {
			log.Warn("skipping steam library", "dir", dir.Path, "err", err)
			continue
		}
		for _, path := range paths {
			m, err := steam.ReadManifest(path)
			if err != nil {
				log.Warn("skipping manifest", "path", path, "err", err)
				continue
			}
			if !importable(m) {
				continue
			}
			if err := importSteamGame(ctx, lib, dir, m); err != nil {
				return imported, err
			}
			log.Debug("imported steam game", "appid", m.AppID, "name", m.Name)
			imported++
		}
	}
	return imported, nil
}

func importSteamGame(ctx context.Context, lib *library.Library, dir steam.Dir, m *steam.AppManifest) error {
	slug := library.Slugify(m.Name)
	details, err := json.Marshal(map[string]string{"appid": m.AppID, "installdir": m.InstallDir})
	if err != nil {
		return fmt.Errorf("steam details: %w", err)
	}
	sg := library.ServiceGame{
		Service: steamService,
		AppID:   m.AppID,
		Name:    m.Name,
		Slug:    slug,
		Details: string(details),
	}
	if err := lib.UpsertServiceGame(ctx, sg); err != nil {
		return err
	}

	p := library.GameParams{Name: m.Name, Slug: slug, InstalledAt: time.Now().Unix()}
	existing, err := lib.GameByField(ctx, library.FieldSlug, slug)
	if err != nil {
		return err
	}
	if existing != nil {
		// Re-imports refresh the Steam fields without touching play history.
		p = existing.Params()
		p.Name = m.Name
	}
	p.InstallerSlug = steamInstallerSlug
	p.Runner = steamRunner
	p.Platform = dir.Platform
	p.Directory = m.GameDir(dir.Path)
	p.Installed = true
	p.ConfigPath = slug + "-" + steamInstallerSlug
	p.Service = steamService
	p.ServiceID = m.AppID
	if _, err := lib.AddOrUpdate(ctx, p); err != nil {
		return err
	}
	return nil
}
