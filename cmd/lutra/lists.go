package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"lutra/internal/config"
	"lutra/pkg/library"
	"lutra/pkg/steam"
)

// gameJSON is the --list-games --json row shape.
type gameJSON struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Runner    string `json:"runner"`
	Directory string `json:"directory"`
}

// runListGames prints the library, one game per line, or as a JSON array
// with --json.
func runListGames(ctx context.Context, w io.Writer, dbPath string, installedOnly, jsonOutput bool) error {
	lib, err := library.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	games, err := lib.Games(ctx, library.Filter{InstalledOnly: installedOnly})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeGamesJSON(w, games)
	}
	for _, g := range games {
		fmt.Fprintf(w, "%4d | %-40s | %-40s | %-15s | %s\n",
			g.ID,
			truncate(g.Name, 40),
			truncate(g.Slug, 40),
			truncate(orDash(g.Runner), 15),
			orDash(g.Directory),
		)
	}
	return nil
}

func writeGamesJSON(w io.Writer, games []library.Game) error {
	list := make([]gameJSON, len(games))
	for i, g := range games {
		list[i] = gameJSON{
			ID:        g.ID,
			Slug:      g.Slug,
			Name:      g.Name,
			Runner:    g.Runner,
			Directory: g.Directory,
		}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode game list: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// runListSteamGames prints every appmanifest across the discovered Steam
// libraries. Unreadable dirs and manifests are skipped with a warning.
func runListSteamGames(w io.Writer, dirs []steam.Dir, log *slog.Logger) error {
	for _, dir := range dirs {
		paths, err := steam.ManifestPaths(dir.Path)
		if err != nil {
			log.Warn("skipping steam dir", "dir", dir.Path, "err", err)
			continue
		}
		for _, path := range paths {
			m, err := steam.ReadManifest(path)
			if err != nil {
				log.Warn("skipping manifest", "path", path, "err", err)
				continue
			}
			fmt.Fprintf(w, "%8s | %-40s | %-10s | %s\n",
				m.AppID,
				truncate(m.Name, 40),
				dir.Platform,
				strings.Join(m.States(), ", "),
			)
		}
	}
	return nil
}

// runListSteamFolders prints each discovered steamapps directory, one per
// line.
func runListSteamFolders(w io.Writer, dirs []steam.Dir) error {
	for _, dir := range dirs {
		fmt.Fprintln(w, dir.Path)
	}
	return nil
}

// steamDirs discovers the steamapps directories to scan: native Steam roots
// plus any Wine-prefix dirs from the settings.
func steamDirs(settings config.Settings) []steam.Dir {
	return steam.Discover(steam.DefaultRoots(), settings.Steam.ExtraDirs)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
