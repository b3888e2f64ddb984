// Package installer turns install scripts into playable library entries. A
// script comes either from a local YAML file or from lutris.net by slug and
// revision; installing one writes the game's config YAML under the games dir
// and upserts an installed library row. It implements the install
// collaborator of the dispatcher.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"lutra/internal/logging"
	"lutra/pkg/library"
	"lutra/pkg/service"
)

// Script is one install script. The Script body keeps runner-specific
// sections as raw maps; only the "game" and "system" sections have meaning
// to lutra itself.
type Script struct {
	Name     string                 `yaml:"name"`
	GameSlug string                 `yaml:"game_slug"`
	Version  string                 `yaml:"version"`
	Slug     string                 `yaml:"slug"`
	Runner   string                 `yaml:"runner"`
	Year     int                    `yaml:"year"`
	Script   map[string]interface{} `yaml:"script"`
}

// LoadScript reads an install script from a local YAML file. A file holding
// a list of scripts yields the first one.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read installer script: %w", err)
	}
	var many []Script
	if err := yaml.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return &many[0], nil
	}
	var one Script
	if err := yaml.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("parse installer script %s: %w", path, err)
	}
	return &one, nil
}

// Installer installs games from scripts.
type Installer struct {
	lib         *library.Library
	client      *service.Client
	gamesDir    string // where per-game config YAML lives
	installRoot string // where game directories are created
	log         *slog.Logger
}

// New creates an Installer. client may be nil; remote lookups then fail with
// an explanatory error and local script files keep working.
func New(lib *library.Library, client *service.Client, gamesDir, installRoot string, log *slog.Logger) *Installer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Installer{
		lib:         lib,
		client:      client,
		gamesDir:    gamesDir,
		installRoot: installRoot,
		log:         log,
	}
}

// Install installs a game. With installerFile set the script is read from
// disk; otherwise it is fetched from lutris.net for slugOrID (a numeric id
// is translated through the library to its slug first). revision pins a
// remote script revision.
func (i *Installer) Install(ctx context.Context, slugOrID, installerFile, revision string) error {
	var script *Script
	switch {
	case installerFile != "":
		s, err := LoadScript(installerFile)
		if err != nil {
			return err
		}
		script = s
	case slugOrID != "":
		slug := slugOrID
		if g, err := i.lib.GameByField(ctx, library.FieldID, slugOrID); err != nil {
			return err
		} else if g != nil {
			slug = g.Slug
		}
		s, err := i.fetchScript(ctx, slug, revision)
		if err != nil {
			return err
		}
		script = s
	default:
		return fmt.Errorf("nothing to install: no slug and no installer file")
	}
	return i.apply(ctx, script)
}

// fetchScript picks the first remote installer for slug.
func (i *Installer) fetchScript(ctx context.Context, slug, revision string) (*Script, error) {
	if i.client == nil {
		return nil, fmt.Errorf("no lutris.net client configured, cannot fetch installers for %q", slug)
	}
	remote, err := i.client.Installers(ctx, slug, revision)
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return nil, fmt.Errorf("no installers found for %q", slug)
	}
	r := remote[0]
	return &Script{
		Name:     r.Name,
		GameSlug: r.GameSlug,
		Version:  r.Version,
		Slug:     r.Slug,
		Year:     r.Year,
		Runner:   r.Runner,
		Script:   r.Script,
	}, nil
}

// apply registers the script's game: config YAML in the games dir, game
// directory under the install root, installed row in the library.
func (i *Installer) apply(ctx context.Context, s *Script) error {
	slug := s.GameSlug
	if slug == "" {
		slug = library.Slugify(s.Name)
	}
	if slug == "" {
		return fmt.Errorf("installer script names no game")
	}
	name := s.Name
	if name == "" {
		name = slug
	}
	installerSlug := s.Slug
	if installerSlug == "" {
		installerSlug = slug
	}

	dir := filepath.Join(i.installRoot, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create game dir: %w", err)
	}

	configPath := fmt.Sprintf("%s-%d", installerSlug, time.Now().Unix())
	if err := i.writeConfig(configPath, s); err != nil {
		return err
	}

	p := library.GameParams{Name: name, Slug: slug}
	existing, err := i.lib.GameByField(ctx, library.FieldSlug, slug)
	if err != nil {
		return err
	}
	if existing != nil {
		// Reinstalls refresh the install fields without touching play history.
		p = existing.Params()
		p.Name = name
	}
	p.InstallerSlug = installerSlug
	p.Runner = s.Runner
	p.Directory = dir
	p.Installed = true
	p.InstalledAt = time.Now().Unix()
	p.ConfigPath = configPath
	if s.Year != 0 {
		p.Year = s.Year
	}

	id, err := i.lib.AddOrUpdate(ctx, p)
	if err != nil {
		return err
	}
	i.log.Info("installed game", "slug", slug, "id", id, "runner", s.Runner, "version", s.Version)
	return nil
}

// writeConfig writes the per-game config YAML: the script's game and system
// sections plus the runner-specific section when present.
func (i *Installer) writeConfig(configPath string, s *Script) error {
	cfg := make(map[string]interface{})
	for _, key := range []string{"game", "system", s.Runner} {
		if key == "" {
			continue
		}
		if section, ok := s.Script[key]; ok {
			cfg[key] = section
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal game config: %w", err)
	}
	if err := os.MkdirAll(i.gamesDir, 0o755); err != nil {
		return fmt.Errorf("create games dir: %w", err)
	}
	path := filepath.Join(i.gamesDir, configPath+".yml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write game config: %w", err)
	}
	return nil
}
