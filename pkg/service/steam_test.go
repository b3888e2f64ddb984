package service //nolint:testpackage // white-box tests cover importable directly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lutra/pkg/library"
	"lutra/pkg/steam"
)

func newTestLibrary(t *testing.T) *library.Library {
	t.Helper()
	lib, err := library.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func writeManifest(t *testing.T, dir, appid, name string, flags uint64) {
	t.Helper()
	installDir := strings.ReplaceAll(name, " ", "")
	content := fmt.Sprintf(`"AppState"
{
	"appid"		"%s"
	"name"		"%s"
	"StateFlags"		"%d"
	"installdir"		"%s"
}
`, appid, name, flags, installDir)
	path := filepath.Join(dir, "appmanifest_"+appid+".acf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestImportSteam_SkipsToolingAndUninstalled(t *testing.T) {
	steamapps := t.TempDir()
	writeManifest(t, steamapps, "440", "Team Fortress 2", 4)
	writeManifest(t, steamapps, "228980", "Steamworks Common Redistributables", 4)
	writeManifest(t, steamapps, "1070560", "Steam Linux Runtime", 4)
	writeManifest(t, steamapps, "1493710", "Proton Experimental", 4)
	writeManifest(t, steamapps, "730", "Counter-Strike 2", 2) // update required, not installed

	lib := newTestLibrary(t)
	ctx := context.Background()

	n, err := ImportSteam(ctx, lib, []steam.Dir{{Path: steamapps, Platform: "linux"}}, nil)
	if err != nil {
		t.Fatalf("ImportSteam: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported game, got %d", n)
	}

	sgs, err := lib.ServiceGames(ctx, "steam")
	if err != nil {
		t.Fatalf("ServiceGames: %v", err)
	}
	if len(sgs) != 1 || sgs[0].AppID != "440" {
		t.Fatalf("expected one steam service game with appid 440, got %+v", sgs)
	}

	game, err := lib.GameByField(ctx, library.FieldSlug, "team-fortress-2")
	if err != nil {
		t.Fatalf("GameByField: %v", err)
	}
	if game == nil {
		t.Fatal("expected an installed library row for team-fortress-2")
	}
	if !game.Installed || game.Runner != "steam" || game.ServiceID != "440" {
		t.Fatalf("unexpected imported row: %+v", game)
	}
	wantDir := filepath.Join(steamapps, "common", "TeamFortress2")
	if game.Directory != wantDir {
		t.Fatalf("directory = %q, want %q", game.Directory, wantDir)
	}
}

func TestImportSteam_ReimportKeepsPlayHistory(t *testing.T) {
	steamapps := t.TempDir()
	writeManifest(t, steamapps, "440", "Team Fortress 2", 4)

	lib := newTestLibrary(t)
	ctx := context.Background()
	dirs := []steam.Dir{{Path: steamapps, Platform: "linux"}}

	if _, err := ImportSteam(ctx, lib, dirs, nil); err != nil {
		t.Fatalf("first import: %v", err)
	}
	game, err := lib.GameByField(ctx, library.FieldSlug, "team-fortress-2")
	if err != nil || game == nil {
		t.Fatalf("imported game missing: %v", err)
	}
	played := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	if err := lib.UpdatePlayed(ctx, game.ID, played, 2*time.Hour); err != nil {
		t.Fatalf("UpdatePlayed: %v", err)
	}

	if _, err := ImportSteam(ctx, lib, dirs, nil); err != nil {
		t.Fatalf("second import: %v", err)
	}
	game, err = lib.GameByField(ctx, library.FieldSlug, "team-fortress-2")
	if err != nil || game == nil {
		t.Fatalf("reimported game missing: %v", err)
	}
	if game.LastPlayed != played.Unix() {
		t.Fatalf("lastplayed = %d, want %d", game.LastPlayed, played.Unix())
	}
	if game.Playtime < 1.9 || game.Playtime > 2.1 {
		t.Fatalf("playtime = %f, want about 2 hours", game.Playtime)
	}
}

func TestImportSteam_MissingDirIsSkipped(t *testing.T) {
	lib := newTestLibrary(t)

	n, err := ImportSteam(context.Background(), lib,
		[]steam.Dir{{Path: filepath.Join(t.TempDir(), "nope"), Platform: "linux"}}, nil)
	if err != nil {
		t.Fatalf("ImportSteam: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 imports, got %d", n)
	}
}

func TestImportable(t *testing.T) {
	tests := []struct {
		name     string
		manifest steam.AppManifest
		want     bool
	}{
		{"installed game", steam.AppManifest{AppID: "440", Name: "Team Fortress 2", StateFlags: 4}, true},
		{"not installed", steam.AppManifest{AppID: "440", Name: "Team Fortress 2", StateFlags: 2}, false},
		{"steamworks redist", steam.AppManifest{AppID: "228980", Name: "Steamworks Common Redistributables", StateFlags: 4}, false},
		{"steam linux runtime", steam.AppManifest{AppID: "1070560", Name: "Steam Linux Runtime", StateFlags: 4}, false},
		{"proton build", steam.AppManifest{AppID: "2348590", Name: "Proton 8.0", StateFlags: 4}, false},
		{"proton experimental", steam.AppManifest{AppID: "1493710", Name: "Proton Experimental", StateFlags: 4}, false},
		{"name containing proton elsewhere", steam.AppManifest{AppID: "99", Name: "Protonica", StateFlags: 4}, true},
	}
	for _, tt := range tests {
		m := tt.manifest
		if got := importable(&m); got != tt.want {
			t.Errorf("%s: importable = %v, want %v", tt.name, got, tt.want)
		}
	}
}
