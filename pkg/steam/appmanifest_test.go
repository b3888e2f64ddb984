package steam //nolint:testpackage // white-box tests reach the unexported state names

import (
	"path/filepath"
	"testing"
)

const tf2Manifest = `"AppState"
{
	"appid"		"440"
	"Universe"		"1"
	"name"		"Team Fortress 2"
	"StateFlags"		"4"
	"installdir"		"Team Fortress 2"
	"LastUpdated"		"1580000000"
}
`

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appmanifest_440.acf")
	writeFile(t, path, tf2Manifest)

	m, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.AppID != "440" {
		t.Errorf("appid = %q, want 440", m.AppID)
	}
	if m.Name != "Team Fortress 2" {
		t.Errorf("name = %q", m.Name)
	}
	if !m.Installed() {
		t.Error("StateFlags 4 should mean installed")
	}
	want := filepath.Join(dir, "common", "Team Fortress 2")
	if got := m.GameDir(dir); got != want {
		t.Errorf("GameDir = %q, want %q", got, want)
	}
}

func TestAppManifest_States(t *testing.T) {
	t.Parallel()
	tests := []struct {
		flags uint64
		want  []string
	}{
		{4, []string{"Fully Installed"}},
		{6, []string{"Update Required", "Fully Installed"}},
		{1026, []string{"Update Required", "Update Started"}},
		{0, nil},
	}
	for _, tt := range tests {
		m := &AppManifest{StateFlags: tt.flags}
		got := m.States()
		if len(got) != len(tt.want) {
			t.Fatalf("States(%d) = %v, want %v", tt.flags, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("States(%d) = %v, want %v", tt.flags, got, tt.want)
			}
		}
	}
}

func TestAppManifest_InstalledNeedsFlag(t *testing.T) {
	m := &AppManifest{StateFlags: 2} // update required only
	if m.Installed() {
		t.Error("StateFlags 2 should not count as installed")
	}
}

func TestReadManifest_NoAppState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appmanifest_1.acf")
	writeFile(t, path, `"Wrong"
{
	"appid"		"1"
}
`)
	if _, err := ReadManifest(path); err == nil {
		t.Fatal("expected error for manifest without AppState")
	}
}

func TestManifestPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "appmanifest_440.acf"), tf2Manifest)
	writeFile(t, filepath.Join(dir, "appmanifest_220.acf"), tf2Manifest)
	writeFile(t, filepath.Join(dir, "libraryfolders.vdf"), `"libraryfolders" {}`)
	writeFile(t, filepath.Join(dir, "appmanifest_bad.acf"), "")

	paths, err := ManifestPaths(dir)
	if err != nil {
		t.Fatalf("ManifestPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 manifests, got %v", paths)
	}
	if filepath.Base(paths[0]) != "appmanifest_220.acf" {
		t.Fatalf("expected sorted order, got %v", paths)
	}
}
