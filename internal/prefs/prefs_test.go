package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := Load("")
	if p != Default() {
		t.Fatalf("Load = %#v, want %#v", p, Default())
	}
	if p.IgnoreMinutes != 60 {
		t.Fatalf("IgnoreMinutes = %d, want 60", p.IgnoreMinutes)
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "ouiwatch")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	content := "theme = \"Slate\"\ndefault_list = \" home \"\nignore_minutes = 15\n"
	if err := os.WriteFile(prefsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load("")
	if p.Theme != "Slate" || p.DefaultList != "home" || p.IgnoreMinutes != 15 {
		t.Fatalf("Load = %#v, want Slate/home/15", p)
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	want := Prefs{Theme: "Slate", DefaultList: "office", IgnoreMinutes: 5}
	if err := Save(prefsFile, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if got := Load(prefsFile); got != want {
		t.Fatalf("Load = %#v, want %#v", got, want)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	cases := map[string]string{
		"empty theme":     "theme = \"\"\n",
		"invalid toml":    "not valid toml {{{\n",
		"zero ignore":     "ignore_minutes = 0\n",
		"negative ignore": "ignore_minutes = -3\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			p := Load(prefsFile)
			if p.Theme != defaultTheme || p.IgnoreMinutes != defaultIgnoreMinutes {
				t.Fatalf("Load = %#v, want defaults", p)
			}
		})
	}
}
