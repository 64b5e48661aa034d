package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/h3ow3d/vbm/internal/config"
	"github.com/h3ow3d/vbm/internal/topology"
)

func TestXDGDirs_SubPaths(t *testing.T) {
	dirs := config.XDGDirs{
		Config: "/tmp/cfg/vbm",
		Data:   "/tmp/data/vbm",
	}

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigFile", dirs.ConfigFile(), "/tmp/cfg/vbm/config.yaml"},
		{"TopologiesDir", dirs.TopologiesDir(), "/tmp/data/vbm/topologies"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestXDGDirs_XDGEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))

	dirs := config.DefaultXDGDirs()

	if dirs.Config != filepath.Join(tmp, "config", "vbm") {
		t.Errorf("Config = %q", dirs.Config)
	}
	if dirs.Data != filepath.Join(tmp, "data", "vbm") {
		t.Errorf("Data = %q", dirs.Data)
	}
}

func TestEnsureDirs_CreatesAll(t *testing.T) {
	tmp := t.TempDir()
	dirs := config.XDGDirs{
		Config: filepath.Join(tmp, "config", "vbm"),
		Data:   filepath.Join(tmp, "data", "vbm"),
	}
	if err := dirs.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{dirs.Config, dirs.TopologiesDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if info.Mode().Perm() != 0o700 {
			t.Errorf("%s mode = %o, want 700", dir, info.Mode().Perm())
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsMissingFile(t *testing.T) {
	d, err := config.LoadDefaults(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if *d != (config.Defaults{}) {
		t.Errorf("defaults = %+v, want zero", *d)
	}
}

func TestLoadDefaultsEmptyFile(t *testing.T) {
	if _, err := config.LoadDefaults(writeConfig(t, "")); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
}

func TestLoadDefaultsApply(t *testing.T) {
	d, err := config.LoadDefaults(writeConfig(t, `
flavor: ubuntu
user: ops
nicModel: e1000
namePrefix: lab
logLevel: debug
`))
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if d.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", d.LogLevel)
	}

	req := &topology.Request{Flavor: "redhat"}
	d.Apply(req)
	if req.Flavor != "redhat" {
		t.Errorf("explicit flavor overwritten: %q", req.Flavor)
	}
	if req.User != "ops" || req.NICModel != "e1000" || req.NamePrefix != "lab" {
		t.Errorf("defaults not applied: %+v", req)
	}
}

func TestLoadDefaultsUnknownField(t *testing.T) {
	_, err := config.LoadDefaults(writeConfig(t, "flavour: debian\n"))
	if err == nil || !strings.Contains(err.Error(), "flavour") {
		t.Fatalf("err = %v, want unknown field error", err)
	}
}
