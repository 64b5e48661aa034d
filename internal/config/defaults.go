package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/vbm/internal/topology"
)

// Defaults are per-user fallbacks for generation options. Empty fields leave
// the built-in default in place.
type Defaults struct {
	Flavor         string `yaml:"flavor"`
	User           string `yaml:"user"`
	BaseMAC        string `yaml:"baseMAC"`
	DiskController string `yaml:"diskController"`
	NICModel       string `yaml:"nicModel"`
	NamePrefix     string `yaml:"namePrefix"`
	LogLevel       string `yaml:"logLevel"`
}

// LoadDefaults reads the defaults file at path. A missing file yields empty
// defaults.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Defaults{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var d Defaults
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &d, nil
}

// Apply fills the empty fields of req from d.
func (d *Defaults) Apply(req *topology.Request) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&req.Flavor, d.Flavor)
	fill(&req.User, d.User)
	fill(&req.BaseMAC, d.BaseMAC)
	fill(&req.DiskController, d.DiskController)
	fill(&req.NICModel, d.NICModel)
	fill(&req.NamePrefix, d.NamePrefix)
}
