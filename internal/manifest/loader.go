// Package manifest provides loading and validation for vbm v1alpha1 cluster
// manifests.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/vbm/internal/addr"
	"github.com/h3ow3d/vbm/internal/builder"
	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/keys"
	"github.com/h3ow3d/vbm/internal/topology"
	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

const (
	supportedAPIVersion = "vbm.io/v1alpha1"
	supportedKind       = "Cluster"
)

// Load reads a manifest file from path, parses it, and validates it.
func Load(path string) (*types.ClusterManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %q: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses and validates a manifest from raw YAML bytes.
// The source parameter is used only for error messages.
func LoadBytes(data []byte, source string) (*types.ClusterManifest, error) {
	var m types.ClusterManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest %q: YAML parse error: %w", source, err)
	}
	if err := Validate(&m, source); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports every structural problem of m in one error. Per-node
// values are checked again, with positions, when the request is assembled.
func Validate(m *types.ClusterManifest, source string) error {
	v := &util.ValidationBuilder{}

	if m.APIVersion == "" {
		v.AddErrorf("missing required field: apiVersion (expected %q)", supportedAPIVersion)
	} else if m.APIVersion != supportedAPIVersion {
		v.AddErrorf("unsupported apiVersion %q: only %q is supported", m.APIVersion, supportedAPIVersion)
	}

	if m.Kind == "" {
		v.AddErrorf("missing required field: kind (expected %q)", supportedKind)
	} else if m.Kind != supportedKind {
		v.AddErrorf("unsupported kind %q: only %q is supported", m.Kind, supportedKind)
	}

	v.Add(strings.TrimSpace(m.Metadata.Name) != "", "missing required field: metadata.name")

	s := &m.Spec
	v.Add(s.Count >= topology.MinNodes && s.Count <= topology.MaxNodes,
		fmt.Sprintf("spec.count: must be between %d and %d, got %d", topology.MinNodes, topology.MaxNodes, s.Count))

	if len(s.Networks) > builder.MaxInterfaces {
		v.AddErrorf("spec.networks: at most %d interfaces, got %d", builder.MaxInterfaces, len(s.Networks))
	}
	for i, n := range s.Networks {
		if _, err := addr.ParseNetwork(n); err != nil {
			v.AddErrorf("spec.networks[%d]: %v", i, err)
		}
	}
	for i, svc := range s.Services {
		if _, err := topology.ParseService(svc); err != nil {
			v.AddErrorf("spec.services[%d]: %v", i, err)
		}
	}
	if s.BaseMAC != "" {
		if _, err := addr.ParseMAC(s.BaseMAC); err != nil {
			v.AddErrorf("spec.baseMAC: %v", err)
		}
	}
	if s.Image != nil {
		v.Add(s.Image.ID != "", "spec.image.id is required")
	}
	if s.Keypair != nil {
		v.Add(s.Keypair.PublicKeyFile != "", "spec.keypair.publicKeyFile is required")
	}
	if s.CloudConfig != "" {
		if _, err := cloudinit.Parse([]byte(s.CloudConfig)); err != nil {
			v.AddErrorf("spec.cloudConfig: %v", err)
		}
	}

	return v.Build(fmt.Sprintf("manifest %q", source))
}

// ToRequest converts a validated manifest into a generation request. Relative
// key paths resolve against baseDir.
func ToRequest(m *types.ClusterManifest, baseDir string) (*topology.Request, error) {
	s := &m.Spec
	req := &topology.Request{
		Count:          s.Count,
		CPUs:           s.CPUs,
		Memory:         s.Memory,
		Disk:           s.Disk,
		Inbound:        s.Inbound,
		Networks:       s.Networks,
		Services:       s.Services,
		Flavor:         s.Flavor,
		User:           s.User,
		CDROM:          s.CDROM,
		SVM:            s.SVM,
		DiskController: s.DiskController,
		NICModel:       s.NICModel,
		BaseMAC:        s.BaseMAC,
		NamePrefix:     s.NamePrefix,
		Image:          s.Image,
		Application:    types.Application{Name: m.Metadata.Name, VMNames: s.ExistingVMs},
		Publish:        s.Publish,
	}

	if s.Keypair != nil {
		path := s.Keypair.PublicKeyFile
		if !filepath.IsAbs(path) && !strings.HasPrefix(path, "~/") {
			path = filepath.Join(baseDir, path)
		}
		kp, err := keys.Load(s.Keypair.Name, s.Keypair.ID, path)
		if err != nil {
			return nil, fmt.Errorf("spec.keypair: %w", err)
		}
		req.Keypair = kp
	}

	if s.CloudConfig != "" {
		extra, err := cloudinit.Parse([]byte(s.CloudConfig))
		if err != nil {
			return nil, fmt.Errorf("spec.cloudConfig: %w", err)
		}
		req.ExtraConfig = extra
	}
	return req, nil
}
