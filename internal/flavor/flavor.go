// Package flavor renders per-OS-family network configuration into
// cloud-config fragments.
package flavor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

// Strategy is one OS family.
type Strategy interface {
	// Name is the canonical registry key.
	Name() string
	// NeedsBootstrap reports whether the family consumes a cloud-config payload.
	NeedsBootstrap() bool
	// RenderNetworkConfig returns the fragment that configures every NIC of
	// vm and reboots once to apply it. vm must already have its addresses.
	RenderNetworkConfig(vm *types.VM) (cloudinit.Map, error)
}

// Registry resolves flavor names to strategies.
type Registry struct {
	byName  map[string]Strategy
	aliases map[string]string
}

// NewRegistry builds a registry from strategies. Names must be unique.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{byName: make(map[string]Strategy), aliases: make(map[string]string)}
	for _, s := range strategies {
		name := strings.ToLower(s.Name())
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("flavor %q registered twice", name)
		}
		r.byName[name] = s
	}
	return r, nil
}

// Alias makes alias resolve to the strategy registered as name.
func (r *Registry) Alias(alias, name string) error {
	alias, name = strings.ToLower(alias), strings.ToLower(name)
	if _, ok := r.byName[name]; !ok {
		return fmt.Errorf("alias %q: flavor %q not registered", alias, name)
	}
	if _, taken := r.byName[alias]; taken {
		return fmt.Errorf("alias %q shadows a registered flavor", alias)
	}
	r.aliases[alias] = name
	return nil
}

// Lookup returns the strategy for name or an alias of it.
func (r *Registry) Lookup(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	if s, ok := r.byName[key]; ok {
		return s, nil
	}
	return nil, util.NewValidationError("flavor", name,
		fmt.Sprintf("unknown flavor (known: %s)", strings.Join(r.Names(), ", ")))
}

// Names returns registered names and aliases, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName)+len(r.aliases))
	for n := range r.byName {
		names = append(names, n)
	}
	for a := range r.aliases {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// AliasesOf returns the sorted aliases that resolve to name.
func (r *Registry) AliasesOf(name string) []string {
	var out []string
	for a, n := range r.aliases {
		if n == name {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical returns the registered strategy names, sorted.
func (r *Registry) Canonical() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in Debian and Red Hat families.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Debian{}, RedHat{})
	if err != nil {
		panic(err)
	}
	for alias, name := range map[string]string{
		"ubuntu": "debian",
		"centos": "redhat",
		"rhel":   "redhat",
		"fedora": "redhat",
	} {
		if err := r.Alias(alias, name); err != nil {
			panic(err)
		}
	}
	return r
}

// finish appends the shared tail of every network fragment: the drop-in that
// stops cloud-init rewriting the files, and the reboot.
func finish(files cloudinit.List) cloudinit.Map {
	files = append(files, cloudinit.DisableNetworkConfig())
	m := cloudinit.Map{"write_files": files}
	for k, v := range cloudinit.RebootInOneMinute() {
		m[k] = v
	}
	return m
}

func checkNICs(vm *types.VM) error {
	if len(vm.Networks) == 0 {
		return util.Internalf("vm %s has no network connections", vm.Name)
	}
	for _, nic := range vm.Networks {
		if !nic.AutoIP && nic.Static == nil {
			return util.Internalf("vm %s interface %d has no address assignment", vm.Name, nic.Index)
		}
	}
	return nil
}
