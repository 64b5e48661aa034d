// Package topology assembles a complete cluster topology from a generation
// request.
package topology

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/h3ow3d/vbm/internal/addr"
	"github.com/h3ow3d/vbm/internal/builder"
	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/expand"
	"github.com/h3ow3d/vbm/internal/flavor"
	"github.com/h3ow3d/vbm/internal/log"
	"github.com/h3ow3d/vbm/internal/naming"
	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

// Limits and defaults for a request.
const (
	MinNodes = 1
	MaxNodes = 100
	MinCPUs  = 1
	MaxCPUs  = 4

	MinMemoryMB = 1024
	MinDiskMB   = 2000
	SizeUnit    = "G"

	DefaultCPUs   = "1"
	DefaultMemory = "2G"
	DefaultDisk   = "20G"

	// NoFlavor disables the bootstrap payload explicitly.
	NoFlavor = "none"
)

var (
	diskControllers = []string{"virtio", "ide"}
	nicModels       = []string{"virtio", "e1000", "rtl8139"}
	optimizations   = []string{"cost", "performance"}
)

// Request is everything one generation run needs. Per-node fields take the
// compact comma-separated form; images and keypairs arrive already resolved.
type Request struct {
	Count   int
	CPUs    string
	Memory  string
	Disk    string
	Inbound string

	// Networks has one entry per interface: "dhcp" or a CIDR.
	Networks []string
	Services []string

	Flavor         string
	User           string
	CDROM          bool
	SVM            bool
	DiskController string
	NICModel       string
	BaseMAC        string
	NamePrefix     string

	Image       *types.Image
	Keypair     *types.Keypair
	Application types.Application
	Publish     types.PublishOptions
	ExtraConfig cloudinit.Map
}

// Assembler turns requests into topologies. It holds no per-request state.
type Assembler struct {
	flavors *flavor.Registry
	log     logrus.FieldLogger
}

// NewAssembler returns an assembler resolving flavors through reg.
func NewAssembler(reg *flavor.Registry) *Assembler {
	return &Assembler{flavors: reg, log: log.Logger}
}

// WithLogger replaces the diagnostic logger.
func (a *Assembler) WithLogger(l logrus.FieldLogger) *Assembler {
	a.log = l
	return a
}

// Plan is a validated request: per-node specs, names and shared options.
// Building VMs from a plan cannot fail on user input.
type Plan struct {
	Nodes   []types.NodeSpec
	Names   []string
	Options *builder.Options
	App     types.Application
	Publish types.PublishOptions
}

// Assemble validates req and builds every VM in node order. No partial
// topology is returned on error.
func (a *Assembler) Assemble(req *Request) (*types.Topology, error) {
	plan, err := a.Plan(req)
	if err != nil {
		return nil, err
	}

	topo := &types.Topology{
		Application: plan.App,
		Publish:     plan.Publish,
		VMs:         make([]*types.VM, 0, len(plan.Nodes)),
	}
	for n, spec := range plan.Nodes {
		vm, err := builder.Build(spec, n, plan.Names[n], plan.Options)
		if err != nil {
			return nil, err
		}
		a.log.WithFields(logrus.Fields{
			"vm":       vm.Name,
			"index":    n,
			"cpus":     vm.Hardware.CPUs,
			"memoryMB": vm.Hardware.MemoryMB,
		}).Debug("built vm")
		topo.VMs = append(topo.VMs, vm)
	}
	return topo, nil
}

// Plan performs every validation and dependency check of Assemble without
// building any VM.
func (a *Assembler) Plan(req *Request) (*Plan, error) {
	if req == nil {
		return nil, util.Internalf("nil request")
	}
	n := req.Count
	if n < MinNodes || n > MaxNodes {
		return nil, util.NewValidationError("count", fmt.Sprint(n),
			fmt.Sprintf("must be between %d and %d", MinNodes, MaxNodes))
	}

	nodes, err := expandNodes(req, n)
	if err != nil {
		return nil, err
	}

	opts := &builder.Options{
		Application: req.Application.Name,
		User:        strings.TrimSpace(req.User),
		CDROM:       req.CDROM,
		SVM:         req.SVM,
		Image:       req.Image,
		Keypair:     req.Keypair,
		ExtraConfig: req.ExtraConfig,
	}

	if opts.Networks, err = parseNetworks(req.Networks); err != nil {
		return nil, err
	}
	if opts.Services, err = parseServices(req.Services); err != nil {
		return nil, err
	}
	if opts.DiskController, err = choice("disk-controller", req.DiskController, diskControllers); err != nil {
		return nil, err
	}
	if opts.NICModel, err = choice("nic-model", req.NICModel, nicModels); err != nil {
		return nil, err
	}

	base := addr.DefaultBaseMAC
	if req.BaseMAC != "" {
		if base, err = addr.ParseMAC(req.BaseMAC); err != nil {
			return nil, util.NewValidationError("base-mac", req.BaseMAC, err.Error())
		}
	}
	opts.Allocator = addr.NewAllocator(base)

	publish := req.Publish
	if publish.Optimization != "" {
		if publish.Optimization, err = choice("optimization", publish.Optimization, optimizations); err != nil {
			return nil, err
		}
	}

	if opts.Flavor, err = a.resolveFlavor(req.Flavor); err != nil {
		return nil, err
	}
	if err := checkDependencies(opts); err != nil {
		return nil, err
	}
	if err := checkCapacity(opts, n); err != nil {
		return nil, err
	}
	if _, err := opts.Allocator.MACFor(n-1, len(opts.Networks)-1); err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"count":    n,
		"networks": len(opts.Networks),
		"flavor":   req.Flavor,
		"payload":  opts.NeedsPayload(),
	}).Debug("request validated")

	return &Plan{
		Nodes:   nodes,
		Names:   naming.Allocate(req.NamePrefix, n, req.Application.VMNames),
		Options: opts,
		App:     req.Application,
		Publish: publish,
	}, nil
}

func expandNodes(req *Request, n int) ([]types.NodeSpec, error) {
	cpus, err := expand.Ints("cpus", or(req.CPUs, DefaultCPUs), n, MinCPUs, MaxCPUs)
	if err != nil {
		return nil, err
	}
	memory, err := expand.Sizes("memory", or(req.Memory, DefaultMemory), n, SizeUnit, MinMemoryMB<<20)
	if err != nil {
		return nil, err
	}
	disk, err := expand.Sizes("disk", or(req.Disk, DefaultDisk), n, SizeUnit, MinDiskMB<<20)
	if err != nil {
		return nil, err
	}
	inbound, err := expand.Choices("inbound", or(req.Inbound, string(types.InboundPortMapping)), n,
		string(types.InboundPortMapping), string(types.InboundPublicIP))
	if err != nil {
		return nil, err
	}

	nodes := make([]types.NodeSpec, n)
	for i := range nodes {
		nodes[i] = types.NodeSpec{
			CPUs:    cpus[i],
			Memory:  memory[i],
			Disk:    disk[i],
			Inbound: types.InboundAccess(inbound[i]),
		}
	}
	return nodes, nil
}

func parseNetworks(raw []string) ([]addr.Network, error) {
	if len(raw) == 0 {
		raw = []string{addr.Dynamic}
	}
	if len(raw) > builder.MaxInterfaces {
		return nil, util.NewValidationError("network", strings.Join(raw, ","),
			fmt.Sprintf("at most %d interfaces per VM", builder.MaxInterfaces))
	}
	out := make([]addr.Network, len(raw))
	for i, s := range raw {
		nw, err := addr.ParseNetwork(s)
		if err != nil {
			verr := util.NewValidationError("network", s, err.Error())
			verr.Position = i + 1
			return nil, verr
		}
		out[i] = nw
	}
	return out, nil
}

func parseServices(raw []string) ([]types.Service, error) {
	if len(raw) == 0 {
		raw = []string{DefaultService}
	}
	out := make([]types.Service, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, s := range raw {
		svc, err := ParseService(s)
		if err != nil {
			if verr, ok := err.(*util.ValidationError); ok {
				verr.Position = i + 1
			}
			return nil, err
		}
		if seen[svc.Name] {
			verr := util.NewValidationError("service", s, "duplicate service name")
			verr.Position = i + 1
			return nil, verr
		}
		seen[svc.Name] = true
		out = append(out, svc)
	}
	return out, nil
}

func (a *Assembler) resolveFlavor(name string) (flavor.Strategy, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, NoFlavor) {
		return nil, nil
	}
	if a.flavors == nil {
		return nil, util.Internalf("assembler has no flavor registry")
	}
	return a.flavors.Lookup(name)
}

// checkDependencies rejects options that only a flavor can apply.
func checkDependencies(opts *builder.Options) error {
	if opts.Flavor != nil && opts.Flavor.NeedsBootstrap() {
		return nil
	}
	switch {
	case opts.Keypair != nil:
		return util.NewDependencyError("keypair", "a flavor")
	case opts.User != "" && opts.User != cloudinit.DefaultUserName:
		return util.NewDependencyError("user", "a flavor")
	case opts.HasStaticNetwork():
		return util.NewDependencyError("static network", "a flavor")
	case len(opts.ExtraConfig) > 0:
		return util.NewDependencyError("cloud-config", "a flavor")
	}
	return nil
}

// checkCapacity fails before any VM is built when a static network cannot
// address every node.
func checkCapacity(opts *builder.Options, count int) error {
	for i, nw := range opts.Networks {
		if nw.Static && count > nw.Capacity() {
			return &util.AddressError{
				Node:      nw.Capacity(),
				Interface: i,
				Reason:    fmt.Sprintf("network %s has room for %d nodes, %d requested", nw, nw.Capacity(), count),
			}
		}
	}
	return nil
}

func choice(param, value string, allowed []string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return allowed[0], nil
	}
	vals, err := expand.Choices(param, value, 1, allowed...)
	if err != nil {
		return "", err
	}
	return vals[0], nil
}

func or(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
