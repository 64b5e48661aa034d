// Package builder turns one resolved node description into a complete VM
// definition.
package builder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/h3ow3d/vbm/internal/addr"
	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/flavor"
	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

// Defaults for the device models.
const (
	DefaultDiskController = "virtio"
	DefaultNICModel       = "virtio"
	cdromController       = "ide"
)

// MaxInterfaces bounds the NICs of a VM.
const MaxInterfaces = 4

// Namespace seeds the name-based VM IDs.
var Namespace = uuid.MustParse("6f1c7c3e-2d1b-5a4e-9c1f-76626d2e696f")

// svmCPUIDs is the descriptor table that exposes AMD-V to the guest. Index is
// the CPUID leaf, Value is EAX EBX ECX EDX.
var svmCPUIDs = []types.CPUID{
	{Index: "00000000", Value: "0000000d68747541444d416369746e65"},
	{Index: "00000001", Value: "00000f1100000800000000000783fbff"},
	{Index: "80000000", Value: "8000000a68747541444d416369746e65"},
	{Index: "80000001", Value: "00000f1100000000000000052191cbff"},
	{Index: "8000000a", Value: "00000001000000400000000000000000"},
}

// SVMCPUIDs returns a copy of the nested-virtualization descriptor table.
func SVMCPUIDs() []types.CPUID {
	return append([]types.CPUID(nil), svmCPUIDs...)
}

// Options are shared by every node of one generation run and never mutated.
type Options struct {
	Application    string
	Networks       []addr.Network
	Services       []types.Service
	DiskController string
	NICModel       string
	Image          *types.Image
	Keypair        *types.Keypair
	CDROM          bool
	SVM            bool
	User           string

	// Flavor is nil when no OS family was selected.
	Flavor      flavor.Strategy
	Allocator   *addr.Allocator
	ExtraConfig cloudinit.Map
}

// HasStaticNetwork reports whether any interface is statically addressed.
func (o *Options) HasStaticNetwork() bool {
	for _, n := range o.Networks {
		if n.Static {
			return true
		}
	}
	return false
}

// NeedsPayload reports whether VMs built with o carry a cloud-config payload.
func (o *Options) NeedsPayload() bool {
	if o.Flavor == nil || !o.Flavor.NeedsBootstrap() {
		return false
	}
	return o.HasStaticNetwork() ||
		(o.User != "" && o.User != cloudinit.DefaultUserName) ||
		o.Keypair != nil ||
		len(o.ExtraConfig) > 0
}

// Build produces the VM for node index n, named name.
func Build(node types.NodeSpec, n int, name string, opts *Options) (*types.VM, error) {
	if opts == nil || opts.Allocator == nil {
		return nil, util.Internalf("builder options need an address allocator")
	}
	if len(opts.Networks) == 0 {
		return nil, util.Internalf("node %d: no networks", n)
	}
	if len(opts.Networks) > MaxInterfaces {
		return nil, util.Internalf("node %d: %d networks exceeds %d", n, len(opts.Networks), MaxInterfaces)
	}

	vm := &types.VM{
		ID:        VMID(opts.Application, name),
		Name:      name,
		Hostnames: []string{name},
		Hardware: types.Hardware{
			CPUs:     node.CPUs,
			MemoryMB: ToMB(node.Memory),
		},
	}
	if opts.SVM {
		vm.Hardware.CPUIDs = SVMCPUIDs()
	}

	vm.Drives, vm.BootOrder = drives(node, opts)

	vm.Services = make([]types.Service, len(opts.Services))
	copy(vm.Services, opts.Services)

	if err := connect(vm, node, n, opts); err != nil {
		return nil, err
	}

	if opts.Keypair != nil {
		vm.KeypairID = opts.Keypair.ID
	}

	if opts.NeedsPayload() {
		payload, err := Payload(vm, opts)
		if err != nil {
			return nil, fmt.Errorf("vm %s: %w", name, err)
		}
		vm.UserData = payload
	}
	return vm, nil
}

// ToMB converts bytes to whole mebibytes.
func ToMB(b int64) int64 { return b >> 20 }

// VMID is the name-based UUID of a VM within an application.
func VMID(application, name string) string {
	return uuid.NewSHA1(Namespace, []byte(application+"/"+name)).String()
}

func drives(node types.NodeSpec, opts *Options) ([]types.Drive, []types.DriveType) {
	controller := opts.DiskController
	if controller == "" {
		controller = DefaultDiskController
	}
	disk := types.Drive{
		Index:      0,
		Name:       "disk0",
		Type:       types.DriveDisk,
		Controller: controller,
		SizeMB:     ToMB(node.Disk),
		Boot:       true,
	}

	list := []types.Drive{disk}
	var order []types.DriveType
	if opts.CDROM {
		list[0].Boot = false
		list = append(list, types.Drive{
			Index:      1,
			Name:       "cdrom0",
			Type:       types.DriveCDROM,
			Controller: cdromController,
			Boot:       true,
		})
		order = []types.DriveType{types.DriveCDROM, types.DriveDisk}
	}
	if opts.Image != nil {
		list[len(list)-1].BaseImageID = opts.Image.ID
	}
	return list, order
}

func connect(vm *types.VM, node types.NodeSpec, n int, opts *Options) error {
	model := opts.NICModel
	if model == "" {
		model = DefaultNICModel
	}

	for i, network := range opts.Networks {
		mac, err := opts.Allocator.MACFor(n, i)
		if err != nil {
			return err
		}
		nic := types.NetworkConnection{
			Index:    i,
			Name:     fmt.Sprintf("eth%d", i),
			MAC:      mac.String(),
			Device:   model,
			PublicIP: i == 0 && node.Inbound == types.InboundPublicIP,
		}

		if !network.Static {
			nic.AutoIP = true
			vm.Networks = append(vm.Networks, nic)
			continue
		}

		ip, err := network.IPFor(n)
		if err != nil {
			var aerr *util.AddressError
			if errors.As(err, &aerr) {
				aerr.Interface = i
			}
			return err
		}
		nic.Static = &types.StaticIP{
			IP:     ip.String(),
			Mask:   network.Mask().String(),
			Prefix: network.Prefix,
		}
		if i == 0 {
			nic.Static.Gateway = network.Gateway().String()
			nic.Static.DNS = network.Gateway().String()
			for s := range vm.Services {
				vm.Services[s].IP = nic.Static.IP
			}
		}
		vm.Networks = append(vm.Networks, nic)
	}
	return nil
}

// Payload renders the cloud-config for vm: the default-user fragment, the
// flavor's network fragment, then the extra fragment, merged in that order.
func Payload(vm *types.VM, opts *Options) (string, error) {
	if opts.Flavor == nil {
		return "", util.Internalf("payload requested without a flavor")
	}

	var keys []string
	if opts.Keypair != nil && opts.Keypair.PublicKey != "" {
		keys = []string{opts.Keypair.PublicKey}
	}
	tree := cloudinit.DefaultUser(vm.Name, opts.User, keys)

	network, err := opts.Flavor.RenderNetworkConfig(vm)
	if err != nil {
		return "", err
	}
	if err := cloudinit.Merge(tree, network); err != nil {
		return "", err
	}
	if len(opts.ExtraConfig) > 0 {
		if err := cloudinit.Merge(tree, opts.ExtraConfig); err != nil {
			return "", err
		}
	}
	return cloudinit.Marshal(tree)
}
