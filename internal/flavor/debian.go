package flavor

import (
	"fmt"
	"strings"

	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/types"
)

// DebianInterfacesPath is the single shared ifupdown file.
const DebianInterfacesPath = "/etc/network/interfaces"

// Debian writes one /etc/network/interfaces with a stanza per NIC.
type Debian struct{}

func (Debian) Name() string         { return "debian" }
func (Debian) NeedsBootstrap() bool { return true }

func (Debian) RenderNetworkConfig(vm *types.VM) (cloudinit.Map, error) {
	if err := checkNICs(vm); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("auto lo\niface lo inet loopback\n")
	for _, nic := range vm.Networks {
		fmt.Fprintf(&b, "\nauto %s\n", nic.Name)
		if nic.AutoIP {
			fmt.Fprintf(&b, "iface %s inet dhcp\n", nic.Name)
			continue
		}
		fmt.Fprintf(&b, "iface %s inet static\n", nic.Name)
		fmt.Fprintf(&b, "    hwaddress ether %s\n", nic.MAC)
		fmt.Fprintf(&b, "    address %s\n", nic.Static.IP)
		fmt.Fprintf(&b, "    netmask %s\n", nic.Static.Mask)
		if nic.Static.Gateway != "" {
			fmt.Fprintf(&b, "    gateway %s\n", nic.Static.Gateway)
		}
		if nic.Static.DNS != "" {
			fmt.Fprintf(&b, "    dns-nameservers %s\n", nic.Static.DNS)
		}
	}

	return finish(cloudinit.List{
		cloudinit.WriteFile(DebianInterfacesPath, b.String(), "0644"),
	}), nil
}
