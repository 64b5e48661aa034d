package flavor

import (
	"fmt"
	"strings"

	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/types"
)

// RedHatScriptsDir holds one ifcfg file per NIC.
const RedHatScriptsDir = "/etc/sysconfig/network-scripts"

// RedHat writes an ifcfg-<nic> file of KEY=value pairs per NIC.
type RedHat struct{}

func (RedHat) Name() string         { return "redhat" }
func (RedHat) NeedsBootstrap() bool { return true }

func (RedHat) RenderNetworkConfig(vm *types.VM) (cloudinit.Map, error) {
	if err := checkNICs(vm); err != nil {
		return nil, err
	}

	files := make(cloudinit.List, 0, len(vm.Networks)+1)
	for _, nic := range vm.Networks {
		kv := [][2]string{
			{"DEVICE", nic.Name},
			{"HWADDR", nic.MAC},
			{"ONBOOT", "yes"},
			{"TYPE", "Ethernet"},
		}
		if nic.AutoIP {
			kv = append(kv, [2]string{"BOOTPROTO", "dhcp"})
		} else {
			kv = append(kv,
				[2]string{"BOOTPROTO", "none"},
				[2]string{"IPADDR", nic.Static.IP},
				[2]string{"NETMASK", nic.Static.Mask},
				[2]string{"PREFIX", fmt.Sprint(nic.Static.Prefix)},
			)
			if nic.Static.Gateway != "" {
				kv = append(kv, [2]string{"GATEWAY", nic.Static.Gateway}, [2]string{"DEFROUTE", "yes"})
			}
			if nic.Static.DNS != "" {
				kv = append(kv, [2]string{"DNS1", nic.Static.DNS})
			}
		}

		var b strings.Builder
		for _, p := range kv {
			fmt.Fprintf(&b, "%s=%s\n", p[0], p[1])
		}
		files = append(files, cloudinit.WriteFile(RedHatScriptsDir+"/ifcfg-"+nic.Name, b.String(), "0644"))
	}
	return finish(files), nil
}
