// vbm – virtual bare-metal cluster topology generator
//
// Usage:
//
//	vbm generate [flags]            – print a cluster topology (JSON or YAML)
//	vbm generate -f cluster.yaml    – generate from a Cluster manifest
//	vbm cloud-config --node N       – print one node's cloud-config payload
//	vbm flavors                     – list the supported OS flavors
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/config"
	"github.com/h3ow3d/vbm/internal/flavor"
	"github.com/h3ow3d/vbm/internal/keys"
	"github.com/h3ow3d/vbm/internal/log"
	"github.com/h3ow3d/vbm/internal/manifest"
	"github.com/h3ow3d/vbm/internal/topology"
	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// defaultApplication names the application when neither a flag nor a
// manifest does.
const defaultApplication = "cluster"

type globalOptions struct {
	configFile string
	logLevel   string
	logJSON    bool
	defaults   *config.Defaults
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err.Error())
		if errors.Is(err, util.ErrInternal) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "vbm",
		Short: "Virtual bare-metal cluster topology generator",
		Long: `vbm – describe a cluster of virtual bare-metal nodes in a few flags and get
back a complete topology: VM hardware, drives, deterministic MAC and IP
addressing, exposed services and a cloud-config payload per node.

Generation is pure: the same flags always produce the same topology.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return g.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", config.DefaultXDGDirs().ConfigFile(), "defaults file")
	pf.StringVar(&g.logLevel, "log-level", "", "diagnostic log level (default \"warn\")")
	pf.BoolVar(&g.logJSON, "log-json", false, "emit diagnostics as JSON")

	root.AddCommand(generateCmd(g), cloudConfigCmd(g), flavorsCmd())
	return root
}

func (g *globalOptions) setup() error {
	d, err := config.LoadDefaults(g.configFile)
	if err != nil {
		return err
	}
	g.defaults = d

	level := g.logLevel
	if level == "" {
		level = d.LogLevel
	}
	if level == "" {
		level = log.DefaultLevel
	}
	if err := log.SetLevel(level); err != nil {
		return util.NewValidationError("log-level", level, err.Error())
	}
	if g.logJSON {
		log.SetJSONFormat()
	}
	log.WithField("config", g.configFile).Debug("defaults loaded")
	return nil
}

// ── generation flags ─────────────────────────────────────────────────────────

type requestFlags struct {
	manifest string

	count    int
	cpus     string
	memory   string
	disk     string
	inbound  string
	networks []string
	services []string

	flavor         string
	user           string
	cdrom          bool
	svm            bool
	diskController string
	nicModel       string
	baseMAC        string
	namePrefix     string

	imageID     string
	imageName   string
	keyFile     string
	keyName     string
	application string
	existing    []string
	cloudConfig string

	cloud        string
	region       string
	optimization string
	startAll     bool
}

func addRequestFlags(fs *pflag.FlagSet, f *requestFlags) {
	fs.StringVarP(&f.manifest, "file", "f", "", "Cluster manifest (flags override its fields)")

	fs.IntVarP(&f.count, "count", "n", 1, "number of nodes (1-100)")
	fs.StringVar(&f.cpus, "cpus", topology.DefaultCPUs, "CPUs per node, e.g. 4 or 4,2")
	fs.StringVar(&f.memory, "memory", topology.DefaultMemory, "memory per node, e.g. 4G or 8G,4G (default unit G)")
	fs.StringVar(&f.disk, "disk", topology.DefaultDisk, "disk per node, e.g. 100G,50G (default unit G)")
	fs.StringVar(&f.inbound, "inbound", string(types.InboundPortMapping), "inbound access per node: portmapping or publicip")
	fs.StringSliceVar(&f.networks, "network", nil, "one entry per interface: dhcp or a CIDR such as 10.0.0.0/24 (default dhcp)")
	fs.StringSliceVar(&f.services, "service", nil, "name:port[-port][/tcp][:internal] (default "+topology.DefaultService+")")

	fs.StringVar(&f.flavor, "flavor", "", "OS flavor for cloud-config (see `vbm flavors`)")
	fs.StringVar(&f.user, "user", "", "default user name (default "+cloudinit.DefaultUserName+")")
	fs.BoolVar(&f.cdrom, "cdrom", false, "boot from a CD-ROM with the image, keeping an empty disk")
	fs.BoolVar(&f.svm, "svm", false, "expose nested virtualization to the guest")
	fs.StringVar(&f.diskController, "disk-controller", "", "virtio or ide (default virtio)")
	fs.StringVar(&f.nicModel, "nic-model", "", "virtio, e1000 or rtl8139 (default virtio)")
	fs.StringVar(&f.baseMAC, "base-mac", "", "base MAC address (default 2c:c2:60:00:00:00)")
	fs.StringVar(&f.namePrefix, "name-prefix", "", "node name prefix (default node)")

	fs.StringVar(&f.imageID, "image-id", "", "resolved base image ID")
	fs.StringVar(&f.imageName, "image-name", "", "base image name")
	fs.StringVar(&f.keyFile, "key", "", "OpenSSH public key to inject")
	fs.StringVar(&f.keyName, "key-name", "", "keypair name (default key comment)")
	fs.StringVar(&f.application, "app", "", "application name (default "+defaultApplication+")")
	fs.StringSliceVar(&f.existing, "existing-vm", nil, "VM names already present in the application")
	fs.StringVar(&f.cloudConfig, "cloud-config", "", "extra cloud-config YAML file merged into every payload")

	fs.StringVar(&f.cloud, "cloud", "", "target cloud for publishing")
	fs.StringVar(&f.region, "region", "", "target region for publishing")
	fs.StringVar(&f.optimization, "optimization", "", "publish optimization: cost or performance")
	fs.BoolVar(&f.startAll, "start", false, "start all VMs after publishing")
}

// request merges manifest, changed flags and defaults, in that precedence.
func (f *requestFlags) request(fs *pflag.FlagSet, d *config.Defaults) (*topology.Request, error) {
	req := &topology.Request{}
	if f.manifest != "" {
		m, err := manifest.Load(f.manifest)
		if err != nil {
			return nil, err
		}
		if req, err = manifest.ToRequest(m, filepath.Dir(f.manifest)); err != nil {
			return nil, err
		}
	}

	set := func(name string, apply func()) {
		if f.manifest == "" || fs.Changed(name) {
			apply()
		}
	}
	set("count", func() { req.Count = f.count })
	set("cpus", func() { req.CPUs = f.cpus })
	set("memory", func() { req.Memory = f.memory })
	set("disk", func() { req.Disk = f.disk })
	set("inbound", func() { req.Inbound = f.inbound })
	set("network", func() { req.Networks = f.networks })
	set("service", func() { req.Services = f.services })
	set("flavor", func() { req.Flavor = f.flavor })
	set("user", func() { req.User = f.user })
	set("cdrom", func() { req.CDROM = f.cdrom })
	set("svm", func() { req.SVM = f.svm })
	set("disk-controller", func() { req.DiskController = f.diskController })
	set("nic-model", func() { req.NICModel = f.nicModel })
	set("base-mac", func() { req.BaseMAC = f.baseMAC })
	set("name-prefix", func() { req.NamePrefix = f.namePrefix })
	set("app", func() { req.Application.Name = f.application })
	set("existing-vm", func() { req.Application.VMNames = f.existing })
	set("cloud", func() { req.Publish.Cloud = f.cloud })
	set("region", func() { req.Publish.Region = f.region })
	set("optimization", func() { req.Publish.Optimization = f.optimization })
	set("start", func() { req.Publish.StartAllVMs = f.startAll })

	if fs.Changed("image-id") {
		req.Image = &types.Image{ID: f.imageID, Name: f.imageName}
	}
	if f.keyFile != "" {
		kp, err := keys.Load(f.keyName, "", f.keyFile)
		if err != nil {
			return nil, err
		}
		req.Keypair = kp
	}
	if f.cloudConfig != "" {
		data, err := os.ReadFile(f.cloudConfig)
		if err != nil {
			return nil, fmt.Errorf("read cloud-config %s: %w", f.cloudConfig, err)
		}
		extra, err := cloudinit.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.cloudConfig, err)
		}
		req.ExtraConfig = extra
	}

	if d != nil {
		d.Apply(req)
	}
	if req.Application.Name == "" {
		req.Application.Name = defaultApplication
	}
	return req, nil
}

func assemble(fs *pflag.FlagSet, f *requestFlags, g *globalOptions) (*types.Topology, error) {
	req, err := f.request(fs, g.defaults)
	if err != nil {
		return nil, err
	}
	return topology.NewAssembler(flavor.DefaultRegistry()).Assemble(req)
}

// ── generate ─────────────────────────────────────────────────────────────────

func generateCmd(g *globalOptions) *cobra.Command {
	f := &requestFlags{}
	var output string
	var save bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a cluster topology",
		Long: `Generates the VM definitions for a cluster and prints them.

Per-node options take one value for every node or a comma-separated list
whose last value repeats, so --count 3 --disk 100G,50G gives 100G, 50G, 50G.

Precedence: flags > manifest (-f) > defaults file > built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, f, g, output, save)
		},
	}
	addRequestFlags(cmd.Flags(), f)
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&save, "save", false, "also save the topology under the data directory")
	return cmd
}

func runGenerate(cmd *cobra.Command, f *requestFlags, g *globalOptions, output string, save bool) error {
	output = strings.ToLower(output)
	if output != "json" && output != "yaml" {
		return util.NewValidationError("output", output, "must be json or yaml")
	}

	topo, err := assemble(cmd.Flags(), f, g)
	if err != nil {
		return err
	}
	data, err := encode(topo, output)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}

	if save {
		dirs := config.DefaultXDGDirs()
		if err := dirs.EnsureDirs(); err != nil {
			return err
		}
		path := filepath.Join(dirs.TopologiesDir(), topo.Application.Name+"."+output)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("save topology: %w", err)
		}
		log.Ok(fmt.Sprintf("Topology saved to %s", path))
	}
	return nil
}

func encode(topo *types.Topology, format string) ([]byte, error) {
	if format == "yaml" {
		return yaml.Marshal(topo)
	}
	data, err := json.MarshalIndent(topo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode topology: %w", err)
	}
	return append(data, '\n'), nil
}

// ── cloud-config ─────────────────────────────────────────────────────────────

func cloudConfigCmd(g *globalOptions) *cobra.Command {
	f := &requestFlags{}
	var node int

	cmd := &cobra.Command{
		Use:   "cloud-config",
		Short: "Print the cloud-config payload of one node",
		Long: `Generates the topology exactly as "vbm generate" would and prints the
cloud-config payload of the node at the zero-based index --node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCloudConfig(cmd.OutOrStdout(), cmd.Flags(), f, g, node)
		},
	}
	addRequestFlags(cmd.Flags(), f)
	cmd.Flags().IntVar(&node, "node", 0, "zero-based node index")
	return cmd
}

func runCloudConfig(w io.Writer, fs *pflag.FlagSet, f *requestFlags, g *globalOptions, node int) error {
	topo, err := assemble(fs, f, g)
	if err != nil {
		return err
	}
	if node < 0 || node >= len(topo.VMs) {
		return util.NewValidationError("node", fmt.Sprint(node),
			fmt.Sprintf("must be between 0 and %d", len(topo.VMs)-1))
	}
	vm := topo.VMs[node]
	if vm.UserData == "" {
		log.Skip(fmt.Sprintf("%s has no cloud-config payload (needs a flavor plus static network, user, key or extra config)", vm.Name))
		return nil
	}
	_, err = io.WriteString(w, vm.UserData)
	return err
}

// ── flavors ──────────────────────────────────────────────────────────────────

func flavorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flavors",
		Short: "List supported OS flavors and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := flavor.DefaultRegistry()
			w := cmd.OutOrStdout()
			for _, name := range reg.Canonical() {
				line := name
				if aliases := reg.AliasesOf(name); len(aliases) > 0 {
					line += "  (" + strings.Join(aliases, ", ") + ")"
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
