// Package types defines the topology data model and the v1alpha1 cluster
// manifest.
package types

// InboundAccess selects how a node is reached from outside the topology.
type InboundAccess string

const (
	InboundPortMapping InboundAccess = "portmapping"
	InboundPublicIP    InboundAccess = "publicip"
)

// NodeSpec holds the resolved per-node parameters.
type NodeSpec struct {
	CPUs    int
	Memory  int64 // bytes
	Disk    int64 // bytes
	Inbound InboundAccess
}

// DriveType is DISK or CDROM.
type DriveType string

const (
	DriveDisk  DriveType = "DISK"
	DriveCDROM DriveType = "CDROM"
)

// Topology is the complete generated cluster, ready for publishing.
type Topology struct {
	Application Application    `json:"application" yaml:"application"`
	Publish     PublishOptions `json:"publishOptions" yaml:"publishOptions"`
	VMs         []*VM          `json:"vms" yaml:"vms"`
}

// Application is the target application record. VMNames lists VMs that
// already exist in it.
type Application struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string   `json:"name" yaml:"name"`
	VMNames []string `json:"-" yaml:"-"`
}

// PublishOptions are passed through to the publishing collaborator.
type PublishOptions struct {
	Cloud        string `json:"cloud,omitempty" yaml:"cloud,omitempty"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Optimization string `json:"optimization,omitempty" yaml:"optimization,omitempty"`
	StartAllVMs  bool   `json:"startAllVms" yaml:"startAllVms"`
}

// Image is a resolved base image.
type Image struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Keypair is a resolved SSH keypair; only the public half is known.
type Keypair struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	PublicKey   string `json:"publicKey" yaml:"publicKey"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// VM is one complete virtual-machine definition.
type VM struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Hostnames   []string            `json:"hostnames" yaml:"hostnames"`
	Hardware    Hardware            `json:"hardware" yaml:"hardware"`
	Drives      []Drive             `json:"drives" yaml:"drives"`
	BootOrder   []DriveType         `json:"bootOrder,omitempty" yaml:"bootOrder,omitempty"`
	Networks    []NetworkConnection `json:"networkConnections" yaml:"networkConnections"`
	Services    []Service           `json:"services" yaml:"services"`
	KeypairID   string              `json:"keypairId,omitempty" yaml:"keypairId,omitempty"`
	UserData    string              `json:"userData,omitempty" yaml:"userData,omitempty"`
}

// Hardware is the VM's CPU and memory.
type Hardware struct {
	CPUs     int     `json:"cpus" yaml:"cpus"`
	MemoryMB int64   `json:"memoryMB" yaml:"memoryMB"`
	CPUIDs   []CPUID `json:"cpuIds,omitempty" yaml:"cpuIds,omitempty"`
}

// CPUID is one instruction-set descriptor exposed to the guest.
type CPUID struct {
	Index string `json:"index" yaml:"index"`
	Value string `json:"value" yaml:"value"`
}

// Drive is one storage device.
type Drive struct {
	Index       int       `json:"index" yaml:"index"`
	Name        string    `json:"name" yaml:"name"`
	Type        DriveType `json:"type" yaml:"type"`
	Controller  string    `json:"controller" yaml:"controller"`
	SizeMB      int64     `json:"sizeMB,omitempty" yaml:"sizeMB,omitempty"`
	BaseImageID string    `json:"baseImageId,omitempty" yaml:"baseImageId,omitempty"`
	Boot        bool      `json:"boot" yaml:"boot"`
}

// NetworkConnection is one NIC. Exactly one of AutoIP and Static is set.
type NetworkConnection struct {
	Index    int       `json:"index" yaml:"index"`
	Name     string    `json:"name" yaml:"name"`
	MAC      string    `json:"mac" yaml:"mac"`
	Device   string    `json:"deviceType" yaml:"deviceType"`
	AutoIP   bool      `json:"autoIpConfig" yaml:"autoIpConfig"`
	Static   *StaticIP `json:"staticIpConfig,omitempty" yaml:"staticIpConfig,omitempty"`
	PublicIP bool      `json:"hasPublicIp" yaml:"hasPublicIp"`
}

// StaticIP is a fixed address. Gateway and DNS are set on the first NIC only.
type StaticIP struct {
	IP      string `json:"ip" yaml:"ip"`
	Mask    string `json:"mask" yaml:"mask"`
	Prefix  int    `json:"prefix" yaml:"prefix"`
	Gateway string `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	DNS     string `json:"dns,omitempty" yaml:"dns,omitempty"`
}

// Service is an inbound port range hosted on the first NIC.
type Service struct {
	Name      string `json:"name" yaml:"name"`
	PortRange string `json:"portRange" yaml:"portRange"`
	Protocol  string `json:"protocol" yaml:"protocol"`
	External  bool   `json:"external" yaml:"external"`
	IP        string `json:"ip,omitempty" yaml:"ip,omitempty"`
}

// ClusterManifest is the top-level structure of a v1alpha1 cluster manifest.
type ClusterManifest struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   ObjectMeta  `yaml:"metadata"`
	Spec       ClusterSpec `yaml:"spec"`
}

// ObjectMeta holds identity metadata for a manifest.
type ObjectMeta struct {
	Name        string            `yaml:"name"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

// ClusterSpec is the spec section of a ClusterManifest. Per-node fields take
// the same comma-separated form as the command-line flags.
type ClusterSpec struct {
	Count          int            `yaml:"count"`
	CPUs           string         `yaml:"cpus"`
	Memory         string         `yaml:"memory"`
	Disk           string         `yaml:"disk"`
	Inbound        string         `yaml:"inbound"`
	Networks       []string       `yaml:"networks"`
	Services       []string       `yaml:"services"`
	Flavor         string         `yaml:"flavor"`
	User           string         `yaml:"user"`
	CDROM          bool           `yaml:"cdrom"`
	SVM            bool           `yaml:"svm"`
	DiskController string         `yaml:"diskController"`
	NICModel       string         `yaml:"nicModel"`
	BaseMAC        string         `yaml:"baseMAC"`
	NamePrefix     string         `yaml:"namePrefix"`
	ExistingVMs    []string       `yaml:"existingVMs"`
	Image          *Image         `yaml:"image"`
	Keypair        *KeypairRef    `yaml:"keypair"`
	Publish        PublishOptions `yaml:"publish"`
	CloudConfig    string         `yaml:"cloudConfig"`
}

// KeypairRef points at a public key file for a named keypair.
type KeypairRef struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	PublicKeyFile string `yaml:"publicKeyFile"`
}
