package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/h3ow3d/vbm/internal/cloudinit"
	"github.com/h3ow3d/vbm/internal/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(tmp, "none.yaml")))
	err := root.Execute()
	return out.String(), err
}

func TestGenerateJSON(t *testing.T) {
	out, err := run(t, "generate", "--count", "3", "--cpus", "2", "--memory", "4G",
		"--disk", "100G,50G", "--network", "10.0.0.0/24", "--flavor", "debian")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var topo types.Topology
	if err := json.Unmarshal([]byte(out), &topo); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(topo.VMs) != 3 {
		t.Fatalf("len(VMs) = %d, want 3", len(topo.VMs))
	}
	if got := topo.VMs[1].Networks[0].Static.IP; got != "10.0.0.11" {
		t.Errorf("VMs[1] IP = %q, want 10.0.0.11", got)
	}
	if topo.Application.Name != defaultApplication {
		t.Errorf("Application.Name = %q", topo.Application.Name)
	}
}

func TestGenerateYAML(t *testing.T) {
	out, err := run(t, "generate", "-n", "2", "-o", "yaml", "--app", "lab")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var topo types.Topology
	if err := yaml.Unmarshal([]byte(out), &topo); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(topo.VMs) != 2 || topo.Application.Name != "lab" {
		t.Errorf("topology = %+v", topo)
	}
}

func TestGenerateDependencyError(t *testing.T) {
	_, err := run(t, "generate", "--network", "10.0.0.0/24")
	if err == nil || !strings.Contains(err.Error(), "requires a flavor") {
		t.Fatalf("err = %v, want dependency error", err)
	}
}

func TestGenerateBadOutput(t *testing.T) {
	if _, err := run(t, "generate", "-o", "xml"); err == nil {
		t.Fatal("expected error for -o xml")
	}
}

func TestGenerateManifestWithOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	src := `apiVersion: vbm.io/v1alpha1
kind: Cluster
metadata:
  name: fromfile
spec:
  count: 2
  cpus: "4"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "generate", "-f", path, "--count", "3")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var topo types.Topology
	if err := json.Unmarshal([]byte(out), &topo); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(topo.VMs) != 3 {
		t.Errorf("len(VMs) = %d, want flag override 3", len(topo.VMs))
	}
	if topo.VMs[0].Hardware.CPUs != 4 {
		t.Errorf("CPUs = %d, want manifest value 4", topo.VMs[0].Hardware.CPUs)
	}
	if topo.Application.Name != "fromfile" {
		t.Errorf("Application.Name = %q", topo.Application.Name)
	}
}

func TestCloudConfig(t *testing.T) {
	out, err := run(t, "cloud-config", "-n", "2", "--node", "1",
		"--network", "192.168.0.0/24", "--flavor", "centos", "--user", "ops")
	if err != nil {
		t.Fatalf("cloud-config: %v", err)
	}
	if !strings.HasPrefix(out, cloudinit.Header+"\n") {
		t.Fatalf("output does not start with %s:\n%s", cloudinit.Header, out)
	}
	for _, want := range []string{"IPADDR=192.168.0.11", "hostname: node2", "name: ops"} {
		if !strings.Contains(out, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestCloudConfigNodeOutOfRange(t *testing.T) {
	if _, err := run(t, "cloud-config", "-n", "2", "--node", "2"); err == nil {
		t.Fatal("expected error for --node 2 with 2 nodes")
	}
}

func TestFlavors(t *testing.T) {
	out, err := run(t, "flavors")
	if err != nil {
		t.Fatalf("flavors: %v", err)
	}
	want := "debian  (ubuntu)\nredhat  (centos, fedora, rhel)\n"
	if out != want {
		t.Errorf("flavors output = %q, want %q", out, want)
	}
}
