// Package keys resolves SSH keypair records from OpenSSH public key files.
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/h3ow3d/vbm/internal/types"
)

// FromAuthorizedKey parses one authorized_keys line into a keypair record.
// name defaults to the key comment, id to the SHA256 fingerprint.
func FromAuthorizedKey(name, id string, data []byte) (*types.Keypair, error) {
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	fp := ssh.FingerprintSHA256(pub)
	if name == "" {
		name = comment
	}
	if id == "" {
		id = fp
	}

	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
	if comment != "" {
		line += " " + comment
	}
	return &types.Keypair{
		ID:          id,
		Name:        name,
		PublicKey:   line,
		Fingerprint: fp,
	}, nil
}

// Load reads the public key at path. A private key path is accepted when the
// matching .pub file sits next to it.
func Load(name, id, path string) (*types.Keypair, error) {
	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key %q: %w", path, err)
	}
	if strings.Contains(string(data), "PRIVATE KEY") {
		pub := path + ".pub"
		if data, err = os.ReadFile(pub); err != nil {
			return nil, fmt.Errorf("%q is a private key and %q is unreadable: %w", path, pub, err)
		}
		path = pub
	}

	kp, err := FromAuthorizedKey(name, id, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if kp.Name == "" {
		kp.Name = strings.TrimSuffix(filepath.Base(path), ".pub")
	}
	return kp, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
