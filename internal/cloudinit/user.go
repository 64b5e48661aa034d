package cloudinit

// DefaultUserName is the login created when no user is requested.
const DefaultUserName = "cloud-user"

// PlaceholderPassword locks the default user's password; access is by key.
const PlaceholderPassword = "*"

// FullSudo grants passwordless root through sudo.
const FullSudo = "ALL=(ALL) NOPASSWD:ALL"

// DefaultUser returns the base fragment every payload starts from: root and
// password logins disabled, and the distribution's default user replaced by
// user with full sudo. authorizedKeys may be empty.
func DefaultUser(hostname, user string, authorizedKeys []string) Map {
	if user == "" {
		user = DefaultUserName
	}
	m := Map{
		"disable_root": Bool(true),
		"ssh_pwauth":   Bool(false),
		"system_info": Map{
			"default_user": Map{
				"name":        Str(user),
				"passwd":      Str(PlaceholderPassword),
				"lock_passwd": Bool(true),
				"sudo":        Strings(FullSudo),
				"shell":       Str("/bin/bash"),
			},
		},
	}
	if hostname != "" {
		m["hostname"] = Str(hostname)
	}
	if len(authorizedKeys) > 0 {
		m["ssh_authorized_keys"] = Strings(authorizedKeys...)
	}
	return m
}

// WriteFile builds one write_files entry.
func WriteFile(path, content, permissions string) Map {
	return Map{
		"path":        Str(path),
		"content":     Str(content),
		"owner":       Str("root:root"),
		"permissions": Str(permissions),
	}
}

// RebootInOneMinute schedules a reboot once cloud-init finishes so written
// network files take effect.
func RebootInOneMinute() Map {
	return Map{
		"power_state": Map{
			"mode":    Str("reboot"),
			"delay":   Str("+1"),
			"message": Str("Rebooting to apply network configuration"),
			"timeout": Int(30),
		},
	}
}

// DisableNetworkConfigPath is the drop-in that stops cloud-init from
// rendering its own network configuration over the written files.
const DisableNetworkConfigPath = "/etc/cloud/cloud.cfg.d/99-disable-network-config.cfg"

// DisableNetworkConfig returns the write_files entry for DisableNetworkConfigPath.
func DisableNetworkConfig() Map {
	return WriteFile(DisableNetworkConfigPath, "network: {config: disabled}\n", "0644")
}
