package cloudinit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3ow3d/vbm/internal/util"
)

func TestMergeCopiesNewKeys(t *testing.T) {
	target := Map{"a": Str("1")}
	source := Map{"b": Str("2"), "c": Map{"d": Int(3)}}
	require.NoError(t, Merge(target, source))
	assert.Equal(t, []string{"a", "b", "c"}, target.Keys())
	assert.Equal(t, Map{"d": Int(3)}, target["c"])
}

func TestMergeConcatenatesLists(t *testing.T) {
	target := Map{"runcmd": Strings("a", "b")}
	source := Map{"runcmd": Strings("c")}
	require.NoError(t, Merge(target, source))
	assert.Equal(t, Strings("a", "b", "c"), target["runcmd"])
	assert.Len(t, source["runcmd"], 1, "source must not be modified")
}

func TestMergeRecursesIntoMaps(t *testing.T) {
	target := Map{"system_info": Map{"default_user": Map{"name": Str("ubuntu"), "shell": Str("/bin/sh")}}}
	source := Map{"system_info": Map{"default_user": Map{"name": Str("ops")}, "distro": Str("debian")}}
	require.NoError(t, Merge(target, source))

	si := target["system_info"].(Map)
	du := si["default_user"].(Map)
	assert.Equal(t, Str("ops"), du["name"])
	assert.Equal(t, Str("/bin/sh"), du["shell"])
	assert.Equal(t, Str("debian"), si["distro"])
}

func TestMergeScalarOverwrites(t *testing.T) {
	target := Map{"ssh_pwauth": Bool(false)}
	require.NoError(t, Merge(target, Map{"ssh_pwauth": Bool(true)}))
	assert.Equal(t, Bool(true), target["ssh_pwauth"])
}

func TestMergeConflicts(t *testing.T) {
	tests := []struct {
		name   string
		target Map
		source Map
		path   string
	}{
		{"list vs scalar", Map{"runcmd": Strings("a")}, Map{"runcmd": Str("b")}, "runcmd"},
		{"scalar vs list", Map{"runcmd": Str("a")}, Map{"runcmd": Strings("b")}, "runcmd"},
		{"map vs scalar", Map{"a": Map{"b": Int(1)}}, Map{"a": Int(2)}, "a"},
		{"scalar vs map", Map{"a": Int(2)}, Map{"a": Map{"b": Int(1)}}, "a"},
		{"list vs map", Map{"a": Strings("x")}, Map{"a": Map{}}, "a"},
		{"nested", Map{"a": Map{"b": Strings("x")}}, Map{"a": Map{"b": Map{}}}, "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Merge(tt.target, tt.source)
			var merr *util.MergeConflictError
			require.True(t, errors.As(err, &merr), "err = %v", err)
			assert.Equal(t, tt.path, merr.Path)
			assert.True(t, errors.Is(err, util.ErrMergeConflict))
		})
	}
}

func TestMergeLaws(t *testing.T) {
	a := Map{"x": Strings("1", "2"), "k": Str("a")}
	b := Map{"x": Strings("3"), "y": Map{"z": Int(1)}}
	c := Map{"x": Strings("4", "5"), "w": Bool(true)}

	require.NoError(t, Merge(a, b))
	require.NoError(t, Merge(a, c))

	assert.ElementsMatch(t, []string{"k", "w", "x", "y"}, a.Keys())
	assert.Len(t, a["x"], 5)
	assert.Equal(t, Strings("1", "2", "3", "4", "5"), a["x"])
}

func TestMergeDoesNotAliasSource(t *testing.T) {
	extra := Map{"write_files": List{Map{"path": Str("/etc/motd")}}}
	first := Map{}
	second := Map{}
	require.NoError(t, Merge(first, extra))
	require.NoError(t, Merge(second, extra))
	require.NoError(t, Merge(first, Map{"write_files": List{Map{"path": Str("/etc/issue")}}}))

	assert.Len(t, first["write_files"], 2)
	assert.Len(t, second["write_files"], 1)
	assert.Len(t, extra["write_files"], 1)
}

func TestParseAndMarshal(t *testing.T) {
	m, err := Parse([]byte("packages: [htop, curl]\nruncmd:\n  - echo hi\ntimezone: UTC\n"))
	require.NoError(t, err)
	assert.Equal(t, Strings("htop", "curl"), m["packages"])

	out, err := Marshal(m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, Header+"\n"), out)

	again, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestParseRejectsNonMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)

	m, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestMarshalIsDeterministic(t *testing.T) {
	build := func() Map {
		m := DefaultUser("node1", "ops", []string{"ssh-ed25519 AAAA test"})
		require.NoError(t, Merge(m, RebootInOneMinute()))
		return m
	}
	first, err := Marshal(build())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Marshal(build())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDefaultUser(t *testing.T) {
	m := DefaultUser("", "", nil)
	assert.Equal(t, Bool(true), m["disable_root"])
	assert.Equal(t, Bool(false), m["ssh_pwauth"])
	assert.NotContains(t, m, "ssh_authorized_keys")
	assert.NotContains(t, m, "hostname")

	du := m["system_info"].(Map)["default_user"].(Map)
	assert.Equal(t, Str(DefaultUserName), du["name"])
	assert.Equal(t, Str(PlaceholderPassword), du["passwd"])
	assert.Equal(t, Strings(FullSudo), du["sudo"])

	m = DefaultUser("node1", "ops", []string{"ssh-ed25519 AAAA"})
	assert.Equal(t, Strings("ssh-ed25519 AAAA"), m["ssh_authorized_keys"])
	assert.Equal(t, Str("node1"), m["hostname"])
}
