package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/h3ow3d/vbm/internal/log"
)

func captureProgress(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Stderr
	log.Stderr = &buf
	t.Cleanup(func() { log.Stderr = prev })
	return &buf
}

func TestProgressPrefixes(t *testing.T) {
	buf := captureProgress(t)
	log.Info("building")
	log.Ok("done")
	log.Skip("exists")
	log.Error("failed")

	want := "[+] building\n[✓] done\n[=] exists\n[!] failed\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSetLevel(t *testing.T) {
	prev := log.Logger.GetLevel()
	t.Cleanup(func() { log.Logger.SetLevel(prev) })

	if err := log.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug): %v", err)
	}
	if log.Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", log.Logger.GetLevel())
	}
	if err := log.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestJSONFormat(t *testing.T) {
	prevFormatter := log.Logger.Formatter
	prevLevel := log.Logger.GetLevel()
	prevOut := log.Logger.Out
	t.Cleanup(func() {
		log.Logger.SetFormatter(prevFormatter)
		log.Logger.SetLevel(prevLevel)
		log.SetOutput(prevOut)
	})

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetJSONFormat()
	log.Logger.SetLevel(logrus.DebugLevel)
	log.WithField("vm", "node1").Debug("built")

	out := buf.String()
	for _, want := range []string{`"vm":"node1"`, `"msg":"built"`, `"level":"debug"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}
