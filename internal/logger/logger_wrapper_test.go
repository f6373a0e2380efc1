package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func TestFileDestinationAndLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noteclock.log")

	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog, path); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}
	log.SetLevel(contracts.WarnLevel)

	log.Info("hidden info")
	log.Warn("batch full", log.Field().Int("dropped", 3), log.Field().Error("error", errors.New("boom")))
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden info") {
		t.Errorf("info entry written at warn level:\n%s", out)
	}
	for _, want := range []string{"batch full", `"dropped": 3`, "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	if err := log.SetDestination(contracts.ConsoleLog); err != nil {
		t.Fatalf("switch back to console: %v", err)
	}
}

func TestSetDestinationErrors(t *testing.T) {
	log := NewNopLogger()
	if err := log.SetDestination(contracts.FileLog); err == nil {
		t.Error("file destination without path accepted")
	}
	if err := log.SetDestination("syslog"); err == nil {
		t.Error("unknown destination accepted")
	}
}
