package version

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetVersionInfoKeepsLinkedValues(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	info := GetVersionInfo()
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", info.Version)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortRevision = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision = %q", got)
	}
}

func TestInfoFormats(t *testing.T) {
	i := Info{Version: "1.0.0", Branch: "main", Revision: "abc1234", BuiltAt: "now", GoVersion: "go1.24"}
	if !strings.Contains(i.String(), "Revision: abc1234") {
		t.Errorf("String() = %q", i.String())
	}

	s, err := i.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var back Info
	if err := json.Unmarshal([]byte(s), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Version != "1.0.0" || back.Modified {
		t.Errorf("round trip = %+v", back)
	}
}
