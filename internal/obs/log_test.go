package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEventWritesReservedKeys(t *testing.T) {
	l := Logger()
	orig := l.Writer()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(orig)

	Warn("guard_denied", map[string]any{"msg": "spoofed", "url": "/admin"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["msg"] != "guard_denied" {
		t.Fatalf("msg overridden by fields: %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry["url"] != "/admin" {
		t.Fatalf("missing field url: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts")
	}
}
