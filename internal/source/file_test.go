package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/snapshot"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "flags.json", `{
		"features": [
			{"name": "x", "enabled": true, "rules": [
				{"action": "enable", "conditions": {"platform": "ios", "minBuild": 42}}
			]}
		]
	}`)

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	f := doc.Feature("x")
	if f == nil || len(f.Rules) != 1 {
		t.Fatalf("document = %+v", doc)
	}
	if f.Rules[0].Conditions.MinBuild == nil || *f.Rules[0].Conditions.MinBuild != 42 {
		t.Fatalf("minBuild = %v", f.Rules[0].Conditions.MinBuild)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "flags.yaml", `
features:
  - name: x
    enabled: true
    rules:
      - action: enable
        priority: 3
        conditions:
          platform: android
          countryCodes: [VE, CO]
`)

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	f := doc.Feature("x")
	if f == nil {
		t.Fatal("feature missing")
	}
	if f.Rules[0].Priority != 3 {
		t.Fatalf("priority = %d, want 3", f.Rules[0].Priority)
	}
	if got := f.Rules[0].Conditions.CountryCodes; len(got) != 2 || got[0] != "VE" {
		t.Fatalf("countryCodes = %v", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPublish_RejectsInvalidDocument(t *testing.T) {
	snapshot.Reset()
	t.Cleanup(snapshot.Reset)

	good := &schema.Document{Features: []schema.Feature{{Name: "x", Enabled: true}}}
	published, err := Publish(good)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	bad := &schema.Document{Features: []schema.Feature{{Name: "x", Enabled: true}, {Name: "x", Enabled: true}}}
	if _, err := Publish(bad); err == nil {
		t.Fatal("duplicate feature names must not publish")
	}

	// Previous snapshot stays live.
	if got := snapshot.Load(); got.ETag != published.ETag {
		t.Fatalf("snapshot ETag = %q, want previous %q", got.ETag, published.ETag)
	}
}
