package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestForBucket_Principals(t *testing.T) {
	doc := ForBucket("q-metrics-test")

	if doc.Version != "2012-10-17" {
		t.Errorf("version: got %q", doc.Version)
	}
	if len(doc.Statement) != 3 {
		t.Fatalf("want 3 statements, got %d", len(doc.Statement))
	}

	services := map[string]bool{}
	for _, s := range doc.Statement {
		services[s.Principal.Service] = true
		if s.Effect != "Allow" {
			t.Errorf("statement %s: effect %q", s.Sid, s.Effect)
		}
	}
	if !services[QDeveloperPrincipal] || !services[CloudTrailPrincipal] {
		t.Errorf("missing required principals, got %v", services)
	}
}

func TestForBucket_PrefixScoping(t *testing.T) {
	out, err := ForBucket("q-metrics-test").JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	for _, want := range []string{
		`"arn:aws:s3:::q-metrics-test"`,
		`arn:aws:s3:::q-metrics-test/q-developer/*`,
		`arn:aws:s3:::q-metrics-test/cloudtrail-logs/*`,
		`"s3:x-amz-acl":"bucket-owner-full-control"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("policy JSON missing %s\n%s", want, out)
		}
	}

	// Must stay parseable as a generic document (what S3 sees).
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("rendered policy is not valid JSON: %v", err)
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "trust.json")
	if err := os.WriteFile(good, []byte(`{"Version":"2012-10-17","Statement":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(good); err != nil {
		t.Errorf("LoadDocument(valid): %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(bad); err == nil {
		t.Error("LoadDocument(invalid JSON): want error")
	}

	if _, err := LoadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadDocument(missing file): want error")
	}
}
