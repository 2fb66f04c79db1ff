package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"FlowTagger/internal/model"
)

const sampleLookup = `dstport,protocol,tag
25,tcp,sv_P1
68,udp,sv_P2
23,tcp,sv_P1
 31 , UDP ,  SV_P3 
443,tcp,sv_P2
110,tcp,email
993,tcp,email
143,tcp,email
`

func writeLookup(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lookup.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write lookup file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(writeLookup(t, sampleLookup))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if table.Len() != 8 {
		t.Fatalf("Expected 8 entries, got %d", table.Len())
	}

	cases := []struct {
		port, protocol, tag string
		ok                  bool
	}{
		{"25", "tcp", "sv_P1", true},
		{"25", "TCP", "sv_P1", true},
		{" 443 ", "tcp", "sv_P2", true},
		{"31", "udp", "SV_P3", true},
		{"25", "udp", "", false},
		{"8080", "tcp", "", false},
	}
	for _, c := range cases {
		tag, ok := table.Resolve(c.port, c.protocol)
		if ok != c.ok || tag != c.tag {
			t.Errorf("Resolve(%q, %q) = (%q, %v), want (%q, %v)", c.port, c.protocol, tag, ok, c.tag, c.ok)
		}
	}
}

func TestLoad_Idempotent(t *testing.T) {
	path := writeLookup(t, sampleLookup)

	first, err := Load(path)
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	if !reflect.DeepEqual(first.Entries(), second.Entries()) {
		t.Errorf("Loading the same source twice produced different tables")
	}
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	table, err := Parse(strings.NewReader("dstport,protocol,tag\n25,tcp,first\n25,TCP,second\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Expected 1 entry after duplicate collapse, got %d", table.Len())
	}
	if tag, _ := table.Resolve("25", "tcp"); tag != "second" {
		t.Errorf("Expected later row to win, got %q", tag)
	}
}

func TestParse_ColumnOrderAndExtraColumns(t *testing.T) {
	table, err := Parse(strings.NewReader("Tag, Comment ,Protocol,DstPort\nweb,public site,tcp,80\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tag, ok := table.Resolve("80", "tcp"); !ok || tag != "web" {
		t.Errorf("Expected web for 80/tcp, got (%q, %v)", tag, ok)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "dstport,protocol\n25,tcp\n",
		"ragged row":     "dstport,protocol,tag\n25,tcp\n",
		"bad quoting":    "dstport,protocol,tag\n25,\"tcp,sv_P1\n",
	}
	for name, content := range cases {
		_, err := Parse(strings.NewReader(content))
		if !errors.Is(err, model.ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", name, err)
		}
		if errors.Is(err, model.ErrResourceNotFound) {
			t.Errorf("%s: malformed input must not look like a missing resource", name)
		}
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, model.ErrResourceNotFound) {
		t.Fatalf("Expected ErrResourceNotFound, got %v", err)
	}
	if errors.Is(err, model.ErrMalformedInput) {
		t.Errorf("A missing file must not look like malformed input")
	}
}

func TestEntries_IsCopy(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleLookup))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	entries := table.Entries()
	entries[NewKey("25", "tcp")] = "changed"

	if tag, _ := table.Resolve("25", "tcp"); tag != "sv_P1" {
		t.Errorf("Mutating Entries() leaked into the table: got %q", tag)
	}
}
