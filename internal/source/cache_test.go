package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestResolveLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sample.py", "def f():\n    return 1\n\nf()")
	c := NewCache()

	tests := []struct {
		line  int
		want  string
		found bool
	}{
		{1, "def f():", true},
		{2, "    return 1", true},
		{3, "", true},
		{4, "f()", true},
		{5, "<missing>", false},
		{0, "<missing>", false},
	}
	for _, tt := range tests {
		got, found := c.Resolve(path, tt.line, "<missing>")
		if got != tt.want || found != tt.found {
			t.Errorf("Resolve(line %d) = (%q, %v), want (%q, %v)", tt.line, got, found, tt.want, tt.found)
		}
	}
}

func TestResolveMissingFile(t *testing.T) {
	c := NewCache()
	missing := filepath.Join(t.TempDir(), "nope.py")

	got, found := c.Resolve(missing, 1, "Not found")
	if found || got != "Not found" {
		t.Fatalf("Resolve = (%q, %v), want not-found marker", got, found)
	}
	if c.Len() != 1 {
		t.Fatalf("missing file should be cached, Len() = %d", c.Len())
	}
	if _, err := c.Load(missing); err == nil {
		t.Fatal("expected error for cached missing file")
	}
}

func TestLoadReadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.py", "x = 1\n")
	c := NewCache()
	reads := 0
	c.read = func(p string) ([]byte, error) {
		reads++
		return os.ReadFile(p)
	}

	for i := 0; i < 3; i++ {
		if _, found := c.Resolve(path, 1, ""); !found {
			t.Fatal("expected line to be found")
		}
	}
	if reads != 1 {
		t.Fatalf("expected a single read, got %d", reads)
	}

	// later edits are not observed within the same cache
	writeFile(t, dir, "a.py", "y = 2\n")
	if got, _ := c.Resolve(path, 1, ""); got != "x = 1" {
		t.Fatalf("cache returned %q after file changed", got)
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "win.py", "\xEF\xBB\xBFa = 1\r\nb = 2\r\n")
	c := NewCache()

	f, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("expected BOM and CRLF flags, got %b", f.Flags)
	}
	if got, _ := c.Resolve(path, 1, ""); got != "a = 1" {
		t.Errorf("line 1 = %q", got)
	}
	if got, _ := c.Resolve(path, 2, ""); got != "b = 2" {
		t.Errorf("line 2 = %q", got)
	}
	if f.LineCount() != 2 {
		t.Errorf("LineCount() = %d, want 2", f.LineCount())
	}
}

// TestLoadLineIdx проверяет построение LineIdx и нормализацию пути
func TestLoadLineIdx(t *testing.T) {
	c := NewCache()
	c.read = func(string) ([]byte, error) { return []byte("a\nb\n"), nil }

	file, err := c.Load("a.py")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if got, found := c.Resolve("./a.py", 2, ""); !found || got != "b" {
		t.Errorf("Resolve via unnormalized path = (%q, %v)", got, found)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
