package tracefmt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"fulltrace/internal/event"
	"fulltrace/internal/observ"
	"fulltrace/internal/tmpl"
)

const sampleSource = `def main():
    x = helper(1)
    print("done")

def helper(n):
    return n + 1
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.py")
	if err := os.WriteFile(path, []byte(sampleSource), 0o644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	return path
}

func call(file, fn string, line, depth int) event.Event {
	return event.Event{Filename: file, Function: fn, Line: line, Depth: depth, Kind: event.KindCall}
}

func line(file, fn string, line, depth int) event.Event {
	return event.Event{Filename: file, Function: fn, Line: line, Depth: depth, Kind: event.KindLine}
}

func ret(file, fn string, line, depth int) event.Event {
	return event.Event{Filename: file, Function: fn, Line: line, Depth: depth, Kind: event.KindReturn}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

// plain renders events as "depth|func|lineno|line" and continuations as "+lineno|line".
func plain(o Overrides) Overrides {
	base := Overrides{
		Mode:            strPtr("%depth|%func|%lineno|%line"),
		ConsecutiveMode: strPtr("+%lineno|%line"),
		NotFound:        strPtr("<nf>"),
		Color:           boolPtr(false),
	}
	return base.Merge(o)
}

func render(t *testing.T, o Overrides, events []event.Event) Result {
	t.Helper()
	f, err := New(WithOverrides(plain(o)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f.Render(events)
}

func sampleRun(file string) []event.Event {
	return []event.Event{
		call(file, "main", 1, 1),
		line(file, "main", 2, 1),
		call(file, "helper", 5, 2),
		line(file, "helper", 6, 2),
		ret(file, "helper", 6, 1),
		line(file, "main", 3, 1),
		ret(file, "main", 3, 0),
	}
}

func TestRenderSampleRun(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{}, sampleRun(file))

	want := []string{
		"1|main|1|def main():",
		"+2|    x = helper(1)",
		"2|helper|5|def helper(n):",
		"1|helper=>helper|6|    return n + 1",
		`0|main=>main|3|    print("done")`,
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Text != strings.Join(want, "\n\t") {
		t.Fatalf("unexpected joined text %q", res.Text)
	}
	if res.Stats.Seen != 7 || res.Stats.Rendered != 5 || res.Stats.Replaced != 2 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestSubtreeSuppression(t *testing.T) {
	file := writeSample(t)
	events := []event.Event{
		call(file, "main", 1, 1),
		line(file, "main", 2, 1),
		call(file, "skip", 5, 2),
		line(file, "skip", 6, 2),
		call(file, "main_helper", 1, 3), // matches the pattern but sits below a rejected call
		line(file, "main_helper", 2, 3),
		ret(file, "skip", 6, 1),
		line(file, "main", 3, 1),
	}
	res := render(t, Overrides{FuncNamePattern: strPtr("main")}, events)

	want := []string{
		"1|main|1|def main():",
		"+2|    x = helper(1)",
		`+3|    print("done")`,
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Suppressed != 3 || res.Stats.Rejected != 2 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestAdmit(t *testing.T) {
	cfg := MustConfig(Overrides{FuncNamePattern: strPtr("keep"), MaxDepth: intPtr(3)})
	callOnly := MustConfig(Overrides{TraceLines: boolPtr(false)})

	tests := []struct {
		name         string
		cfg          *Config
		ev           event.Event
		ignoring     int
		wantAdmit    bool
		wantIgnoring int
	}{
		{"admitted", cfg, call("a.py", "keep", 1, 1), 0, true, 0},
		{"prefix match", cfg, call("a.py", "keeper", 1, 1), 0, true, 0},
		{"not a prefix", cfg, call("a.py", "dont_keep", 1, 2), 0, false, 2},
		{"too deep", cfg, call("a.py", "keep", 1, 4), 0, false, 4},
		{"inside subtree", cfg, call("a.py", "keep", 1, 3), 2, false, 2},
		{"same depth stays suppressed", cfg, line("a.py", "keep", 1, 2), 2, false, 2},
		{"above subtree", cfg, line("a.py", "keep", 1, 1), 2, true, 0},
		{"above subtree rejected", cfg, line("a.py", "other", 1, 1), 2, false, 1},
		{"rejected return", cfg, ret("a.py", "other", 1, 1), 0, false, 0},
		{"kind filter", callOnly, line("a.py", "f", 1, 1), 0, false, 1},
		{"kind filter on return", callOnly, ret("a.py", "f", 1, 1), 0, false, 0},
		{"kind filter keeps calls", callOnly, call("a.py", "f", 1, 1), 0, true, 0},
		{"kind filter below subtree", callOnly, call("a.py", "f", 1, 2), 1, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admit, ignoring := Admit(tt.ev, tt.cfg, tt.ignoring)
			if admit != tt.wantAdmit || ignoring != tt.wantIgnoring {
				t.Fatalf("Admit = (%v, %d), want (%v, %d)", admit, ignoring, tt.wantAdmit, tt.wantIgnoring)
			}
		})
	}
}

func TestCallOnlySuppressesBelowLineEvents(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{TraceLines: boolPtr(false)}, sampleRun(file))
	// the line event of main suppresses the call of helper below it
	if diff := cmp.Diff([]string{"1|main|1|def main():"}, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Excluded != 2 || res.Stats.Suppressed != 4 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestCallOnlyKeepsCallsOfCallOnlyRecording(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{TraceLines: boolPtr(false)}, []event.Event{
		call(file, "main", 1, 1),
		call(file, "helper", 5, 2),
		ret(file, "helper", 6, 1),
		call(file, "main", 1, 2),
	})
	want := []string{
		"1|main|1|def main():",
		"2|helper|5|def helper(n):",
		"2|main|1|def main():",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestContinuationDetection(t *testing.T) {
	file := writeSample(t)
	tests := []struct {
		name          string
		first, second event.Event
		want          string
	}{
		{"next line same call", line(file, "main", 1, 1), line(file, "main", 2, 1), "+2|    x = helper(1)"},
		{"skipped line", line(file, "main", 1, 1), line(file, "main", 3, 1), `1|main|3|    print("done")`},
		{"other function", line(file, "main", 1, 1), line(file, "other", 2, 1), "1|other|2|    x = helper(1)"},
		{"backwards", line(file, "main", 2, 1), line(file, "main", 1, 1), "1|main|1|def main():"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := render(t, Overrides{}, []event.Event{tt.first, tt.second})
			if len(res.Lines) != 2 {
				t.Fatalf("expected 2 lines, got %q", res.Lines)
			}
			if res.Lines[1] != tt.want {
				t.Fatalf("got %q, want %q", res.Lines[1], tt.want)
			}
		})
	}
}

func TestNoConsecutiveModeUsesMode(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{NoConsecutiveMode: boolPtr(true)}, []event.Event{
		line(file, "main", 1, 1),
		line(file, "main", 2, 1),
	})
	if res.Lines[1] != "1|main|2|    x = helper(1)" {
		t.Fatalf("got %q", res.Lines[1])
	}
}

func TestSameLineReplace(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{}, []event.Event{
		line(file, "A", 2, 1),
		call(file, "B", 2, 2),
		call(file, "C", 2, 3),
	})
	want := []string{"3|A=>B=>C|2|    x = helper(1)"}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundAndIgnore(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.py")
	events := []event.Event{call(missing, "f", 1, 1)}

	dropped := render(t, Overrides{IgnoreUnfoundLines: boolPtr(true)}, events)
	if len(dropped.Lines) != 0 || dropped.Stats.Unfound != 1 {
		t.Fatalf("expected the event to be dropped, got %q %+v", dropped.Lines, dropped.Stats)
	}

	kept := render(t, Overrides{IgnoreUnfoundLines: boolPtr(false)}, events)
	if diff := cmp.Diff([]string{"1|f|1|<nf>"}, kept.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestUnfoundDropDoesNotUpdateLast(t *testing.T) {
	file := writeSample(t)
	missing := filepath.Join(t.TempDir(), "gone.py")
	res := render(t, Overrides{}, []event.Event{
		line(file, "main", 1, 1),
		line(missing, "main", 2, 1),
		line(file, "main", 2, 1),
	})
	want := []string{"1|main|1|def main():", "+2|    x = helper(1)"}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStartGating(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{
		StartLinePattern: strPtr(`helper\(`),
		StartFuncPattern: strPtr("ma"),
	}, sampleRun(file))

	want := []string{
		"1|main|2|    x = helper(1)",
		"2|helper|5|def helper(n):",
		"1|helper=>helper|6|    return n + 1",
		`0|main=>main|3|    print("done")`,
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.PreStart != 1 {
		t.Fatalf("expected one pre-start event, got %+v", res.Stats)
	}
}

func TestStartNeverFires(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{StartFilePattern: strPtr("elsewhere")}, sampleRun(file))
	if len(res.Lines) != 0 || res.Stats.PreStart != 7 {
		t.Fatalf("expected nothing rendered, got %q %+v", res.Lines, res.Stats)
	}
}

func TestStartIgnoresUnfoundEvents(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.py")
	f, err := New(WithOverrides(plain(Overrides{
		StartLinePattern:   strPtr("nf"),
		IgnoreUnfoundLines: boolPtr(false),
	})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := f.Render([]event.Event{line(missing, "f", 1, 0)})
	if len(res.Lines) != 0 || f.State().Started() {
		t.Fatalf("not-found marker must not trigger start: %q", res.Lines)
	}
}

func TestLinePatternIsContentOnly(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{LinePattern: strPtr(`helper`)}, sampleRun(file))
	want := []string{
		"1|main|2|    x = helper(1)",
		"2|helper|5|def helper(n):",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Filtered != 5 || res.Stats.Suppressed != 0 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

func TestMaxDepth(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{MaxDepth: intPtr(1)}, sampleRun(file))
	want := []string{
		"1|main|1|def main():",
		"+2|    x = helper(1)",
		// the return to depth 1 ends the suppressed subtree
		"1|helper|6|    return n + 1",
		`0|main=>main|3|    print("done")`,
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestDepthTabAndStrip(t *testing.T) {
	file := writeSample(t)
	res := render(t, Overrides{
		Mode:     strPtr("%depth_indent%line (%event)"),
		DepthTab: strPtr(".."),
		Strip:    boolPtr(true),
	}, []event.Event{call(file, "helper", 6, 2)})
	if diff := cmp.Diff([]string{"....return n + 1 (call)"}, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderEventDepthIndent(t *testing.T) {
	cfg := MustConfig(Overrides{DepthTab: strPtr("--"), Color: boolPtr(false)})
	ev := call("a.py", "f", 1, 2)
	if got := cfg.RenderEvent(tmpl.MustParse("%depth_indent%func", DefaultAnchor), ev, "f", ""); got != "----f" {
		t.Fatalf("indented = %q", got)
	}
	if got := cfg.RenderEvent(tmpl.MustParse("%func@%depth", DefaultAnchor), ev, "f", ""); got != "f@2" {
		t.Fatalf("plain = %q", got)
	}
}

func TestQuotationReplacementOnlyWhenLinked(t *testing.T) {
	file := writeSample(t)
	ev := []event.Event{line(file, "main", 3, 1)}

	linked := render(t, Overrides{Mode: strPtr(`%line @ File "%file", line %lineno`)}, ev)
	if !strings.HasPrefix(linked.Lines[0], "    print(”done”) @") {
		t.Fatalf("quotes not replaced in linked template: %q", linked.Lines[0])
	}

	unlinked := render(t, Overrides{Mode: strPtr(`%line`)}, ev)
	if unlinked.Lines[0] != `    print("done")` {
		t.Fatalf("quotes replaced without a link: %q", unlinked.Lines[0])
	}
}

func TestDefaultTemplates(t *testing.T) {
	file := writeSample(t)
	f, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := f.Render([]event.Event{line(file, "main", 3, 1), line(file, "main", 4, 1)})

	first := res.Lines[0]
	wantPrefix := "(1)       " + "    print(”done”)"
	if !strings.HasPrefix(first, wantPrefix) {
		t.Fatalf("first line %q does not start with %q", first, wantPrefix)
	}
	esc := strings.IndexByte(first, '\x1b')
	if esc < 0 {
		t.Fatalf("expected a colored link in %q", first)
	}
	if n := utf8.RuneCountInString(first[:esc]); n != 90 {
		t.Fatalf("link starts at column %d, want 90", n)
	}
	wantLink := "\x1b[32mFile \"" + file + "\", line 3 (main)\x1b[0m"
	if !strings.HasSuffix(first, wantLink) {
		t.Fatalf("first line %q does not end with %q", first, wantLink)
	}

	second := res.Lines[1]
	if !strings.HasPrefix(second, strings.Repeat(" ", 90)+"\x1b[32m") {
		t.Fatalf("unexpected continuation line %q", second)
	}
}

func TestDefaultNotFoundAlignment(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.py")
	f, err := New(WithOverrides(Overrides{IgnoreUnfoundLines: boolPtr(false)}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := f.Render([]event.Event{call(missing, "f", 1, 1)}).Lines[0]
	marker := "\x1b[93mNot found\x1b[0m"
	if !strings.HasPrefix(got, "(1)       "+marker) {
		t.Fatalf("unexpected line %q", got)
	}
	// the marker's 9 invisible runes are credited back exactly
	rest := strings.TrimPrefix(got, "(1)       "+marker)
	spaces := len(rest) - len(strings.TrimLeft(rest, " "))
	if want := 90 - 10 - len("Not found"); spaces != want {
		t.Fatalf("padding after marker = %d, want %d", spaces, want)
	}
}

func TestVSCodeLink(t *testing.T) {
	ide := IDEVSCode
	cfg := MustConfig(Overrides{IDE: &ide, Color: boolPtr(false)})
	if cfg.Settings().Link != VSCodeLink {
		t.Fatalf("link = %q", cfg.Settings().Link)
	}
	file := writeSample(t)
	f, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := f.Render([]event.Event{line(file, "main", 2, 1)}).Lines[0]
	if !strings.HasSuffix(got, "&line=2) (main)") {
		t.Fatalf("line number not expanded in %q", got)
	}
}

func TestIdempotence(t *testing.T) {
	file := writeSample(t)
	f, err := New(WithOverrides(Overrides{Color: boolPtr(true)}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first := f.Render(sampleRun(file))
	second := f.Render(sampleRun(file))
	if first.Text != second.Text {
		t.Fatalf("render not idempotent:\n%q\n%q", first.Text, second.Text)
	}

	other, _ := New(WithConfig(f.Config()))
	if third := other.Render(sampleRun(file)); third.Text != first.Text {
		t.Fatalf("fresh formatter differs:\n%q\n%q", first.Text, third.Text)
	}
}

func TestExtendMatchesFullRender(t *testing.T) {
	file := writeSample(t)
	events := sampleRun(file)

	full := render(t, Overrides{}, events)

	f, err := New(WithOverrides(plain(Overrides{})))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Render(events[:3])
	partial := f.Lines()
	res := f.Extend(events)
	if diff := cmp.Diff(full.Lines, res.Lines); diff != "" {
		t.Fatalf("incremental mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(partial, res.Lines[:len(partial)]); diff != "" {
		t.Fatalf("earlier output changed (-want +got):\n%s", diff)
	}
	if res.Stats.Seen != len(events) {
		t.Fatalf("seen = %d, want %d", res.Stats.Seen, len(events))
	}
}

func TestRenderStream(t *testing.T) {
	file := writeSample(t)
	f, _ := New(WithOverrides(plain(Overrides{})))
	res := f.RenderStream(event.Slice(sampleRun(file)))
	if len(res.Lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(res.Lines))
	}
	if !strings.HasPrefix(f.String(), "Formatter(5/7)\n\t1|main|1|") {
		t.Fatalf("unexpected String(): %q", f.String())
	}
}

func TestConfigErrors(t *testing.T) {
	if _, err := New(WithConfig(MustConfig(Overrides{})), WithMaxDepth(2)); !errors.Is(err, ErrConflictingConfig) {
		t.Fatalf("expected ErrConflictingConfig, got %v", err)
	}
	if _, err := NewConfig(Overrides{FuncNamePattern: strPtr("(")}); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if _, err := NewConfig(Overrides{StartLinePattern: strPtr("[")}); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if _, err := New(WithMode("%line⚓wide⚓|")); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if _, err := NewConfig(Overrides{MaxDepth: intPtr(-1)}); err == nil {
		t.Fatal("expected error for negative max depth")
	}
}

func TestDerivedTemplatesFollowOverrides(t *testing.T) {
	cfg := MustConfig(Overrides{
		Anchor:     strPtr("|"),
		LineLength: intPtr(40),
		Link:       strPtr("%file:%lineno"),
		Color:      boolPtr(false),
	})
	s := cfg.Settings()
	if s.Mode != "(%depth)%depth_indent|10|%line|50|%file:%lineno (%func)" {
		t.Fatalf("mode = %q", s.Mode)
	}
	if s.ConsecutiveMode != " |10|%line|50|%file:%lineno (%func)" {
		t.Fatalf("consecutive mode = %q", s.ConsecutiveMode)
	}
	if s.NotFound != "Not found" {
		t.Fatalf("not found = %q", s.NotFound)
	}
}

func TestDetectIDE(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}
	if got := DetectIDE(env(map[string]string{"TERM_PROGRAM": "vscode"})); got != IDEVSCode {
		t.Errorf("got %q", got)
	}
	if got := DetectIDE(env(map[string]string{"PYCHARM_HOSTED": "1"})); got != IDEPyCharm {
		t.Errorf("got %q", got)
	}
	if got := DetectIDE(env(nil)); got != IDEUnknown {
		t.Errorf("got %q", got)
	}
}

func TestTracerReceivesDecisions(t *testing.T) {
	file := writeSample(t)
	ring := observ.NewRingTracer(64, observ.LevelDebug)
	f, err := New(WithOverrides(plain(Overrides{})), WithTracer(ring, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Render(sampleRun(file))

	var decisions []string
	for _, rec := range ring.Snapshot() {
		if rec.Scope == observ.ScopeEvent {
			decisions = append(decisions, rec.Name)
		}
	}
	want := []string{"rendered", "rendered", "rendered", "rendered", "replaced", "rendered", "replaced"}
	if diff := cmp.Diff(want, decisions); diff != "" {
		t.Fatalf("decisions mismatch (-want +got):\n%s", diff)
	}
}
