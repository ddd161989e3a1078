package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/formats/litematic"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

func sampleSchematic() *schematic.Schematic {
	s := schematic.New("Well")
	s.Metadata.Author = "alex"
	stone := schematic.NewBlockState("minecraft:cobblestone")
	water := schematic.NewBlockState("minecraft:water").With("level", "0")
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			s.SetBlock(schematic.Pos(x, 0, z), stone)
		}
	}
	s.SetBlock(schematic.Pos(1, 1, 1), water)
	return s
}

// writeSample writes the sample as a litematic file and returns its path.
func writeSample(t *testing.T, dir string) string {
	t.Helper()
	data, err := formats.Encode(litematic.New(litematic.Options{}), sampleSchematic())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "well.litematic")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with an isolated config and captures stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	cfgPath := filepath.Join(home, "config.toml")
	cfg := "[cache]\ndir = " + strconvQuote(filepath.Join(home, "cache")) + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	old := stdout
	stdout = &out
	defer func() { stdout = old }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetOut(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func strconvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"convert", "info", "debug", "view", "serve", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir)

	out, err := run(t, "convert", input)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}
	output := filepath.Join(dir, "well.schem")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if f, err := formats.Sniff(data, 0); err != nil || f != formats.Schematic {
		t.Errorf("output sniffed as %v, %v", f, err)
	}
	if !strings.Contains(out, output) || !strings.Contains(out, "10 blocks") {
		t.Errorf("convert output = %q", out)
	}

	if _, err := run(t, "convert", input); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("second convert without --force: %v", err)
	}
	if _, err := run(t, "convert", input, "--force"); err != nil {
		t.Errorf("convert --force: %v", err)
	}

	back := filepath.Join(dir, "nested", "back.litematic")
	if _, err := run(t, "convert", output, "-o", back); err != nil {
		t.Fatalf("convert back: %v", err)
	}
	if f, err := formats.Sniff(mustRead(t, back), 0); err != nil || f != formats.Litematic {
		t.Errorf("back sniffed as %v, %v", f, err)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir)
	garbage := filepath.Join(dir, "junk.schem")
	if err := os.WriteFile(garbage, []byte("not a schematic"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"missing file", []string{"convert", filepath.Join(dir, "nope.litematic")}, errs.ErrCodeFileNotFound},
		{"bad --to", []string{"convert", input, "--to", "png"}, errs.ErrCodeInvalidFormat},
		{"garbage input", []string{"convert", garbage, "--to", "litematic", "-o", filepath.Join(dir, "x.litematic")}, errs.ErrCodeDecode},
		{"undetectable", []string{"convert", garbage}, errs.ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v (code %q), want %q", err, errs.GetCode(err), tt.code)
			}
		})
	}
}

func TestInfoCommand(t *testing.T) {
	input := writeSample(t, t.TempDir())
	out, err := run(t, "info", input)
	if err != nil {
		t.Fatalf("info error: %v", err)
	}
	for _, want := range []string{"  Name: Well", "minecraft:cobblestone", "9", "minecraft:water[level=0]"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}

	plain, err := run(t, "info", input, "--plain")
	if err != nil {
		t.Fatalf("info --plain error: %v", err)
	}
	if strings.Contains(plain, "╭") {
		t.Error("--plain should not print the table")
	}
}

func TestInfoChunks(t *testing.T) {
	input := writeSample(t, t.TempDir())
	out, err := run(t, "info", input, "--plain", "--chunks", "2")
	if err != nil {
		t.Fatalf("info --chunks error: %v", err)
	}
	for _, want := range []string{
		"Chunks (2x2x2):",
		"  Chunk (0, 0, 0): 5 blocks",
		"    (1, 1, 1): minecraft:water[level=0]",
		"  Chunk (1, 0, 1): 1 blocks",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("info --chunks output missing %q:\n%s", want, out)
		}
	}

	_, err = run(t, "info", input, "--chunks", "2x0x2")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("bad --chunks error = %v (code %q)", err, errs.GetCode(err))
	}
}

func TestDebugCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir)

	out, err := run(t, "debug", input)
	if err != nil {
		t.Fatalf("debug error: %v", err)
	}
	if !strings.Contains(out, "minecraft:cobblestone") {
		t.Errorf("debug output = %q", out)
	}

	file := filepath.Join(dir, "well.json")
	if _, err := run(t, "debug", input, "--output", "json", "-o", file); err != nil {
		t.Fatalf("debug json error: %v", err)
	}
	if data := mustRead(t, file); !bytes.HasPrefix(data, []byte("{")) {
		t.Errorf("json dump = %.40q", data)
	}

	if _, err := run(t, "debug", input, "--output", "xml"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("bad output: %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "cache") {
		t.Errorf("cache path = %q", out)
	}

	out, err = run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear = %q", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Errorf("completion %s error: %v", shell, err)
		}
		if !strings.Contains(out, "schemconv") {
			t.Errorf("completion %s output missing program name", shell)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}

func TestTargetFormat(t *testing.T) {
	lm, err := formats.Encode(litematic.New(litematic.Options{}), sampleSchematic())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts convertOpts
		want formats.Format
	}{
		{"explicit to", convertOpts{to: "litematic"}, formats.Litematic},
		{"output extension", convertOpts{output: "x.litematic"}, formats.Litematic},
		{"opposite of input", convertOpts{from: "auto"}, formats.Schematic},
		{"opposite of --from", convertOpts{from: "schem"}, formats.Litematic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := targetFormat(tt.opts, lm)
			if err != nil {
				t.Fatalf("targetFormat() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("targetFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReplaceExt(t *testing.T) {
	tests := []struct{ in, ext, want string }{
		{"house.litematic", ".schem", "house.schem"},
		{"dir/house.schem", ".litematic", "dir/house.litematic"},
		{"noext", ".schem", "noext.schem"},
	}
	for _, tt := range tests {
		if got := replaceExt(tt.in, tt.ext); got != tt.want {
			t.Errorf("replaceExt(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"house.litematic", "house.litematic"},
		{"https://example.com/builds/house.schem", "house.schem"},
		{"https://example.com/builds/house.schem?dl=1", "house.schem"},
		{"https://example.com/", "download"},
	}
	for _, tt := range tests {
		if got := localName(tt.in); got != tt.want {
			t.Errorf("localName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertFromURL(t *testing.T) {
	data := mustRead(t, writeSample(t, t.TempDir()))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "well.schem")
	if _, err := run(t, "convert", srv.URL+"/well.litematic", "-o", output); err != nil {
		t.Fatalf("convert URL: %v", err)
	}
	if f, err := formats.Sniff(mustRead(t, output), 0); err != nil || f != formats.Schematic {
		t.Errorf("output sniffed as %v, %v", f, err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(1, 10, 2048, true)
	for _, want := range []string{"1 region", "10 blocks", "2.0 KiB", iconCached} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine missing %q: %q", want, line)
		}
	}
	if !strings.Contains(statsLine(0, 0, 0, false), iconFresh) {
		t.Error("fresh run should be labelled")
	}
}

func TestBlockTable(t *testing.T) {
	out := blockTable(sampleSchematic(), 1)
	if !strings.Contains(out, "minecraft:cobblestone") {
		t.Errorf("table missing most common block:\n%s", out)
	}
	if strings.Contains(out, "minecraft:water") {
		t.Errorf("limit 1 should hide the second block:\n%s", out)
	}
	if strings.Contains(out, "minecraft:air") {
		t.Errorf("air should not be listed:\n%s", out)
	}
}

func TestLayerModel(t *testing.T) {
	m := NewLayerModel(sampleSchematic())
	if len(m.Regions) != 1 || len(m.Regions[0].Layers) != 2 {
		t.Fatalf("regions = %+v", m.Regions)
	}

	view := m.View()
	if !strings.Contains(view, "Well") || !strings.Contains(view, "layer 1/2") {
		t.Errorf("initial view:\n%s", view)
	}

	key := func(s string) tea.KeyMsg {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	next, _ := m.Update(key("k"))
	m = next.(LayerModel)
	if m.Layer != 1 || !strings.Contains(m.View(), "minecraft:water") {
		t.Errorf("after k: layer %d\n%s", m.Layer, m.View())
	}

	next, _ = m.Update(key("k"))
	if next.(LayerModel).Layer != 1 {
		t.Error("layer should stop at the top")
	}

	next, _ = m.Update(key("j"))
	if next.(LayerModel).Layer != 0 {
		t.Error("j should go down a layer")
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestLayerModelEmpty(t *testing.T) {
	m := NewLayerModel(schematic.New(""))
	if !strings.Contains(m.View(), "(no regions)") {
		t.Errorf("empty view:\n%s", m.View())
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if next.(LayerModel).Region != 0 {
		t.Error("tab on empty model should be a no-op")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
