package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/schemconv/pkg/cache"
	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/formats/litematic"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

func sampleLitematic(t *testing.T) []byte {
	t.Helper()
	s := schematic.New("Pipeline")
	s.SetBlock(schematic.Pos(0, 0, 0), schematic.NewBlockState("minecraft:stone"))
	s.SetBlock(schematic.Pos(1, 0, 0), schematic.NewBlockState("minecraft:glass"))
	data, err := formats.Encode(litematic.New(litematic.Options{}), s)
	if err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	return data
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestParseFrom(t *testing.T) {
	tests := []struct {
		in      string
		want    formats.Format
		wantErr bool
	}{
		{"", formats.Unknown, false},
		{"auto", formats.Unknown, false},
		{"litematic", formats.Litematic, false},
		{"schem", formats.Schematic, false},
		{"zip", formats.Unknown, true},
	}
	for _, tt := range tests {
		got, err := ParseFrom(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFrom(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFrom(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.wantErr && !errs.Is(err, errs.ErrCodeInvalidFormat) {
			t.Errorf("ParseFrom(%q) code = %q", tt.in, errs.GetCode(err))
		}
	}
}

func TestValidateOutput(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{"summary", false},
		{"text", false},
		{"json", false},
		{"yaml", false},
		{"JSON", true}, // case-sensitive
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateOutput(tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOutput(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
		}
	}
}

func TestValidateForConvert(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"auto to schem", Options{To: "schem"}, false},
		{"explicit", Options{From: "litematic", To: "litematic"}, false},
		{"missing to", Options{From: "litematic"}, true},
		{"bad to", Options{To: "png"}, true},
		{"bad from", Options{From: "png", To: "schem"}, true},
		{"negative version", Options{To: "schem", DataVersion: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForConvert()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForConvert() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForRenderDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatalf("ValidateForRender() error: %v", err)
	}
	if opts.Output != OutputSummary || opts.From != FromAuto || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

func TestConvertCaches(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	defer r.Close()
	input := sampleLitematic(t)

	first, err := r.Convert(ctx, input, Options{To: "schem"})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}
	if first.From != formats.Litematic {
		t.Errorf("From = %v, want litematic", first.From)
	}
	if first.Stats.Regions != 1 || first.Stats.Blocks != 2 {
		t.Errorf("Stats = %+v", first.Stats)
	}
	if f, err := formats.Sniff(first.Output, 0); err != nil || f != formats.Schematic {
		t.Errorf("output sniffed as %v, %v", f, err)
	}

	second, err := r.Convert(ctx, input, Options{To: "schem"})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit")
	}
	if !bytes.Equal(first.Output, second.Output) {
		t.Error("cached output differs")
	}

	refreshed, err := r.Convert(ctx, input, Options{To: "schem", Refresh: true})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if refreshed.CacheHit {
		t.Error("refresh should bypass the cache")
	}

	other, err := r.Convert(ctx, input, Options{To: "litematic"})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if other.CacheHit {
		t.Error("different target should not share a cache entry")
	}
	if !bytes.Equal(other.Output, input) {
		t.Error("litematic -> litematic should reproduce the input")
	}
}

func TestConvertDecodeError(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	input := sampleLitematic(t)

	_, err := r.Convert(context.Background(), input[:len(input)/2], Options{To: "schem"})
	if !errs.Is(err, errs.ErrCodeDecode) {
		t.Errorf("error = %v, want DECODE_ERROR", err)
	}

	_, err = r.Convert(context.Background(), input, Options{From: "schem", To: "litematic"})
	if !errs.Is(err, errs.ErrCodeDecode) {
		t.Errorf("wrong --from: error = %v, want DECODE_ERROR", err)
	}
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil).Convert(ctx, sampleLitematic(t), Options{To: "schem"})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	input := sampleLitematic(t)

	tests := []struct {
		output string
		prefix string
	}{
		{OutputSummary, "Schematic:\n"},
		{OutputText, "Schematic name: Pipeline, Regions: 1\n"},
		{OutputJSON, "{"},
		{OutputYAML, "metadata:"},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			res, err := r.Render(ctx, input, Options{Output: tt.output})
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !strings.HasPrefix(string(res.Output), tt.prefix) {
				t.Errorf("Render(%s) = %.60q", tt.output, res.Output)
			}
			again, err := r.Render(ctx, input, Options{Output: tt.output})
			if err != nil || !again.CacheHit {
				t.Errorf("second Render: hit %v, err %v", again != nil && again.CacheHit, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	e, res, err := NewRunner(nil, nil, nil).Load(context.Background(), sampleLitematic(t), Options{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if res.From != formats.Litematic || res.Stats.Blocks != 2 {
		t.Errorf("Result = %+v", res)
	}
	if _, err := e.ToSchematic(); err != nil {
		t.Errorf("ToSchematic() error: %v", err)
	}
}
