package yamlutil_test

// Notes:
// - Marshal error branch: not tested because the YAML encoder only fails on
//   unmarshalable types (channels, functions) that config structs never hold
// - TestInputSizeLimit mutates MaxInputSize and therefore does not run in
//   parallel; parallel tests resume only after it returns

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-tex2html/internal/yamlutil"
)

type testConfig struct {
	Name   string   `yaml:"name"`
	Count  int      `yaml:"count"`
	Styles []string `yaml:"styles"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Lenient and Strict Decoding
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		dest      any
		strict    bool
		want      testConfig
		wantErr   error
		lenientOK bool
	}{
		{
			name: "valid YAML",
			data: []byte("name: notes\ncount: 3\nstyles:\n  - default\n  - compact"),
			dest: &testConfig{},
			want: testConfig{Name: "notes", Count: 3, Styles: []string{"default", "compact"}},
		},
		{
			name: "unicode content",
			data: []byte("name: Théorème"),
			dest: &testConfig{},
			want: testConfig{Name: "Théorème"},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("name: notes"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "syntax error",
			data:    []byte("name: [unclosed"),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrDecode,
		},
		{
			name:      "unknown field",
			data:      []byte("name: notes\nunknown_field: value"),
			dest:      &testConfig{},
			want:      testConfig{Name: "notes"},
			wantErr:   yamlutil.ErrDecode,
			lenientOK: true,
		},
	}

	for _, tt := range tests {
		for _, strict := range []bool{false, true} {
			name := tt.name + "/lenient"
			decode := yamlutil.Unmarshal
			if strict {
				name = tt.name + "/strict"
				decode = yamlutil.UnmarshalStrict
			}
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				var dest any
				if tt.dest != nil {
					dest = &testConfig{}
				}
				err := decode(tt.data, dest)

				if tt.wantErr != nil && (strict || !tt.lenientOK) {
					if !errors.Is(err, tt.wantErr) {
						t.Fatalf("error = %v, want %v", err, tt.wantErr)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got := dest.(*testConfig)
				if got.Name != tt.want.Name || got.Count != tt.want.Count ||
					strings.Join(got.Styles, ",") != strings.Join(tt.want.Styles, ",") {
					t.Errorf("decoded = %+v, want %+v", *got, tt.want)
				}
			})
		}
	}
}

func TestDecodeError_Prefix(t *testing.T) {
	t.Parallel()

	err := yamlutil.Unmarshal([]byte("invalid: [unclosed"), &testConfig{})
	if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
		t.Errorf("error = %v, want yamlutil prefix", err)
	}
}

// ---------------------------------------------------------------------------
// TestDecodeFile - File Decoding
// ---------------------------------------------------------------------------

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	if err := os.WriteFile(valid, []byte("name: notes\ncount: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	typo := filepath.Join(dir, "typo.yaml")
	if err := os.WriteFile(typo, []byte("nmae: notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := yamlutil.DecodeFile(valid, &cfg); err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if cfg.Name != "notes" || cfg.Count != 2 {
		t.Errorf("DecodeFile() = %+v", cfg)
	}

	if err := yamlutil.DecodeFile(typo, &testConfig{}); !errors.Is(err, yamlutil.ErrDecode) {
		t.Errorf("DecodeFile(typo) error = %v, want ErrDecode", err)
	}
	if err := yamlutil.DecodeFile(filepath.Join(dir, "absent.yaml"), &testConfig{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DecodeFile(absent) error = %v, want os.ErrNotExist", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal - Encoding
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	out, err := yamlutil.Marshal(testConfig{Name: "notes", Count: 1, Styles: []string{"default"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(out)
	for _, want := range []string{"name: notes", "count: 1", "styles:\n  - default"} {
		if !strings.Contains(s, want) {
			t.Errorf("Marshal() = %q, want to contain %q", s, want)
		}
	}

	var back testConfig
	if err := yamlutil.UnmarshalStrict(out, &back); err != nil {
		t.Fatalf("UnmarshalStrict(Marshal()) error = %v", err)
	}
	if back.Name != "notes" || back.Count != 1 || len(back.Styles) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - MaxInputSize Enforcement
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })
	yamlutil.MaxInputSize = 50

	atLimit := []byte("name: x" + strings.Repeat(" ", 43))
	if err := yamlutil.Unmarshal(atLimit, &testConfig{}); err != nil {
		t.Errorf("input at limit: unexpected error %v", err)
	}

	over := []byte("name: x" + strings.Repeat(" ", 93))
	for name, decode := range map[string]func([]byte, any) error{
		"Unmarshal":       yamlutil.Unmarshal,
		"UnmarshalStrict": yamlutil.UnmarshalStrict,
	} {
		err := decode(over, &testConfig{})
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Errorf("%s error = %v, want ErrInputTooLarge", name, err)
			continue
		}
		if !strings.Contains(err.Error(), "100 bytes") || !strings.Contains(err.Error(), "max 50") {
			t.Errorf("%s error = %q, want sizes in message", name, err)
		}
	}

	path := filepath.Join(t.TempDir(), "big.yaml")
	if err := os.WriteFile(path, over, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := yamlutil.DecodeFile(path, &testConfig{}); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("DecodeFile error = %v, want ErrInputTooLarge", err)
	}
}
