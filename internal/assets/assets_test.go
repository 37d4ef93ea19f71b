package assets

// Notes:
// - Built-in assets are checked for the markers the converter relies on
//   (template actions, CSS classes emitted by the engines)
// - Filesystem and resolver tests build throwaway asset trees in t.TempDir()

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()
	tests := []struct {
		name        string
		styleName   string
		wantErr     error
		wantContain string
	}{
		{"default style", DefaultStyleName, nil, ".math-error"},
		{"compact style", CompactStyleName, nil, "font-size"},
		{"nonexistent", "nonexistent-style", ErrStyleNotFound, ""},
		{"traversal", "../secret", ErrInvalidAssetName, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadStyle(tt.styleName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadStyle(%q) should contain %q", tt.styleName, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()
	tests := []struct {
		name         string
		templateName string
		wantContain  []string
	}{
		{"page template", PageTemplateName, []string{"{{.Body}}", "{{.Bibliography}}", "</head>"}},
		{"diagram template", DiagramTemplateName, []string{"text/tikz", "{{.Source}}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadTemplate(tt.templateName)
			if err != nil {
				t.Fatalf("LoadTemplate(%q) unexpected error: %v", tt.templateName, err)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(got, want) {
					t.Errorf("LoadTemplate(%q) should contain %q", tt.templateName, want)
				}
			}
		})
	}

	if _, err := loader.LoadTemplate("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(missing) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()

	got := Styles()
	if len(got) < 2 || got[0] != CompactStyleName || got[1] != DefaultStyleName {
		t.Errorf("Styles() = %v, want [compact default ...]", got)
	}
}

func writeAsset(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	t.Run("valid directory", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFilesystemLoader(t.TempDir()); err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		if _, err := NewFilesystemLoader(""); !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeAsset(t, dir, "file.txt", "x")
		if _, err := NewFilesystemLoader(filepath.Join(dir, "file.txt")); !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles/custom.css", "body { color: red; }")
	writeAsset(t, dir, "templates/page.html", "<html>{{.Body}}</html>")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	if got, err := loader.LoadStyle("custom"); err != nil || !strings.Contains(got, "red") {
		t.Errorf("LoadStyle(custom) = %q, %v", got, err)
	}
	if got, err := loader.LoadTemplate("page"); err != nil || got != "<html>{{.Body}}</html>" {
		t.Errorf("LoadTemplate(page) = %q, %v", got, err)
	}
	if _, err := loader.LoadStyle("absent"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(absent) error = %v, want ErrStyleNotFound", err)
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeAsset(t, outside, "secret.css", "secret")

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.css"), filepath.Join(dir, "styles", "leak.css")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	if _, err := loader.LoadStyle("leak"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(leak) error = %v, want ErrPathTraversal", err)
	}
}

func TestAssetResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles/default.css", "/* override */")

	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}
	if resolver.custom == nil {
		t.Fatal("expected custom loader")
	}

	if got, _ := resolver.LoadStyle(DefaultStyleName); got != "/* override */" {
		t.Errorf("custom style not preferred: %q", got)
	}
	if got, err := resolver.LoadStyle(CompactStyleName); err != nil || got == "" {
		t.Errorf("fallback to embedded failed: %v", err)
	}
	if got, err := resolver.LoadTemplate(DiagramTemplateName); err != nil || !strings.Contains(got, "tikz") {
		t.Errorf("template fallback failed: %v", err)
	}
	if _, err := resolver.LoadStyle("../x"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("validation error masked by fallback: %v", err)
	}

	embeddedOnly, err := NewAssetResolver("")
	if err != nil || embeddedOnly.custom != nil {
		t.Fatalf("NewAssetResolver(\"\") = %v, %v", embeddedOnly, err)
	}
	if _, err := NewAssetResolver("/nonexistent/path/abc123xyz"); !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("error = %v, want ErrInvalidBasePath", err)
	}
}
