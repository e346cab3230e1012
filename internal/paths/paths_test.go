package paths

import (
	"path/filepath"
	"testing"
)

// ///////////////////////////////////////////////
// Constant Value Tests
// ///////////////////////////////////////////////

func TestConstantValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BinaryName", BinaryName, "lessondeck"},
		{"ConfigFile", ConfigFile, "lessondeck.toml"},
		{"LogFile", LogFile, "lessondeck.log"},
		{"DeckFile", DeckFile, "The_Cross_That_Shows_Love_Week2.pptx"},
		{"ImagesDir", ImagesDir, "images"},
		{"PreviewsDir", PreviewsDir, "previews"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestFileNames(t *testing.T) {
	if got := ImageFile("slide2_cross_mindset"); got != "slide2_cross_mindset.jpg" {
		t.Errorf("ImageFile = %q", got)
	}
	if got := PreviewFile(3); got != "slide-03.png" {
		t.Errorf("PreviewFile(3) = %q", got)
	}
	if got := PreviewFile(10); got != "slide-10.png" {
		t.Errorf("PreviewFile(10) = %q", got)
	}
}

// ///////////////////////////////////////////////
// Layout Method Tests
// ///////////////////////////////////////////////

func TestLayoutDefaults(t *testing.T) {
	root := filepath.Join("work", "out")
	l := Layout{Root: root}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DeckPath", l.DeckPath(), filepath.Join(root, DeckFile)},
		{"ImagesPath", l.ImagesPath(), filepath.Join(root, "images")},
		{"PreviewsPath", l.PreviewsPath(), filepath.Join(root, "previews")},
		{"Image", l.Image("slide5_humble"), filepath.Join(root, "images", "slide5_humble.jpg")},
		{"Preview", l.Preview(1), filepath.Join(root, "previews", "slide-01.png")},
		{"Lock", l.Lock(), filepath.Join(root, ".lessondeck.lock")},
		{"FontCache", l.FontCache(), filepath.Join(root, "fonts", ".cache")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLayoutOverrides(t *testing.T) {
	abs := t.TempDir()
	l := Layout{Root: "out", Deck: "talk.pptx", Images: abs}

	if got, want := l.DeckPath(), filepath.Join("out", "talk.pptx"); got != want {
		t.Errorf("DeckPath = %q, want %q", got, want)
	}
	if got := l.ImagesPath(); got != abs {
		t.Errorf("absolute ImagesPath = %q, want %q", got, abs)
	}
}
