// Package paths centralizes file and directory names used across the project.
// All output directory file names are defined here as the single source of
// truth.
package paths

import (
	"fmt"
	"path/filepath"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// File and directory names.
const (
	BinaryName  = "lessondeck"
	ConfigFile  = "lessondeck.toml"
	LogFile     = "lessondeck.log"
	LockFile    = ".lessondeck.lock"
	DeckFile    = "The_Cross_That_Shows_Love_Week2.pptx"
	ImagesDir   = "images"
	PreviewsDir = "previews"
	FontsDir    = "fonts"
	ImageExt    = ".jpg"
	PreviewExt  = ".png"
	BackupExt   = ".bak"
)

// ImageFile returns the file name for a named slide image.
// For example, ImageFile("slide7_descending") returns "slide7_descending.jpg".
func ImageFile(name string) string {
	return name + ImageExt
}

// PreviewFile returns the thumbnail file name for a 1-based slide index.
func PreviewFile(slide int) string {
	return fmt.Sprintf("slide-%02d%s", slide, PreviewExt)
}

// ///////////////////////////////////////////////
// Layout
// ///////////////////////////////////////////////

// Layout provides path construction methods rooted at an output directory.
// Empty sub-directory fields fall back to the package defaults.
type Layout struct {
	Root     string
	Deck     string
	Images   string
	Previews string
}

func (l Layout) join(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.Root, name)
}

// DeckPath returns the full path to the generated presentation.
func (l Layout) DeckPath() string { return l.join(l.Deck, DeckFile) }

// ImagesPath returns the full path to the image directory.
func (l Layout) ImagesPath() string { return l.join(l.Images, ImagesDir) }

// PreviewsPath returns the full path to the preview directory.
func (l Layout) PreviewsPath() string { return l.join(l.Previews, PreviewsDir) }

// Image returns the full path to a named slide image.
func (l Layout) Image(name string) string {
	return filepath.Join(l.ImagesPath(), ImageFile(name))
}

// Preview returns the full path to the thumbnail of a 1-based slide index.
func (l Layout) Preview(slide int) string {
	return filepath.Join(l.PreviewsPath(), PreviewFile(slide))
}

// Lock returns the full path to the advisory lock file.
func (l Layout) Lock() string { return filepath.Join(l.Root, LockFile) }

// FontCache returns the directory holding downloaded badge fonts.
func (l Layout) FontCache() string { return filepath.Join(l.Root, FontsDir, ".cache") }
