package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "images.source")
// to their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Output ───────────────────────────────────────────────────
	"output": {
		Comment: "Where generated files go. Relative paths resolve against dir.",
	},
	"output.dir": {},
	"output.deck": {
		Comment: "Presentation file name",
	},
	"output.images": {
		Comment: "Slide image directory. The deck builder reads images from here.",
	},
	"output.previews": {
		Comment: "Slide thumbnail directory (see [preview])",
	},

	// ── Content ──────────────────────────────────────────────────
	"content": {
		Comment: "Deck content. The built-in deck is used unless file is set.\nRun `lessondeck content > deck.toml` to start from a copy.",
	},
	"content.file": {
		Alternatives: []string{
			`file = "deck.toml"`,
		},
	},

	// ── Images ───────────────────────────────────────────────────
	"images.source": {
		Comment: "Where slide images come from. Options: \"generate\", \"download\", \"auto\"\n  generate: draw procedural artwork locally (default, no network)\n  download: fetch stock photos from the fallback URL list\n  auto:     try the download first, draw artwork for anything that fails",
		Alternatives: []string{
			`source = "download"`,
			`source = "auto"`,
		},
	},
	"images.width": {
		Comment: "Generated image size in pixels. Scenes scale from a 1920x1080 layout.",
	},
	"images.height": {},
	"images.quality": {
		Comment: "JPEG quality, 1-100",
	},
	"images.seed": {
		Comment: "Added to every scene's particle seed. Change it for a different scatter.",
	},
	"images.only": {
		Comment: "Only generate images whose name matches one of these globs. Empty = all.",
		Alternatives: []string{
			`only = ["slide7_*", "slide[89]_*"]`,
		},
	},
	"images.overwrite": {
		Comment: "Regenerate images that already exist on disk",
	},

	// ── Download ─────────────────────────────────────────────────
	"download.timeout_seconds": {
		Comment: "Per-request timeout",
	},
	"download.retry_max": {
		Comment: "Transport retries per URL before moving on to the next fallback URL",
	},
	"download.min_bytes": {
		Comment: "Responses smaller than this are treated as error pages and discarded",
	},
	"download.skip_existing_bytes": {
		Comment: "Skip names whose file already exists and is larger than this",
	},
	"download.retry_delay_millis": {
		Comment: "Pause after a URL fails, before trying the next fallback",
	},
	"download.image_delay_millis": {
		Comment: "Pause between one image and the next, to stay polite to the image hosts",
	},
	"download.user_agent": {},

	// ── Fonts ────────────────────────────────────────────────────
	"fonts": {
		Comment: "Font for the numbered badges on the summary slide.\nResolution order: badge file, then badge_fallback, then the built-in Go Bold face.",
	},
	"fonts.badge": {
		Alternatives: []string{
			`badge = "/usr/share/fonts/truetype/dejavu/DejaVuSerif-Bold.ttf"`,
		},
	},
	"fonts.badge_fallback": {
		Comment: "Google Fonts spec, cached after the first download",
		Alternatives: []string{
			`badge_fallback = "google:Noto Serif:700"`,
		},
	},
	"fonts.offline": {
		Comment: "Never contact Google Fonts",
	},

	// ── Preview ──────────────────────────────────────────────────
	"preview.enabled": {
		Comment: "Render PNG thumbnails of every slide after each build",
	},
	"preview.width": {},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.file": {
		Comment: "Rotating log file. Leave unset to log to the terminal only.",
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
}
