// Package main implements lessondeck, which generates the slide artwork,
// downloads replacement photos and builds "The Cross That Shows Love"
// presentation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	rootpkg "tools.zach/dev/lessondeck"
	"tools.zach/dev/lessondeck/internal/atomicfile"
	"tools.zach/dev/lessondeck/internal/config"
	"tools.zach/dev/lessondeck/internal/content"
	"tools.zach/dev/lessondeck/internal/logger"
	"tools.zach/dev/lessondeck/internal/palette"
	"tools.zach/dev/lessondeck/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time with -ldflags "-X main.version=0.1.0".
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags it is returned as-is; otherwise the embedded VCS revision is used
// to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

const usage = `usage: lessondeck [flags] [command]

Commands:
  all        produce slide images (per images.source), then build (default)
  images     generate procedural slide artwork
  download   download slide photos from the fallback URL lists
  build      build the presentation (-watch to rebuild on change)
  preview    build, then render PNG thumbnails of every slide
  inspect    summarise a built presentation
  logs       print the tail of the log file (-n lines)
  content    print the built-in deck content as TOML
  colors     list the palette colour names

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", paths.ConfigFile, "Path to the config file")
	outDir := fs.String("out", "", "Output directory (overrides output.dir)")
	showVersion := fs.Bool("version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", paths.BinaryName, resolveVersion())
		return 0
	}

	cmd := "all"
	rest := fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	// Commands that need neither config nor output directory.
	switch cmd {
	case "content":
		stdout.Write(content.DefaultTOML())
		return 0
	case "colors":
		printColors(stdout)
		return 0
	case "help":
		fs.Usage()
		return 0
	}

	a, err := setup(*configPath, *outDir, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-signalChannel():
			slog.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.dispatch(ctx, cmd, rest); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\n", err)
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		logger.Fail(a.log, "command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

// ///////////////////////////////////////////////
// App
// ///////////////////////////////////////////////

// app carries the loaded config and the writers shared by every command.
type app struct {
	cfgPath string
	outDir  string
	cfg     *config.Config
	layout  paths.Layout
	log     *slog.Logger
	closer  io.Closer
	stdout  io.Writer
	stderr  io.Writer
}

// setup writes the default config on first run, loads it and initialises
// logging.
func setup(cfgPath, outDir string, stdout, stderr io.Writer) (*app, error) {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if writeErr := atomicfile.Write(cfgPath, rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	layout := cfg.Layout()

	// Progress goes to stdout; the console log only carries warnings unless
	// a debug level is asked for.
	level := logger.ParseLevel(cfg.Log.Level)
	consoleLevel := max(level, logger.LevelWarn)
	if level < logger.LevelInfo {
		consoleLevel = level
	}
	log, closer, err := logger.NewLogger(logger.Options{
		Console:      stderr,
		ConsoleLevel: consoleLevel,
		File:         logFile(cfg, layout),
		FileLevel:    level,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)
	slog.Debug("lessondeck starting", "version", resolveVersion(), "config", cfgPath, "output", layout.Root)

	return &app{
		cfgPath: cfgPath,
		outDir:  outDir,
		cfg:     cfg,
		layout:  layout,
		log:     log,
		closer:  closer,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

func (a *app) close() {
	a.closer.Close()
}

// logFile resolves log.file against the output directory.
func logFile(cfg *config.Config, layout paths.Layout) string {
	if cfg.Log.File == "" || filepath.IsAbs(cfg.Log.File) {
		return cfg.Log.File
	}
	return filepath.Join(layout.Root, cfg.Log.File)
}

// dispatch runs cmd. Commands that write outputs hold the output lock.
func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "inspect":
		return a.inspect(args)
	case "logs":
		return a.logs(args)
	case "all", "images", "download", "build", "preview":
	default:
		return fmt.Errorf("%w: unknown command %q (see lessondeck -help)", errUsage, cmd)
	}

	if err := os.MkdirAll(a.layout.Root, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	lock, err := acquireLock(a.layout.Lock())
	if err != nil {
		return err
	}
	defer lock.release()

	d, err := content.Load(a.cfg.Content.File)
	if err != nil {
		return err
	}

	switch cmd {
	case "images":
		fs := flag.NewFlagSet("images", flag.ContinueOnError)
		fs.SetOutput(a.stderr)
		force := fs.Bool("force", false, "Overwrite existing images")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		_, err := a.generate(ctx, d.Images, *force)
		return err
	case "download":
		_, err := a.download(ctx, d)
		return err
	case "build":
		fs := flag.NewFlagSet("build", flag.ContinueOnError)
		fs.SetOutput(a.stderr)
		watching := fs.Bool("watch", false, "Rebuild when the config or content file changes")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *watching {
			return a.watch(ctx, d)
		}
		return a.build(ctx, d, a.cfg.Preview.Enabled)
	case "preview":
		return a.build(ctx, d, true)
	}

	// all
	if err := a.images(ctx, d); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout)
	return a.build(ctx, d, a.cfg.Preview.Enabled)
}

// ///////////////////////////////////////////////
// Small Commands
// ///////////////////////////////////////////////

func printColors(w io.Writer) {
	for _, name := range palette.Names() {
		c, _ := palette.Named(name)
		fmt.Fprintf(w, "  %-14s %s\n", name, strings.ToUpper(c.Hex()))
	}
}

func (a *app) logs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	n := fs.Int("n", 50, "Number of lines")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	path := logFile(a.cfg, a.layout)
	if path == "" {
		return fmt.Errorf("log.file is not set in %s", a.cfgPath)
	}
	tail, err := logger.ReadTail(path, *n)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	fmt.Fprint(a.stdout, tail)
	return nil
}
