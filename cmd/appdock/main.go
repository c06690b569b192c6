package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/appdock/appdock/internal/config"
	"github.com/appdock/appdock/internal/launcher"
	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/metadata"
	"github.com/appdock/appdock/internal/platform"
	"github.com/appdock/appdock/internal/scanner"
	"github.com/appdock/appdock/internal/state"
	"github.com/appdock/appdock/internal/statedb"
)

const Version = "0.1.0"

// selfBundleID is the identifier of the appdock app bundle, which must never
// uninstall itself
const selfBundleID = "io.appdock.AppDock"

// usageRetention bounds how far back launch history is kept
const usageRetention = 180 * 24 * time.Hour

var cliLog = logging.ForComponent(logging.CompCLI)

// init sets up color profile for consistent terminal colors across environments
func init() {
	initColorProfile()
}

// initColorProfile configures lipgloss color profile based on terminal capabilities.
// Prefers TrueColor for best visuals, falls back to ANSI256 for compatibility.
func initColorProfile() {
	// APPDOCK_COLOR: truecolor, 256, 16, none
	if colorEnv := os.Getenv("APPDOCK_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	termType := os.Getenv("TERM")
	if strings.Contains(termType, "256color") || strings.Contains(termType, "kitty") ||
		strings.Contains(termType, "alacritty") || strings.Contains(termType, "wezterm") {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	lipgloss.SetColorProfile(termenv.ANSI256)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		if isInteractive() {
			handlePick(nil)
			return
		}
		printHelp()
		return
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("appdock v%s\n", Version)
	case "help", "--help", "-h":
		printHelp()
	case "scan":
		handleScan(args[1:])
	case "list", "ls":
		handleList(args[1:])
	case "search", "find":
		handleSearch(args[1:])
	case "show":
		handleShow(args[1:])
	case "pin":
		handlePin(args[1:])
	case "unpin":
		handleUnpin(args[1:])
	case "pins":
		handlePins(args[1:])
	case "category":
		handleCategory(args[1:])
	case "hide":
		handleHide(args[1:])
	case "launch", "open":
		handleLaunch(args[1:])
	case "uninstall":
		handleUninstall(args[1:])
	case "watch":
		handleWatch(args[1:])
	case "pick":
		handlePick(args[1:])
	case "suggest":
		handleSuggest(args[1:])
	case "config":
		handleConfig(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("appdock v%s\n", Version)
	fmt.Println("Application launcher for macOS: discovery, categories, fuzzy search")
	fmt.Println()
	fmt.Println("Usage: appdock [command] [options]")
	fmt.Println()
	fmt.Println("With no command in a terminal, opens the interactive picker.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scan                  Rescan installed apps and report changes")
	fmt.Println("  list                  List apps, optionally grouped by category")
	fmt.Println("  search <query>        Fuzzy search apps by name or identifier")
	fmt.Println("  show <app>            Show details and classification for one app")
	fmt.Println("  launch <app>          Open an app")
	fmt.Println("  pick                  Interactive search-as-you-type picker")
	fmt.Println("  pin <app>             Pin an app (--at N to reorder)")
	fmt.Println("  unpin <app>           Unpin an app")
	fmt.Println("  pins                  List pinned apps in order")
	fmt.Println("  category <app> <cat>  Override an app's category (--clear to reset)")
	fmt.Println("  hide <app>            Hide an app from lists and search (--undo to show)")
	fmt.Println("  uninstall <app>       Move an app to the Trash")
	fmt.Println("  suggest               Apps you usually open around this time")
	fmt.Println("  watch                 Rescan whenever install folders change")
	fmt.Println("  config <path|show|init>")
	fmt.Println("  version               Show version")
	fmt.Println()
	fmt.Println("<app> is a bundle identifier, an app name, or a fuzzy query with one best match.")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  APPDOCK_HOME   State directory (default: ~/.appdock)")
	fmt.Println("  APPDOCK_COLOR  truecolor, 256, 16 or none")
	fmt.Println("  APPDOCK_DEBUG  Mirror logs to stderr")
}

// appEnv is the wired launcher core shared by every command
type appEnv struct {
	stateDir string
	db       *statedb.StateDB
	tracker  *state.Tracker
	svc      *launcher.Service
}

// openEnv opens the state directory, configures logging and wires the
// scanner, tracker and launcher service. onChange may be nil.
func openEnv(onChange func(launcher.Snapshot)) (*appEnv, error) {
	stateDir, err := platform.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	if _, err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "%s config: %v (using defaults)\n", warnSymbol, err)
	}
	debug := os.Getenv("APPDOCK_DEBUG") != ""
	logging.Init(config.GetLogSettings().LoggingConfig(stateDir, debug))

	db, err := statedb.Open(filepath.Join(stateDir, statedb.FileName))
	if err != nil {
		logging.Shutdown()
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		logging.Shutdown()
		return nil, err
	}

	scanCfg := config.GetScanSettings()
	home, _ := os.UserHomeDir()
	roots := append(platform.InstallRoots(home), scanCfg.ExtraRoots...)

	parser := metadata.NewParser(metadata.DefaultSource(scanCfg.GetSpotlight(), scanCfg.SpotlightRate))
	sc := scanner.New(parser, roots)
	sc.Denylist = append(append([]string(nil), scanner.DefaultDenylist...), scanCfg.ExcludeIDs...)
	sc.Workers = scanCfg.Workers

	tracker := state.NewTracker(db, config.GetPinSettings().MaxPinned)
	svc := launcher.New(launcher.Config{
		Scanner:    sc,
		Tracker:    tracker,
		DB:         db,
		Roots:      roots,
		Debounce:   scanCfg.Debounce(),
		MaxResults: config.GetSearchSettings().MaxResults,
		OnChange:   onChange,
		SelfID:     selfBundleID,
	})

	cliLog.Debug("env_opened",
		slog.String("state_dir", stateDir),
		slog.Int("roots", len(roots)),
		slog.String("platform", platform.Detect().String()),
	)
	return &appEnv{stateDir: stateDir, db: db, tracker: tracker, svc: svc}, nil
}

func (e *appEnv) Close() {
	if err := e.db.Close(); err != nil {
		cliLog.Warn("db_close_failed", slog.String("error", err.Error()))
	}
	logging.Shutdown()
}

// mustOpen opens the environment and runs a first scan, exiting on failure.
// Scan warnings go to stderr.
func mustOpen(ctx context.Context, out *CLIOutput) (*appEnv, launcher.Snapshot) {
	env, err := openEnv(nil)
	if err != nil {
		out.Error(err.Error(), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	snap, err := env.svc.Refresh(ctx)
	if err != nil {
		env.Close()
		out.Error(err.Error(), ErrCodeInvalidOperation)
		os.Exit(1)
	}
	out.Warn(snap.Warnings)
	return env, snap
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitWith reports err with the matching code and exits. Persist failures
// are reported but exit zero because the in-memory operation succeeded.
func exitWith(env *appEnv, out *CLIOutput, err error) {
	if errors.Is(err, state.ErrPersist) {
		out.Warn([]string{err.Error()})
		return
	}
	code := errorCode(err)
	switch {
	case errors.Is(err, launcher.ErrProtected):
		code = ErrCodeProtected
	case errors.Is(err, launcher.ErrUnknownApp):
		code = ErrCodeNotFound
	}
	out.Error(err.Error(), code)
	if env != nil {
		env.Close()
	}
	os.Exit(1)
}
