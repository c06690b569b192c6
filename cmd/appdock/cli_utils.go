package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/search"
)

// normalizeArgs reorders args so flags come before positional arguments.
// Go's flag package stops parsing at the first non-flag argument, which means
// "appdock show Safari --json" would silently ignore --json.
func normalizeArgs(fs *flag.FlagSet, args []string) []string {
	boolFlags := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) {
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			boolFlags[f.Name] = true
		}
	})

	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "-") && arg != "-" {
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") {
				continue
			}
			// Non-bool flags consume the next arg as their value
			if !boolFlags[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

// CLIOutput handles consistent output formatting across all CLI commands
type CLIOutput struct {
	jsonMode  bool
	quietMode bool
}

// NewCLIOutput creates a new CLI output handler
func NewCLIOutput(jsonMode, quietMode bool) *CLIOutput {
	return &CLIOutput{
		jsonMode:  jsonMode,
		quietMode: quietMode,
	}
}

// Success prints a success message or JSON response
func (c *CLIOutput) Success(message string, data interface{}) {
	if c.quietMode {
		return
	}
	if c.jsonMode {
		c.printJSON(data)
		return
	}
	fmt.Printf("%s %s\n", successSymbol, message)
}

// Error prints an error message or JSON error response
func (c *CLIOutput) Error(message string, code string) {
	if c.jsonMode {
		c.printJSON(map[string]interface{}{
			"success": false,
			"error":   message,
			"code":    code,
		})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// Print prints data (human-readable or JSON)
func (c *CLIOutput) Print(humanOutput string, jsonData interface{}) {
	if c.quietMode {
		return
	}
	if c.jsonMode {
		c.printJSON(jsonData)
		return
	}
	fmt.Print(humanOutput)
}

// Warn prints non-fatal warnings to stderr so JSON on stdout stays clean
func (c *CLIOutput) Warn(warnings []string) {
	if c.quietMode {
		return
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s %s\n", warnSymbol, w)
	}
}

func (c *CLIOutput) printJSON(data interface{}) {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to format JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

// Symbols for human-readable output
const (
	successSymbol = "✓"
	warnSymbol    = "!"
	bulletSymbol  = "•"
	pinSymbol     = "★"
)

// Error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAmbiguous        = "AMBIGUOUS"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeProtected        = "PROTECTED"
	ErrCodePersist          = "PERSIST_FAILED"
)

var (
	errNoSuchApp    = errors.New("no matching app")
	errAmbiguousApp = errors.New("ambiguous app name")
)

// resolveApp finds the app a user meant: an exact identifier, then an exact
// case-insensitive name, then the single best fuzzy match. Several equally
// good fuzzy matches are reported as ambiguous.
func resolveApp(apps []catalog.AppRecord, query string) (catalog.AppRecord, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return catalog.AppRecord{}, errNoSuchApp
	}
	for _, r := range apps {
		if r.ID == q {
			return r, nil
		}
	}
	var byName []catalog.AppRecord
	for _, r := range apps {
		if strings.EqualFold(r.Name, q) {
			byName = append(byName, r)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
	default:
		return catalog.AppRecord{}, fmt.Errorf("%w: %q matches %s", errAmbiguousApp, q, describeIDs(byName))
	}

	results := search.Match(q, apps)
	if len(results) == 0 {
		return catalog.AppRecord{}, fmt.Errorf("%w: %q", errNoSuchApp, q)
	}
	var tied []catalog.AppRecord
	for _, r := range results {
		if r.Score != results[0].Score {
			break
		}
		tied = append(tied, r.Record)
	}
	if len(tied) > 1 {
		return catalog.AppRecord{}, fmt.Errorf("%w: %q matches %s", errAmbiguousApp, q, describeIDs(tied))
	}
	return results[0].Record, nil
}

func describeIDs(apps []catalog.AppRecord) string {
	ids := make([]string, 0, len(apps))
	for _, r := range apps {
		ids = append(ids, r.ID)
	}
	return strings.Join(ids, ", ")
}

// errorCode maps an error onto the JSON error code reported for it
func errorCode(err error) string {
	switch {
	case errors.Is(err, errAmbiguousApp):
		return ErrCodeAmbiguous
	case errors.Is(err, errNoSuchApp):
		return ErrCodeNotFound
	default:
		return ErrCodeInvalidOperation
	}
}

// truncate clips s to max terminal cells, ending with "..." when clipped
func truncate(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 3 {
		return runewidth.Truncate(s, max, "")
	}
	return runewidth.Truncate(s, max, "...")
}

// padRight pads s with spaces to width terminal cells
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// terminalWidth returns stdout's width, or fallback when stdout is not a
// terminal
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// isInteractive reports whether both stdin and stdout are terminals
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
