package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/ui"
)

// resolveStoredApp is resolveApp that also accepts the identifier of an app
// that is no longer installed, so stale preferences can still be cleared.
func resolveStoredApp(apps []catalog.AppRecord, query string) (catalog.AppRecord, error) {
	r, err := resolveApp(apps, query)
	if err == nil || !errors.Is(err, errNoSuchApp) {
		return r, err
	}
	q := strings.TrimSpace(query)
	if strings.Contains(q, ".") && !strings.ContainsAny(q, " \t") {
		return catalog.AppRecord{ID: q, Name: q}, nil
	}
	return r, err
}

func handlePin(args []string) {
	fs := flag.NewFlagSet("pin", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	at := fs.Int("at", 0, "Move to this 1-based position in the pinned row")
	fs.Usage = func() {
		fmt.Println("Usage: appdock pin <app> [options]")
		fmt.Println()
		fmt.Println("Pin an app to the end of the pinned row, or move it with --at.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  appdock pin Safari")
		fmt.Println("  appdock pin com.apple.Safari --at 1")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()

	r, err := resolveApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}
	if err := env.tracker.Pin(r.ID); err != nil {
		exitWith(env, out, err)
	}
	msg := fmt.Sprintf("Pinned %s", r.Name)
	if *at > 0 {
		if err := env.tracker.MovePin(r.ID, *at-1); err != nil {
			exitWith(env, out, err)
		}
		msg = fmt.Sprintf("Pinned %s at position %d", r.Name, *at)
	}
	out.Success(msg, map[string]interface{}{
		"success": true,
		"id":      r.ID,
		"name":    r.Name,
	})
}

func handleUnpin(args []string) {
	fs := flag.NewFlagSet("unpin", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Println("Usage: appdock unpin <app> [options]")
		fmt.Println()
		fmt.Println("Remove an app from the pinned row.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()

	r, err := resolveStoredApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}
	if err := env.tracker.Unpin(r.ID); err != nil {
		exitWith(env, out, err)
	}
	out.Success(fmt.Sprintf("Unpinned %s", r.Name), map[string]interface{}{
		"success": true,
		"id":      r.ID,
	})
}

func handlePins(args []string) {
	fs := flag.NewFlagSet("pins", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Println("Usage: appdock pins [options]")
		fmt.Println()
		fmt.Println("List pinned apps in pin order. Uninstalled pins are skipped.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	ctx, cancel := signalContext()
	defer cancel()
	env, _ := mustOpen(ctx, out)
	defer env.Close()

	pinned, err := env.svc.Pinned()
	if err != nil {
		exitWith(env, out, err)
	}
	if *jsonOutput {
		out.Print("", pinned)
		return
	}
	if len(pinned) == 0 {
		fmt.Println("No pinned apps. Pin one with: appdock pin <app>")
		return
	}
	for i, r := range pinned {
		fmt.Printf("%s %d. %s %s  %s\n", pinSymbol, i+1, ui.CategoryDot(r.Category), r.Name, ui.DimStyle.Render(r.ID))
	}
}

func handleCategory(args []string) {
	fs := flag.NewFlagSet("category", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	clearOverride := fs.Bool("clear", false, "Remove the override and use the classifier result")
	list := fs.Bool("list", false, "List the available categories")
	fs.Usage = func() {
		fmt.Println("Usage: appdock category <app> <category> [options]")
		fmt.Println("       appdock category <app> --clear")
		fmt.Println("       appdock category --list")
		fmt.Println()
		fmt.Println("Override the category an app is filed under. Category names may be")
		fmt.Println("abbreviated (\"dev\" for \"Developer Tools\").")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	if *list {
		var b strings.Builder
		for _, c := range catalog.AllCategories() {
			fmt.Fprintf(&b, "%s %s %s\n", ui.CategoryDot(c), catalog.Symbol(c), c)
		}
		out.Print(b.String(), catalog.AllCategories())
		return
	}

	rest := fs.Args()
	if len(rest) == 0 || (!*clearOverride && len(rest) < 2) {
		fs.Usage()
		os.Exit(1)
	}

	var target catalog.Category
	appQuery := strings.Join(rest, " ")
	if !*clearOverride {
		c, err := catalog.ResolveCategory(rest[len(rest)-1])
		if err != nil {
			exitWith(nil, out, err)
		}
		target = c
		appQuery = strings.Join(rest[:len(rest)-1], " ")
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()

	var (
		r   catalog.AppRecord
		err error
	)
	if *clearOverride {
		r, err = resolveStoredApp(snap.Apps, appQuery)
	} else {
		r, err = resolveApp(snap.Apps, appQuery)
	}
	if err != nil {
		exitWith(env, out, err)
	}
	if err := env.svc.SetCategory(r.ID, target); err != nil {
		exitWith(env, out, err)
	}

	msg := fmt.Sprintf("Filed %s under %s", r.Name, target)
	if *clearOverride {
		msg = fmt.Sprintf("Cleared category override for %s", r.Name)
	}
	out.Success(msg, map[string]interface{}{
		"success":  true,
		"id":       r.ID,
		"category": target,
	})
}

func handleHide(args []string) {
	fs := flag.NewFlagSet("hide", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	undo := fs.Bool("undo", false, "Show a hidden app again")
	fs.Usage = func() {
		fmt.Println("Usage: appdock hide <app> [options]")
		fmt.Println()
		fmt.Println("Hide an app from lists, groups and search. It stays installed.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()

	r, err := resolveStoredApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}
	if err := env.svc.SetHidden(r.ID, !*undo); err != nil {
		exitWith(env, out, err)
	}

	msg := fmt.Sprintf("Hid %s", r.Name)
	if *undo {
		msg = fmt.Sprintf("%s is visible again", r.Name)
	}
	out.Success(msg, map[string]interface{}{
		"success": true,
		"id":      r.ID,
		"hidden":  !*undo,
	})
}
