package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/classify"
	"github.com/appdock/appdock/internal/clipboard"
	"github.com/appdock/appdock/internal/config"
	"github.com/appdock/appdock/internal/launcher"
	"github.com/appdock/appdock/internal/search"
	"github.com/appdock/appdock/internal/statedb"
	"github.com/appdock/appdock/internal/ui"
)

// Table column widths for list output
const (
	tableColName     = 28
	tableColCategory = 18
)

func handleScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	quiet := fs.Bool("quiet", false, "Print nothing on success")
	fs.BoolVar(quiet, "q", false, "Print nothing on success (short)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock scan [options]")
		fmt.Println()
		fmt.Println("Rescan the install folders, classify every app and record new or")
		fmt.Println("updated apps. The first scan ever run establishes the baseline.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, *quiet)
	ctx, cancel := signalContext()
	defer cancel()

	env, snap := mustOpen(ctx, out)
	defer env.Close()

	if n, err := env.db.PruneUsage(time.Now().Add(-usageRetention)); err == nil && n > 0 {
		cliLog.Info("usage_pruned", slog.Int64("removed", n))
	}

	var newApps, updated []catalog.AppRecord
	for _, r := range snap.Apps {
		switch {
		case r.IsNew:
			newApps = append(newApps, r)
		case r.IsUpdated:
			updated = append(updated, r)
		}
	}
	groups := env.svc.Groups()

	var b strings.Builder
	fmt.Fprintf(&b, "%s Found %d apps in %d categories (%s)\n",
		successSymbol, len(snap.Apps), len(groups), snap.ScannedAt.Format(time.Kitchen))
	for _, r := range newApps {
		fmt.Fprintf(&b, "  %s %s  %s\n", ui.NewBadgeStyle.Render("NEW"), r.Name, ui.DimStyle.Render(r.ID))
	}
	for _, r := range updated {
		fmt.Fprintf(&b, "  %s %s  %s\n", ui.UpdatedBadge.Render("UPDATED"), r.Name, ui.DimStyle.Render(r.Version))
	}

	out.Print(b.String(), map[string]interface{}{
		"success":    true,
		"apps":       len(snap.Apps),
		"categories": len(groups),
		"new":        idsOf(newApps),
		"updated":    idsOf(updated),
		"scanned_at": snap.ScannedAt,
	})
}

func handleList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	category := fs.String("category", "", "Only list apps in this category")
	fs.StringVar(category, "c", "", "Only list apps in this category (short)")
	grouped := fs.Bool("groups", false, "Group apps into category folders")
	all := fs.Bool("all", false, "Include hidden apps")
	fs.Usage = func() {
		fmt.Println("Usage: appdock list [options]")
		fmt.Println()
		fmt.Println("List installed apps in name order.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  appdock list --groups")
		fmt.Println("  appdock list -c dev          # fuzzy category name")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	cat, err := parseCategoryFlag(*category)
	if err != nil {
		exitWith(nil, out, err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()
	ui.InitTheme(config.ResolveTheme())

	if *grouped {
		groups := env.svc.Groups()
		if *jsonOutput {
			type groupJSON struct {
				Category catalog.Category    `json:"category"`
				Apps     []catalog.AppRecord `json:"apps"`
			}
			data := make([]groupJSON, 0, len(groups))
			for _, g := range groups {
				if cat == "" || g.Category == cat {
					data = append(data, groupJSON{Category: g.Category, Apps: g.Apps})
				}
			}
			out.Print("", data)
			return
		}
		var b strings.Builder
		for _, g := range groups {
			if cat != "" && g.Category != cat {
				continue
			}
			fmt.Fprintf(&b, "%s %s %s\n", ui.CategoryDot(g.Category),
				ui.CategoryStyle(g.Category).Bold(true).Render(string(g.Category)),
				ui.DimStyle.Render(fmt.Sprintf("(%d)", len(g.Apps))))
			for _, r := range g.Apps {
				fmt.Fprintf(&b, "  %s %s%s\n", bulletSymbol, r.Name, badges(r))
			}
			b.WriteString("\n")
		}
		out.Print(b.String(), nil)
		return
	}

	var apps []catalog.AppRecord
	if *all {
		for _, r := range snap.Apps {
			if cat == "" || r.Category == cat {
				apps = append(apps, r)
			}
		}
	} else {
		apps = env.svc.Visible(cat)
	}
	catalog.SortByName(apps)

	if *jsonOutput {
		out.Print("", apps)
		return
	}
	if len(apps) == 0 {
		fmt.Println("No apps found.")
		return
	}
	fmt.Print(formatAppTable(apps, terminalWidth(100)))
	fmt.Printf("\nTotal: %d apps\n", len(apps))
}

// formatAppTable renders apps as NAME, CATEGORY and ID columns fitted to width
func formatAppTable(apps []catalog.AppRecord, width int) string {
	var b strings.Builder
	idWidth := width - tableColName - tableColCategory - 2
	if idWidth < 12 {
		idWidth = 12
	}
	fmt.Fprintf(&b, "%s %s %s\n", padRight("NAME", tableColName), padRight("CATEGORY", tableColCategory), "ID")
	b.WriteString(strings.Repeat("-", tableColName+tableColCategory+idWidth+2) + "\n")
	for _, r := range apps {
		name := r.Name
		switch {
		case r.IsNew:
			name = "* " + name
		case r.IsUpdated:
			name = "^ " + name
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			padRight(truncate(name, tableColName), tableColName),
			padRight(truncate(string(r.Category), tableColCategory), tableColCategory),
			truncate(r.ID, idWidth))
	}
	return b.String()
}

func handleSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	category := fs.String("category", "", "Restrict the search to one category")
	fs.StringVar(category, "c", "", "Restrict the search to one category (short)")
	limit := fs.Int("limit", 10, "Maximum results (0 for all)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock search <query> [options]")
		fmt.Println()
		fmt.Println("Fuzzy search by name, abbreviation (\"vsc\"), identifier or with typos.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fs.Usage()
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	cat, err := parseCategoryFlag(*category)
	if err != nil {
		exitWith(nil, out, err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, _ := mustOpen(ctx, out)
	defer env.Close()
	ui.InitTheme(config.ResolveTheme())

	results := env.svc.Search(query, cat)
	if *limit > 0 && len(results) > *limit {
		results = results[:*limit]
	}
	if *jsonOutput {
		out.Print("", results)
		return
	}
	if len(results) == 0 {
		fmt.Printf("No apps match %q.\n", query)
		return
	}
	for _, r := range results {
		fmt.Printf("%s %s  %s  %s\n",
			ui.CategoryDot(r.Record.Category),
			highlightRanges(r.Record.Name, r.Ranges),
			ui.DimStyle.Render(r.Record.ID),
			ui.DimStyle.Render(string(r.Rule)))
	}
}

// highlightRanges renders the matched rune ranges of name in the highlight
// style
func highlightRanges(name string, ranges []search.Range) string {
	if len(ranges) == 0 {
		return name
	}
	runes := []rune(name)
	matched := make([]bool, len(runes))
	for _, rg := range ranges {
		for i := rg.Start; i < rg.End && i < len(runes); i++ {
			if i >= 0 {
				matched[i] = true
			}
		}
	}
	var b strings.Builder
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && matched[i] == matched[start] {
			continue
		}
		seg := string(runes[start:i])
		if matched[start] {
			b.WriteString(ui.HighlightStyle.Render(seg))
		} else {
			b.WriteString(seg)
		}
		start = i
	}
	return b.String()
}

func handleShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	copyPath := fs.Bool("copy", false, "Copy the bundle path to the clipboard")
	fs.Usage = func() {
		fmt.Println("Usage: appdock show <app> [options]")
		fmt.Println()
		fmt.Println("Show an app's metadata, how it was classified and its stored preferences.")
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

	r, err := resolveApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}

	classified, layer := classify.Explain(r)
	pref, err := env.tracker.Preference(r.ID)
	if err != nil && !errors.Is(err, statedb.ErrNotFound) {
		exitWith(env, out, err)
	}
	if pref == nil {
		pref = &statedb.PreferenceRow{BundleID: r.ID}
	}
	usage, err := env.db.UsageFor(r.ID)
	if err != nil {
		exitWith(env, out, err)
	}
	var lastLaunch *time.Time
	if len(usage) > 0 {
		lastLaunch = &usage[0].LaunchedAt
	}
	if *copyPath {
		if method, err := clipboard.Copy(r.Path); err != nil {
			out.Warn([]string{err.Error()})
		} else {
			cliLog.Debug("path_copied", slog.String("id", r.ID), slog.String("method", method))
			if !*jsonOutput {
				fmt.Fprintf(os.Stderr, "%s Copied %s\n", successSymbol, r.Path)
			}
		}
	}

	if *jsonOutput {
		out.Print("", map[string]interface{}{
			"app":               r,
			"classified_as":     classified,
			"classified_by":     layer.String(),
			"category_override": pref.CategoryOverride,
			"pinned":            pref.IsPinned,
			"pin_order":         pref.PinOrder,
			"hidden":            pref.IsHidden,
			"launches":          len(usage),
			"last_launched":     lastLaunch,
			"can_uninstall":     env.svc.CanUninstall(ctx, r),
		})
		return
	}

	fmt.Printf("%s %s\n", ui.CategoryDot(r.Category), ui.TitleStyle.Render(r.Name))
	fmt.Printf("  ID:         %s\n", r.ID)
	fmt.Printf("  Path:       %s\n", r.Path)
	if r.Version != "" {
		fmt.Printf("  Version:    %s\n", r.Version)
	}
	fmt.Printf("  Category:   %s %s\n", r.Category, catalog.Symbol(r.Category))
	if pref.CategoryOverride != "" {
		fmt.Printf("  Classifier: %s (%s), overridden\n", classified, layer)
	} else {
		fmt.Printf("  Classifier: %s (%s)\n", classified, layer)
	}
	if r.StoreCategory != "" {
		fmt.Printf("  Store:      %s\n", r.StoreCategory)
	}
	var flags []string
	if r.IsSystemApp {
		flags = append(flags, "system")
	}
	if pref.IsPinned {
		flags = append(flags, fmt.Sprintf("pinned #%d", pref.PinOrder+1))
	}
	if pref.IsHidden {
		flags = append(flags, "hidden")
	}
	if r.IsNew {
		flags = append(flags, "new")
	}
	if r.IsUpdated {
		flags = append(flags, "updated")
	}
	if len(flags) > 0 {
		fmt.Printf("  Flags:      %s\n", strings.Join(flags, ", "))
	}
	fmt.Printf("  Launches:   %d\n", len(usage))
	if lastLaunch != nil {
		fmt.Printf("  Last:       %s\n", lastLaunch.Format(time.RFC1123))
	}
}

func handleLaunch(args []string) {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	quiet := fs.Bool("quiet", false, "Print nothing on success")
	fs.BoolVar(quiet, "q", false, "Print nothing on success (short)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock launch <app> [options]")
		fmt.Println()
		fmt.Println("Open an app. Launching clears its new/updated marker.")
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

	out := NewCLIOutput(*jsonOutput, *quiet)
	ctx, cancel := signalContext()
	defer cancel()
	env, snap := mustOpen(ctx, out)
	defer env.Close()

	r, err := resolveApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}
	if err := env.svc.Launch(ctx, r.ID); err != nil {
		exitWith(env, out, err)
	}
	out.Success(fmt.Sprintf("Launched %s", r.Name), map[string]interface{}{
		"success": true,
		"id":      r.ID,
		"name":    r.Name,
	})
}

func handleUninstall(args []string) {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.BoolVar(yes, "y", false, "Do not ask for confirmation (short)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock uninstall <app> [options]")
		fmt.Println()
		fmt.Println("Move an app to the Trash and forget its pins, overrides and history.")
		fmt.Println("System apps, running apps and appdock itself are refused.")
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

	r, err := resolveApp(snap.Apps, strings.Join(fs.Args(), " "))
	if err != nil {
		exitWith(env, out, err)
	}

	if !*yes {
		if !isInteractive() {
			exitWith(env, out, fmt.Errorf("refusing to uninstall %s without --yes", r.Name))
		}
		if !confirm(fmt.Sprintf("Move %s (%s) to the Trash?", r.Name, r.Path)) {
			fmt.Println("Cancelled.")
			return
		}
	}

	if err := env.svc.Uninstall(ctx, r.ID); err != nil {
		exitWith(env, out, err)
	}
	out.Success(fmt.Sprintf("Moved %s to the Trash", r.Name), map[string]interface{}{
		"success": true,
		"id":      r.ID,
		"path":    r.Path,
	})
}

// confirm asks a yes/no question, defaulting to no
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func handleWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Print one JSON object per rescan")
	fs.Usage = func() {
		fmt.Println("Usage: appdock watch [options]")
		fmt.Println()
		fmt.Println("Rescan whenever an install folder changes, until interrupted.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	env, err := openEnv(func(s launcher.Snapshot) {
		printSnapshotLine(out, s)
	})
	if err != nil {
		exitWith(nil, out, err)
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := env.svc.Refresh(ctx)
	if err != nil {
		exitWith(env, out, err)
	}
	out.Warn(snap.Warnings)
	if !*jsonOutput {
		fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl+C to stop)...")
	}

	if err := env.svc.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		exitWith(env, out, err)
	}
}

// printSnapshotLine reports one applied scan
func printSnapshotLine(out *CLIOutput, s launcher.Snapshot) {
	var newIDs, updatedIDs []string
	for _, r := range s.Apps {
		if r.IsNew {
			newIDs = append(newIDs, r.ID)
		} else if r.IsUpdated {
			updatedIDs = append(updatedIDs, r.ID)
		}
	}
	line := fmt.Sprintf("[%s] scan #%d: %d apps, %d new, %d updated\n",
		s.ScannedAt.Format("15:04:05"), s.Generation, len(s.Apps), len(newIDs), len(updatedIDs))
	out.Print(line, map[string]interface{}{
		"generation": s.Generation,
		"scanned_at": s.ScannedAt,
		"apps":       len(s.Apps),
		"new":        newIDs,
		"updated":    updatedIDs,
		"warnings":   s.Warnings,
	})
}

func handlePick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	rows := fs.Int("rows", 0, "Visible rows (default 12)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock pick [options]")
		fmt.Println()
		fmt.Println("Search as you type. Enter launches, Tab cycles categories, Esc quits.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(false, false)
	if !isInteractive() {
		exitWith(nil, out, errors.New("pick needs an interactive terminal"))
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, _ := mustOpen(ctx, out)
	defer env.Close()

	launched, err := ui.Run(ctx, env.svc, ui.Options{
		Theme:   config.GetTheme(),
		DB:      env.db,
		MaxRows: *rows,
	})
	if err != nil {
		exitWith(env, out, err)
	}
	if launched != nil {
		out.Success(fmt.Sprintf("Launched %s", launched.Name), nil)
	}
}

func handleSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	limit := fs.Int("limit", 0, "Maximum suggestions (default from config)")
	fs.Usage = func() {
		fmt.Println("Usage: appdock suggest [options]")
		fmt.Println()
		fmt.Println("List apps you usually launch within an hour of the current time.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	out := NewCLIOutput(*jsonOutput, false)
	settings := config.GetSuggestionSettings()
	if !settings.GetEnabled() {
		out.Print("Suggestions are disabled in config.\n", []launcher.Suggestion{})
		return
	}
	n := settings.Max
	if *limit > 0 {
		n = *limit
	}

	ctx, cancel := signalContext()
	defer cancel()
	env, _ := mustOpen(ctx, out)
	defer env.Close()

	suggestions, err := env.svc.Suggestions(time.Now(), n)
	if err != nil {
		exitWith(env, out, err)
	}
	if *jsonOutput {
		type suggestionJSON struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Launches int    `json:"launches"`
		}
		data := make([]suggestionJSON, 0, len(suggestions))
		for _, s := range suggestions {
			data = append(data, suggestionJSON{ID: s.Record.ID, Name: s.Record.Name, Launches: s.Launches})
		}
		out.Print("", data)
		return
	}
	if len(suggestions) == 0 {
		fmt.Println("No suggestions yet. Launch apps through appdock to build history.")
		return
	}
	for i, s := range suggestions {
		fmt.Printf("%2d. %s %s  %s\n", i+1, ui.CategoryDot(s.Record.Category), s.Record.Name,
			ui.DimStyle.Render(fmt.Sprintf("%d launches", s.Launches)))
	}
}

// parseCategoryFlag resolves a possibly abbreviated category name; empty
// means all categories
func parseCategoryFlag(s string) (catalog.Category, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return catalog.ResolveCategory(s)
}

func badges(r catalog.AppRecord) string {
	switch {
	case r.IsNew:
		return " " + ui.NewBadgeStyle.Render("NEW")
	case r.IsUpdated:
		return " " + ui.UpdatedBadge.Render("UPDATED")
	}
	return ""
}

func idsOf(apps []catalog.AppRecord) []string {
	ids := make([]string, 0, len(apps))
	for _, r := range apps {
		ids = append(ids, r.ID)
	}
	return ids
}
