package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/appdock/appdock/internal/config"
)

func handleConfig(args []string) {
	if len(args) == 0 {
		printConfigHelp()
		return
	}

	switch args[0] {
	case "path":
		path, err := config.Path()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
	case "show":
		handleConfigShow(args[1:])
	case "init":
		path, err := config.CreateExample()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Config at %s\n", successSymbol, path)
	case "help", "--help", "-h":
		printConfigHelp()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown config command %q\n\n", args[0])
		printConfigHelp()
		os.Exit(1)
	}
}

func printConfigHelp() {
	fmt.Println("Usage: appdock config <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  path    Print the config file location")
	fmt.Println("  show    Print the effective configuration (defaults applied)")
	fmt.Println("  init    Write a commented example config if none exists")
}

// effectiveConfig returns the loaded config with every default filled in
func effectiveConfig() *config.UserConfig {
	cfg, _ := config.Load()
	eff := *cfg
	eff.Theme = config.GetTheme()
	eff.Scan = config.GetScanSettings()
	eff.Pins = config.GetPinSettings()
	eff.Search = config.GetSearchSettings()
	eff.Suggestions = config.GetSuggestionSettings()
	eff.Logs = config.GetLogSettings()
	return &eff
}

func handleConfigShow(args []string) {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	if _, err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "%s config: %v (showing defaults)\n", warnSymbol, err)
	}
	eff := effectiveConfig()
	if *jsonOutput {
		NewCLIOutput(true, false).Print("", eff)
		return
	}
	if err := toml.NewEncoder(os.Stdout).Encode(eff); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
