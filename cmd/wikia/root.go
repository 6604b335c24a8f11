package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/wikia-mcp-server/internal/config"
	"github.com/olgasafonova/wikia-mcp-server/wikia"
)

const version = "1.0.0"

var (
	cfgFile      string
	outputFormat string
	language     string
	verbose      bool
)

// newClient builds the client for a command; tests swap it for a stub.
var newClient = func(cfg wikia.Config, logger *slog.Logger) *wikia.Client {
	return wikia.NewClient(cfg, logger)
}

var rootCmd = &cobra.Command{
	Use:   "wikia",
	Short: "Query Wikia/Fandom sub-wikis from the command line",
	Long: `wikia reads Wikia/Fandom sub-wikis: search titles, resolve pages through
redirects, and print summaries, sections, links and categories.

Examples:
  wikia search starwars yoda
  wikia summary starwars "Master Yoda"
  wikia page starwars Yoda --links --categories
  wikia section starwars Yoda Biography
  wikia list starwars --prefix Yo --limit 20`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./wikia.yaml or ~/.wikia/wikia.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVarP(
		&language, "lang", "l", "", "language prefix, overrides the config (e.g. de)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log requests to stderr",
	)

	rootCmd.AddCommand(searchCmd, summaryCmd, pageCmd, sectionCmd, languagesCmd, randomCmd, listCmd, versionCmd)
}

// clientFor loads the configuration and builds a client for cmd.
func clientFor(cmd *cobra.Command) (*wikia.Client, error) {
	var w io.Writer = io.Discard
	level := slog.LevelWarn
	if verbose {
		w, level = os.Stderr, slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	mgr, err := config.NewManager(cfgFile, logger)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	client := newClient(cfg.ClientConfig(), logger)
	if cmd.Flags().Changed("lang") {
		client.SetLanguage(language)
	}
	return client, nil
}

// render writes data to the command's output in the selected format.
func render(cmd *cobra.Command, data any) error {
	format, err := parseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return OutputTo(cmd.OutOrStdout(), format, data)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wikia %s\n", version)
	},
}
