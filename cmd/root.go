// Package cmd implements the swarmwatch CLI commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/config"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/logging"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/output"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/tmux"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON      bool
	flagTable     bool
	flagCompact   bool
	flagNoColor   bool
	flagConfig    string
	flagLogLevel  string
	flagVerbose   bool
	flagStore     string
	flagWorktrees string
	flagRepo      string
	flagMain      string
)

var rootCmd = &cobra.Command{
	Use:   "swarmwatch",
	Short: "Watch a swarm of coding agents work",
	Long: `swarmwatch monitors coding agents running in git worktrees and tmux sessions.
It infers each task's effective status, totals the lines changed in every
worktree, and serves the result to a terminal board, the CLI, an HTTP
dashboard API, and MCP clients.

Run swarmwatch with no arguments to open the live board.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if !colorEnabled() {
			output.DisableColor()
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "output as JSON")
	pf.BoolVar(&flagTable, "table", false, "output as table")
	pf.BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	pf.BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable color output")
	pf.StringVar(&flagConfig, "config", "", "path to config file (default ~/.config/swarmwatch/config.yml)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level ("+strings.Join(config.LogLevels, ", ")+")")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "shorthand for --log-level debug")
	pf.StringVar(&flagStore, "store", "", "task store JSON file (overrides paths.task_store)")
	pf.StringVar(&flagWorktrees, "worktrees", "", "worktree base directory (overrides paths.worktree_base)")
	pf.StringVar(&flagRepo, "repo", "", "main repository directory (overrides paths.repo_dir)")
	pf.StringVar(&flagMain, "main", "", "trunk branch name (overrides paths.main_branch)")

	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)
}

// normalizeFlag accepts snake_case spellings and the config key names of
// the path overrides.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "task-store":
		name = "store"
	case "worktree-base":
		name = "worktrees"
	case "repo-dir":
		name = "repo"
	case "main-branch":
		name = "main"
	}
	return pflag.NormalizedName(name)
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	cliErr := clierr.From(err)

	if outputFormat() == output.FormatJSON {
		output.JSONError(os.Stdout, cliErr)
		os.Exit(cliErr.ExitCode())
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(cliErr.ExitCode())
}

// colorEnabled reports whether styled output should be written to stdout.
func colorEnabled() bool {
	if flagNoColor || termenv.EnvNoColor() {
		return false
	}
	return stdoutIsTerminal()
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int
}

// loadConfig locates and loads the config, then applies the path flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, err
	}

	applyPathFlags(cfg)
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPathFlags copies the path override flags into cfg.
func applyPathFlags(cfg *config.Config) {
	overrides := []struct {
		flag  string
		field *string
	}{
		{flagStore, &cfg.Paths.TaskStore},
		{flagWorktrees, &cfg.Paths.WorktreeBase},
		{flagRepo, &cfg.Paths.RepoDir},
		{flagMain, &cfg.Paths.MainBranch},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.field = o.flag
		}
	}
}

// env bundles what a command needs to enrich tasks.
type env struct {
	cfg      *config.Config
	paths    config.Paths
	logger   *log.Logger
	git      *git.Runner
	pipeline *enrich.Pipeline
	viewer   *gitview.Viewer
}

// setup loads the config and wires the probes and pipeline from it,
// logging to stderr.
func setup() (*env, error) {
	return setupLogged(os.Stderr)
}

func setupLogged(logOutput io.Writer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := cfg.Resolved()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logOutput, cfg.Log.Level)
	g := git.NewRunner(cfg.Git.Binary, cfg.GitTimeout(), logger)
	t := tmux.NewRunner(cfg.Tmux.Binary, cfg.TmuxTimeout(), logger)

	return &env{
		cfg:      cfg,
		paths:    paths,
		logger:   logger,
		git:      g,
		pipeline: enrich.New(paths, g, t, logger),
		viewer:   gitview.New(g),
	}, nil
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarnings writes task store read warnings to stderr.
func printWarnings(warnings []task.ReadWarning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipping task record %d: %v\n", w.Index, w.Err)
	}
}

// snapshotError turns a failed pass into a command error.
func snapshotError(snap enrich.Snapshot) error {
	if snap.Err == nil {
		return nil
	}
	return clierr.From(snap.Err)
}

// renderMarkdown renders md for the terminal at the given width, falling
// back to the raw text when rendering fails.
func renderMarkdown(md string, width int) string {
	if width <= 0 || width > 100 { //nolint:mnd // readable line length
		width = 100 //nolint:mnd // readable line length
	}
	style := glamour.WithAutoStyle()
	if !colorEnabled() {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// checkDir returns a DIR_NOT_FOUND error when dir does not exist.
func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return clierr.Newf(clierr.DirNotFound, "directory not found: %s", dir).
			WithDetails(map[string]any{"dir": dir})
	}
	return nil
}
