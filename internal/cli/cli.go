// Package cli implements pagectl, which loads the page once and prints it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"imagination-site-api/internal/app"
	"imagination-site-api/internal/config"
	"imagination-site-api/internal/repository"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

type renderOptions struct {
	policy   string
	strategy string
	format   string
	output   string
	timeout  time.Duration
	delay    time.Duration
	verbose  bool
}

type historyOptions struct {
	limit int
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pagectl",
		Short:         "Render the Imagination group page from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newHistoryCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Load every region once and write the page",
		Long: `Loads group info, games, events and merchandise using the configured
upstream settings (environment / .env), then writes the rendered page as
HTML or the container snapshot as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.policy, "policy", "", "Fallback policy: silent or visible (default from PAGE_FALLBACK_POLICY)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Fetch strategy: direct or relay (default from ROBLOX_FETCH_STRATEGY)")
	cmd.Flags().StringVar(&opts.format, "format", FormatHTML, "Output format: html or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Maximum time to wait for all regions")
	cmd.Flags().DurationVar(&opts.delay, "delay", -1, "Fallback delay override (default from PAGE_FALLBACK_DELAY)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	format := strings.ToLower(opts.format)
	if format != FormatHTML && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'html' or 'json')", opts.format)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	assets, _ := app.NewAssetCache(config.CacheConfig{Type: "memory"})
	defer assets.Close()

	client := app.NewRobloxClient(cfg.Roblox, assets, cfg.Cache.TTL)
	controller, err := app.NewController(cfg, client, nil)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if opts.verbose {
		fmt.Fprintf(stderr, "Loading group %s (policy: %s, strategy: %s)\n", cfg.Roblox.GroupID, controller.Policy(), client.Strategy())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	controller.Start(ctx)
	waitErr := controller.Wait(ctx)
	controller.Stop()
	if waitErr != nil {
		return fmt.Errorf("waiting for page load: %w", waitErr)
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == FormatJSON {
		return writeJSON(out, controller.Snapshot())
	}
	if err := controller.RenderPage(out); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Rendered %d games\n", len(controller.Games()))
	}
	return nil
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *renderOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.policy != "" {
		cfg.Page.FallbackPolicy = strings.ToLower(opts.policy)
	}
	if opts.strategy != "" {
		cfg.Roblox.Strategy = strings.ToLower(opts.strategy)
	}
	if opts.delay >= 0 {
		cfg.Page.FallbackDelay = opts.delay
	}
	cfg.Page.LoadTimeout = opts.timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent refresh records from the configured history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.limit, "limit", repository.DefaultRecentLimit, "Number of records to show")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, err := app.NewHistory(cfg.History)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	if repo == nil {
		return fmt.Errorf("refresh history is disabled (HISTORY_DB_TYPE=none)")
	}
	defer repo.Close()

	records, err := repo.Recent(cmd.Context(), opts.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		line := fmt.Sprintf("%s  %-12s %-9s items=%d visits=%d %dms",
			r.CreatedAt.Local().Format(time.DateTime), r.Region, r.Outcome, r.ItemCount, r.TotalVisits, r.DurationMs)
		if r.ErrorMessage != "" {
			line += "  " + r.ErrorMessage
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
