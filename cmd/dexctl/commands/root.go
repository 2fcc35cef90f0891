package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dexscreener-extractor/internal/panel"

	"github.com/spf13/cobra"
)

// Options are the connection defaults; flags override them.
type Options struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

var newRemote = func(baseURL, apiKey string) *panel.Remote {
	return panel.NewRemote(baseURL, apiKey, nil)
}

func ExecuteContext(ctx context.Context, opts Options) {
	if err := NewRootCmd(opts).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd(opts Options) *cobra.Command {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	root := &cobra.Command{
		Use:           "dexctl",
		Short:         "dexctl controls a running DEXScreener extractor over its HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.APIURL, "api", opts.APIURL, "Base URL of the control API.")
	root.PersistentFlags().StringVar(&opts.APIKey, "key", opts.APIKey, "API key sent as X-API-Key.")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Timeout for each request.")

	c := &cli{opts: &opts}
	root.AddCommand(
		c.settingsCmd(),
		c.historyCmd(),
		c.archiveCmd(),
		c.pagesCmd(),
		c.extractCmd(),
		c.statusCmd(),
		c.exportCmd(),
		c.schedulerCmd(),
		c.panelCmd(),
	)
	return root
}

type cli struct {
	opts *Options
}

func (c *cli) remote() *panel.Remote {
	return newRemote(c.opts.APIURL, c.opts.APIKey)
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
