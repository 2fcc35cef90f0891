package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/panel"

	"github.com/spf13/cobra"
)

func (c *cli) pagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Lists the pages the extractor has open.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			pages, err := c.remote().Pages(ctx)
			if err != nil {
				return err
			}
			if pages == nil {
				pages = []agent.PageInfo{}
			}
			return printJSON(cmd, pages)
		},
	}

	var background bool
	open := &cobra.Command{
		Use:   "open [url]",
		Short: "Opens a page, the configured target when no URL is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) == 1 {
				url = args[0]
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			info, err := c.remote().OpenPage(ctx, url, background)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	open.Flags().BoolVar(&background, "background", false, "Open without making the page active.")

	cmd.AddCommand(
		open,
		c.pageAction("activate", "Makes a page the active one.", func(cmd *cobra.Command, r *panel.Remote, id string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			return r.Activate(ctx, id)
		}),
		c.pageAction("reload", "Reloads a page, restarting its agent.", func(cmd *cobra.Command, r *panel.Remote, id string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			return r.Reload(ctx, id)
		}),
		c.pageAction("close", "Closes a page.", func(cmd *cobra.Command, r *panel.Remote, id string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			return r.Close(ctx, id)
		}),
		&cobra.Command{
			Use:   "navigate <id> <url>",
			Short: "Navigates a page in place.",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.context(cmd)
				defer cancel()
				return c.remote().Navigate(ctx, args[0], args[1])
			},
		},
	)
	return cmd
}

func (c *cli) pageAction(name, short string, fn func(cmd *cobra.Command, r *panel.Remote, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fn(cmd, c.remote(), args[0])
		},
	}
}

func (c *cli) extractCmd() *cobra.Command {
	var (
		page      string
		autoClose bool
	)
	cmd := &cobra.Command{
		Use:   "extract [--page id]",
		Short: "Extracts the table of a page and sends it to the webhook.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := c.remote().Send(ctx, page, agent.Extract{AutoClose: autoClose})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&page, "page", agent.ActivePageID, "Page id, or active.")
	cmd.Flags().BoolVar(&autoClose, "auto-close", false, "Run as an automatic extraction.")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var page string
	cmd := &cobra.Command{
		Use:   "status [--page id]",
		Short: "Shows the auto-extract state of a page and its next run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := c.remote().Send(ctx, page, agent.GetStatus{})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&page, "page", agent.ActivePageID, "Page id, or active.")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		page string
		dir  string
	)
	cmd := &cobra.Command{
		Use:   "export [--page id] [--dir path]",
		Short: "Downloads the last manual batch of a page as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			name, data, err := c.remote().Export(ctx, page)
			if err != nil {
				return err
			}
			if name == "" {
				name = "dexscreener_data.json"
			}
			path := filepath.Join(dir, filepath.Base(name))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&page, "page", agent.ActivePageID, "Page id, or active.")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory the file is written to.")
	return cmd
}
