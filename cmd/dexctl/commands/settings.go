package commands

import (
	"errors"
	"time"

	"dexscreener-extractor/internal/domain"

	"github.com/spf13/cobra"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Shows the shared extractor settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			s, err := c.remote().Settings(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}

	var (
		webhook  string
		auto     bool
		interval time.Duration
	)
	set := &cobra.Command{
		Use:   "set [--webhook <url>] [--auto=<bool>] [--interval <duration>]",
		Short: "Updates only the settings given as flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.SettingsPatch
			if cmd.Flags().Changed("webhook") {
				if webhook == "" {
					return errors.New("webhook URL cannot be empty")
				}
				patch.WebhookURL = &webhook
			}
			if cmd.Flags().Changed("auto") {
				patch.AutoExtractEnabled = &auto
			}
			if cmd.Flags().Changed("interval") {
				if interval <= 0 {
					return errors.New("interval must be positive")
				}
				patch.ExtractInterval = &interval
			}
			if patch.Empty() {
				return errors.New("nothing to update, pass --webhook, --auto or --interval")
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			r := c.remote()
			if err := r.SaveSettings(ctx, patch); err != nil {
				return err
			}
			s, err := r.Settings(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	set.Flags().StringVar(&webhook, "webhook", "", "Webhook URL batches are POSTed to.")
	set.Flags().BoolVar(&auto, "auto", true, "Enable the recurring extraction.")
	set.Flags().DurationVar(&interval, "interval", domain.DefaultExtractInterval, "Period of the recurring extraction, e.g. 30m.")
	cmd.AddCommand(set)
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Lists the recorded extractions, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			history, err := c.remote().History(ctx)
			if err != nil {
				return err
			}
			if history == nil {
				history = []domain.ExtractionRecord{}
			}
			return printJSON(cmd, history)
		},
	}
}

func (c *cli) archiveCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "archive [--limit N]",
		Short: "Lists recently archived batches.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			batches, err := c.remote().Archive(ctx, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, batches)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of batches to return.")
	return cmd
}

func (c *cli) schedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Shows whether the recurring extraction is armed and when it fires next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			status, err := c.remote().SchedulerStatus(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}
