package commands

import (
	"context"

	"dexscreener-extractor/internal/panel"

	"github.com/spf13/cobra"
)

func (c *cli) panelCmd() *cobra.Command {
	run := func(action func(ctx context.Context, p *panel.Panel) (panel.View, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			r := c.remote()
			p := panel.New(r, r, 0)
			defer p.Close()
			v, err := action(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		}
	}

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Shows the control panel: settings, next and last extraction.",
		Args:  cobra.NoArgs,
		RunE:  run(func(ctx context.Context, p *panel.Panel) (panel.View, error) { return p.Open(ctx) }),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "extract",
			Short: "Presses Extract Now on the active page.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, p *panel.Panel) (panel.View, error) {
				if _, err := p.Open(ctx); err != nil {
					return panel.View{}, err
				}
				return p.Extract(ctx), nil
			}),
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Presses Refresh Page on the active page.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, p *panel.Panel) (panel.View, error) {
				if _, err := p.Open(ctx); err != nil {
					return panel.View{}, err
				}
				return p.Refresh(ctx), nil
			}),
		},
	)
	return cmd
}
