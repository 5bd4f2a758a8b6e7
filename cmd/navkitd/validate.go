package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/navkit/secret"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Build every configured builder set once and report the result",
		Long: `Build each builder set from its sources without serving anything.
Duplicate keys or URLs, orphaned nodes and unreadable sources are reported
and make the command fail.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := loadSettings(ctx, v, secret.DefaultResolver())
			if err != nil {
				return err
			}
			// Validation output goes to stdout; keep telemetry quiet.
			s.TracingExporter, s.MetricsExporter = "none", "none"

			a, err := newApp(ctx, s)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			out := cmd.OutOrStdout()
			var failed int
			for _, name := range a.strategy.Names() {
				set, err := a.strategy.BuilderSet(name)
				if err != nil {
					return err
				}
				sm, err := a.creator.CreateSiteMap(ctx, "validate://"+name, set)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: FAILED: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok, %d nodes, root %q\n", name, sm.Len(), sm.RootNode().Key())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d builder sets failed", failed, len(a.strategy.Names()))
			}
			return nil
		},
	}
}
