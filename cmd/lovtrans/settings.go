package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/settings"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the configured languages",
	}
	cmd.AddCommand(newSettingsShowCmd(a), newSettingsSetCmd(a))
	return cmd
}

func newSettingsShowCmd(a *app) *cobra.Command {
	var ui string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the mother, destination and common languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kv, closeKV, err := a.newKV(ctx, true)
			if err != nil {
				return err
			}
			defer closeKV()

			uiCode, _ := lang.Parse(ui)
			printSettings(cmd, settings.NewStore(kv, "", nil).Load(ctx), uiCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&ui, "ui", "en", "interface language for names (zh or en)")
	return cmd
}

func newSettingsSetCmd(a *app) *cobra.Command {
	var mother, destination, common string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the configured languages",
		Long: `Change one or more of the configured languages. Unset flags keep their
current value. The same language may occupy more than one slot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kv, closeKV, err := a.newKV(ctx, true)
			if err != nil {
				return err
			}
			defer closeKV()

			orch, closeProvider := a.newOrchestrator()
			defer closeProvider()

			session := orchestrator.NewSession(ctx, orch, settings.NewStore(kv, "", nil))
			next := session.Settings()
			for _, f := range []struct {
				value string
				dst   *lang.Code
			}{
				{mother, &next.MotherLanguage},
				{destination, &next.DestinationLanguage},
				{common, &next.CommonLanguage},
			} {
				if f.value == "" {
					continue
				}
				code, ok := lang.Parse(f.value)
				if !ok {
					return fmt.Errorf("unsupported language %q", f.value)
				}
				*f.dst = code
			}

			if err := session.UpdateSettings(ctx, next); err != nil {
				return err
			}
			printSettings(cmd, session.Settings(), lang.English)
			return nil
		},
	}
	cmd.Flags().StringVar(&mother, "mother", "", "mother language code")
	cmd.Flags().StringVar(&destination, "destination", "", "destination language code")
	cmd.Flags().StringVar(&common, "common", "", "common language code")
	return cmd
}

func printSettings(cmd *cobra.Command, s settings.Settings, ui lang.Code) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mother:      %s (%s)\n", s.MotherLanguage, lang.LocalizedName(s.MotherLanguage, ui))
	fmt.Fprintf(out, "destination: %s (%s)\n", s.DestinationLanguage, lang.LocalizedName(s.DestinationLanguage, ui))
	fmt.Fprintf(out, "common:      %s (%s)\n", s.CommonLanguage, lang.LocalizedName(s.CommonLanguage, ui))
}
