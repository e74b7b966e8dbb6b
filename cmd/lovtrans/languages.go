package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nadzzz/lovtrans/internal/lang"
)

func newLanguagesCmd(a *app) *cobra.Command {
	var ui string
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uiCode, ok := lang.Parse(ui)
			if !ok {
				return fmt.Errorf("unsupported interface language %q", ui)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range lang.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Code, info.NativeName, info.LocalizedName(uiCode))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&ui, "ui", "en", "interface language for names (zh or en)")
	return cmd
}
