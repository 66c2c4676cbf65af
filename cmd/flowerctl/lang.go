package main

import (
	"fmt"

	"github.com/safar/flowerstore/internal/locale"
	"github.com/spf13/cobra"
)

func newLangCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show or change the content language",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current language",
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				lang := a.language.Language(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", lang, locale.Direction(lang))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <en|ar>",
			Short: "Change the language sent to the API",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				ctx := cmd.Context()
				if err := a.language.SetLanguage(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s\n", a.language.Language(ctx))
				return nil
			}),
		},
	)
	return cmd
}
