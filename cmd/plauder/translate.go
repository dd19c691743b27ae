package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/plauder/pkg/session"
)

func newTranslateCmd(a *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text with the configured model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = a.cfg.Translation.TargetLanguage
			}

			s, err := session.New(cmd.Context(), a.cfg.Chat, a.opts)
			if err != nil {
				return err
			}
			out := s.Translate(cmd.Context(), strings.Join(args, " "), target)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "Target language code (zh, ja, en, ko); defaults to translation.target_language")
	return cmd
}
