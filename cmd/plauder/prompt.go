package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/plauder/pkg/prompt"
)

func newPromptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the compiled system instruction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt.Build(a.cfg.Chat, a.now()))
			return err
		},
	}
}
