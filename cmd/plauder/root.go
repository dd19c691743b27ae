package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rhuss/plauder/pkg/config"
	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/session"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app is the state shared by all subcommands.
type app struct {
	configPath string
	cfg        *config.Config

	opts session.Options
}

// newRootCmd builds the command tree. opts supplies the session
// collaborators; the fallback translation endpoint is filled in from the
// loaded config.
func newRootCmd(opts session.Options) *cobra.Command {
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "plauder",
		Short: "Chat with a configured persona from the terminal",
		Long: `plauder compiles a persona, world knowledge and output rules into a
system instruction and chats through the vendor-hosted generative
language API or any OpenAI-compatible Chat Completions endpoint.

Quick Start:
  plauder chat                      # interactive conversation
  plauder prompt                    # print the compiled instruction
  plauder translate --to ja "Hi!"   # one-shot translation`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to the config file")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(a),
		newPromptCmd(a),
		newTranslateCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	debug.Init(os.Stderr, cfg.Log.Debug, cfg.Log.Level)
	a.cfg = cfg
	a.opts.FallbackBaseURL = cfg.Translation.FallbackBaseURL
	return nil
}
