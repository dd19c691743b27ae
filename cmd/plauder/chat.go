package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/observability"
	"github.com/rhuss/plauder/pkg/prompt"
	"github.com/rhuss/plauder/pkg/session"
)

const chatHelp = `/help       show this help
/reset      forget the conversation
/translate  translate the last reply
/quit       leave`

func newChatCmd(a *app) *cobra.Command {
	var (
		noStream      bool
		autoTranslate bool
		metrics       bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Every line you enter is sent as a
message; the reply is shown as it streams in, one line per message.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if metrics || a.cfg.Observability.Metrics.Enabled {
				addr := a.cfg.Observability.Metrics.Addr
				go func() {
					if err := observability.Serve(ctx, addr); err != nil {
						slog.Error("metrics endpoint failed", "addr", addr, "error", err)
					}
				}()
			}

			gw := session.NewGateway(a.opts)
			if err := gw.Initialize(ctx, a.cfg.Chat); err != nil {
				return err
			}

			c := &chat{
				gw:            gw,
				out:           cmd.OutOrStdout(),
				now:           a.now,
				userName:      a.cfg.Chat.UserName,
				target:        a.cfg.Translation.TargetLanguage,
				stream:        !noStream,
				autoTranslate: autoTranslate,
			}
			return c.run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Show replies only once they are complete")
	cmd.Flags().BoolVarP(&autoTranslate, "translate", "t", false, "Translate every reply into translation.target_language")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Serve Prometheus metrics on observability.metrics.addr")
	return cmd
}

// chat is one interactive conversation. The caller owns the history.
type chat struct {
	gw      *session.Gateway
	out     io.Writer
	now     func() time.Time
	history []api.Message

	userName      string
	target        string
	stream        bool
	autoTranslate bool
}

func (c *chat) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, hintStyle.Render("Type a message, or /help for commands."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, userLabelStyle.Render(c.userLabel())+" ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(c.out, hintStyle.Render(chatHelp))
			continue
		case "/reset":
			c.history = nil
			fmt.Fprintln(c.out, hintStyle.Render("Conversation cleared."))
			continue
		case "/translate":
			c.translateLast(ctx)
			continue
		}

		if err := c.turn(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(c.out, errorStyle.Render("error: "+err.Error()))
		}
	}
}

// turn sends line and renders the reply. Messages received before a
// stream error are kept in the history.
func (c *chat) turn(ctx context.Context, line string) error {
	c.history = append(c.history, api.NewMessage(api.RoleUser, line, c.now()))

	var (
		msgs []api.Message
		err  error
	)
	if c.stream {
		msgs, err = c.streamReply(ctx)
	} else {
		msgs, err = c.gw.Reply(ctx, c.history)
		for _, m := range msgs {
			fmt.Fprintln(c.out, c.modelLabel()+" "+m.Content)
		}
	}
	start := len(c.history)
	c.history = append(c.history, msgs...)

	if c.autoTranslate {
		c.translateFrom(ctx, start)
	}
	return err
}

func (c *chat) streamReply(ctx context.Context) ([]api.Message, error) {
	sw := newSegmentWriter(c.out, c.modelLabel())

	var sb strings.Builder
	var streamErr error
	for delta, err := range c.gw.Stream(ctx, c.history) {
		if err != nil {
			streamErr = err
			break
		}
		sb.WriteString(delta)
		if err := sw.Write(delta); err != nil {
			streamErr = err
			break
		}
	}
	if err := sw.Close(); err != nil && streamErr == nil {
		streamErr = err
	}

	now := c.now()
	var msgs []api.Message
	for _, part := range prompt.Split(sb.String()) {
		msgs = append(msgs, api.NewMessage(api.RoleModel, part, now))
	}
	return msgs, streamErr
}

// translateLast translates the trailing run of model messages.
func (c *chat) translateLast(ctx context.Context) {
	end := len(c.history)
	start := end
	for start > 0 && c.history[start-1].Role == api.RoleModel {
		start--
	}
	if start == end {
		fmt.Fprintln(c.out, hintStyle.Render("Nothing to translate yet."))
		return
	}
	c.translateFrom(ctx, start)
}

// translateFrom stores and prints the translation of every history
// message from index start on.
func (c *chat) translateFrom(ctx context.Context, start int) {
	for i := start; i < len(c.history); i++ {
		m := &c.history[i]
		m.TranslatedContent = c.gw.Translate(ctx, m.Content, c.target)
		m.ShowTranslation = true
		fmt.Fprintln(c.out, translationStyle.Render("  "+m.DisplayContent()))
	}
}

func (c *chat) userLabel() string {
	if c.userName != "" {
		return c.userName + ">"
	}
	return "you>"
}

func (c *chat) modelLabel() string {
	return modelLabelStyle.Render("ai>")
}

func (a *app) now() time.Time {
	if a.opts.Now != nil {
		return a.opts.Now()
	}
	return time.Now()
}
