package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/debug"
)

// Section headings of the compiled instruction.
const (
	headingPersona      = "## Persona"
	headingInterlocutor = "## Interlocutor"
	headingTime         = "### Current Time"
	headingWorld        = "## World & Background"
	headingRules        = "## Language & Format Rules"
)

// Build compiles cfg into a system instruction. The result is
// deterministic for a given cfg except for the temporal block, which is
// computed from now when cfg.TimeAware is set.
func Build(cfg api.ChatConfig, now time.Time) string {
	var b strings.Builder

	b.WriteString(headingPersona)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(cfg.AIPersona))
	b.WriteString("\n\n")

	b.WriteString(headingInterlocutor)
	b.WriteString("\n")
	if name := strings.TrimSpace(cfg.UserName); name != "" {
		fmt.Fprintf(&b, "You are talking with %s.\n", name)
	}
	if persona := strings.TrimSpace(cfg.UserPersona); persona != "" {
		b.WriteString(persona)
		b.WriteString("\n")
	}
	if cfg.TimeAware {
		b.WriteString("\n")
		b.WriteString(temporalBlock(cfg, now))
	}
	b.WriteString("\n")

	if world := WorldSection(cfg.World); world != "" {
		b.WriteString(headingWorld)
		b.WriteString("\n")
		b.WriteString(world)
		b.WriteString("\n\n")
	}

	b.WriteString(headingRules)
	b.WriteString("\n")
	b.WriteString(LanguageDirective(cfg.Language))
	b.WriteString("\n\n")
	b.WriteString(FormatDirective(cfg.MinMessages, cfg.MaxMessages, cfg.MaxChars))

	instruction := b.String()
	debug.Log("prompt", "compiled system instruction",
		"chars", len(instruction),
		"world_entries", len(cfg.World),
		"time_aware", cfg.TimeAware,
		"language", cfg.Language,
	)
	debug.Raw("prompt", instruction)
	return instruction
}

// WorldSection formats entries as "【title】: content" lines grouped
// front, middle, back. Input order is kept within each group and empty
// groups produce nothing.
func WorldSection(entries []api.WorldEntry) string {
	groups := map[api.InjectionPosition][]string{}
	for _, e := range entries {
		pos := e.Position.Normalize()
		groups[pos] = append(groups[pos], FormatEntry(e))
	}

	var parts []string
	for _, pos := range []api.InjectionPosition{api.PositionFront, api.PositionMiddle, api.PositionBack} {
		if lines := groups[pos]; len(lines) > 0 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n")
}

// FormatEntry renders one world entry line.
func FormatEntry(e api.WorldEntry) string {
	return fmt.Sprintf("【%s】: %s", e.Title, e.Content)
}

// FormatDirective asks the model to split its reply into min to max
// segments separated by MessageBreak, each at most maxChars long.
// Non-positive bounds are raised to 1 and max is never below min.
func FormatDirective(min, max, maxChars int) string {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if maxChars < 1 {
		maxChars = 1
	}

	count := fmt.Sprintf("between %d and %d", min, max)
	if min == max {
		count = fmt.Sprintf("exactly %d", min)
	}

	return fmt.Sprintf("[Output Format]\n"+
		"Reply like a person sending several short chat messages in a row: split your reply into %s messages.\n"+
		"Put the exact token %s between consecutive messages and nowhere else.\n"+
		"Each message must be at most %d characters long.\n"+
		"Do not number the messages or describe this format.",
		count, MessageBreak, maxChars)
}

// temporalBlock reports each party's local time of day. Unknown
// timezones fall back to UTC.
func temporalBlock(cfg api.ChatConfig, now time.Time) string {
	userName := strings.TrimSpace(cfg.UserName)
	if userName == "" {
		userName = "The other person"
	}

	var b strings.Builder
	b.WriteString(headingTime)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Your local time: %s.\n", clock(now, cfg.AITimezone))
	fmt.Fprintf(&b, "%s's local time: %s.\n", userName, clock(now, cfg.UserTimezone))
	b.WriteString("Let the time of day shape greetings and mentions of daily routine.\n")
	return b.String()
}

func clock(now time.Time, tz string) string {
	name := strings.TrimSpace(tz)
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		debug.Log("prompt", "unknown timezone, using UTC", "timezone", tz, "error", err)
		name, loc = "UTC", time.UTC
	}
	return fmt.Sprintf("%s (%s)", now.In(loc).Format("15:04"), name)
}
