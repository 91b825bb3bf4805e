package cmdparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dskrypa/command-parser/internal/pool"
)

// textBuf accumulates rendered usage text in a pooled buffer so that
// repeated help and error rendering reuses allocations.
type textBuf struct {
	buf *[]byte
}

func newTextBuf(capacity int) *textBuf {
	return &textBuf{buf: pool.GetBuffer(capacity)}
}

func (b *textBuf) WriteString(s string) {
	*b.buf = append(*b.buf, s...)
}

func (b *textBuf) pad(n int) {
	for i := 0; i < n; i++ {
		*b.buf = append(*b.buf, ' ')
	}
}

func (b *textBuf) String() string {
	return string(*b.buf)
}

func (b *textBuf) release() {
	pool.PutBuffer(b.buf)
	b.buf = nil
}

// UsageText renders the one-line usage summary for a command: its path,
// option fragments, positional slots, registered sub-command choices,
// and the pass-thru tail. Positional slots inherited from an ancestor
// are omitted, since dispatch consumed them before this command's name.
func UsageText(cmd *Command) string {
	table, err := cmd.Table()
	if err != nil {
		return "usage: " + cmd.mainName() + "\n"
	}

	frags := pool.GetStringSlice()
	parts := append(*frags, "usage:", cmd.mainName())

	for _, p := range table.OptionParams() {
		if p.Hidden {
			continue
		}
		parts = append(parts, optionUsage(p))
	}
	for _, p := range table.Positionals {
		if p.Hidden || p.Kind == KindSubCommand || inheritedSlot(table, p) {
			continue
		}
		parts = append(parts, positionalUsage(p))
	}
	if sub := table.SubCommand; sub != nil && !sub.Hidden {
		if keys := choiceKeys(table.Choices); len(keys) > 0 {
			frag := "{" + strings.Join(keys, ",") + "}"
			if !sub.Required {
				frag = "[" + frag + "]"
			}
			parts = append(parts, frag)
		}
	}
	if pt := table.PassThru; pt != nil && !pt.Hidden {
		frag := "-- " + pt.metaVar() + " ..."
		if !pt.Required {
			frag = "[" + frag + "]"
		}
		parts = append(parts, frag)
	}

	line := strings.Join(parts, " ") + "\n"
	*frags = parts
	pool.PutStringSlice(frags)
	return line
}

// HelpText renders the full help page for a command: the usage line,
// its description, then aligned sections for sub-command choices,
// positional arguments, ungrouped options, and each parameter group
// with its constraint note.
func HelpText(cmd *Command) string {
	table, err := cmd.Table()
	if err != nil {
		return UsageText(cmd)
	}
	cfg := cmd.Config()
	width := cfg.UsageWidth

	tb := newTextBuf(1024)
	tb.WriteString(UsageText(cmd))

	if d := cmd.Description(); d != "" {
		tb.WriteString("\n")
		tb.WriteString(d)
		tb.WriteString("\n")
	}

	hasChoices := table.Choices != nil && table.Choices.Len() > 0
	if hasChoices {
		tb.WriteString("\nSubcommands:\n")
		for pair := table.Choices.Oldest(); pair != nil; pair = pair.Next() {
			desc := ""
			if pair.Value != nil {
				desc = pair.Value.Description()
			}
			writeEntry(tb, pair.Key, desc, width)
		}
	}

	var positionals []*Parameter
	for _, p := range table.Positionals {
		if p.Hidden || p.Kind == KindSubCommand || inheritedSlot(table, p) {
			continue
		}
		positionals = append(positionals, p)
	}
	passThru := table.PassThru
	if passThru != nil && passThru.Hidden {
		passThru = nil
	}
	if len(positionals) > 0 || passThru != nil {
		tb.WriteString("\nPositional arguments:\n")
		for _, p := range positionals {
			writeEntry(tb, p.metaVar(), describeParam(p, cfg), width)
		}
		if passThru != nil {
			writeEntry(tb, "-- "+passThru.metaVar(), describeParam(passThru, cfg), width)
		}
	}

	grouped := make(map[*Parameter]bool)
	for _, g := range table.Groups {
		for _, m := range g.Members {
			grouped[m] = true
		}
	}

	var options []*Parameter
	for _, p := range table.OptionParams() {
		if p.Hidden || grouped[p] {
			continue
		}
		options = append(options, p)
	}
	if len(options) > 0 {
		tb.WriteString("\nOptions:\n")
		for _, p := range options {
			writeEntry(tb, optionInvocation(p), describeParam(p, cfg), width)
		}
	}

	for _, g := range table.Groups {
		var members []*Parameter
		for _, m := range g.Members {
			if !m.Hidden {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			continue
		}
		tb.WriteString("\n")
		if g.Description != "" {
			tb.WriteString(g.Name + " - " + g.Description + ":\n")
		} else {
			tb.WriteString(g.Name + ":\n")
		}
		for _, m := range members {
			writeEntry(tb, entryInvocation(m), describeParam(m, cfg), width)
		}
		if note := g.Constraint.describe(); note != "" {
			tb.WriteString("  Note: " + note + "\n")
		}
	}

	if hasChoices && table.SubCommand != nil {
		tb.WriteString("\nUse \"" + cmd.mainName() + " " + table.SubCommand.metaVar() +
			" --help\" for more information about a subcommand.\n")
	}

	out := tb.String()
	tb.release()
	return out
}

// writeEntry renders one aligned "  invocation  description" line,
// wrapping to the description column when the invocation overflows it.
func writeEntry(tb *textBuf, invocation, description string, width int) {
	tb.WriteString("  ")
	tb.WriteString(invocation)
	if description == "" {
		tb.WriteString("\n")
		return
	}
	used := 2 + len(invocation)
	if used+2 > width {
		tb.WriteString("\n")
		tb.pad(width)
	} else {
		tb.pad(width - used)
	}
	tb.WriteString(description)
	tb.WriteString("\n")
}

// optionUsage renders one option's usage-line fragment, bracketed
// unless the option is required.
func optionUsage(p *Parameter) string {
	frag := p.displayName()
	if p.Kind == KindOption {
		frag += " " + p.metaVar()
		if p.NArgs.Max != 1 {
			frag += " ..."
		}
	}
	if p.Required {
		return frag
	}
	return "[" + frag + "]"
}

// UsageStr returns this parameter's usage-line fragment, the same form
// the generated summary prints: "[--name NAME]", "FILE ...", or the
// bracketed pass-thru tail.
func (p *Parameter) UsageStr() string {
	switch {
	case p.Kind == KindPassThru:
		frag := "-- " + p.metaVar() + " ..."
		if p.Required {
			return frag
		}
		return "[" + frag + "]"
	case p.Kind.positionalLike():
		return positionalUsage(p)
	default:
		return optionUsage(p)
	}
}

// positionalUsage renders one positional slot for the usage line.
func positionalUsage(p *Parameter) string {
	base := p.metaVar()
	switch {
	case p.NArgs.Remainder:
		return "[" + base + " ...]"
	case p.NArgs.Fixed() && p.NArgs.Min == 1:
		if p.Required {
			return base
		}
		return "[" + base + "]"
	case p.NArgs.AllowsZero() && p.NArgs.Max == 1:
		return "[" + base + "]"
	case p.NArgs.AllowsZero():
		return "[" + base + " ...]"
	default:
		return base + " ..."
	}
}

// optionInvocation renders the spellings column of an options entry:
// every accepted form, comma-separated, plus the value placeholder for
// value-taking kinds.
func optionInvocation(p *Parameter) string {
	inv := strings.Join(p.optionStrings(), ", ")
	if p.Kind == KindOption {
		inv += " " + p.metaVar()
		if p.NArgs.Max != 1 {
			inv += " ..."
		}
	}
	return inv
}

// entryInvocation picks the invocation column for a group member,
// which may be positional or option-like.
func entryInvocation(p *Parameter) string {
	if p.Kind.positionalLike() || p.Kind == KindPassThru {
		return p.metaVar()
	}
	return optionInvocation(p)
}

// inheritedSlot reports whether a positional slot came from an ancestor
// table, meaning dispatch filled it before this command was reached.
func inheritedSlot(t *CommandTable, p *Parameter) bool {
	if t.Parent == nil {
		return false
	}
	for _, q := range t.Parent.Positionals {
		if q == p {
			return true
		}
	}
	return false
}

// describeParam assembles the description column: the declared text
// plus the choice list, default, and environment variable clauses the
// configuration enables.
func describeParam(p *Parameter, cfg *Config) string {
	desc := p.Description
	if len(p.Choices) > 0 {
		desc = appendClause(desc, "(choices: "+strings.Join(p.Choices, ", ")+")")
	}
	if cfg.ShowDefaults {
		if d := renderDefault(p); d != "" {
			desc = appendClause(desc, "(default: "+d+")")
		}
	}
	if cfg.ShowEnvVars && len(p.EnvVars) > 0 {
		desc = appendClause(desc, "(env: "+strings.Join(p.EnvVars, ", ")+")")
	}
	return desc
}

func appendClause(desc, clause string) string {
	if desc == "" {
		return clause
	}
	return desc + " " + clause
}

// renderDefault formats a parameter's default for display. Zero values
// are suppressed; a flag that defaults to false or a counter at zero
// says nothing useful.
func renderDefault(p *Parameter) string {
	if !p.HasDefault || p.Default == nil {
		return ""
	}
	switch v := p.Default.(type) {
	case bool:
		if v {
			return "true"
		}
		return ""
	case string:
		return v
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Duration:
		if v == 0 {
			return ""
		}
		return v.String()
	case []string:
		if len(v) == 0 {
			return ""
		}
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}
