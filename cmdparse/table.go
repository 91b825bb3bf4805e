package cmdparse

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dskrypa/command-parser/internal/intern"
)

// CommandTable is the merged, conflict-checked view of every parameter
// visible to one command: its own declarations composed over the parent
// chain. Tables are immutable after construction and shared by all
// parses of the command, so everything here is read-only to the matcher.
type CommandTable struct {
	Command *Command
	Parent  *CommandTable

	// Params holds the full merged set in declaration order, parents
	// first, with overridden parameters replaced in place.
	Params []*Parameter

	// Positionals are the positional slots in fill order, including the
	// sub-command slot when one exists.
	Positionals []*Parameter

	// Options maps every accepted option string (long, short, and
	// alternate spellings) to its owning parameter, preserving
	// declaration order for usage rendering.
	Options *orderedmap.OrderedMap[string, *Parameter]

	// Combinable indexes flag-like parameters by their single-character
	// short form for cluster resolution ("-abc").
	Combinable map[byte]*Parameter

	SubCommand *Parameter
	PassThru   *Parameter
	Groups     []*ParameterGroup

	// Choices maps registered sub-command choice strings (possibly
	// multi-word) to child commands; nil values mark local choices the
	// owning command handles itself.
	Choices *orderedmap.OrderedMap[string, *Command]

	// maxChoiceWords caches the longest registered multi-word choice.
	maxChoiceWords int
}

// buildTable produces the merged table for one command node. The merge
// is a pure composition of the parent's finished table (the base) with
// the node's local declarations (the override list); it never walks a
// live hierarchy beyond fetching that one parent snapshot.
func buildTable(cmd *Command) (*CommandTable, *ParseError) {
	if cmd.parent == nil {
		cmd.ensureHelp()
	}
	if cmd.defErr != nil {
		return nil, cmd.defErr
	}

	var parent *CommandTable
	if cmd.parent != nil {
		pt, err := cmd.parent.Table()
		if err != nil {
			pe, ok := err.(*ParseError)
			if !ok {
				pe = newCommandDefinitionError(cmd.Path(), "parent table: %v", err)
			}
			return nil, pe
		}
		parent = pt
	}

	cfg := cmd.Config()
	for _, p := range cmd.params {
		deriveSpellings(p, cfg)
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	for _, g := range cmd.groups {
		if g.defErr != nil {
			return nil, g.defErr
		}
	}

	merged, err := mergeParams(cmd, parent)
	if err != nil {
		return nil, err
	}

	table := &CommandTable{
		Command: cmd,
		Parent:  parent,
		Params:  merged,
		Options: orderedmap.New[string, *Parameter](),
		Choices: cmd.choices,
	}
	if parent != nil {
		table.Groups = append(table.Groups, parent.Groups...)
	}
	table.Groups = append(table.Groups, cmd.groups...)

	if err := table.partition(); err != nil {
		return nil, err
	}
	if err := table.index(); err != nil {
		return nil, err
	}
	if err := table.checkOrdering(); err != nil {
		return nil, err
	}
	if err := table.checkSubCommand(cmd); err != nil {
		return nil, err
	}

	table.maxChoiceWords = 1
	if table.Choices != nil {
		for pair := table.Choices.Oldest(); pair != nil; pair = pair.Next() {
			if words := len(strings.Fields(pair.Key)); words > table.maxChoiceWords {
				table.maxChoiceWords = words
			}
		}
	}
	return table, nil
}

// deriveSpellings fills in the option strings a parameter did not
// declare explicitly: the name-derived long form, and a TriFlag's
// negating alternates.
func deriveSpellings(p *Parameter, cfg *Config) {
	if p.Kind.positionalLike() || p.Kind == KindPassThru {
		return
	}
	if len(p.LongForms) == 0 {
		p.LongForms = cfg.LongFormsFor(p.Name)
	}
	if p.Kind == KindTriFlag && len(p.AltLongForms) == 0 && len(p.AltShortForms) == 0 {
		prefix := p.altPrefix
		if prefix == "" {
			prefix = "no"
		}
		for _, long := range p.LongForms {
			p.AltLongForms = append(p.AltLongForms, "--"+prefix+"-"+strings.TrimPrefix(long, "--"))
		}
	}
}

// mergeParams composes the base parameter list with the local override
// list. A local parameter replaces a base parameter with the same name
// in place; anything else appends in declaration order. Two local
// parameters sharing a name is a definition conflict.
func mergeParams(cmd *Command, parent *CommandTable) ([]*Parameter, *ParseError) {
	var base []*Parameter
	if parent != nil {
		base = parent.Params
	}

	merged := make([]*Parameter, len(base), len(base)+len(cmd.params))
	copy(merged, base)

	index := make(map[string]int, len(base)+len(cmd.params))
	local := make(map[string]bool, len(cmd.params))
	for i, p := range base {
		index[p.Name] = i
	}

	for _, p := range cmd.params {
		if i, seen := index[p.Name]; seen {
			if local[p.Name] {
				return nil, newCommandDefinitionError(cmd.Path(),
					"name conflict for command=%s between %s=%s and %s=%s",
					cmd.Path(), merged[i].Name, merged[i].Kind, p.Name, p.Kind)
			}
			merged[i] = p
		} else {
			index[p.Name] = len(merged)
			merged = append(merged, p)
		}
		local[p.Name] = true
	}
	return merged, nil
}

// partition splits the merged set into positional slots and the
// singleton sub-command / pass-thru roles.
func (t *CommandTable) partition() *ParseError {
	for _, p := range t.Params {
		switch {
		case p.Kind == KindSubCommand:
			if t.SubCommand != nil {
				return newCommandDefinitionError(t.Command.Path(),
					"command=%s has multiple sub-command parameters (%s and %s)",
					t.Command.Path(), t.SubCommand.Name, p.Name)
			}
			t.SubCommand = p
			t.Positionals = append(t.Positionals, p)
		case p.Kind == KindPassThru:
			if t.PassThru != nil {
				return newCommandDefinitionError(t.Command.Path(),
					"parameter %s cannot follow another PassThru param (%s)", p.Name, t.PassThru.Name)
			}
			t.PassThru = p
		case p.Kind.positionalLike():
			t.Positionals = append(t.Positionals, p)
		}
	}
	return nil
}

// index rebuilds the option-string lookup from the merged set, failing
// when two distinct parameters claim the same spelling.
func (t *CommandTable) index() *ParseError {
	t.Combinable = make(map[byte]*Parameter)
	for _, p := range t.Params {
		for _, spelling := range p.optionStrings() {
			key := intern.Intern(spelling)
			if prior, exists := t.Options.Get(key); exists && prior != p {
				kind := "long"
				if len(spelling) == 2 {
					kind = "short"
				}
				return newCommandDefinitionError(t.Command.Path(),
					"%s option=%q conflict for command=%s between %s=%s and %s=%s",
					kind, spelling, t.Command.Path(), prior.Name, prior.Kind, p.Name, p.Kind)
			}
			t.Options.Set(key, p)
		}
		if p.Kind.flagLike() && p.Combinable {
			for _, short := range append(append([]string{}, p.ShortForms...), p.AltShortForms...) {
				t.Combinable[short[1]] = p
			}
		}
	}
	return nil
}

// checkOrdering enforces the declaration layout rules over the
// command's own parameter list: the sub-command slot comes after every
// other local positional, nothing may follow a variable-arity
// positional, and no positional-accepting parameter may follow a
// pass-thru declaration. Inherited slots are exempt; dispatch filled
// them before this table is ever matched against, so a child's own
// positionals legitimately follow them in the merged fill order.
func (t *CommandTable) checkOrdering() *ParseError {
	var positionals []*Parameter
	for _, p := range t.Command.params {
		if p.Kind.positionalLike() {
			positionals = append(positionals, p)
		}
	}
	for i, p := range positionals {
		last := i == len(positionals)-1
		if p.Kind == KindSubCommand && !last {
			return newCommandDefinitionError(t.Command.Path(),
				"sub-command parameter %s must be the last positional for command=%s (found %s after it)",
				p.Name, t.Command.Path(), positionals[i+1].Name)
		}
		if p.Kind == KindPositional && !p.NArgs.Fixed() && !last {
			return newCommandDefinitionError(t.Command.Path(),
				"positional %s with variable nargs=%s would overlap ambiguously with %s for command=%s",
				p.Name, p.NArgs, positionals[i+1].Name, t.Command.Path())
		}
	}
	var passThru *Parameter
	for _, p := range t.Command.params {
		if p.Kind == KindPassThru {
			passThru = p
			continue
		}
		if passThru != nil && p.Kind.positionalLike() {
			return newCommandDefinitionError(t.Command.Path(),
				"parameter %s cannot follow the PassThru param %s for command=%s",
				p.Name, passThru.Name, t.Command.Path())
		}
	}
	return nil
}

// checkSubCommand rejects a required sub-command slot that was declared
// on this node but can never be satisfied because nothing registered a
// choice for it. Inherited slots are exempt: dispatch from the parent
// fills them before this table is ever matched against.
func (t *CommandTable) checkSubCommand(cmd *Command) *ParseError {
	if t.SubCommand == nil || !t.SubCommand.Required {
		return nil
	}
	if cmd.subCommand != t.SubCommand {
		return nil
	}
	if cmd.choices == nil || cmd.choices.Len() == 0 {
		return newCommandDefinitionError(cmd.Path(),
			"command=%s has a required sub-command parameter %s with no registered choices",
			cmd.Path(), t.SubCommand.Name)
	}
	return nil
}

// Lookup returns the parameter registered under an option string.
func (t *CommandTable) Lookup(spelling string) (*Parameter, bool) {
	return t.Options.Get(spelling)
}

// ParamByName finds a merged parameter by its declared name.
func (t *CommandTable) ParamByName(name string) (*Parameter, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// OptionParams returns the distinct option-like parameters in
// declaration order, for usage rendering.
func (t *CommandTable) OptionParams() []*Parameter {
	out := make([]*Parameter, 0, len(t.Params))
	for _, p := range t.Params {
		if !p.Kind.positionalLike() && p.Kind != KindPassThru {
			out = append(out, p)
		}
	}
	return out
}

// choiceWords returns the longest registered multi-word choice length,
// defaulting to single-word matching.
func (t *CommandTable) choiceWords() int {
	if t.maxChoiceWords < 1 {
		return 1
	}
	return t.maxChoiceWords
}

// choiceKeys lists registered choice strings in declaration order.
func choiceKeys(choices *orderedmap.OrderedMap[string, *Command]) []string {
	if choices == nil {
		return nil
	}
	out := make([]string, 0, choices.Len())
	for pair := choices.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
