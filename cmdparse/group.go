package cmdparse

// GroupConstraint is the exclusivity policy applied to a parameter
// group's members during the finalize pass.
type GroupConstraint int

const (
	// GroupNone applies no constraint; the group exists for usage-text
	// organization only.
	GroupNone GroupConstraint = iota
	// GroupMutuallyExclusive allows at most one member to be provided.
	GroupMutuallyExclusive
	// GroupMutuallyDependent requires all members or none.
	GroupMutuallyDependent
)

// String returns the constraint name.
func (c GroupConstraint) String() string {
	switch c { // exhaustive over GroupConstraint
	case GroupNone:
		return "none"
	case GroupMutuallyExclusive:
		return "mutually exclusive"
	case GroupMutuallyDependent:
		return "mutually dependent"
	default:
		return "unknown"
	}
}

// describe returns the human-readable constraint line shown in help and
// group-violation context.
func (c GroupConstraint) describe() string {
	switch c { // exhaustive over GroupConstraint
	case GroupMutuallyExclusive:
		return "Only one of these parameters may be provided"
	case GroupMutuallyDependent:
		return "Either all of these parameters must be provided, or none"
	case GroupNone:
		return ""
	default:
		return ""
	}
}

// ParameterGroup ties sibling parameters to one constraint. Groups never
// nest: members are always parameters. Membership is established
// explicitly when a parameter is declared through a group's builder
// scope; there is no process-global "currently open group" state, so
// concurrent declaration of separate commands cannot cross-register.
type ParameterGroup struct {
	Name        string
	Description string
	Constraint  GroupConstraint
	Members     []*Parameter

	defErr *ParseError
}

// add registers a member and records the back-reference used by the
// finalize pass.
func (g *ParameterGroup) add(p *Parameter) {
	p.Group = g
	g.Members = append(g.Members, p)
}

// memberNames returns the display names of all members, for error
// messages and help text.
func (g *ParameterGroup) memberNames() []string {
	names := make([]string, len(g.Members))
	for i, p := range g.Members {
		names[i] = p.displayName()
	}
	return names
}
