// Package flow declares every dialog as an ordered table of steps.
// The set of flows is fixed at build time; the orchestrator walks these
// tables and owns all side effects, so the definitions stay pure data
// plus pure parsing functions.
package flow

// ID names one complete multi-step dialog.
type ID string

const (
	Registration   ID = "registration"
	AddOperation   ID = "add_operation"
	ListOperations ID = "list_operations"
	ManageCurrency ID = "manage_currency"
	CurrencyAdd    ID = "currency_add"
	CurrencyDelete ID = "currency_delete"
	CurrencyUpdate ID = "currency_update"
	Convert        ID = "convert"
)

// Choice binds a button label to the canonical value stored in the
// session when that button is picked.
type Choice struct {
	Label string
	Value string
}

// Gate names a dependency-backed existence check the orchestrator runs
// after a step's pure validation succeeds. Gates are the only
// non-terminal dependency calls a step may declare.
type Gate int

const (
	GateNone Gate = iota
	// GateCurrencyAbsent rejects the value when the currency already exists.
	GateCurrencyAbsent
	// GateCurrencyExists rejects the value when the currency is unknown.
	GateCurrencyExists
)

// Step is one prompt-and-validate stage. Exactly one of Choices or
// Parse is set: button-driven steps re-issue the same prompt and
// buttons on bad input, free-text steps answer with Retry.
type Step struct {
	// Field is the session key the parsed value is stored under.
	Field   string
	Prompt  string
	Retry   string
	Choices []Choice
	Parse   func(raw string) (string, error)
	Gate    Gate
	// Branches switches the session to another flow keyed by the
	// step's canonical value. A branching step is never terminal.
	Branches map[string]ID
}

// IsChoice reports whether the step accepts only a fixed button set.
func (s Step) IsChoice() bool { return len(s.Choices) > 0 }

// Labels returns the button labels for a choice step.
func (s Step) Labels() []string {
	labels := make([]string, 0, len(s.Choices))
	for _, c := range s.Choices {
		labels = append(labels, c.Label)
	}
	return labels
}

// Value resolves a raw button label to its canonical value.
func (s Step) Value(label string) (string, bool) {
	for _, c := range s.Choices {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

// Definition is a complete dialog: the command that starts it, its
// access gates, and the ordered steps. The last step is terminal unless
// it branches.
type Definition struct {
	ID      ID
	Command string
	// Description appears in the Telegram command menu. Flows that are
	// only reachable through a branch have no command.
	Description string
	AdminOnly   bool
	// RequiresUser blocks the flow until registration is done.
	RequiresUser bool
	Steps        []Step
}

// Terminal reports whether step index i commits the flow.
func (d Definition) Terminal(i int) bool {
	if i != len(d.Steps)-1 {
		return false
	}
	return len(d.Steps[i].Branches) == 0
}
