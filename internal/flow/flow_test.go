package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByCommand(t *testing.T) {
	d, ok := ByCommand("/add_operation")
	require.True(t, ok)
	assert.Equal(t, AddOperation, d.ID)
	assert.True(t, d.RequiresUser)

	_, ok = ByCommand("/frobnicate")
	assert.False(t, ok)
}

func TestBranchesAreNotTerminal(t *testing.T) {
	d, ok := Lookup(ManageCurrency)
	require.True(t, ok)
	assert.False(t, d.Terminal(0))

	for _, action := range []string{"add", "delete", "update"} {
		target, ok := d.Steps[0].Branches[action]
		require.True(t, ok, action)
		branch, ok := Lookup(target)
		require.True(t, ok, action)
		assert.True(t, branch.AdminOnly, action)
		assert.NotEmpty(t, branch.Steps, action)
	}
}

func TestTerminalSteps(t *testing.T) {
	reg, _ := Lookup(Registration)
	assert.True(t, reg.Terminal(0))

	add, _ := Lookup(AddOperation)
	assert.False(t, add.Terminal(0))
	assert.True(t, add.Terminal(len(add.Steps)-1))
}

func TestChoiceSteps(t *testing.T) {
	d, _ := Lookup(AddOperation)
	step := d.Steps[0]
	require.True(t, step.IsChoice())
	assert.Equal(t, []string{"ДОХОД", "РАСХОД"}, step.Labels())

	v, ok := step.Value("РАСХОД")
	require.True(t, ok)
	assert.Equal(t, "EXPENSE", v)

	_, ok = step.Value("расход")
	assert.False(t, ok)
}

func TestEveryStepHasFieldAndRecovery(t *testing.T) {
	for id, d := range definitions {
		assert.Equal(t, id, d.ID)
		for i, step := range d.Steps {
			assert.NotEmpty(t, step.Field, "%s step %d", id, i)
			assert.NotEmpty(t, step.Prompt, "%s step %d", id, i)
			assert.NotEmpty(t, step.Retry, "%s step %d", id, i)
			// Exactly one input mode per step.
			assert.NotEqual(t, step.IsChoice(), step.Parse != nil, "%s step %d", id, i)
		}
	}
}

func TestCommandsOrderedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Commands() {
		require.NotEmpty(t, d.Command)
		assert.False(t, seen[d.Command], d.Command)
		seen[d.Command] = true
	}
}
