package play

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_GoNextBlockedOnInvalidStep(t *testing.T) {
	t.Parallel()

	w := NewWizard()

	// Empty title: basic never validates, no amount of clicking helps.
	for i := 0; i < 5; i++ {
		assert.False(t, w.GoNext())
	}
	assert.Equal(t, StepBasic, w.CurrentStep())

	w.SetTitle("pub quiz night")
	assert.True(t, w.GoNext())
	assert.Equal(t, StepRounds, w.CurrentStep())
}

func TestWizard_NavigationIsOneStepAtATime(t *testing.T) {
	t.Parallel()

	w := NewWizard()
	w.SetTitle("pub quiz night")
	w.SetCategories([]string{"science"})

	steps := []WizardStep{StepRounds, StepQuestions, StepTeams, StepReview}
	for _, want := range steps {
		require.True(t, w.GoNext())
		assert.Equal(t, want, w.CurrentStep())
	}

	// Last step: no further.
	assert.False(t, w.GoNext())
	assert.Equal(t, StepReview, w.CurrentStep())

	assert.True(t, w.GoBack())
	assert.Equal(t, StepTeams, w.CurrentStep())
}

func TestWizard_GoBackOnFirstStepIsNoop(t *testing.T) {
	t.Parallel()

	w := NewWizard()
	assert.False(t, w.GoBack())
	assert.Equal(t, StepBasic, w.CurrentStep())
}

func TestWizard_EditingReevaluatesPredicates(t *testing.T) {
	t.Parallel()

	w := NewWizard()
	w.SetTitle("pub quiz night")
	w.SetCategories([]string{"science"})
	assert.True(t, w.StepValid(StepQuestions))

	w.SetCategories(nil)
	assert.False(t, w.StepValid(StepQuestions), "clearing categories invalidates the step immediately")

	w.SetTitle("  ")
	assert.False(t, w.StepValid(StepBasic))
}

func TestWizard_CompleteBlockedUntilValid(t *testing.T) {
	t.Parallel()

	w := NewWizard()
	w.SetTitle("pub quiz night")

	_, ok := w.Complete()
	assert.False(t, ok, "blocked completion is a no-op, not an error")

	w.SetCategories([]string{"science", "history"})
	w.SetRounds(3)
	w.SetQuestionsPerRound(4)

	cfg, ok := w.Complete()
	require.True(t, ok)
	assert.Equal(t, 3, cfg.TotalRounds)
	assert.Equal(t, 4, cfg.QuestionsPerRound)
	assert.Equal(t, []string{"science", "history"}, cfg.Categories)
}
