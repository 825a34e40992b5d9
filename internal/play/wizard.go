package play

import (
	"strings"

	"github.com/minhvn/triviad/internal/domain"
)

// WizardStep is one screen of the game-setup wizard.
type WizardStep string

const (
	StepBasic     WizardStep = "basic"
	StepRounds    WizardStep = "rounds"
	StepQuestions WizardStep = "questions"
	StepTeams     WizardStep = "teams"
	StepReview    WizardStep = "review"
)

var wizardSteps = []WizardStep{StepBasic, StepRounds, StepQuestions, StepTeams, StepReview}

// Wizard is a draft game definition with fixed ordered steps. Navigation
// moves one step at a time and never past an invalid step.
type Wizard struct {
	step       int
	title      string
	rounds     int
	questions  int
	categories []string
	teams      []string
}

func NewWizard() *Wizard {
	return &Wizard{
		rounds:    1,
		questions: 1,
	}
}

func (w *Wizard) CurrentStep() WizardStep {
	return wizardSteps[w.step]
}

func (w *Wizard) SetTitle(title string) { w.title = title }

func (w *Wizard) SetRounds(n int) { w.rounds = n }

func (w *Wizard) SetQuestionsPerRound(n int) { w.questions = n }

func (w *Wizard) SetTeams(teams []string) { w.teams = teams }

func (w *Wizard) SetCategories(categories []string) {
	w.categories = categories
}

// StepValid evaluates the step's predicate against the current draft. The
// data-derived predicates are title and category presence; the remaining
// steps hold by default.
func (w *Wizard) StepValid(step WizardStep) bool {
	switch step {
	case StepBasic:
		return strings.TrimSpace(w.title) != ""
	case StepRounds:
		return w.rounds >= 1
	case StepQuestions:
		return w.questions >= 1 && len(w.categories) > 0
	default:
		return true
	}
}

// GoNext advances one step. It is a no-op while the current step's
// predicate is false or on the last step.
func (w *Wizard) GoNext() bool {
	if w.step >= len(wizardSteps)-1 {
		return false
	}
	if !w.StepValid(w.CurrentStep()) {
		return false
	}

	w.step++
	return true
}

// GoBack moves one step back; a no-op on the first step.
func (w *Wizard) GoBack() bool {
	if w.step == 0 {
		return false
	}

	w.step--
	return true
}

// Valid reports whether every step predicate holds.
func (w *Wizard) Valid() bool {
	for _, step := range wizardSteps {
		if !w.StepValid(step) {
			return false
		}
	}

	return true
}

// Complete turns the draft into a game config. A blocked completion is a
// no-op, not an error.
func (w *Wizard) Complete() (domain.GameConfig, bool) {
	if !w.Valid() {
		return domain.GameConfig{}, false
	}

	return domain.GameConfig{
		TotalRounds:       w.rounds,
		QuestionsPerRound: w.questions,
		Categories:        append([]string(nil), w.categories...),
	}, true
}
