package play

import (
	"sync"

	"github.com/minhvn/triviad/internal/domain"
)

// GameStatus is the UI-facing lifecycle of the controller, distinct from
// the session status stored by the service.
type GameStatus string

const (
	GameIdle      GameStatus = "idle"
	GameSetup     GameStatus = "setup"
	GamePlaying   GameStatus = "playing"
	GamePaused    GameStatus = "paused"
	GameCompleted GameStatus = "completed"
)

// Profile is the cross-session identity of the player.
type Profile struct {
	UserID      string
	DisplayName string
}

// Snapshot is the single canonical view the presentation layer observes.
// Transitions replace whole field groups at once; there is no partial
// external mutation.
type Snapshot struct {
	Profile Profile
	// Catalog is the category catalog; it survives Reset.
	Catalog []string

	Session  *domain.Session
	Question *domain.Question
	Status   GameStatus
	History  []domain.Session
	Summary  *domain.GameSummary

	Loading           bool
	Err               string
	Answering         bool
	ShowResult        bool
	LastAnswerCorrect bool
	LastCorrectAnswer string
}

// event is the closed set of state transitions. apply is exhaustive over
// these variants.
type event interface {
	isEvent()
}

type (
	evLoading       struct{}
	evError         struct{ msg string }
	evProfileLoaded struct{ profile Profile }
	evCatalogLoaded struct{ catalog []string }
	evHistoryLoaded struct{ history []domain.Session }

	evSessionCreated struct{ session *domain.Session }

	// evGameStarted carries session and first question together so the
	// UI never observes one without the other.
	evGameStarted struct {
		session  *domain.Session
		question *domain.Question
	}

	evAnswerPending struct{}

	// evResultRevealed refreshes the authoritative session and exposes
	// the verdict; the question on screen is left in place until
	// advancement.
	evResultRevealed struct {
		session *domain.Session
		result  *domain.AnswerResult
	}

	evQuestionAdvanced struct{ question *domain.Question }

	evPaused  struct{}
	evResumed struct{ question *domain.Question }

	// evSessionAdopted installs a session loaded by id as current,
	// without a question yet.
	evSessionAdopted struct{ session *domain.Session }

	evCompleted     struct{ session *domain.Session }
	evSummaryLoaded struct{ summary *domain.GameSummary }

	evReset struct{}
)

func (evLoading) isEvent()          {}
func (evError) isEvent()            {}
func (evProfileLoaded) isEvent()    {}
func (evCatalogLoaded) isEvent()    {}
func (evHistoryLoaded) isEvent()    {}
func (evSessionCreated) isEvent()   {}
func (evGameStarted) isEvent()      {}
func (evAnswerPending) isEvent()    {}
func (evResultRevealed) isEvent()   {}
func (evQuestionAdvanced) isEvent() {}
func (evPaused) isEvent()           {}
func (evResumed) isEvent()          {}
func (evSessionAdopted) isEvent()   {}
func (evCompleted) isEvent()        {}
func (evSummaryLoaded) isEvent()    {}
func (evReset) isEvent()            {}

// apply is the pure transition function: one snapshot in, one snapshot out.
func apply(s Snapshot, e event) Snapshot {
	switch ev := e.(type) {
	case evLoading:
		s.Loading = true
		s.Err = ""

	case evError:
		// An error is terminal for the in-flight operation.
		s.Err = ev.msg
		s.Loading = false
		s.Answering = false

	case evProfileLoaded:
		s.Profile = ev.profile

	case evCatalogLoaded:
		s.Catalog = ev.catalog

	case evHistoryLoaded:
		s.History = ev.history

	case evSessionCreated:
		s.Session = ev.session
		s.Status = GameSetup
		s.Loading = false
		s.Err = ""

	case evGameStarted:
		s.Session = ev.session
		s.Question = ev.question
		s.Status = GamePlaying
		s.Loading = false
		s.Err = ""
		s.Summary = nil
		clearReveal(&s)

	case evAnswerPending:
		s.Answering = true
		s.Err = ""

	case evResultRevealed:
		s.Session = ev.session
		s.Answering = false
		s.ShowResult = true
		s.LastAnswerCorrect = ev.result.IsCorrect
		s.LastCorrectAnswer = ev.result.CorrectAnswer

	case evQuestionAdvanced:
		s.Question = ev.question
		clearReveal(&s)

	case evPaused:
		s.Status = GamePaused

	case evResumed:
		s.Question = ev.question
		s.Status = GamePlaying
		s.Loading = false
		s.Err = ""
		clearReveal(&s)

	case evSessionAdopted:
		s.Session = ev.session
		s.Question = nil
		s.Status = GamePaused
		s.Loading = false
		s.Err = ""
		clearReveal(&s)

	case evCompleted:
		s.Session = ev.session
		s.Question = nil
		s.Status = GameCompleted

	case evSummaryLoaded:
		s.Summary = ev.summary

	case evReset:
		// Cross-session data survives so a new game needs no relogin or
		// recatalog.
		s = Snapshot{
			Profile: s.Profile,
			Catalog: s.Catalog,
			History: s.History,
			Status:  GameIdle,
		}
	}

	return s
}

func clearReveal(s *Snapshot) {
	s.ShowResult = false
	s.LastAnswerCorrect = false
	s.LastCorrectAnswer = ""
}

// Store owns the snapshot. One instance is constructed per active game and
// passed by handle to whichever component issues intents.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{
		snap: Snapshot{Status: GameIdle},
	}
}

// Snapshot returns a copy of the current state. Pointer fields reference
// values that are never mutated in place.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.snap
}

func (st *Store) dispatch(e event) Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.snap = apply(st.snap, e)
	return st.snap
}
