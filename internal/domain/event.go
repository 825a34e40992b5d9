package domain

const (
	EventNameGameCompleted  = "game.completed"
	EventNameGameAbandoned  = "game.abandoned"
	EventNameAnswerRecorded = "answer.recorded"
)

type EventGameCompleted struct {
	Session Session
}

func (EventGameCompleted) Name() string { return EventNameGameCompleted }

type EventGameAbandoned struct {
	Session Session
}

func (EventGameAbandoned) Name() string { return EventNameGameAbandoned }

type EventAnswerRecorded struct {
	Record AnswerRecord
}

func (EventAnswerRecorded) Name() string { return EventNameAnswerRecorded }
