package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AnswerSubmissions counts graded submissions by outcome
// (correct/incorrect/error).
var AnswerSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "triviad",
	Name:      "answer_submissions_total",
	Help:      "Number of answer submissions by outcome.",
}, []string{"result"})
