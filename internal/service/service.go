package service

import (
	"errors"
	"time"

	"croco_webapp/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEggNotFound     = errors.New("egg not found")
	ErrActiveEggExists = errors.New("user already has an active egg")
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// ActionResult is the outcome of a user action that can be refused for
// business reasons. A refusal is Success=false with a message, never an error.
type ActionResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Egg     *domain.Egg `json:"egg,omitempty"`
}

func fail(msg string) *ActionResult {
	return &ActionResult{Success: false, Message: msg}
}

var (
	ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "croco_claims_total",
			Help: "Reward claims by outcome",
		},
		[]string{"kind", "result"},
	)
	SweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "croco_sweep_passes_total",
			Help: "Reconciliation sweeper passes by outcome",
		},
		[]string{"pass", "result"},
	)
	SweepAffected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "croco_sweep_rows_total",
			Help: "Rows changed by the reconciliation sweeper",
		},
		[]string{"pass"},
	)
	PurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "croco_purchases_total",
			Help: "Shop purchases by item kind and outcome",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(ClaimsTotal)
	prometheus.MustRegister(SweepRuns)
	prometheus.MustRegister(SweepAffected)
	prometheus.MustRegister(PurchasesTotal)
}
