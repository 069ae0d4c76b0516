package domain

import "time"

const (
	MinHatchProgress  = 0
	MaxHatchProgress  = 100
	DefaultHatchSpeed = 1
)

// EggState - стадия инкубации
type EggState string

const (
	EggIdle       EggState = "idle"
	EggIncubating EggState = "incubating"
	EggComplete   EggState = "complete"
)

type Egg struct {
	ID                  int64      `db:"id" json:"id"`
	UserID              int64      `db:"user_id" json:"user_id"`
	HatchProgress       float64    `db:"hatch_progress" json:"hatch_progress"`
	HatchSpeed          float64    `db:"hatch_speed" json:"hatch_speed"`
	IsIncubating        bool       `db:"is_incubating" json:"is_incubating"`
	LastIncubationStart *time.Time `db:"last_incubation_start" json:"last_incubation_start"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

func NewEgg(userID int64) *Egg {
	return &Egg{
		UserID:        userID,
		HatchProgress: MinHatchProgress,
		HatchSpeed:    DefaultHatchSpeed,
	}
}

func (e *Egg) State() EggState {
	switch {
	case e.HatchProgress >= MaxHatchProgress:
		return EggComplete
	case e.IsIncubating:
		return EggIncubating
	default:
		return EggIdle
	}
}

// IsActive reports whether the egg is incubating and not yet finished.
func (e *Egg) IsActive() bool {
	return e.IsIncubating && e.HatchProgress < MaxHatchProgress
}
