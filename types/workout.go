package types

import "time"

// MuscleGroup classifies an exercise.
type MuscleGroup string

const (
	MuscleGroupChest     MuscleGroup = "chest"
	MuscleGroupBack      MuscleGroup = "back"
	MuscleGroupShoulders MuscleGroup = "shoulders"
	MuscleGroupArms      MuscleGroup = "arms"
	MuscleGroupLegs      MuscleGroup = "legs"
	MuscleGroupCore      MuscleGroup = "core"
	MuscleGroupCardio    MuscleGroup = "cardio"
	MuscleGroupFullBody  MuscleGroup = "full_body"
)

// MuscleGroups lists every muscle group in display order.
var MuscleGroups = []MuscleGroup{
	MuscleGroupChest,
	MuscleGroupBack,
	MuscleGroupShoulders,
	MuscleGroupArms,
	MuscleGroupLegs,
	MuscleGroupCore,
	MuscleGroupCardio,
	MuscleGroupFullBody,
}

func (m MuscleGroup) IsValid() bool {
	_, ok := m.label()
	return ok
}

func (m *MuscleGroup) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, "muscle group", func(s string) bool { return MuscleGroup(s).IsValid() })
	if err != nil {
		return err
	}
	*m = MuscleGroup(s)
	return nil
}

// TrackingType says what a set of an exercise records.
type TrackingType string

const (
	TrackingReps        TrackingType = "reps"
	TrackingTime        TrackingType = "time"
	TrackingDistance    TrackingType = "distance"
	TrackingRepsAndTime TrackingType = "reps_and_time"
)

// TrackingTypes lists every tracking type in display order.
var TrackingTypes = []TrackingType{
	TrackingReps,
	TrackingTime,
	TrackingDistance,
	TrackingRepsAndTime,
}

func (t TrackingType) IsValid() bool {
	_, ok := t.label()
	return ok
}

func (t *TrackingType) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, "tracking type", func(s string) bool { return TrackingType(s).IsValid() })
	if err != nil {
		return err
	}
	*t = TrackingType(s)
	return nil
}

// WeightUnit is the unit a set's weights are recorded in.
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

func (u WeightUnit) IsValid() bool {
	switch u {
	case UnitKilograms, UnitPounds:
		return true
	}
	return false
}

func (u *WeightUnit) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, "weight unit", func(s string) bool { return WeightUnit(s).IsValid() })
	if err != nil {
		return err
	}
	*u = WeightUnit(s)
	return nil
}

// Exercise is a row of the exercises table.
type Exercise struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	MuscleGroup  *MuscleGroup `json:"muscle_group"`
	Description  *string      `json:"description"`
	IsUnilateral bool         `json:"is_unilateral"`
	TrackingType TrackingType `json:"tracking_type"`
	CreatedBy    *string      `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// WorkoutSet is one set inside a workout log's sets column. Unilateral
// exercises fill the _left/_right variants.
type WorkoutSet struct {
	Reps            *int       `json:"reps,omitempty"`
	RepsLeft        *int       `json:"reps_left,omitempty"`
	RepsRight       *int       `json:"reps_right,omitempty"`
	Weight          *float64   `json:"weight,omitempty"`
	WeightLeft      *float64   `json:"weight_left,omitempty"`
	WeightRight     *float64   `json:"weight_right,omitempty"`
	Plates          *int       `json:"plates,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Unit            WeightUnit `json:"unit"`
}

// Methodology is a named training method (drop sets, supersets, ...).
type Methodology struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Intensity is a named effort band.
type Intensity struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	PercentageRange *string `json:"percentage_range"`
}

// WorkoutLog is a row of the workout_logs table. Exercise and Profile are
// only present when the query joins them.
type WorkoutLog struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	ExerciseID  string       `json:"exercise_id"`
	PerformedAt time.Time    `json:"performed_at"`
	Sets        []WorkoutSet `json:"sets"`
	Methodology *string      `json:"methodology"`
	Intensity   *string      `json:"intensity"`
	RestSeconds *int         `json:"rest_seconds"`
	Order       int          `json:"order"`
	Notes       *string      `json:"notes"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Exercise *Exercise `json:"exercise,omitempty"`
	Profile  *Profile  `json:"profile,omitempty"`
}
