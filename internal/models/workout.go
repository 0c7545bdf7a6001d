package models

import "fmt"

// Canonical option lists for workout requests. These drive both request
// validation and the allowed-value lists serialized to clients.
var (
	IntensityLevels  = []string{"low", "medium", "high"}
	GoalOptions      = []string{"strength", "hypertrophy", "endurance", "mobility", "fat_loss"}
	EquipmentOptions = []string{"bodyweight", "minimal", "full_gym"}
)

// WorkoutRequest is the inbound generation request. UserID is optional on
// the wire for generation but required for profile-scoped endpoints.
type WorkoutRequest struct {
	Time      int    `json:"time"`
	Intensity string `json:"intensity"`
	Goal      string `json:"goal"`
	Equipment string `json:"equipment"`
	UserID    string `json:"userId,omitempty"`
}

// Validate returns a map of field name to problem description, empty when
// the request is well formed.
func (r *WorkoutRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Time < 10 || r.Time > 120 {
		errs["time"] = "must be an integer between 10 and 120"
	}
	if !contains(IntensityLevels, r.Intensity) {
		errs["intensity"] = fmt.Sprintf("must be one of %v", IntensityLevels)
	}
	if !contains(GoalOptions, r.Goal) {
		errs["goal"] = fmt.Sprintf("must be one of %v", GoalOptions)
	}
	if !contains(EquipmentOptions, r.Equipment) {
		errs["equipment"] = fmt.Sprintf("must be one of %v", EquipmentOptions)
	}
	if r.UserID != "" && len(r.UserID) < 8 {
		errs["userId"] = "must be at least 8 characters"
	}
	return errs
}

// WorkoutExercise is a single movement inside a block.
type WorkoutExercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Prescription string   `json:"prescription"`
	Equipment    string   `json:"equipment,omitempty"`
	Notes        []string `json:"notes"`
}

// WorkoutBlock is a themed segment of the session with its own timer.
type WorkoutBlock struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Focus           string            `json:"focus"`
	DurationMinutes float64           `json:"durationMinutes"`
	Instructions    string            `json:"instructions"`
	TimerSeconds    int               `json:"timerSeconds"`
	Exercises       []WorkoutExercise `json:"exercises"`
	Tips            []string          `json:"tips"`
}

// WorkoutMetrics summarizes the expected load of the session.
type WorkoutMetrics struct {
	Intensity         string   `json:"intensity"`
	RPETarget         string   `json:"rpeTarget"`
	EstimatedCalories *float64 `json:"estimatedCalories,omitempty"`
}

// WorkoutPlan is the generated session. The generator is never trusted to
// honor the shape; Validate runs on every parsed provider response.
type WorkoutPlan struct {
	Summary              string         `json:"summary"`
	TotalDurationMinutes float64        `json:"totalDurationMinutes"`
	Warmup               []string       `json:"warmup"`
	Cooldown             []string       `json:"cooldown"`
	Finisher             []string       `json:"finisher"`
	Metrics              WorkoutMetrics `json:"metrics"`
	Blocks               []WorkoutBlock `json:"blocks"`
}

// Validate checks the plan against the schema bounds: total duration
// 10-180 minutes, at least two blocks, each block 3-90 minutes with a
// 60-3600s timer and at least one exercise.
func (p *WorkoutPlan) Validate() error {
	if p.Summary == "" {
		return fmt.Errorf("plan summary is empty")
	}
	if p.TotalDurationMinutes < 10 || p.TotalDurationMinutes > 180 {
		return fmt.Errorf("totalDurationMinutes %v out of range [10,180]", p.TotalDurationMinutes)
	}
	if !contains(IntensityLevels, p.Metrics.Intensity) {
		return fmt.Errorf("metrics.intensity %q is not a known level", p.Metrics.Intensity)
	}
	if p.Metrics.RPETarget == "" {
		return fmt.Errorf("metrics.rpeTarget is empty")
	}
	if len(p.Blocks) < 2 {
		return fmt.Errorf("plan has %d blocks, need at least 2", len(p.Blocks))
	}
	for i := range p.Blocks {
		if err := p.Blocks[i].validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

func (b *WorkoutBlock) validate() error {
	if b.ID == "" || b.Title == "" {
		return fmt.Errorf("missing id or title")
	}
	if b.DurationMinutes < 3 || b.DurationMinutes > 90 {
		return fmt.Errorf("durationMinutes %v out of range [3,90]", b.DurationMinutes)
	}
	if b.TimerSeconds < 60 || b.TimerSeconds > 3600 {
		return fmt.Errorf("timerSeconds %d out of range [60,3600]", b.TimerSeconds)
	}
	if len(b.Exercises) < 1 {
		return fmt.Errorf("block has no exercises")
	}
	for i, ex := range b.Exercises {
		if ex.ID == "" || ex.Name == "" || ex.Prescription == "" {
			return fmt.Errorf("exercise %d missing id, name or prescription", i)
		}
	}
	return nil
}

// StoredWorkoutRecord is one saved history entry. Records are immutable;
// the per-user list is bounded and oldest entries are evicted on append.
type StoredWorkoutRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	CreatedAt string         `json:"created_at"`
	Inputs    WorkoutRequest `json:"inputs"`
	Output    WorkoutPlan    `json:"output"`
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
