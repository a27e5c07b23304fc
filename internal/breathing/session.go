package breathing

import "errors"

// ErrSessionActive is returned for transitions that are only allowed while idle.
var ErrSessionActive = errors.New("breathing session is running")

// Event describes the transition a session just made.
type Event int

const (
	// EventIgnored means the input had no effect (e.g. a tick while idle).
	EventIgnored Event = iota
	// EventStarted means the session moved from idle to running.
	EventStarted
	// EventTicked means one second elapsed within the current step.
	EventTicked
	// EventStepAdvanced means the session moved to the next step or cycle.
	EventStepAdvanced
	// EventCompleted means the final step of the final cycle finished.
	EventCompleted
	// EventStopped means the user stopped a running session.
	EventStopped
	// EventExerciseChanged means a different pattern was selected while idle.
	EventExerciseChanged
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventTicked:
		return "ticked"
	case EventStepAdvanced:
		return "step_advanced"
	case EventCompleted:
		return "completed"
	case EventStopped:
		return "stopped"
	case EventExerciseChanged:
		return "exercise_changed"
	default:
		return "ignored"
	}
}

// Session is the state machine for a single breathing run. It is not safe
// for concurrent use; Runner serializes access to it.
//
// While idle, step, cycle and remaining are all zero.
type Session struct {
	exercise  *Exercise
	active    bool
	step      int
	cycle     int
	remaining int
}

// NewSession creates an idle session for the given exercise.
func NewSession(ex *Exercise) *Session {
	if ex == nil {
		panic("breathing: NewSession requires an exercise")
	}
	return &Session{exercise: ex}
}

// Exercise returns the selected exercise.
func (s *Session) Exercise() *Exercise { return s.exercise }

// Active reports whether the session is running.
func (s *Session) Active() bool { return s.active }

// StepIndex returns the current step within the cycle.
func (s *Session) StepIndex() int { return s.step }

// Cycle returns the zero-based current cycle.
func (s *Session) Cycle() int { return s.cycle }

// Remaining returns the seconds left in the current step.
func (s *Session) Remaining() int { return s.remaining }

// Start begins the exercise at its first step.
func (s *Session) Start() error {
	if s.active {
		return ErrSessionActive
	}
	s.active = true
	s.step = 0
	s.cycle = 0
	s.remaining = s.exercise.Step(0).Duration
	return nil
}

// Stop ends a running session immediately and resets its progress.
func (s *Session) Stop() Event {
	if !s.active {
		return EventIgnored
	}
	s.reset()
	return EventStopped
}

// ChangeExercise swaps the pattern. Only allowed while idle.
func (s *Session) ChangeExercise(ex *Exercise) error {
	if ex == nil {
		return errors.New("breathing: nil exercise")
	}
	if s.active {
		return ErrSessionActive
	}
	s.exercise = ex
	s.reset()
	return nil
}

// Tick advances the session by one second. When the current step runs out
// on this tick the step boundary is processed immediately, so a 4-second
// step hands over to the next step on its fourth tick.
func (s *Session) Tick() Event {
	if !s.active {
		return EventIgnored
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return EventTicked
	}
	return s.advance()
}

func (s *Session) advance() Event {
	steps := s.exercise.StepCount()
	next := (s.step + 1) % steps
	cycle := s.cycle
	if next == 0 {
		cycle++
	}
	if cycle >= s.exercise.Cycles() {
		s.reset()
		return EventCompleted
	}
	s.step = next
	s.cycle = cycle
	s.remaining = s.exercise.Step(next).Duration
	return EventStepAdvanced
}

func (s *Session) reset() {
	s.active = false
	s.step = 0
	s.cycle = 0
	s.remaining = 0
}

// Progress is the fraction of steps already finished, in [0, 1) while
// running and 0 while idle.
func (s *Session) Progress() float64 {
	if !s.active {
		return 0
	}
	steps := s.exercise.StepCount()
	done := s.cycle*steps + s.step
	return float64(done) / float64(s.exercise.Cycles()*steps)
}

// Status is a point-in-time snapshot of a session for display.
type Status struct {
	ExerciseID  string  `json:"exerciseId"`
	Active      bool    `json:"isActive"`
	StepIndex   int     `json:"currentStep"`
	Cycle       int     `json:"currentCycle"`
	Cycles      int     `json:"cycles"`
	Remaining   int     `json:"remainingSeconds"`
	Progress    float64 `json:"progress"`
	Action      string  `json:"action,omitempty"`
	Instruction string  `json:"instruction,omitempty"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		ExerciseID: s.exercise.ID(),
		Active:     s.active,
		StepIndex:  s.step,
		Cycle:      s.cycle,
		Cycles:     s.exercise.Cycles(),
		Remaining:  s.remaining,
		Progress:   s.Progress(),
	}
	if s.active {
		step := s.exercise.Step(s.step)
		st.Action = step.Action
		st.Instruction = step.Instruction
	}
	return st
}
