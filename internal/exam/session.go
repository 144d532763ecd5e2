package exam

import (
	"math"
	"strings"
)

// State enumerates the exam session states.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateAwaitingAnswer
	StateCompleted
)

// Outcome classifies the effect of one submitted input.
type Outcome int

const (
	// OutcomeInvalid means the input was not recognized; the current
	// question is unchanged and should be re-prompted.
	OutcomeInvalid Outcome = iota
	// OutcomeCorrect means the submitted letter matched the correct one.
	OutcomeCorrect
	// OutcomeWrong means the submitted letter did not match.
	OutcomeWrong
	// OutcomeSkipped means the question was skipped ("next" or empty).
	OutcomeSkipped
	// OutcomeExited means the session was terminated early ("exit").
	OutcomeExited
)

// Step reports the result of one Submit call.
type Step struct {
	Outcome Outcome
	// Correct holds the designated correct letter, or "" when the
	// question text carried no valid marker.
	Correct string
	// Finished is true once the session has reached StateCompleted.
	Finished bool
}

// WrongAnswer records one missed question with full detail.
type WrongAnswer struct {
	Index    int
	Question Question
	Given    string
	Correct  string
}

// Result summarizes a completed session.
type Result struct {
	Total   int
	Correct int
	Wrong   []WrongAnswer
	Score   int
	Passed  bool
}

// Session is the exam state machine. It is created when the trigger
// phrase fires (StateGenerating), receives its question list via Begin,
// then grades one textual input per Submit until completed.
type Session struct {
	state     State
	questions []Question
	current   int
	wrong     []WrongAnswer
}

// NewSession creates a session in StateGenerating.
func NewSession() *Session {
	return &Session{state: StateGenerating}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Begin installs the generated question list. An empty list completes
// the session immediately.
func (s *Session) Begin(questions []Question) {
	s.questions = questions
	s.current = 0
	s.wrong = nil
	if len(questions) == 0 {
		s.state = StateCompleted
		return
	}
	s.state = StateAwaitingAnswer
}

// Current returns the question awaiting an answer along with its
// zero-based index and the session total.
func (s *Session) Current() (Question, int, int) {
	return s.questions[s.current], s.current, len(s.questions)
}

// Submit processes one textual input. Recognized inputs are "exit",
// "next", the empty string, and the letters a-d; anything else leaves
// the session unchanged.
func (s *Session) Submit(input string) Step {
	if s.state != StateAwaitingAnswer {
		return Step{Outcome: OutcomeInvalid, Finished: s.state == StateCompleted}
	}
	answer := strings.ToLower(strings.TrimSpace(input))
	switch answer {
	case "exit":
		for i := s.current; i < len(s.questions); i++ {
			s.markWrong(i, NoAnswer)
		}
		s.state = StateCompleted
		return Step{Outcome: OutcomeExited, Finished: true}
	case "next", "":
		s.markWrong(s.current, NoAnswer)
		return Step{Outcome: OutcomeSkipped, Finished: s.advance()}
	case "a", "b", "c", "d":
		correct, err := ParseCorrectAnswer(s.questions[s.current].Text)
		if err == nil && answer == correct {
			return Step{Outcome: OutcomeCorrect, Correct: correct, Finished: s.advance()}
		}
		// Unknown correct answer counts as wrong, not as a crash.
		s.markWrong(s.current, answer)
		return Step{Outcome: OutcomeWrong, Correct: correct, Finished: s.advance()}
	default:
		return Step{Outcome: OutcomeInvalid}
	}
}

// Result computes the final score on the 1-30 scale. Only meaningful
// once the session is completed.
func (s *Session) Result() Result {
	total := len(s.questions)
	correct := total - len(s.wrong)
	res := Result{Total: total, Correct: correct, Wrong: s.wrong}
	if total > 0 {
		score := int(math.Round(float64(correct) / float64(total) * 30))
		if score < 1 {
			score = 1
		}
		if score > 30 {
			score = 30
		}
		res.Score = score
		// 18 is the pass boundary and counts as a pass.
		res.Passed = score >= 18
	}
	return res
}

// Reset clears all session state back to StateIdle.
func (s *Session) Reset() {
	s.state = StateIdle
	s.questions = nil
	s.current = 0
	s.wrong = nil
}

func (s *Session) markWrong(idx int, given string) {
	correct, err := ParseCorrectAnswer(s.questions[idx].Text)
	if err != nil {
		correct = ""
	}
	s.wrong = append(s.wrong, WrongAnswer{
		Index:    idx,
		Question: s.questions[idx],
		Given:    given,
		Correct:  correct,
	})
}

func (s *Session) advance() bool {
	s.current++
	if s.current >= len(s.questions) {
		s.state = StateCompleted
		return true
	}
	return false
}
