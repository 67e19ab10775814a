package session

import (
	"time"

	"github.com/yanqian/fortune-master/internal/domain/fortune"
	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

// ErrBusy is returned when a submit is started while another is in flight.
var ErrBusy = apperrors.Wrap(apperrors.CodeConflict, "a reading is already in progress", nil)

// Ticket identifies one submit. Its generation ties the eventual response to
// the mode it was requested for.
type Ticket struct {
	Generation uint64       `json:"generation"`
	Mode       fortune.Mode `json:"mode"`
}

// State is the reading screen of one visitor.
type State struct {
	ID         string                 `json:"id"`
	Mode       fortune.Mode           `json:"mode"`
	Loading    bool                   `json:"loading"`
	Result     *fortune.ReadingResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Generation uint64                 `json:"generation"`
	Pending    *Ticket                `json:"pending,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// View is the screen the frontend should render.
type View string

const (
	ViewForm    View = "form"
	ViewLoading View = "loading"
	ViewResult  View = "result"
)

// View derives the rendered screen; loading wins over a stale result.
func (s State) View() View {
	switch {
	case s.Loading:
		return ViewLoading
	case s.Result != nil:
		return ViewResult
	default:
		return ViewForm
	}
}

// NewState returns the initial state for mode.
func NewState(id string, mode fortune.Mode) State {
	return State{ID: id, Mode: mode}
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

type SubmitStarted struct {
	Ticket Ticket
}

type SubmitSucceeded struct {
	Ticket Ticket
	Result fortune.ReadingResult
}

type SubmitFailed struct {
	Ticket  Ticket
	Message string
}

type ModeSwitched struct {
	Mode fortune.Mode
}

type ResetRequested struct{}

func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}
func (ModeSwitched) isEvent()    {}
func (ResetRequested) isEvent()  {}

// Reduce applies ev to s and returns the next state. It has no side effects.
//
// Mode switches and resets do not cancel a submit in flight. They bump the
// generation, so the late response only clears the loading flag.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case SubmitStarted:
		if s.Loading {
			return s, ErrBusy
		}
		ticket := e.Ticket
		s.Loading = true
		s.Error = ""
		s.Pending = &ticket
		return s, nil
	case SubmitSucceeded:
		if !s.current(e.Ticket) {
			return s.dropStale(e.Ticket), nil
		}
		result := e.Result
		s.Loading = false
		s.Pending = nil
		s.Result = &result
		s.Error = ""
		return s, nil
	case SubmitFailed:
		if !s.current(e.Ticket) {
			return s.dropStale(e.Ticket), nil
		}
		s.Loading = false
		s.Pending = nil
		s.Result = nil
		s.Error = e.Message
		return s, nil
	case ModeSwitched:
		s.Mode = e.Mode
		s.Result = nil
		s.Error = ""
		s.Generation++
		return s, nil
	case ResetRequested:
		s.Result = nil
		s.Error = ""
		s.Generation++
		return s, nil
	default:
		return s, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown session event", nil)
	}
}

func (s State) current(t Ticket) bool {
	return s.Pending != nil && *s.Pending == t && t.Generation == s.Generation
}

// dropStale clears loading when the stale ticket is still the pending one.
func (s State) dropStale(t Ticket) State {
	if s.Pending != nil && *s.Pending == t {
		s.Loading = false
		s.Pending = nil
	}
	return s
}
