package studio

import "fmt"

// View is the display state of one user's studio session. Exactly one is active.
type View int

const (
	Idle View = iota
	Saving
	PlayingVideo
	ShowingResult
	ShowingError
)

func (v View) String() string {
	switch v {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case PlayingVideo:
		return "playing_video"
	case ShowingResult:
		return "showing_result"
	case ShowingError:
		return "showing_error"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

type Event int

const (
	EventStart Event = iota
	EventSucceed
	EventFail
	EventPlay
	EventStop
	EventDismiss
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventSucceed:
		return "succeed"
	case EventFail:
		return "fail"
	case EventPlay:
		return "play"
	case EventStop:
		return "stop"
	case EventDismiss:
		return "dismiss"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

var transitions = map[View]map[Event]View{
	Idle: {
		EventStart: Saving,
		EventPlay:  PlayingVideo,
	},
	Saving: {
		EventSucceed: ShowingResult,
		EventFail:    ShowingError,
	},
	PlayingVideo: {
		EventStop:  Idle,
		EventStart: Saving,
	},
	ShowingResult: {
		EventStart:   Saving,
		EventPlay:    PlayingVideo,
		EventDismiss: Idle,
	},
	ShowingError: {
		EventStart:   Saving,
		EventDismiss: Idle,
	},
}

// Transition returns the view after e, or ErrIllegalTransition.
func (v View) Transition(e Event) (View, error) {
	next, ok := transitions[v][e]
	if !ok {
		return v, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, e, v)
	}
	return next, nil
}
