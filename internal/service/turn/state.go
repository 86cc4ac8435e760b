package turn

import "fmt"

type State int

const (
	StateLoadContext State = iota
	StateBuildPrompt
	StateGetResponse
	StateUpdateMemory
	StateCheckStop
	StateEnd
)

var stateNames = map[State]string{
	StateLoadContext:  "LOAD_CONTEXT",
	StateBuildPrompt:  "BUILD_PROMPT",
	StateGetResponse:  "GET_RESPONSE",
	StateUpdateMemory: "UPDATE_MEMORY",
	StateCheckStop:    "CHECK_STOP",
	StateEnd:          "END",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Event int

const (
	EventDone Event = iota
	EventFailed
	EventContinue
	EventStop
)

var transitions = map[State]map[Event]State{
	StateLoadContext:  {EventDone: StateBuildPrompt},
	StateBuildPrompt:  {EventDone: StateGetResponse},
	StateGetResponse:  {EventDone: StateUpdateMemory, EventFailed: StateEnd},
	StateUpdateMemory: {EventDone: StateCheckStop},
	StateCheckStop:    {EventContinue: StateLoadContext, EventStop: StateEnd},
}

// next returns the state that follows s on ev. END has no outgoing edges.
func next(s State, ev Event) (State, error) {
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, fmt.Errorf("no transition from %s on event %d", s, ev)
}
