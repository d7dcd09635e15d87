package model

// RequestState is the position of a single request in the relay flow.
type RequestState string

const (
	StateReceived     RequestState = "Received"
	StateURLExtracted RequestState = "URLExtracted"
	StateDownloading  RequestState = "Downloading"
	StateDelivering   RequestState = "Delivering"
	StateRejected     RequestState = "Rejected"
	StateFailed       RequestState = "Failed"
	StateDone         RequestState = "Done"
)

var stateTransitions = map[RequestState][]RequestState{
	StateReceived:     {StateURLExtracted, StateDone},
	StateURLExtracted: {StateDownloading, StateDelivering, StateRejected, StateFailed},
	StateDownloading:  {StateDownloading, StateDelivering, StateRejected, StateFailed},
	StateDelivering:   {StateDone, StateRejected, StateFailed},
}

func (rs RequestState) String() string {
	return string(rs)
}

// IsTerminal reports whether no further transition is possible.
func (rs RequestState) IsTerminal() bool {
	return rs == StateDone || rs == StateRejected || rs == StateFailed
}

func (rs RequestState) canMoveTo(next RequestState) bool {
	for _, allowed := range stateTransitions[rs] {
		if allowed == next {
			return true
		}
	}
	return false
}
