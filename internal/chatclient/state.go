package chatclient

// State — состояние соединения с чатом.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateJoining
	StateServing
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoining:
		return "joining"
	case StateServing:
		return "serving"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
