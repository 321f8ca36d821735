package session

// State is the lifecycle position of the session.
type State string

const (
	StateLoggedOut     State = "LoggedOut"
	StateLoggingIn     State = "LoggingIn"
	StateAuthenticated State = "Authenticated"
	StateReissuing     State = "Reissuing"
)

func (s State) String() string { return string(s) }

// HasSession reports whether a usable token pair exists in this state.
func (s State) HasSession() bool {
	return s == StateAuthenticated || s == StateReissuing
}
