package models

import "fmt"

// Session is what the current context believes about authentication and payment.
type Session struct {
	IsAuthenticated     bool     `json:"isAuthenticated"`
	HasCompletedSignUp  bool     `json:"hasCompletedSignUp"`
	HasCompletedPayment bool     `json:"hasCompletedPayment"`
	User                *UserRef `json:"user"`
}

// Validate enforces that an authenticated session is bound to a user.
func (s Session) Validate() error {
	if s.IsAuthenticated && s.User == nil {
		return fmt.Errorf("authenticated session has no user")
	}
	return nil
}

// Account is the secondary snapshot of the last user and payment flag.
type Account struct {
	User                UserRef `json:"user"`
	HasCompletedPayment bool    `json:"hasCompletedPayment"`
}

// Phase is the state of the session lifecycle.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseSignedUpUnpaid
	PhaseSignedUpPaid
	PhaseAuthenticated
	PhaseSignedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseSignedUpUnpaid:
		return "signed-up (unpaid)"
	case PhaseSignedUpPaid:
		return "signed-up (paid)"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseSignedOut:
		return "signed-out"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
