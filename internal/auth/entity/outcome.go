package entity

// IssueStatus is the outcome of an OTP issuance.
type IssueStatus int

const (
	IssueStatusIssued IssueStatus = iota + 1
	IssueStatusError
)

func (s IssueStatus) String() string {
	switch s {
	case IssueStatusIssued:
		return "issued"
	case IssueStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// VerifyStatus is the outcome of an OTP verification attempt.
type VerifyStatus int

const (
	VerifyStatusNoChallenge VerifyStatus = iota + 1
	VerifyStatusExpired
	VerifyStatusMismatch
	VerifyStatusAttemptsExceeded
	VerifyStatusVerified
	VerifyStatusSystemError
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyStatusNoChallenge:
		return "no_challenge"
	case VerifyStatusExpired:
		return "expired"
	case VerifyStatusMismatch:
		return "mismatch"
	case VerifyStatusAttemptsExceeded:
		return "attempts_exceeded"
	case VerifyStatusVerified:
		return "verified"
	case VerifyStatusSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// Message is the user-facing text for the outcome.
func (s VerifyStatus) Message() string {
	switch s {
	case VerifyStatusNoChallenge:
		return "challenge expired or never issued, please restart"
	case VerifyStatusExpired:
		return "OTP has expired, please request a new one"
	case VerifyStatusMismatch:
		return "invalid code, please try again"
	case VerifyStatusAttemptsExceeded:
		return "too many attempts, try again later"
	case VerifyStatusVerified:
		return "login successful"
	default:
		return "something went wrong, please try again"
	}
}

// Decision is the access guard verdict.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
)

func (d Decision) String() string {
	if d == DecisionAllow {
		return "allow"
	}
	return "deny"
}
