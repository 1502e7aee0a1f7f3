package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSeatTaken         = errors.New("seat already taken")
	ErrInvalidSeat       = errors.New("invalid seat")
	ErrAlreadySeated     = errors.New("session already holds another seat")
	ErrRoleConflict      = errors.New("role conflict")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTransition = errors.New("invalid show transition")
	ErrTargetNotFound    = errors.New("signaling target not found")
	ErrInvalidSchedule   = errors.New("invalid scheduled show")
)

// Code is the wire name of an error reported back to a client.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeSeatTaken         Code = "seat_taken"
	CodeInvalidSeat       Code = "invalid_seat"
	CodeAlreadySeated     Code = "already_seated"
	CodeRoleConflict      Code = "role_conflict"
	CodeInvalidRole       Code = "invalid_role"
	CodeInvalidTransition Code = "invalid_transition"
	CodeTargetNotFound    Code = "target_not_found"
	CodeInvalidSchedule   Code = "invalid_schedule"
	CodeBadPayload        Code = "bad_payload"
	CodeRateLimited       Code = "rate_limited"
	CodeInternal          Code = "internal"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrNotFound, CodeNotFound},
	{ErrSeatTaken, CodeSeatTaken},
	{ErrInvalidSeat, CodeInvalidSeat},
	{ErrAlreadySeated, CodeAlreadySeated},
	{ErrRoleConflict, CodeRoleConflict},
	{ErrInvalidRole, CodeInvalidRole},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrTargetNotFound, CodeTargetNotFound},
	{ErrInvalidSchedule, CodeInvalidSchedule},
}

// CodeOf maps a (possibly wrapped) domain error to its wire code.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
