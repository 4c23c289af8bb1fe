package utils

import "errors"

// Sentinel errors returned by the service layer. Controllers translate
// these into HTTP statuses; anything else is an internal error.
var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrCallNotFound       = errors.New("call not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrFieldNotFound      = errors.New("field not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrCallAlreadyEnded = errors.New("call already ended")
	ErrAlreadyAssigned  = errors.New("user already assigned to this campaign")
)
