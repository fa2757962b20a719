package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrInvalidPassword   = errors.New("invalid password")

	// Ledger errors
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Meeting errors
	ErrMeetingNotFound         = errors.New("meeting not found")
	ErrInvalidStatusTransition = errors.New("invalid meeting status transition")
	ErrMissingAnalysisResult   = errors.New("analysis result is missing")

	// Action item / decision errors
	ErrActionItemNotFound      = errors.New("action item not found")
	ErrDecisionNotFound        = errors.New("decision not found")
	ErrInvalidActionItemStatus = errors.New("invalid action item status")
	ErrInvalidDecisionStatus   = errors.New("invalid decision status")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid token")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
