package services

import "errors"

// Sentinel errors shared by all services. Handlers map these onto HTTP
// statuses with errors.Is, so services must return them (or wrap them)
// for every expected failure.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotAParticipant   = errors.New("not a participant of this game")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflicting game state")
	ErrGameFull          = errors.New("game is full")
	ErrGameEnded         = errors.New("game has ended")
	ErrInsufficientScore = errors.New("insufficient score")
)
