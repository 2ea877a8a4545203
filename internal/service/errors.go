package service

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameExists      = errors.New("game already exists")
	ErrGameFull        = errors.New("game is full")
	ErrNotInGame       = errors.New("player is not in this game")
	ErrNotAuthorized   = errors.New("not authorized to join this game")
	ErrAlreadyQueued   = errors.New("player already in queue")
	ErrNoPieceOnSquare = errors.New("no piece on square")
	ErrArchiveDisabled = errors.New("archive is not configured")
)
