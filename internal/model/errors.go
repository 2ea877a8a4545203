package model

import (
	"errors"
	"fmt"
)

// Reasons a move is refused. Use errors.Is on the error returned by Apply.
var (
	ErrGameEnded   = errors.New("game already ended")
	ErrNoPiece     = errors.New("no piece at source square")
	ErrWrongTurn   = errors.New("wrong turn")
	ErrIllegalMove = errors.New("illegal move")

	// ErrPieceVanished is an internal consistency failure: the moving piece
	// was gone by the time the move was carried out.
	ErrPieceVanished = errors.New("piece vanished between legality check and application")
)

// MoveError carries the squares of a refused move alongside the reason.
type MoveError struct {
	From Position
	To   Position
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s:%s: %v", e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
