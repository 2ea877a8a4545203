package model

import (
	"fmt"
	"unicode"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

type PieceKind string

const (
	Pawn   PieceKind = "pawn"
	Knight PieceKind = "knight"
	Bishop PieceKind = "bishop"
	Rook   PieceKind = "rook"
	Queen  PieceKind = "queen"
	King   PieceKind = "king"
)

func (k PieceKind) letter() rune {
	switch k {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Rook:
		return 'R'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Pawn:
		return 'P'
	}
	return '?'
}

// KindFromLetter maps an upper- or lower-case piece letter to its kind.
func KindFromLetter(r rune) (PieceKind, bool) {
	switch unicode.ToUpper(r) {
	case 'K':
		return King, true
	case 'Q':
		return Queen, true
	case 'R':
		return Rook, true
	case 'B':
		return Bishop, true
	case 'N':
		return Knight, true
	case 'P':
		return Pawn, true
	}
	return "", false
}

// Piece is a value; promotion replaces it rather than mutating it.
type Piece struct {
	Kind  PieceKind `json:"kind"`
	Color Color     `json:"color"`
}

func NewPiece(kind PieceKind, color Color) Piece {
	return Piece{Kind: kind, Color: color}
}

// FENChar returns the FEN letter, upper case for White.
func (p Piece) FENChar() rune {
	l := p.Kind.letter()
	if p.Color == Black {
		return unicode.ToLower(l)
	}
	return l
}

func (p Piece) String() string {
	return string(p.FENChar())
}

// PieceFromFENChar parses a FEN piece letter; lower case is Black.
func PieceFromFENChar(r rune) (Piece, error) {
	kind, ok := KindFromLetter(r)
	if !ok {
		return Piece{}, fmt.Errorf("unknown piece letter %q", r)
	}
	color := White
	if unicode.IsLower(r) {
		color = Black
	}
	return NewPiece(kind, color), nil
}
