// Package notation converts between text and the rules model: FEN
// positions, squares such as "e4" and move tokens such as "a2:a4".
package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/benbeisheim/chesscore-backend/internal/model"
)

// InitialFEN is the standard starting position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN       = errors.New("invalid FEN string")
	ErrInvalidSquare    = errors.New("invalid square")
	ErrInvalidMoveToken = errors.New("invalid move token")
)

// ParseFEN builds a game state from a FEN string. Only the placement field
// is required; missing trailing fields default to "w - - 0 1". The result
// field of the returned state is always unset.
func ParseFEN(fen string) (*model.GameState, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty FEN: %w", ErrInvalidFEN)
	}
	if len(fields) > 6 {
		return nil, fmt.Errorf("%d fields: %w", len(fields), ErrInvalidFEN)
	}
	defaults := []string{"", "w", "-", "-", "0", "1"}
	fields = append(fields, defaults[len(fields):]...)

	state := model.NewGameState()
	if err := parsePlacement(state.Board, fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		state.SideToMove = model.White
	case "b":
		state.SideToMove = model.Black
	default:
		return nil, fmt.Errorf("side to move %q: %w", fields[1], ErrInvalidFEN)
	}

	castling, err := parseCastling(fields[2])
	if err != nil {
		return nil, err
	}
	state.Castling = castling

	if fields[3] != "-" {
		ep, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("en passant field: %v: %w", err, ErrInvalidFEN)
		}
		state.EnPassantTarget = &ep
	}

	halfmove, err := strconv.ParseUint(fields[4], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("halfmove clock %q: %w", fields[4], ErrInvalidFEN)
	}
	fullmove, err := strconv.ParseUint(fields[5], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("fullmove number %q: %w", fields[5], ErrInvalidFEN)
	}
	state.HalfmoveClock = uint(halfmove)
	state.FullmoveNumber = uint(fullmove)

	return state, nil
}

// MustParseFEN is ParseFEN for positions known to be valid, such as
// InitialFEN and test fixtures.
func MustParseFEN(fen string) *model.GameState {
	state, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return state
}

func parsePlacement(board model.Board, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != model.BoardSize {
		return fmt.Errorf("%d rows: %w", len(rows), ErrInvalidFEN)
	}
	for row, text := range rows {
		col := 0
		for _, c := range text {
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			piece, err := model.PieceFromFENChar(c)
			if err != nil {
				return fmt.Errorf("row %d: %v: %w", row+1, err, ErrInvalidFEN)
			}
			if col >= model.BoardSize {
				return fmt.Errorf("row %d overflows: %w", row+1, ErrInvalidFEN)
			}
			board.Set(model.Pos(row, col), piece)
			col++
		}
		if col != model.BoardSize {
			return fmt.Errorf("row %d has %d squares: %w", row+1, col, ErrInvalidFEN)
		}
	}
	return nil
}

func parseCastling(field string) (model.CastlingRights, error) {
	var rights model.CastlingRights
	if field == "-" {
		return rights, nil
	}
	for _, c := range field {
		switch c {
		case 'K':
			rights.WhiteKingSide = true
		case 'Q':
			rights.WhiteQueenSide = true
		case 'k':
			rights.BlackKingSide = true
		case 'q':
			rights.BlackQueenSide = true
		default:
			return rights, fmt.Errorf("castling field %q: %w", field, ErrInvalidFEN)
		}
	}
	return rights, nil
}

// FormatFEN writes state back out as a six-field FEN string.
func FormatFEN(state *model.GameState) string {
	var sb strings.Builder
	for row := 0; row < model.BoardSize; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < model.BoardSize; col++ {
			piece, ok := state.Board.Get(model.Pos(row, col))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(piece.FENChar())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}

	side := "w"
	if state.SideToMove == model.Black {
		side = "b"
	}
	ep := "-"
	if state.EnPassantTarget != nil {
		ep = state.EnPassantTarget.String()
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, state.Castling, ep, state.HalfmoveClock, state.FullmoveNumber)
	return sb.String()
}
