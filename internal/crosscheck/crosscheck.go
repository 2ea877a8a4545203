// Package crosscheck compares the rules core against an independent move
// generator. Castling is left out of the comparison because the core does
// not generate it.
package crosscheck

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dylhunn/dragontoothmg"

	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
)

// Report lists moves, as "from:to" tokens, that only one side produced.
type Report struct {
	FEN           string
	OnlyCore      []string
	OnlyReference []string
}

func (r Report) Agree() bool {
	return len(r.OnlyCore) == 0 && len(r.OnlyReference) == 0
}

func (r Report) String() string {
	if r.Agree() {
		return fmt.Sprintf("%s: agree", r.FEN)
	}
	return fmt.Sprintf("%s: only core %v, only reference %v", r.FEN, r.OnlyCore, r.OnlyReference)
}

// ErrUnsupportedPosition is returned for positions the reference generator
// cannot handle.
var ErrUnsupportedPosition = errors.New("crosscheck needs exactly one king per side")

// Compare generates the legal moves of the side to move in fen with both
// generators. The reference is fed the normalised FEN, so placement-only
// input is accepted.
func Compare(fen string) (Report, error) {
	state, err := notation.ParseFEN(fen)
	if err != nil {
		return Report{}, err
	}
	for _, color := range []model.Color{model.White, model.Black} {
		if n := countKings(state.Board, color); n != 1 {
			return Report{}, fmt.Errorf("%w: %s has %d", ErrUnsupportedPosition, color, n)
		}
	}

	core := coreMoves(state)
	ref := referenceMoves(notation.FormatFEN(state))

	report := Report{FEN: fen}
	for m := range core {
		if !ref[m] {
			report.OnlyCore = append(report.OnlyCore, m)
		}
	}
	for m := range ref {
		if !core[m] {
			report.OnlyReference = append(report.OnlyReference, m)
		}
	}
	sort.Strings(report.OnlyCore)
	sort.Strings(report.OnlyReference)
	return report, nil
}

func countKings(board model.Board, color model.Color) int {
	n := 0
	for _, piece := range board {
		if piece.Kind == model.King && piece.Color == color {
			n++
		}
	}
	return n
}

func coreMoves(state *model.GameState) map[string]bool {
	out := make(map[string]bool)
	for from, dests := range model.LegalMoves(state, state.SideToMove) {
		for to := range dests {
			out[from.String()+":"+to.String()] = true
		}
	}
	return out
}

// referenceMoves collapses promotions to a single from:to pair and drops
// castling.
func referenceMoves(fen string) map[string]bool {
	board := dragontoothmg.ParseFen(fen)
	out := make(map[string]bool)
	for _, m := range board.GenerateLegalMoves() {
		from, to := squareFromIndex(m.From()), squareFromIndex(m.To())
		if isCastle(board, m.From(), from, to) {
			continue
		}
		out[from.String()+":"+to.String()] = true
	}
	return out
}

// squareFromIndex converts a little-endian rank-file index (a1 = 0, h8 = 63).
func squareFromIndex(idx uint8) model.Position {
	return model.Pos(model.BoardSize-1-int(idx)/model.BoardSize, int(idx)%model.BoardSize)
}

func isCastle(board dragontoothmg.Board, fromIdx uint8, from, to model.Position) bool {
	bb := board.Black.Kings
	if board.Wtomove {
		bb = board.White.Kings
	}
	if bb&(uint64(1)<<fromIdx) == 0 {
		return false
	}
	d := from.Col - to.Col
	return from.Row == to.Row && (d == 2 || d == -2)
}
