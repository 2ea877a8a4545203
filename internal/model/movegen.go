package model

type direction struct {
	dRow, dCol int
}

var (
	rookDirs   = []direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs  = append(append([]direction{}, rookDirs...), bishopDirs...)
	kingDirs   = queenDirs
	knightDirs = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)

type squareStatus int

const (
	squareFree squareStatus = iota
	squareCapture
	squareBlocked
)

// statusFor classifies target for a piece of the given colour. Off-board
// squares are blocked.
func statusFor(board Board, color Color, target Position) squareStatus {
	if !target.InBounds() {
		return squareBlocked
	}
	occupant, ok := board.Get(target)
	if !ok {
		return squareFree
	}
	if occupant.Color == color {
		return squareBlocked
	}
	return squareCapture
}

// Destinations returns the pseudo-legal destinations of piece standing on
// from: squares its geometry reaches that are empty or hold an enemy piece,
// without regard to the safety of its own king. With attackOnly set, a pawn
// contributes only its two forward diagonals, whether or not they are
// occupied; other kinds are unaffected. state is not modified.
func Destinations(state *GameState, piece Piece, from Position, attackOnly bool) PositionSet {
	switch piece.Kind {
	case Pawn:
		return pawnDestinations(state, piece, from, attackOnly)
	case Knight:
		return stepDestinations(state.Board, piece, from, knightDirs)
	case Bishop:
		return slideDestinations(state.Board, piece, from, bishopDirs)
	case Rook:
		return slideDestinations(state.Board, piece, from, rookDirs)
	case Queen:
		return slideDestinations(state.Board, piece, from, queenDirs)
	case King:
		return stepDestinations(state.Board, piece, from, kingDirs)
	default:
		return NewPositionSet()
	}
}

func slideDestinations(board Board, piece Piece, from Position, dirs []direction) PositionSet {
	out := NewPositionSet()
	for _, dir := range dirs {
		target := from.Add(dir.dRow, dir.dCol)
		for {
			status := statusFor(board, piece.Color, target)
			if status == squareBlocked {
				break
			}
			out.Add(target)
			if status == squareCapture {
				break
			}
			target = target.Add(dir.dRow, dir.dCol)
		}
	}
	return out
}

func stepDestinations(board Board, piece Piece, from Position, dirs []direction) PositionSet {
	out := NewPositionSet()
	for _, dir := range dirs {
		target := from.Add(dir.dRow, dir.dCol)
		if statusFor(board, piece.Color, target) != squareBlocked {
			out.Add(target)
		}
	}
	return out
}

// PawnDirection is -1 (towards row 0) for White and +1 for Black.
func PawnDirection(color Color) int {
	if color == White {
		return -1
	}
	return 1
}

// PawnStartRow is the row from which a pawn of color may advance two squares.
func PawnStartRow(color Color) int {
	if color == White {
		return 6
	}
	return 1
}

func pawnDestinations(state *GameState, piece Piece, from Position, attackOnly bool) PositionSet {
	out := NewPositionSet()
	dir := PawnDirection(piece.Color)

	if !attackOnly {
		one := from.Add(dir, 0)
		if statusFor(state.Board, piece.Color, one) == squareFree {
			out.Add(one)
			two := from.Add(2*dir, 0)
			if from.Row == PawnStartRow(piece.Color) && statusFor(state.Board, piece.Color, two) == squareFree {
				out.Add(two)
			}
		}
	}

	for _, dCol := range []int{-1, 1} {
		diag := from.Add(dir, dCol)
		if !diag.InBounds() {
			continue
		}
		if attackOnly {
			out.Add(diag)
			continue
		}
		switch statusFor(state.Board, piece.Color, diag) {
		case squareCapture:
			out.Add(diag)
		case squareFree:
			if state.EnPassantTarget != nil && *state.EnPassantTarget == diag {
				out.Add(diag)
			}
		}
	}
	return out
}
