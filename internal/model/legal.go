package model

// LegalDestinations filters the pseudo-legal destinations of piece on from
// down to those that do not leave its own king attacked. Each candidate is
// played on a private copy of state; state itself is never touched. When the
// mover's side has no king every pseudo-legal destination is kept.
func LegalDestinations(state *GameState, piece Piece, from Position) PositionSet {
	candidates := Destinations(state, piece, from, false)
	for to := range candidates {
		simulated := simulateMove(state, piece, from, to)
		king, ok := simulated.Board.FindKing(piece.Color)
		if !ok {
			continue
		}
		if AttackedSquares(simulated, piece.Color).Contains(king) {
			delete(candidates, to)
		}
	}
	return candidates
}

// LegalMoves returns the legal destinations of every piece of color that has
// at least one.
func LegalMoves(state *GameState, color Color) map[Position]PositionSet {
	out := make(map[Position]PositionSet)
	for _, from := range state.Board.PiecesOf(color) {
		piece, _ := state.Board.Get(from)
		if dests := LegalDestinations(state, piece, from); len(dests) > 0 {
			out[from] = dests
		}
	}
	return out
}

// HasLegalMove reports whether color can make any move at all.
func HasLegalMove(state *GameState, color Color) bool {
	for _, from := range state.Board.PiecesOf(color) {
		piece, _ := state.Board.Get(from)
		if len(LegalDestinations(state, piece, from)) > 0 {
			return true
		}
	}
	return false
}

// simulateMove returns a copy of state with piece moved from -> to. Whatever
// stood on to is overwritten, and a pawn taken en passant is removed.
func simulateMove(state *GameState, piece Piece, from, to Position) *GameState {
	next := state.Clone()
	next.Board.Remove(from)
	if victim, ok := enPassantVictim(state, piece, from, to); ok {
		next.Board.Remove(victim)
	}
	next.Board.Set(to, piece)
	return next
}

// enPassantVictim locates the pawn captured when piece moves from -> to onto
// the en-passant target square.
func enPassantVictim(state *GameState, piece Piece, from, to Position) (Position, bool) {
	if piece.Kind != Pawn || state.EnPassantTarget == nil || *state.EnPassantTarget != to {
		return Position{}, false
	}
	if from.Col == to.Col || !state.Board.IsEmpty(to) {
		return Position{}, false
	}
	victim := Position{Row: from.Row, Col: to.Col}
	occupant, ok := state.Board.Get(victim)
	if !ok || occupant.Kind != Pawn || occupant.Color == piece.Color {
		return Position{}, false
	}
	return victim, true
}
