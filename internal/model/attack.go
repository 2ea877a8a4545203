package model

// AttackedSquares returns every square threatened by the pieces that are not
// of color, i.e. the squares color's king may not stand on. It is recomputed
// from scratch on each call.
func AttackedSquares(state *GameState, color Color) PositionSet {
	out := NewPositionSet()
	for pos, piece := range state.Board {
		if piece.Color == color {
			continue
		}
		out.Union(Destinations(state, piece, pos, true))
	}
	return out
}

// InCheck reports whether color's king is attacked. A side without a king is
// never in check.
func InCheck(state *GameState, color Color) bool {
	king, ok := state.Board.FindKing(color)
	if !ok {
		return false
	}
	return AttackedSquares(state, color).Contains(king)
}
