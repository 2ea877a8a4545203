package model

// Ply describes one applied move.
type Ply struct {
	Piece     Piece    `json:"piece"`
	From      Position `json:"from"`
	To        Position `json:"to"`
	Captured  *Piece   `json:"capturedPiece"`
	Promotion *Piece   `json:"promotion"`
	EnPassant bool     `json:"enPassant"`
}

// Notation renders the ply as a move token, e.g. "e2:e4" or "e7:e8=Q".
func (p Ply) Notation() string {
	s := p.From.String() + ":" + p.To.String()
	if p.Promotion != nil {
		s += "=" + string(p.Promotion.Kind.letter())
	}
	return s
}
