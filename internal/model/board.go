package model

// Board maps occupied squares to pieces. An absent key is an empty square.
type Board map[Position]Piece

func NewBoard() Board {
	return make(Board)
}

// Get returns the piece on p, if any.
func (b Board) Get(p Position) (Piece, bool) {
	piece, ok := b[p]
	return piece, ok
}

// Set places piece on p, replacing whatever was there.
func (b Board) Set(p Position, piece Piece) {
	b[p] = piece
}

// Remove empties p and returns what was on it.
func (b Board) Remove(p Position) (Piece, bool) {
	piece, ok := b[p]
	if ok {
		delete(b, p)
	}
	return piece, ok
}

func (b Board) IsEmpty(p Position) bool {
	_, ok := b[p]
	return !ok
}

func (b Board) Clone() Board {
	out := make(Board, len(b))
	for p, piece := range b {
		out[p] = piece
	}
	return out
}

// FindKing returns the square of color's king. With more than one king of a
// colour on the board, which one is returned is unspecified.
func (b Board) FindKing(color Color) (Position, bool) {
	for p, piece := range b {
		if piece.Kind == King && piece.Color == color {
			return p, true
		}
	}
	return Position{}, false
}

// PiecesOf returns the squares holding pieces of color.
func (b Board) PiecesOf(color Color) []Position {
	var out []Position
	for p, piece := range b {
		if piece.Color == color {
			out = append(out, p)
		}
	}
	return out
}
