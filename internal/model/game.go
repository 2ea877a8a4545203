package model

type GameResult string

const (
	WhiteWin  GameResult = "white_win"
	BlackWin  GameResult = "black_win"
	Stalemate GameResult = "stalemate"
)

// WinFor returns the result in which color wins.
func WinFor(color Color) GameResult {
	if color == White {
		return WhiteWin
	}
	return BlackWin
}

// GameState is the authoritative position of one game. It is owned by a
// single caller and mutated only through Apply and CheckGameEnded.
type GameState struct {
	Board           Board          `json:"board"`
	SideToMove      Color          `json:"sideToMove"`
	Castling        CastlingRights `json:"castling"`
	EnPassantTarget *Position      `json:"enPassantTarget"`
	HalfmoveClock   uint           `json:"halfmoveClock"`
	FullmoveNumber  uint           `json:"fullmoveNumber"`
	Result          *GameResult    `json:"result"`
}

// NewGameState returns an empty board with White to move on move 1.
func NewGameState() *GameState {
	return &GameState{
		Board:          NewBoard(),
		SideToMove:     White,
		FullmoveNumber: 1,
	}
}

// Clone returns a fully independent copy.
func (s *GameState) Clone() *GameState {
	out := *s
	out.Board = s.Board.Clone()
	if s.EnPassantTarget != nil {
		ep := *s.EnPassantTarget
		out.EnPassantTarget = &ep
	}
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return &out
}

func (s *GameState) Ended() bool {
	return s.Result != nil
}

// Apply validates and plays from -> to for the side to move. When promotion
// is non-nil it is placed on to instead of the moving piece; neither the
// square nor the replacement kind is checked. On error the state is left
// exactly as it was.
func (s *GameState) Apply(from, to Position, promotion *Piece) (Ply, error) {
	if s.Ended() {
		return Ply{}, &MoveError{From: from, To: to, Err: ErrGameEnded}
	}
	piece, ok := s.Board.Get(from)
	if !ok {
		return Ply{}, &MoveError{From: from, To: to, Err: ErrNoPiece}
	}
	if piece.Color != s.SideToMove {
		return Ply{}, &MoveError{From: from, To: to, Err: ErrWrongTurn}
	}
	if !LegalDestinations(s, piece, from).Contains(to) {
		return Ply{}, &MoveError{From: from, To: to, Err: ErrIllegalMove}
	}

	next := s.Clone()
	moved, ok := next.Board.Remove(from)
	if !ok {
		return Ply{}, &MoveError{From: from, To: to, Err: ErrPieceVanished}
	}
	ply := Ply{Piece: moved, From: from, To: to}

	if victim, ok := enPassantVictim(s, moved, from, to); ok {
		captured, _ := next.Board.Remove(victim)
		ply.Captured = &captured
		ply.EnPassant = true
	}
	if captured, ok := next.Board.Remove(to); ok {
		ply.Captured = &captured
	}

	placed := moved
	if promotion != nil {
		placed = *promotion
		ply.Promotion = &placed
	}
	next.Board.Set(to, placed)

	if moved.Color == Black {
		next.FullmoveNumber++
	}

	next.HalfmoveClock++
	if moved.Kind == Pawn || ply.Captured != nil {
		next.HalfmoveClock = 0
	}

	next.EnPassantTarget = nil
	if moved.Kind == Pawn && abs(to.Row-from.Row) == 2 {
		next.EnPassantTarget = &Position{Row: (from.Row + to.Row) / 2, Col: from.Col}
	}

	next.SideToMove = moved.Color.Opposite()
	next.CheckGameEnded()

	*s = *next
	return ply, nil
}

// CheckGameEnded sets Result when the side to move has no legal move: a win
// for the other side if its king is attacked, stalemate otherwise. A side
// with no king is treated as not attacked.
func (s *GameState) CheckGameEnded() {
	if HasLegalMove(s, s.SideToMove) {
		return
	}
	result := Stalemate
	if InCheck(s, s.SideToMove) {
		result = WinFor(s.SideToMove.Opposite())
	}
	s.Result = &result
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
