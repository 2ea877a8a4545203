package notation

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/chesscore-backend/internal/model"
)

// Move is a parsed move token.
type Move struct {
	From      model.Position
	To        model.Position
	Promotion *model.PieceKind
}

// PromotionPiece gives the promotion kind the colour of the mover.
func (m Move) PromotionPiece(color model.Color) *model.Piece {
	if m.Promotion == nil {
		return nil
	}
	p := model.NewPiece(*m.Promotion, color)
	return &p
}

func (m Move) String() string {
	s := m.From.String() + ":" + m.To.String()
	if m.Promotion != nil {
		s += "=" + model.NewPiece(*m.Promotion, model.White).String()
	}
	return s
}

func ParseSquare(s string) (model.Position, error) {
	p, err := model.ParsePosition(strings.TrimSpace(s))
	if err != nil {
		return model.Position{}, fmt.Errorf("%v: %w", err, ErrInvalidSquare)
	}
	return p, nil
}

func FormatSquare(p model.Position) string {
	return p.String()
}

// ParseMove parses "from:to" with an optional "=X" promotion suffix, e.g.
// "a2:a4" or "e7:e8=Q".
func ParseMove(token string) (Move, error) {
	token = strings.TrimSpace(token)
	body, promo, hasPromo := strings.Cut(token, "=")
	from, to, ok := strings.Cut(body, ":")
	if !ok {
		return Move{}, fmt.Errorf("%q: want from:to: %w", token, ErrInvalidMoveToken)
	}

	var m Move
	var err error
	if m.From, err = ParseSquare(from); err != nil {
		return Move{}, fmt.Errorf("%q: %v: %w", token, err, ErrInvalidMoveToken)
	}
	if m.To, err = ParseSquare(to); err != nil {
		return Move{}, fmt.Errorf("%q: %v: %w", token, err, ErrInvalidMoveToken)
	}
	if hasPromo {
		runes := []rune(promo)
		if len(runes) != 1 {
			return Move{}, fmt.Errorf("%q: promotion %q: %w", token, promo, ErrInvalidMoveToken)
		}
		kind, ok := model.KindFromLetter(runes[0])
		if !ok {
			return Move{}, fmt.Errorf("%q: promotion %q: %w", token, promo, ErrInvalidMoveToken)
		}
		m.Promotion = &kind
	}
	return m, nil
}
