package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

const BoardSize = 8

// Position is a (row, column) coordinate. Row 0 is rank 8 and column 0 is
// file a. Values outside 0..7 are allowed while generating moves but are
// never stored on a Board. Positions encode as text ("e4") in JSON.
type Position struct {
	Row int
	Col int
}

func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// String returns the square in file-rank form, e.g. "e4".
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col, BoardSize-p.Row)
}

// ParsePosition parses a square such as "e4".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("square %q: want file and rank", s)
	}
	file, rank := s[0], s[1]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Position{}, fmt.Errorf("square %q out of range", s)
	}
	return Position{Row: BoardSize - int(rank-'0'), Col: int(file - 'a')}, nil
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.InBounds() {
		return nil, fmt.Errorf("position %v is off the board", p)
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PositionSet is an unordered set of squares.
type PositionSet map[Position]struct{}

func NewPositionSet(positions ...Position) PositionSet {
	s := make(PositionSet, len(positions))
	for _, p := range positions {
		s.Add(p)
	}
	return s
}

func (s PositionSet) Add(p Position) {
	s[p] = struct{}{}
}

func (s PositionSet) Contains(p Position) bool {
	_, ok := s[p]
	return ok
}

// Union adds every member of other to s.
func (s PositionSet) Union(other PositionSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Sorted returns the members in board order (rank 8 first, then by file).
// Callers that display or compare sets use it; the set itself has no order.
func (s PositionSet) Sorted() []Position {
	keys := maps.Keys(s)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	return keys
}

func (s PositionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
