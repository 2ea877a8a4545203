// Package render draws a game state as a text board for terminals.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/benbeisheim/chesscore-backend/internal/model"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiGreen     = "\x1b[32m"
	ansiRed       = "\x1b[31m"
	ansiDarkBg    = "\x1b[40m"
	ansiLightBg   = "\x1b[100m"
	ansiHighlight = "\x1b[43m"
)

const rule = "   +---+---+---+---+---+---+---+---+"

type Options struct {
	// Color enables ANSI colours. Stdout reports whether the terminal wants them.
	Color bool
	// Highlight marks squares, e.g. the destinations of a selected piece.
	Highlight model.PositionSet
}

// Stdout returns a writer for standard output that understands ANSI
// sequences on every platform, and whether stdout is a terminal.
func Stdout() (io.Writer, bool) {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return colorable.NewColorableStdout(), tty
}

// Board writes the board from White's side, followed by a status line.
func Board(w io.Writer, state *model.GameState, opts Options) error {
	var sb strings.Builder
	sb.WriteString(files + "\n")
	sb.WriteString(rule + "\n")
	for row := 0; row < model.BoardSize; row++ {
		rank := model.BoardSize - row
		fmt.Fprintf(&sb, " %d |", rank)
		for col := 0; col < model.BoardSize; col++ {
			pos := model.Pos(row, col)
			sb.WriteString(cell(state, pos, opts))
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, " %d\n", rank)
		sb.WriteString(rule + "\n")
	}
	sb.WriteString(files + "\n")
	sb.WriteString(Status(state) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

const files = "     a   b   c   d   e   f   g   h"

func cell(state *model.GameState, pos model.Position, opts Options) string {
	piece, occupied := state.Board.Get(pos)
	marked := opts.Highlight != nil && opts.Highlight.Contains(pos)

	if !opts.Color {
		switch {
		case occupied && marked:
			return "(" + piece.String() + ")"
		case occupied:
			return " " + piece.String() + " "
		case marked:
			return " * "
		default:
			return "   "
		}
	}

	bg := ansiLightBg
	if (pos.Row+pos.Col)%2 == 1 {
		bg = ansiDarkBg
	}
	if marked {
		bg = ansiHighlight
	}
	if !occupied {
		return bg + "   " + ansiReset
	}
	fg := ansiGreen
	if piece.Color == model.Black {
		fg = ansiRed
	}
	return bg + ansiBold + fg + " " + piece.String() + " " + ansiReset
}

// Status describes whose turn it is or how the game ended.
func Status(state *model.GameState) string {
	if state.Result != nil {
		switch *state.Result {
		case model.WhiteWin:
			return "checkmate, white wins"
		case model.BlackWin:
			return "checkmate, black wins"
		default:
			return "stalemate"
		}
	}
	s := fmt.Sprintf("%s to move (move %d)", state.SideToMove, state.FullmoveNumber)
	if model.InCheck(state, state.SideToMove) {
		s += ", check"
	}
	return s
}
