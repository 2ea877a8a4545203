// Command chesscli plays a game in the terminal.
//
//	chesscli [-fen FEN] [-color=auto|always|never]
//	chesscli crosscheck FEN...
//
// At the prompt enter a move as from:to (e2:e4, e7:e8=Q), "moves e2" to
// list a piece's destinations, "fen" to print the position or "quit".
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/benbeisheim/chesscore-backend/internal/crosscheck"
	"github.com/benbeisheim/chesscore-backend/internal/model"
	"github.com/benbeisheim/chesscore-backend/internal/notation"
	"github.com/benbeisheim/chesscore-backend/internal/render"
)

func main() {
	out, tty := render.Stdout()
	os.Exit(run(os.Args[1:], os.Stdin, out, tty))
}

func run(args []string, in io.Reader, out io.Writer, tty bool) int {
	if len(args) > 0 && args[0] == "crosscheck" {
		return runCrosscheck(args[1:], out)
	}

	fs := flag.NewFlagSet("chesscli", flag.ContinueOnError)
	fs.SetOutput(out)
	fen := fs.String("fen", notation.InitialFEN, "starting position")
	color := fs.String("color", "auto", "colour output: auto, always or never")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	state, err := notation.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 2
	}
	state.CheckGameEnded()

	opts := render.Options{}
	switch *color {
	case "always":
		opts.Color = true
	case "never":
	case "auto":
		opts.Color = tty
	default:
		fmt.Fprintf(out, "error: unknown -color value %q\n", *color)
		return 2
	}

	s := &session{state: state, out: out, opts: opts}
	return s.loop(in)
}

type session struct {
	state *model.GameState
	out   io.Writer
	opts  render.Options
}

func (s *session) loop(in io.Reader) int {
	s.draw(nil)
	scanner := bufio.NewScanner(in)
	for !s.state.Ended() {
		fmt.Fprintf(s.out, "%s> ", s.state.SideToMove)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			break
		}
		if quit := s.handle(strings.TrimSpace(scanner.Text())); quit {
			return 0
		}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("read input: %v", err)
		return 1
	}
	return 0
}

// handle runs one input line and reports whether the user asked to quit.
func (s *session) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, "from:to[=Q] | moves <square> | fen | quit")
	case "fen":
		fmt.Fprintln(s.out, notation.FormatFEN(s.state))
	case "moves":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "usage: moves <square>")
			return false
		}
		s.showMoves(fields[1])
	default:
		s.move(line)
	}
	return false
}

func (s *session) showMoves(square string) {
	from, err := notation.ParseSquare(square)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	piece, ok := s.state.Board.Get(from)
	if !ok {
		fmt.Fprintf(s.out, "no piece on %s\n", from)
		return
	}
	dests := model.LegalDestinations(s.state, piece, from)
	s.draw(dests)

	names := make([]string, 0, len(dests))
	for _, p := range dests.Sorted() {
		names = append(names, p.String())
	}
	fmt.Fprintf(s.out, "%s on %s: %s\n", piece.Kind, from, strings.Join(names, " "))
}

func (s *session) move(token string) {
	m, err := notation.ParseMove(token)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if _, err := s.state.Apply(m.From, m.To, m.PromotionPiece(s.state.SideToMove)); err != nil {
		fmt.Fprintf(s.out, "error: %s\n", reason(err))
		return
	}
	s.draw(nil)
}

func (s *session) draw(highlight model.PositionSet) {
	opts := s.opts
	opts.Highlight = highlight
	if err := render.Board(s.out, s.state, opts); err != nil {
		log.Errorf("render: %v", err)
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrGameEnded):
		return "the game is over"
	case errors.Is(err, model.ErrNoPiece):
		return "there is no piece on that square"
	case errors.Is(err, model.ErrWrongTurn):
		return "that piece belongs to the other side"
	case errors.Is(err, model.ErrIllegalMove):
		return "that move is not legal"
	}
	return err.Error()
}

func runCrosscheck(fens []string, out io.Writer) int {
	if len(fens) == 0 {
		fmt.Fprintln(out, "usage: chesscli crosscheck FEN...")
		return 2
	}
	status := 0
	for _, fen := range fens {
		report, err := crosscheck.Compare(fen)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", fen, err)
			status = 1
			continue
		}
		fmt.Fprintln(out, report)
		if !report.Agree() {
			status = 1
		}
	}
	return status
}
