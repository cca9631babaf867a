package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atharva-malik/chess-engine/board"
	"github.com/atharva-malik/chess-engine/book"
	"github.com/atharva-malik/chess-engine/engine"
	"github.com/atharva-malik/chess-engine/nnue"
)

const (
	engineName   = "Fury"
	engineAuthor = "Atharva"
)

type config struct {
	bookPath   string
	eval       string
	nnuePath   string
	nnueDepth  int
	threads    int
	mode       string
	algo       string
	quiescence bool
	reduce     bool
	useTT      bool
	overhead   int
	logPath    string
}

func parseFlags(args []string) (config, error) {
	defaults := engine.DefaultOptions()
	fs := flag.NewFlagSet("fury", flag.ContinueOnError)
	var c config
	fs.StringVar(&c.bookPath, "book", "", "opening book (JSON); empty starts in the middlegame")
	fs.StringVar(&c.eval, "eval", "classical", "leaf evaluator: classical or nnue")
	fs.StringVar(&c.nnuePath, "nnue-engine", "", "UCI engine binary used by -eval nnue")
	fs.IntVar(&c.nnueDepth, "nnue-depth", 1, "search depth asked of the nnue engine")
	fs.IntVar(&c.threads, "threads", defaults.Threads, "root workers in parallel mode")
	fs.StringVar(&c.mode, "mode", defaults.Mode.String(), "root search: parallel or sequential")
	fs.StringVar(&c.algo, "algo", defaults.Algorithm.String(), "search: negamax or minimax")
	fs.BoolVar(&c.quiescence, "quiescence", defaults.Quiescence, "extend leaves with a capture search")
	fs.BoolVar(&c.reduce, "reduce", defaults.RootReduction, "sequential mode: search late root moves shallower first")
	fs.BoolVar(&c.useTT, "tt", defaults.UseTT, "memoize leaf evaluations")
	fs.IntVar(&c.overhead, "overhead", engine.DefaultTimeManager().OverheadMs, "move overhead in ms")
	fs.StringVar(&c.logPath, "log", "log.txt", "log file; empty disables logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	return c, nil
}

func parseMode(s string) (engine.Mode, error) {
	switch strings.ToLower(s) {
	case "parallel":
		return engine.Parallel, nil
	case "sequential":
		return engine.Sequential, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func parseAlgorithm(s string) (engine.Algorithm, error) {
	switch strings.ToLower(s) {
	case "negamax":
		return engine.Negamax, nil
	case "minimax":
		return engine.Minimax, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

func openLog(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}

// buildOptions turns flags into engine options. The returned closer releases
// the neural engine process, if one was started.
func buildOptions(c config, logger zerolog.Logger) (engine.Options, func(), error) {
	opts := engine.DefaultOptions()
	opts.Log = logger
	opts.Threads = c.threads
	opts.Quiescence = c.quiescence
	opts.RootReduction = c.reduce
	opts.UseTT = c.useTT
	closer := func() {}

	var err error
	if opts.Mode, err = parseMode(c.mode); err != nil {
		return opts, closer, err
	}
	if opts.Algorithm, err = parseAlgorithm(c.algo); err != nil {
		return opts, closer, err
	}

	classical := engine.NewClassicalEvaluator(false, logger)
	opts.Evaluator = classical
	switch strings.ToLower(c.eval) {
	case "classical":
	case "nnue":
		if c.nnuePath == "" {
			return opts, closer, errors.New("-eval nnue needs -nnue-engine")
		}
		scorer, err := nnue.NewUCIScorer(c.nnuePath, c.nnueDepth, logger)
		if err != nil {
			return opts, closer, err
		}
		closer = func() { scorer.Close() }
		opts.Evaluator = &engine.NeuralEvaluator{
			Scorer:   scorer,
			Timeout:  2 * time.Second,
			Fallback: classical,
			Log:      logger,
		}
	default:
		return opts, closer, fmt.Errorf("unknown evaluator %q", c.eval)
	}

	if c.bookPath != "" {
		b, err := book.Load(c.bookPath)
		if err != nil {
			// No book is not fatal: the engine starts in the middlegame.
			logger.Error().Err(err).Str("path", c.bookPath).Msg("opening book unavailable")
		} else {
			opts.Book = b
			logger.Info().Str("path", c.bookPath).Int("positions", len(b)).Msg("opening book loaded")
		}
	}
	return opts, closer, nil
}

func main() {
	c, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	logger, closeLog, err := openLog(c.logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
	}
	defer closeLog()

	opts, closeEval, err := buildOptions(c, logger)
	if err != nil {
		logger.Error().Err(err).Msg("bad configuration")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeEval()

	tm := engine.DefaultTimeManager()
	tm.OverheadMs = c.overhead
	h := newHandler(os.Stdout, engine.New(opts), tm, logger)
	h.uciLoop(os.Stdin)
}

// handler owns the current position and at most one running search.
type handler struct {
	outMu sync.Mutex
	out   io.Writer

	eng *engine.Engine
	tm  engine.TimeManager
	log zerolog.Logger
	pos *board.Position

	cancel context.CancelFunc
	done   chan struct{}
}

func newHandler(out io.Writer, eng *engine.Engine, tm engine.TimeManager, log zerolog.Logger) *handler {
	return &handler{out: out, eng: eng, tm: tm, log: log, pos: board.New()}
}

func (h *handler) println(a ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintln(h.out, a...)
}

func (h *handler) printf(format string, a ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.out, format, a...)
}

func (h *handler) uciLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !h.handle(scanner.Text()) {
			break
		}
	}
	h.wait()
}

// handle runs one command line and reports whether the loop should go on.
func (h *handler) handle(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 { // ignore blank lines
		return true
	}
	switch strings.ToLower(tokens[0]) {
	case "uci":
		h.println("id name", engineName)
		h.println("id author", engineAuthor)
		h.println("uciok")
	case "isready":
		h.println("readyok")
	case "ucinewgame":
		h.wait()
		h.pos = board.New()
		h.eng.NewGame()
	case "position":
		h.position(tokens[1:])
	case "go":
		h.wait()
		h.goCommand(tokens[1:])
	case "stop":
		h.stop()
	case "eval":
		h.eval(tokens[1:])
	case "d":
		h.display()
	case "perft":
		h.perft(tokens[1:])
	case "h", "help":
		h.help()
	case "cls":
		h.printf("\033[H\033[2J")
	case "quit", "exit", "q":
		h.stop()
		return false
	default:
		h.println("info string Unknown command:", line)
	}
	return true
}

// position replaces the current position only when every part of the command
// is valid.
func (h *handler) position(args []string) {
	if len(args) == 0 {
		h.println("info string Malformed position command")
		return
	}
	var (
		pos  *board.Position
		rest []string
		err  error
	)
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos, rest = board.New(), args[1:]
	case "fen":
		end := len(args)
		for i, tok := range args {
			if strings.ToLower(tok) == "moves" {
				end = i
				break
			}
		}
		pos, err = board.FromFEN(strings.Join(args[1:end], " "))
		if err != nil {
			h.println("info string error", err)
			return
		}
		rest = args[end:]
	default:
		h.println("info string Malformed position command")
		return
	}

	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		for _, mv := range rest[1:] {
			if err := pos.Play(strings.ToLower(mv)); err != nil {
				h.println("info string Move", mv, "not played:", err)
				h.log.Warn().Err(err).Str("move", mv).Str("fen", pos.FEN()).Msg("position rejected")
				return
			}
		}
	}
	h.pos = pos
}

type goParams struct {
	depth    int
	moveTime int
	wTime    int
	bTime    int
	wInc     int
	bInc     int
	infinite bool
}

func (h *handler) parseGo(args []string) (goParams, bool) {
	var p goParams
	goScanner := bufio.NewScanner(strings.NewReader(strings.Join(args, " ")))
	goScanner.Split(bufio.ScanWords)
	for goScanner.Scan() {
		nextToken := strings.ToLower(goScanner.Text())
		var target *int
		switch nextToken {
		case "infinite":
			p.infinite = true
			continue
		case "depth":
			target = &p.depth
		case "movetime":
			target = &p.moveTime
		case "wtime":
			target = &p.wTime
		case "btime":
			target = &p.bTime
		case "winc":
			target = &p.wInc
		case "binc":
			target = &p.bInc
		default:
			continue
		}
		if !goScanner.Scan() {
			h.println("info string Malformed go command option", nextToken)
			return p, false
		}
		v, err := strconv.Atoi(goScanner.Text())
		if err != nil {
			h.println("info string Malformed go command option; could not convert", nextToken)
			return p, false
		}
		*target = v
	}
	return p, true
}

func (h *handler) goCommand(args []string) {
	p, ok := h.parseGo(args)
	if !ok {
		return
	}
	clock := engine.Clock{MoveTime: p.moveTime}
	if h.pos.WhiteToMove() {
		clock.Remaining, clock.Increment = p.wTime, p.wInc
	} else {
		clock.Remaining, clock.Increment = p.bTime, p.bInc
	}
	budget := h.tm.Budget(h.pos, clock)

	pos := h.pos.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.cancel, h.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		var (
			res engine.Result
			err error
		)
		if budget > 0 {
			res, err = h.eng.BestMoveTimed(ctx, pos, budget, p.depth)
		} else {
			res, err = h.eng.BestMove(pos, p.depth)
		}
		if err != nil {
			h.log.Error().Err(err).Str("fen", pos.FEN()).Msg("search failed")
			h.println("info string error", err)
			h.println("bestmove 0000")
			return
		}
		if res.Source != engine.FromBook {
			h.printf("info depth %d score %s nodes %d time %d\n",
				res.Depth, scoreString(res.Score, res.Depth), res.Stats.Nodes+res.Stats.QNodes, res.Elapsed.Milliseconds())
		}
		h.println("bestmove", res.UCI)
	}()
}

// scoreString formats a root result. Root moves are searched at depth, one
// ply below the root itself.
func scoreString(score float64, depth int) string {
	if n, ok := engine.MateIn(score, depth+1); ok {
		return fmt.Sprintf("mate %d", n)
	}
	return fmt.Sprintf("cp %d", int(score*100))
}

func (h *handler) stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wait()
}

// wait blocks until the running search, if any, has printed its move.
func (h *handler) wait() {
	if h.done != nil {
		<-h.done
		h.done, h.cancel = nil, nil
	}
}

func (h *handler) eval(args []string) {
	depth := 0
	if len(args) >= 2 && args[0] == "-d" {
		d, err := strconv.Atoi(args[1])
		if err != nil || d < 0 {
			h.println("info string Malformed eval depth", args[1])
			return
		}
		depth = d
	}
	h.wait()
	score, err := h.eng.StaticEval(h.pos, depth)
	if err != nil {
		h.println("info string error", err)
		return
	}
	if n, ok := engine.MateIn(score, depth); ok {
		h.printf("Eval: #%d\n", n)
		return
	}
	h.printf("Eval: %.2f\n", score)
}

var pieceSymbols = map[board.Piece]string{
	board.WhitePawn: "P", board.WhiteKnight: "N", board.WhiteBishop: "B",
	board.WhiteRook: "R", board.WhiteQueen: "Q", board.WhiteKing: "K",
	board.BlackPawn: "p", board.BlackKnight: "n", board.BlackBishop: "b",
	board.BlackRook: "r", board.BlackQueen: "q", board.BlackKing: "k",
}

func (h *handler) display() {
	var sb strings.Builder
	sb.WriteString(" +---+---+---+---+---+---+---+---+\n")
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sym, ok := pieceSymbols[h.pos.PieceAt(uint8(rank*8+file))]
			if !ok {
				sym = " "
			}
			sb.WriteString(" | " + sym)
		}
		fmt.Fprintf(&sb, " | %d\n +---+---+---+---+---+---+---+---+\n", rank+1)
	}
	sb.WriteString("   a   b   c   d   e   f   g   h\n")
	h.printf("%s\nFen: %s\nKey: %016X\nMove: %d (%d plies since capture or pawn move)\nStatus: %v\n",
		sb.String(), h.pos.FEN(), h.pos.Hash(), h.pos.FullmoveNumber(), h.pos.HalfmoveClock(), h.pos.Status())
}

func (h *handler) perft(args []string) {
	verbose := false
	if len(args) > 0 && args[0] == "-v" {
		verbose, args = true, args[1:]
	}
	if len(args) != 1 {
		h.println("info string usage: perft [-v] depth")
		return
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		h.println("info string Malformed perft depth", args[0])
		return
	}
	start := time.Now()
	var nodes uint64
	if verbose {
		div := h.pos.Divide(depth)
		moves := make([]string, 0, len(div))
		for m := range div {
			moves = append(moves, m)
		}
		sort.Strings(moves)
		for _, m := range moves {
			h.printf("%s: %d\n", m, div[m])
			nodes += div[m]
		}
	} else {
		nodes = h.pos.Perft(depth)
	}
	h.printf("Nodes: %d\nTime: %v\n", nodes, time.Since(start))
}

func (h *handler) help() {
	h.println(`Commands:
  uci                          identify the engine
  isready                      synchronize
  ucinewgame                   reset the game and the opening book
  position startpos|fen F [moves M...]
  go [depth N] [movetime MS] [wtime MS btime MS winc MS binc MS]
  stop                         end the running search
  eval [-d N]                  score the position, searching N plies
  d                            draw the board
  perft [-v] N                 count leaf nodes, -v per root move
  cls                          clear the screen
  quit                         exit`)
}
