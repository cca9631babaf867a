package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/atharva-malik/chess-engine/board"
	"github.com/atharva-malik/chess-engine/engine"
)

func main() {
	depthFlag := flag.Int("depth", 4, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", "", "FEN to search (empty = startpos)")
	modeFlag := flag.String("mode", "parallel", "root search: parallel or sequential")
	quiescence := flag.Bool("quiescence", false, "extend leaves with a capture search")
	reduce := flag.Bool("reduce", false, "sequential mode: reduce late root moves")
	threads := flag.Int("threads", runtime.NumCPU(), "root workers in parallel mode")
	verbose := flag.Bool("v", false, "log every search to stderr")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	if *depthFlag <= 0 {
		log.Fatalf("depth must be positive, got %d", *depthFlag)
	}

	if *cpuProfile != "" {
		cpuFile, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}()
	}

	opts := engine.DefaultOptions()
	opts.Quiescence = *quiescence
	opts.RootReduction = *reduce
	opts.Threads = *threads
	switch *modeFlag {
	case "parallel":
	case "sequential":
		opts.Mode = engine.Sequential
	default:
		log.Fatalf("unknown mode %q", *modeFlag)
	}
	if *verbose {
		opts.Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	fen := board.Startpos
	if *fenFlag != "" {
		fen = *fenFlag
	}
	if _, err := board.FromFEN(fen); err != nil {
		log.Fatalf("bad fen: %v", err)
	}

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d mode=%v\n", fen, *depthFlag, *repeatFlag, opts.Mode)

	var nodes uint64
	startAll := time.Now()
	for i := 0; i < *repeatFlag; i++ {
		// Fresh position and engine for each run
		pos, _ := board.FromFEN(fen)
		eng := engine.New(opts)

		res, err := eng.BestMove(pos, *depthFlag)
		if err != nil {
			log.Fatalf("search: %v", err)
		}
		nodes += res.Stats.Nodes + res.Stats.QNodes
		fmt.Printf("iteration %d: bestmove %s score %.2f nodes %d cutoffs %d time=%v\n",
			i+1, res.UCI, res.Score, res.Stats.Nodes+res.Stats.QNodes, res.Stats.BetaCutoffs, res.Elapsed)
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total time: %v  nps: %.0f\n", totalElapsed, float64(nodes)/totalElapsed.Seconds())

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()

		runtime.GC() // get up-to-date heap info
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}
}
