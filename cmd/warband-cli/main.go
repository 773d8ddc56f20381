package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/ai"
	"github.com/peterkuimelis/warband/internal/config"
	wbnet "github.com/peterkuimelis/warband/internal/net"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	cmd := os.Args[1]
	switch cmd {
	case "host":
		err = runHost(ctx, os.Args[2:])
	case "join":
		err = runJoin(ctx, os.Args[2:])
	case "sim":
		err = runSim(ctx, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warband host [--deck N] [--port P] [--ai] [--ai-deck N] [--transcript FILE] [--config FILE]")
	fmt.Println("  warband join [--deck N] [--addr ADDR]")
	fmt.Println("  warband sim  [--games N] [--deck N] [--deck2 N] [--seed S] [--parallel P] [--config FILE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Start a game server and play as Player 1")
	fmt.Println("  join    Connect to a game server and play as Player 2")
	fmt.Println("  sim     Run AI-vs-AI games and print the tally")
}

// setup loads the configuration and builds the operational logger.
func setup(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func runHost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default ./warband.yaml if present)")
	deck := fs.Int("deck", 1, "deck number to use")
	port := fs.String("port", "", "TCP port to listen on (default from config)")
	vsAI := fs.Bool("ai", false, "play against the built-in AI instead of waiting for a joiner")
	aiDeck := fs.Int("ai-deck", 0, "AI deck number (default: same as --deck)")
	transcript := fs.String("transcript", "", "write a plain-text event log to this file")
	fs.Parse(args)

	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	coll, err := cfg.Collection()
	if err != nil {
		return err
	}
	if *port == "" {
		*port = cfg.Server.GamePort
	}

	srv := &wbnet.Server{
		Collection: coll,
		Duel:       cfg.DuelConfig(),
		Port:       *port,
		HostDeck:   *deck,
		AIDeck:     *aiDeck,
		VsAI:       *vsAI,
		AISeed:     cfg.AI.Seed,
		Logger:     logger,
	}
	if *transcript != "" {
		f, err := os.Create(*transcript)
		if err != nil {
			return fmt.Errorf("create transcript: %w", err)
		}
		defer f.Close()
		srv.Transcript = f
	}
	return srv.Run(ctx)
}

func runJoin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	deck := fs.Int("deck", 1, "deck number to use")
	addr := fs.String("addr", "localhost:9000", "server address to connect to")
	fs.Parse(args)

	return wbnet.Connect(ctx, *addr, *deck)
}

func runSim(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sim", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default ./warband.yaml if present)")
	games := fs.Int("games", 100, "number of games")
	deck := fs.Int("deck", 1, "deck number for Player 1")
	deck2 := fs.Int("deck2", 0, "deck number for Player 2 (default: same as --deck)")
	seed := fs.Int64("seed", 0, "base seed (0 = config ai.seed, then random)")
	parallel := fs.Int("parallel", 0, "concurrent games (0 = GOMAXPROCS)")
	fs.Parse(args)

	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	coll, err := cfg.Collection()
	if err != nil {
		return err
	}
	d0, err := coll.DeckByNumber(*deck)
	if err != nil {
		return err
	}
	if *deck2 == 0 {
		*deck2 = *deck
	}
	d1, err := coll.DeckByNumber(*deck2)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = cfg.AI.Seed
	}

	logger.Info("simulating",
		zap.Int("games", *games),
		zap.String("deck", d0.Name),
		zap.String("deck2", d1.Name),
		zap.Int64("seed", *seed))

	res, err := ai.Simulate(ctx, ai.SimConfig{
		Duel:     cfg.DuelConfig(),
		Deck0:    d0.Cards,
		Deck1:    d1.Cards,
		Games:    *games,
		Seed:     *seed,
		Parallel: *parallel,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s (P1) vs %s (P2)\n%s\n", d0.Name, d1.Name, res)
	return nil
}
