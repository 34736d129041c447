package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/time/rate"

	"cipherbreak/internal/decipher"
	"cipherbreak/internal/ngram"
	"cipherbreak/internal/results"
	"cipherbreak/internal/search"
	"cipherbreak/internal/textsource"
)

var (
	configFile    string
	ngramFile     string
	separator     string
	corpusFile    string
	ngramLen      int
	anchors       string
	maxIterations int
	timeLimit     time.Duration
	steps         int
	seed          uint64
	htmlInput     bool
	progress      time.Duration
	debug         bool
)

func main() {
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.StringVar(&ngramFile, "ngrams", "", "Ngram frequency table (overrides config)")
	flag.StringVar(&separator, "sep", ngram.DefaultSeparator, "Separator between sequence and count in the ngram table")
	flag.StringVar(&corpusFile, "corpus", "", "Train the ngram table from this English text instead of loading one")
	flag.IntVar(&ngramLen, "n", 4, "Sequence length when training from -corpus")
	flag.StringVar(&anchors, "anchors", " ", "Characters kept literal and never substituted")
	flag.StringVar(&anchors, "a", " ", "shortcut for -anchors")
	flag.IntVar(&maxIterations, "max-iterations", 0, "Number of random restarts")
	flag.IntVar(&maxIterations, "i", 0, "shortcut for -max-iterations")
	flag.DurationVar(&timeLimit, "time-limit", 0, "Stop after this long. Ex: 30s or 5m")
	flag.DurationVar(&timeLimit, "r", 0, "shortcut for -time-limit")
	flag.IntVar(&steps, "steps", 0, "Swaps tried per restart")
	flag.Uint64Var(&seed, "seed", 0, "Random seed for a reproducible run")
	flag.BoolVar(&htmlInput, "html", false, "Input is an HTML page; decipher its visible text")
	flag.DurationVar(&progress, "progress", 0, "Minimum time between iteration reports, 0 reports every iteration")
	flag.BoolVar(&debug, "debug", false, "Dump the resolved configuration")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [OPTIONS] [CIPHERTEXT FILE]\n\n"+
				"Break a monoalphabetic substitution cipher read from CIPHERTEXT FILE or stdin\n\n",
			os.Args[0],
		)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := decipher.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = decipher.LoadConfig(configFile); err != nil {
			log.Fatalf("init error: %v", err)
		}
	}
	applyFlags(&cfg)
	if debug {
		log.Printf("config:\n%s", spew.Sdump(cfg))
	}

	model, err := loadModel(cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	d, err := decipher.NewDecipherer(cfg, model, nil)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	ciphertext, err := readCiphertext(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	session := d.NewSession(ciphertext, nil)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go watchInterrupt(ctx, sigs, func() {
		it, key := session.Progress()
		fmt.Printf("\nProcess interrupted after %d iterations (key %s). Finishing the current restart...\n", it, key)
		cancelFunc()
	})

	var limiter *rate.Limiter
	if progress > 0 {
		limiter = rate.NewLimiter(rate.Every(progress), 1)
	}

	fmt.Printf("\n%s\n", ciphertext)
	rep := session.Run(ctx, func(c results.Candidate) {
		if limiter != nil && !limiter.Allow() {
			return
		}
		printIteration(c)
	})
	if rep.Reason != search.Completed {
		fmt.Printf("\n%s. Exiting...\n", capitalize(rep.Stop))
	}
	printReport(rep)
}

// watchInterrupt runs onInterrupt for the first signal on sigs and then
// stops relaying, so a second Ctrl+C kills the process.
func watchInterrupt(ctx context.Context, sigs chan os.Signal, onInterrupt func()) {
	select {
	case <-sigs:
		onInterrupt()
	case <-ctx.Done():
	}
	signal.Stop(sigs)
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cfg *decipher.DecipherConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ngrams":
			cfg.Ngrams.Path = ngramFile
		case "sep":
			cfg.Ngrams.Separator = separator
		case "anchors", "a":
			cfg.Cipher.AnchorChars = anchors
		case "max-iterations", "i":
			cfg.Search.MaxIterations = maxIterations
		case "time-limit", "r":
			cfg.Search.TimeLimit = timeLimit
		case "steps":
			cfg.Search.Steps = steps
		case "seed":
			s := seed
			cfg.Search.Seed = &s
		}
	})
}

func loadModel(cfg decipher.DecipherConfig) (*ngram.Model, error) {
	if corpusFile != "" {
		raw, err := os.ReadFile(corpusFile)
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		return ngram.FromCounts(ngram.CountText(string(raw), ngramLen))
	}
	start := time.Now()
	model, err := ngram.LoadFile(cfg.Ngrams.Path, cfg.Ngrams.Separator)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d %d-grams from %s in %v", model.Size(), model.Len(), cfg.Ngrams.Path, time.Since(start))
	return model, nil
}

func readCiphertext(args []string) (string, error) {
	var in io.ReadCloser = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		in = f
	}
	defer in.Close()

	if htmlInput {
		return textsource.ExtractHTML(in)
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read ciphertext: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func printIteration(c results.Candidate) {
	fmt.Printf("Iteration %d:\n", c.Iteration)
	fmt.Printf("Deciphered Plaintext: %s\n", c.Text)
	fmt.Printf("Score: %v\n", c.Score)
	fmt.Printf("English Percentage: %.2f%%\n", c.Percent)
	fmt.Printf("Key: %s\n", c.Key)
	fmt.Printf("Key in ciphertext symbols: %s\n", c.OriginalKey)
	fmt.Println(strings.Repeat("=", 50))
}

func printReport(rep decipher.Report) {
	if len(rep.Special) > 0 {
		fmt.Print("\nSpecial characters:")
		for _, p := range rep.Special {
			fmt.Printf(" %s=%s", p.Symbol, p.Letter)
		}
		fmt.Println()
	}
	if rep.Unmapped != "" {
		fmt.Printf("Unmapped characters (dropped): %q\n", rep.Unmapped)
	}
	fmt.Printf("\nTop %d Deciphered Text Variations:\n", len(rep.Top))
	for i, c := range rep.Top {
		fmt.Printf("Rank %d:\n", i+1)
		fmt.Printf("Deciphered Text: %s\n", c.Text)
		fmt.Printf("English Percentage: %.2f%%\n", c.Percent)
		fmt.Printf("Key: %s\n", c.OriginalKey)
		fmt.Println(strings.Repeat("=", 50))
	}
	fmt.Println("Evaluated", rep.Iterations, "restarts in", rep.Elapsed)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
