package decipher

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cipherbreak/internal/alphabet"
	"cipherbreak/internal/ngram"
	"cipherbreak/internal/results"
	"cipherbreak/internal/search"
	"cipherbreak/pkg/options"
)

type DecipherConfig struct {
	Cipher CipherSettings `yaml:"cipher_settings"`
	Ngrams NgramSettings  `yaml:"ngrams"`
	Search SearchSettings `yaml:"search"`
}

type CipherSettings struct {
	AnchorChars     string   `yaml:"anchor_chars"`
	CommonWords     []string `yaml:"common_words"`
	CommonWordsFile string   `yaml:"common_words_file"`
}

type NgramSettings struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
}

type SearchSettings struct {
	MaxIterations int           `yaml:"max_iterations"`
	TimeLimit     time.Duration `yaml:"time_limit"`
	Steps         int           `yaml:"steps"`
	TopK          int           `yaml:"top_k"`
	Seed          *uint64       `yaml:"seed"`
}

// DefaultCommonWords backs the heuristic when no list is configured.
var DefaultCommonWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
	"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
	"or", "an", "will", "my", "one", "all", "would", "there", "their", "what",
	"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
	"when", "make", "can", "like", "time", "no", "just", "him", "know", "take",
	"people", "into", "year", "your", "good", "some", "could", "them", "see", "other",
	"than", "then", "now", "look", "only", "come", "its", "over", "think", "also",
	"back", "after", "use", "two", "how", "our", "work", "first", "well", "way",
	"even", "new", "want", "because", "any", "these", "give", "day", "most", "us",
	"is", "are", "was", "were", "has", "had", "been", "secret", "message", "code",
}

func DefaultConfig() DecipherConfig {
	return DecipherConfig{
		Cipher: CipherSettings{
			AnchorChars: " ",
			CommonWords: append([]string(nil), DefaultCommonWords...),
		},
		Ngrams: NgramSettings{
			Path:      "quadgrams.txt",
			Separator: ngram.DefaultSeparator,
		},
		Search: SearchSettings{
			MaxIterations: options.DefaultOptions.MaxIterations,
			TimeLimit:     options.DefaultOptions.TimeLimit,
			Steps:         options.DefaultOptions.Steps,
			TopK:          results.DefaultTopK,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Fields absent from the
// file keep their defaults.
func LoadConfig(path string) (DecipherConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c DecipherConfig) Validate() error {
	s := c.Search
	if s.MaxIterations < 0 {
		return fmt.Errorf("search.max_iterations must not be negative")
	}
	if s.Steps < 0 {
		return fmt.Errorf("search.steps must not be negative")
	}
	if s.TimeLimit < 0 {
		return fmt.Errorf("search.time_limit must not be negative")
	}
	if s.TopK < 0 {
		return fmt.Errorf("search.top_k must not be negative")
	}
	return nil
}

// Options turns the settings into searcher options. Zero values keep the
// searcher defaults, except TimeLimit which is always applied.
func (s SearchSettings) Options() []options.Options {
	var opts []options.Options
	if s.MaxIterations > 0 {
		opts = append(opts, options.WithMaxIterations(s.MaxIterations))
	}
	if s.Steps > 0 {
		opts = append(opts, options.WithSteps(s.Steps))
	}
	if s.TopK > 0 {
		opts = append(opts, options.WithTopK(s.TopK))
	}
	opts = append(opts, options.WithTimeLimit(s.TimeLimit))
	if s.Seed != nil {
		opts = append(opts, options.WithSeed(*s.Seed))
	}
	return opts
}

// SpecialPair is one alphabet.Pair in printable form.
type SpecialPair struct {
	Symbol string `json:"symbol"`
	Letter string `json:"letter"`
}

// Report is the final (or interrupted) outcome of a deciphering run.
type Report struct {
	Ciphertext string              `json:"ciphertext"`
	Normalized string              `json:"normalized"`
	Special    []SpecialPair       `json:"special,omitempty"`
	Unmapped   string              `json:"unmapped,omitempty"`
	Top        []results.Candidate `json:"top"`
	Reason     search.StopReason   `json:"-"`
	Stop       string              `json:"stop"`
	Iterations int                 `json:"iterations"`
	Elapsed    time.Duration       `json:"elapsed_ns"`
}

func specialPairs(m alphabet.SpecialMap) []SpecialPair {
	var out []SpecialPair
	for _, p := range m.Pairs() {
		out = append(out, SpecialPair{Symbol: string(p.Symbol), Letter: string(rune(p.Letter))})
	}
	return out
}
