package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cipherbreak/internal/commonwords"
	"cipherbreak/internal/decipher"
	"cipherbreak/internal/ngram"
	"cipherbreak/internal/textsource"
	"cipherbreak/pkg/options"
)

// maxRequestTime caps a single decipher request regardless of what it asks for.
const maxRequestTime = 2 * time.Minute

func main() {
	cfg := decipher.DefaultConfig()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		var err error
		if cfg, err = decipher.LoadConfig(path); err != nil {
			log.Fatalf("init error: %v", err)
		}
	}
	cfg.Ngrams.Path = getenv("NGRAM_PATH", cfg.Ngrams.Path)

	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	store := commonwords.New(client, getenv("REDIS_KEY", commonwords.DefaultKey))

	model, err := ngram.LoadFile(cfg.Ngrams.Path, cfg.Ngrams.Separator)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	d, err := decipher.NewDecipherer(cfg, model, store)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/decipher", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Text          string  `json:"text"`
			Anchors       *string `json:"anchors"`
			Format        string  `json:"format"`
			MaxIterations int     `json:"max_iterations"`
			TimeLimit     string  `json:"time_limit"`
			Seed          *uint64 `json:"seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
			return
		}
		text := req.Text
		if req.Format == "html" {
			var err error
			if text, err = textsource.ExtractHTML(strings.NewReader(req.Text)); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}

		limit := maxRequestTime
		if req.TimeLimit != "" {
			tl, err := time.ParseDuration(req.TimeLimit)
			if err != nil || tl <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid time_limit"})
				return
			}
			limit = min(tl, maxRequestTime)
		}
		opts := []options.Options{options.WithTimeLimit(limit)}
		if req.MaxIterations > 0 {
			opts = append(opts, options.WithMaxIterations(req.MaxIterations))
		}
		if req.Seed != nil {
			opts = append(opts, options.WithSeed(*req.Seed))
		}

		// the client going away cancels the search at the next restart
		ctx, cancel := context.WithTimeout(r.Context(), limit+time.Second)
		defer cancel()
		session := d.NewSession(text, req.Anchors, opts...)
		rep := session.Run(ctx, nil)
		log.Printf("deciphered %d chars: %d restarts, %s, %v", len(text), rep.Iterations, rep.Stop, rep.Elapsed)
		writeJSON(w, http.StatusOK, rep)
	})

	mux.HandleFunc("/api/v1/common-word", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			words := make([]string, 0)
			for word := range d.CommonWords() {
				words = append(words, word)
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"words": words})
		case http.MethodPost:
			var req struct {
				Word string `json:"word"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Word) == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
				return
			}
			if err := d.AddCommonWord(r.Context(), req.Word); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/api/v1/common-word/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		word := strings.TrimPrefix(r.URL.Path, "/api/v1/common-word/")
		if word == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "word is required"})
			return
		}
		if err := d.RemoveCommonWord(r.Context(), word); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := getenv("HTTP_ADDR", ":8080")
	log.Printf("listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}
