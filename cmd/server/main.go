package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cipherbreak/internal/commonwords"
	"cipherbreak/internal/heuristic"
)

func main() {
	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	store := commonwords.New(client, getenv("REDIS_KEY", commonwords.DefaultKey))
	if path := os.Getenv("WORDS_FILE"); path != "" {
		if err := seedWords(store, path); err != nil {
			log.Fatalf("init error: %v", err)
		}
	}

	// words are edited through the decipher API; this server only seeds
	// and lists the shared set.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/common-words", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		words, err := store.All(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{"words": words})
	})

	addr := getenv("HTTP_ADDR", ":8080")
	log.Printf("listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// seedWords adds every word of a one-word-per-line file to the store.
func seedWords(store *commonwords.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ws := heuristic.NewWordSet()
	if err := ws.LoadWords(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	words := make([]string, 0, ws.Len())
	for w := range ws {
		words = append(words, w)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Add(ctx, words...); err != nil {
		return fmt.Errorf("seed common words: %w", err)
	}
	log.Printf("seeded %d common words from %s", len(words), path)
	return nil
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
