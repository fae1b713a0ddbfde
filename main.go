package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"dialogue_ai/config"
	"dialogue_ai/dialogue"
	"dialogue_ai/generator"
	"dialogue_ai/handlers"
	"dialogue_ai/journal"
	"dialogue_ai/personality"
	"dialogue_ai/session"
	"dialogue_ai/story"
	"dialogue_ai/templates"
)

const (
	sessionIdleLimit = time.Hour
	pruneInterval    = 10 * time.Minute
)

func main() {
	terminal := flag.Bool("terminal", false, "Play in the terminal instead of serving HTTP")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	characters, locations, err := loadContent(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	gen, err := generator.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if gen != nil {
		defer gen.Close()
	}

	store, err := journal.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if store != nil {
		defer store.Close()
	}

	deps := story.Deps{
		Catalog:    dialogue.DefaultCatalog(),
		Traits:     personality.DefaultTable(),
		Characters: characters,
		Locations:  locations,
	}
	if gen != nil {
		deps.Replier = gen
	}
	if store != nil {
		deps.Recorder = store
	}
	newController := func(id string) (*story.Controller, error) {
		return story.NewController(id, cfg.Story().ForSession(id), deps)
	}

	if *terminal {
		ctrl, err := newController(uuid.NewString())
		if err != nil {
			log.Fatal(err)
		}
		if err := runTerminal(ctx, ctrl, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Fail at startup rather than on the first visitor.
	if _, err := newController("startup-check"); err != nil {
		log.Fatal(err)
	}

	sessionManager := session.NewManager(newController)
	go func() {
		for range time.Tick(pruneInterval) {
			sessionManager.Prune(sessionIdleLimit)
		}
	}()

	h := &handlers.Handler{
		Manager:    sessionManager,
		Store:      store,
		Characters: characters,
	}

	mux := http.NewServeMux()

	fs := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		templates.Index("Town Talk").Render(r.Context(), w)
	})

	mux.HandleFunc("POST /start", h.Start)
	mux.HandleFunc("GET /state", h.State)
	mux.HandleFunc("POST /select", h.Select)
	mux.HandleFunc("POST /advance", h.Advance)
	mux.HandleFunc("POST /location", h.ChooseLocation)
	mux.HandleFunc("GET /download", h.Download)
	mux.HandleFunc("GET /journal", h.Journal)
	mux.HandleFunc("GET /ws", h.Socket)

	log.Printf("Listening on http://%s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, mux))
}

// loadContent starts from the built-in cast and town and merges any
// configured JSON files over them.
func loadContent(cfg config.Config) (*story.CharacterRegistry, *story.LocationRegistry, error) {
	characters := story.DefaultCharacters()
	if cfg.CharactersFile != "" {
		if err := characters.LoadFromFile(cfg.CharactersFile); err != nil {
			return nil, nil, err
		}
		log.Printf("[Content] Loaded characters from %s (%d total)", cfg.CharactersFile, characters.Len())
	}
	locations := story.DefaultLocations()
	if cfg.LocationsFile != "" {
		if err := locations.LoadFromFile(cfg.LocationsFile); err != nil {
			return nil, nil, err
		}
		log.Printf("[Content] Loaded locations from %s (%d total)", cfg.LocationsFile, locations.Len())
	}
	return characters, locations, nil
}
