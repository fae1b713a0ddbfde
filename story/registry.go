package story

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CharacterProfile is the static definition of a character.
type CharacterProfile struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"name"`
	Traits           []string `json:"traits"`
	AllowedLocations []string `json:"locations"`
}

func (p CharacterProfile) clone() CharacterProfile {
	p.Traits = append([]string(nil), p.Traits...)
	p.AllowedLocations = append([]string(nil), p.AllowedLocations...)
	return p
}

// displayName turns an identifier like "market_street" into "Market Street".
func displayName(id string) string {
	words := strings.NewReplacer("_", " ", "-", " ").Replace(id)
	return cases.Title(language.English).String(words)
}

// CharacterRegistry holds the characters that can be met, in a stable order.
type CharacterRegistry struct {
	mu       sync.RWMutex
	profiles []CharacterProfile
	byID     map[string]int
}

// NewCharacterRegistry creates a registry with the given profiles.
func NewCharacterRegistry(profiles ...CharacterProfile) *CharacterRegistry {
	r := &CharacterRegistry{byID: make(map[string]int)}
	r.add(profiles)
	return r
}

// add inserts or replaces profiles by ID. Callers hold the write lock or own r.
func (r *CharacterRegistry) add(profiles []CharacterProfile) {
	for _, p := range profiles {
		if p.ID == "" {
			continue
		}
		if p.DisplayName == "" {
			p.DisplayName = displayName(p.ID)
		}
		p = p.clone()
		if i, ok := r.byID[p.ID]; ok {
			r.profiles[i] = p
			continue
		}
		r.byID[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
}

// LoadFromFile loads character profiles from a JSON file.
func (r *CharacterRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read characters file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads character profiles from raw JSON bytes.
func (r *CharacterRegistry) LoadFromJSON(data []byte) error {
	var list []CharacterProfile
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse characters JSON: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(list)
	return nil
}

// Len returns the number of characters.
func (r *CharacterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// At returns the i-th character.
func (r *CharacterRegistry) At(i int) (CharacterProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.profiles) {
		return CharacterProfile{}, false
	}
	return r.profiles[i].clone(), true
}

// Get returns a character by ID.
func (r *CharacterRegistry) Get(id string) (CharacterProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return CharacterProfile{}, false
	}
	return r.profiles[i].clone(), true
}

// PickExcluding returns a character chosen uniformly among those whose ID is
// not excludeID.
func (r *CharacterRegistry) PickExcluding(rng *rand.Rand, excludeID string) (CharacterProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]int, 0, len(r.profiles))
	for i, p := range r.profiles {
		if p.ID != excludeID {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return CharacterProfile{}, fmt.Errorf("%w: no character other than %q", ErrRotationExhausted, excludeID)
	}
	return r.profiles[candidates[rng.Intn(len(candidates))]].clone(), nil
}

// LocationRegistry holds the places conversations can move to.
type LocationRegistry struct {
	mu        sync.RWMutex
	locations []Location
	byID      map[string]int
}

// NewLocationRegistry creates a registry with the given locations.
func NewLocationRegistry(locations ...Location) *LocationRegistry {
	r := &LocationRegistry{byID: make(map[string]int)}
	r.add(locations)
	return r
}

func (r *LocationRegistry) add(locations []Location) {
	for _, l := range locations {
		if l.ID == "" {
			continue
		}
		if l.Name == "" {
			l.Name = displayName(l.ID)
		}
		if i, ok := r.byID[l.ID]; ok {
			r.locations[i] = l
			continue
		}
		r.byID[l.ID] = len(r.locations)
		r.locations = append(r.locations, l)
	}
}

// LoadFromFile loads locations from a JSON file.
func (r *LocationRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read locations file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads locations from raw JSON bytes.
func (r *LocationRegistry) LoadFromJSON(data []byte) error {
	var list []Location
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse locations JSON: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(list)
	return nil
}

// Len returns the number of locations.
func (r *LocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locations)
}

// All returns a snapshot of all locations in registry order.
func (r *LocationRegistry) All() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// Get returns a location by ID.
func (r *LocationRegistry) Get(id string) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Location{}, false
	}
	return r.locations[i], true
}

// Sample returns up to n distinct locations in random order.
func (r *LocationRegistry) Sample(rng *rand.Rand, n int) []Location {
	all := r.All()
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// DefaultCharacters is the reference cast.
func DefaultCharacters() *CharacterRegistry {
	return NewCharacterRegistry(
		CharacterProfile{ID: "john", DisplayName: "John", Traits: []string{"warrior", "serious"},
			AllowedLocations: []string{"alley", "shop", "townsquare", "jail", "sewers", "foodstalls"}},
		CharacterProfile{ID: "luna", DisplayName: "Luna", Traits: []string{"intellectual", "shy"},
			AllowedLocations: []string{"marketstreet", "sewers", "townsquare", "jail", "cursedwell", "shop"}},
		CharacterProfile{ID: "mika", DisplayName: "Mika", Traits: []string{"romantic", "friendly"},
			AllowedLocations: []string{"shop", "sewers", "alley", "well", "cursedwell", "foodstalls"}},
		CharacterProfile{ID: "rex", DisplayName: "Rex", Traits: []string{"sarcastic", "serious"},
			AllowedLocations: []string{"shop", "sewers", "alley", "well", "cursedwell", "foodstalls", "marketstreet"}},
		CharacterProfile{ID: "sophie", DisplayName: "Sophie", Traits: []string{"friendly", "shy"},
			AllowedLocations: []string{"alley", "shop", "townsquare", "jail", "sewers", "foodstalls"}},
	)
}

// DefaultLocations is the reference map of the town.
func DefaultLocations() *LocationRegistry {
	return NewLocationRegistry(
		Location{ID: "alley", Name: "Alley", Description: "a narrow alley reeking of rot, where nobody looks you in the eye"},
		Location{ID: "shop", Name: "Shop", Description: "a cramped curiosity shop with dusty shelves and a bell that never rings"},
		Location{ID: "townsquare", Name: "Town Square", Description: "the muddy town square under a crooked gallows"},
		Location{ID: "jail", Name: "Jail", Description: "a cold stone jail with wet walls and rusted bars"},
		Location{ID: "sewers", Name: "Sewers", Description: "dim, moist sewers beneath the town"},
		Location{ID: "foodstalls", Name: "Food Stalls", Description: "smoky food stalls selling meat of uncertain origin"},
		Location{ID: "marketstreet", Name: "Market Street", Description: "a crowded market street full of hagglers and pickpockets"},
		Location{ID: "cursedwell", Name: "Cursed Well", Description: "an abandoned well that whispers at night"},
		Location{ID: "well", Name: "Well", Description: "the old village well where gossip is traded for water"},
	)
}
