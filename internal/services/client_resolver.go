package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// ClientCatalog is the read side of the clients table.
type ClientCatalog interface {
	ListClients(ctx context.Context, userID uuid.UUID) ([]db.Client, error)
}

// UnresolvedClient is a sheet client name with no exact match, plus the
// closest catalog names for a human to review.
type UnresolvedClient struct {
	Name        string   `json:"name"`
	Rows        []int    `json:"rows"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type clientSet struct {
	byName   map[string]db.Client // keyed by lower-cased name
	names    []string
	loadedAt time.Time
}

// ClientResolver matches client names exactly, ignoring case. Fuzzy
// similarity is only used to suggest names for unresolved clients.
type ClientResolver struct {
	catalog             ClientCatalog
	clients             map[uuid.UUID]*clientSet
	cacheMutex          sync.RWMutex
	cacheTTL            time.Duration
	similarityThreshold float64
	maxSuggestions      int
}

func NewClientResolver(catalog ClientCatalog) *ClientResolver {
	return &ClientResolver{
		catalog:             catalog,
		clients:             make(map[uuid.UUID]*clientSet),
		cacheTTL:            5 * time.Minute,
		similarityThreshold: 0.6,
		maxSuggestions:      3,
	}
}

// load returns the tenant's clients, reading them unless a fresh copy is
// cached. Callers keep the returned set; a concurrent Invalidate only drops
// the map entry.
func (r *ClientResolver) load(ctx context.Context, userID uuid.UUID) (*clientSet, error) {
	r.cacheMutex.RLock()
	set, ok := r.clients[userID]
	r.cacheMutex.RUnlock()
	if ok && time.Since(set.loadedAt) < r.cacheTTL {
		return set, nil
	}

	rows, err := r.catalog.ListClients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}

	set = &clientSet{
		byName:   make(map[string]db.Client, len(rows)),
		names:    make([]string, 0, len(rows)),
		loadedAt: time.Now(),
	}
	for _, c := range rows {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if _, dup := set.byName[key]; dup {
			continue
		}
		set.byName[key] = c
		set.names = append(set.names, c.Name)
	}

	r.cacheMutex.Lock()
	r.clients[userID] = set
	r.cacheMutex.Unlock()
	return set, nil
}

// Invalidate drops the cached clients of a tenant.
func (r *ClientResolver) Invalidate(userID uuid.UUID) {
	r.cacheMutex.Lock()
	defer r.cacheMutex.Unlock()
	delete(r.clients, userID)
}

// Resolve returns the client whose name equals name, ignoring case.
func (r *ClientResolver) Resolve(ctx context.Context, userID uuid.UUID, name string) (db.Client, bool, error) {
	set, err := r.load(ctx, userID)
	if err != nil {
		return db.Client{}, false, err
	}

	c, ok := set.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok, nil
}

// Suggest lists catalog names similar to name, best first.
func (r *ClientResolver) Suggest(ctx context.Context, userID uuid.UUID, name string) ([]string, error) {
	set, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := set.names

	type scored struct {
		name  string
		score float64
	}
	target := strings.ToLower(strings.TrimSpace(name))
	var candidates []scored
	for _, n := range names {
		if score := calculateSimilarity(target, strings.ToLower(n)); score >= r.similarityThreshold {
			candidates = append(candidates, scored{name: n, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var out []string
	for i := 0; i < len(candidates) && i < r.maxSuggestions; i++ {
		out = append(out, candidates[i].name)
	}
	return out, nil
}

// ResolveRows resolves every distinct client name in rows before anything is
// emitted. It returns the matches by name and the names that failed, with
// the sheet rows that reference them.
func (r *ClientResolver) ResolveRows(ctx context.Context, userID uuid.UUID, rows []SaleRow) (map[string]db.Client, []UnresolvedClient, error) {
	resolved := make(map[string]db.Client)
	missing := make(map[string]*UnresolvedClient)
	var order []string

	for _, row := range rows {
		if _, ok := resolved[row.Client]; ok {
			continue
		}
		if u, ok := missing[row.Client]; ok {
			u.Rows = append(u.Rows, row.Row)
			continue
		}

		c, ok, err := r.Resolve(ctx, userID, row.Client)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			resolved[row.Client] = c
			continue
		}
		missing[row.Client] = &UnresolvedClient{Name: row.Client, Rows: []int{row.Row}}
		order = append(order, row.Client)
	}

	unresolved := make([]UnresolvedClient, 0, len(order))
	for _, name := range order {
		u := missing[name]
		suggestions, err := r.Suggest(ctx, userID, name)
		if err != nil {
			return nil, nil, err
		}
		u.Suggestions = suggestions
		unresolved = append(unresolved, *u)
	}
	return resolved, unresolved, nil
}

// calculateSimilarity computes similarity score using Levenshtein distance
// Returns a value between 0 and 1, where 1 is identical
func calculateSimilarity(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	distance := levenshteinDistance(r1, r2)
	maxLen := max(len(r1), len(r2))
	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 []rune) int {
	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
