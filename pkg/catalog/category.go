package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/saturnines/catalog-sync/pkg/marketplace"
)

// categoryPrefixes are the lengths of the three hierarchy levels.
var categoryPrefixes = [3]int{2, 4, 6}

// CategoryGetter fetches one category by reference.
type CategoryGetter interface {
	GetCategory(ctx context.Context, reference string) (*marketplace.Category, error)
}

// CategoryLevel is one resolved level of the hierarchy.
type CategoryLevel struct {
	ID    marketplace.Optional[string]
	Label marketplace.Optional[string]
}

// CategoryLevels decomposes a category reference into its 2, 4 and 6 character prefixes.
// Prefixes longer than the trimmed reference are absent.
func CategoryLevels(reference string) [3]marketplace.Optional[string] {
	var levels [3]marketplace.Optional[string]
	ref := []rune(strings.TrimSpace(reference))
	for i, n := range categoryPrefixes {
		if len(ref) >= n {
			levels[i] = marketplace.Some(string(ref[:n]))
		}
	}
	return levels
}

type labelEntry struct {
	ready chan struct{}
	label marketplace.Optional[string]
}

// CategoryResolver resolves the three category levels of a product.
// Labels are memoized for the life of the resolver, including failed lookups,
// and each reference is fetched at most once even under concurrent use.
type CategoryResolver struct {
	getter CategoryGetter
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*labelEntry
}

// NewCategoryResolver builds a resolver with an empty cache.
func NewCategoryResolver(getter CategoryGetter, logger *slog.Logger) *CategoryResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryResolver{
		getter: getter,
		logger: logger.With("component", "category_resolver"),
		cache:  make(map[string]*labelEntry),
	}
}

// Resolve returns the (id, label) pair of each level. An empty reference makes no calls.
func (r *CategoryResolver) Resolve(ctx context.Context, reference string) [3]CategoryLevel {
	var out [3]CategoryLevel
	for i, id := range CategoryLevels(reference) {
		out[i].ID = id
		if ref, ok := id.Get(); ok {
			out[i].Label = r.label(ctx, ref)
		}
	}
	return out
}

// Size reports how many distinct references have been looked up.
func (r *CategoryResolver) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *CategoryResolver) label(ctx context.Context, ref string) marketplace.Optional[string] {
	r.mu.Lock()
	entry, found := r.cache[ref]
	if !found {
		entry = &labelEntry{ready: make(chan struct{})}
		r.cache[ref] = entry
	}
	r.mu.Unlock()

	if found {
		select {
		case <-entry.ready:
			return entry.label
		case <-ctx.Done():
			return marketplace.None[string]()
		}
	}

	defer close(entry.ready)
	category, err := r.getter.GetCategory(ctx, ref)
	if err != nil || category == nil {
		r.logger.Warn("category label unavailable", "reference", ref, "error", err)
		return entry.label
	}
	entry.label = category.Label
	return entry.label
}
