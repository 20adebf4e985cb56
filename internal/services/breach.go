package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// BreachCache maps a SHA-1 prefix to the suffix counts the range API returned for it.
type BreachCache struct {
	mu       sync.RWMutex
	prefixes map[string]map[string]int
}

// NewBreachCache creates an empty cache.
func NewBreachCache() *BreachCache {
	return &BreachCache{prefixes: make(map[string]map[string]int)}
}

// Lookup returns the count for suffix under prefix and whether prefix has been fetched.
func (c *BreachCache) Lookup(prefix, suffix string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts, ok := c.prefixes[prefix]
	if !ok {
		return 0, false
	}
	return counts[suffix], true
}

// Store records the parsed counts for prefix.
func (c *BreachCache) Store(prefix string, counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixes[prefix] = counts
}

// Len returns the number of cached prefixes.
func (c *BreachCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prefixes)
}

// BreachService counts how often a password appears in known breaches using the k-anonymity range API.
type BreachService struct {
	api    *APIService
	cache  *BreachCache
	logger *log.Logger
}

// NewBreachService creates a breach checker rooted at baseURL (e.g. https://api.pwnedpasswords.com).
func NewBreachService(baseURL string, client *http.Client, cache *BreachCache, logger *log.Logger) *BreachService {
	if baseURL == "" {
		baseURL = "https://api.pwnedpasswords.com"
	}
	if cache == nil {
		cache = NewBreachCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BreachService{api: NewAPIService(strings.TrimRight(baseURL, "/"), client), cache: cache, logger: logger}
}

// HashPassword returns the uppercase hex SHA-1 of password split into the 5 character prefix and the rest.
func HashPassword(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return digest[:5], digest[5:]
}

// ParseRange parses a range response of SUFFIX:COUNT lines.
func ParseRange(body string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suffix, count, _ := strings.Cut(line, ":")
		if suffix == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			n = 0
		}
		counts[strings.ToUpper(suffix)] = n
	}
	return counts
}

// Count returns how many times password appears in known breaches.
//
// Failures never block the caller: the count is 0 and a warning is logged. The error is always nil.
func (b *BreachService) Count(ctx context.Context, password string) (int, error) {
	if password == "" {
		return 0, nil
	}

	prefix, suffix := HashPassword(password)
	if count, ok := b.cache.Lookup(prefix, suffix); ok {
		return count, nil
	}

	resp, err := b.api.Get(ctx, "/range/"+prefix)
	if err != nil {
		b.logger.Warn("breach check unavailable", "error", err)
		return 0, nil
	}
	if !resp.OK() {
		b.logger.Warn("breach API returned an error", "status", resp.StatusCode)
		return 0, nil
	}

	counts := ParseRange(string(resp.Body))
	b.cache.Store(prefix, counts)
	return counts[suffix], nil
}
