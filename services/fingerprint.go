package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"hmo-finder/models"
)

// Fingerprint derives the cache key for a search. Requests that normalise to
// the same city, bedroom minimum, price ceiling and keywords share a key.
func Fingerprint(req models.SearchRequest) string {
	city := strings.ToLower(strings.Join(strings.Fields(req.City), " "))

	minBedrooms := req.MinBedrooms
	if minBedrooms <= 0 {
		minBedrooms = models.DefaultMinBedrooms
	}
	maxPrice := req.MaxPrice
	if maxPrice <= 0 {
		maxPrice = models.DefaultMaxPrice
	}
	keywords := strings.ToLower(strings.Join(strings.Fields(req.Keywords), " "))
	if keywords == "" {
		keywords = strings.ToLower(models.DefaultKeywords)
	}

	h := sha256.New()
	for _, field := range []string{city, strconv.Itoa(minBedrooms), strconv.Itoa(maxPrice), keywords} {
		// Length prefixes keep field boundaries unambiguous whatever the fields contain.
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return hex.EncodeToString(h.Sum(nil))
}
