package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hmo-finder/models"
	"hmo-finder/utils"
)

const (
	// MinimumPrice is the sanity floor; listings at or below it are dropped.
	MinimumPrice = 1000

	expandedCeilingFactor = 1.15
	lowResultThreshold    = 10

	duplicateSimilarity     = 0.95
	duplicatePriceTolerance = 0.05
	priceBucketWidth        = 0.05

	// signGap is what may sit between a minus sign and the digits.
	signGap = "£$€ \t"

	defaultImageURL = "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=800&h=600&fit=crop&crop=entropy&q=80"
)

var (
	// numberRegexp captures the first unsigned numeric token, with thousands
	// separators. leadingNumber applies the sign.
	numberRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// punctRegexp strips everything but letters, digits and spaces from a lower-cased address.
	punctRegexp = regexp.MustCompile(`[^a-z0-9\s]`)
	// streetAddressRegexp is the lenient fallback for addresses with no city marker.
	streetAddressRegexp = regexp.MustCompile(`(?i)\b\d+[a-z]?,?\s+[a-z][a-z' -]*\b(road|rd|street|st|lane|ln|avenue|ave|drive|dr|close|crescent|grove|terrace|place|way|court|gardens|square|walk|row|hill|parade|mews|boulevard)\b`)
	// portalPageRegexp matches headings like "3 bed property in Liverpool".
	portalPageRegexp = regexp.MustCompile(`(?i)^(\d+\s+bed(room)?s?\s+)?(property|properties|houses?|flats?)\s+in\s+[a-z ]+$`)

	boilerplatePhrases = []string{
		"properties for sale",
		"property for sale",
		"houses for sale",
		"related searches",
		"search results",
		"results for",
	}

	listingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hmo-finder/listing"))
)

// NormalizeResult is the normalizer's output for one collected batch.
type NormalizeResult struct {
	Listings           []models.NormalizedListing
	HasExpandedResults bool
	Dropped            int
}

// candidate is the strictly-typed form of a raw listing checked before it is
// admitted as a NormalizedListing.
type candidate struct {
	Address  string `validate:"required,min=8"`
	Price    int    `validate:"gt=1000"`
	Bedrooms int    `validate:"gte=1,lte=50"`
}

type seenListing struct {
	key      string
	address  string
	price    int
	bedrooms int
}

// Normalizer turns unvalidated collector records into NormalizedListings.
// It fails closed: anything that does not validate is dropped, never fatal.
type Normalizer struct {
	logger   *utils.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Normalize filters, classifies and deduplicates raw for req. Within-budget
// listings come first in collector order, then expanded ones.
func (n *Normalizer) Normalize(raw []models.RawListing, req models.SearchRequest) NormalizeResult {
	req, _ = req.Clamp()
	ceiling := float64(req.MaxPrice) * expandedCeilingFactor
	collectedAt := n.now().UTC()

	var within, expanded []models.NormalizedListing
	var seen []seenListing

	for i, r := range raw {
		l, ok := n.toListing(r, req, collectedAt)
		if !ok {
			continue
		}

		if float64(l.Price) > ceiling {
			n.logger.Debug("[normalizer] #%d over expanded ceiling (£%d > £%.0f): %s", i, l.Price, ceiling, l.Address)
			continue
		}
		l.WithinBudget = l.Price <= req.MaxPrice

		if !inCity(l.Address, l.Postcode, req.City) {
			n.logger.Debug("[normalizer] #%d not in %s: %s", i, req.City, l.Address)
			continue
		}

		s := seenListing{
			key:      dedupKey(l.Address, l.Bedrooms, l.Price),
			address:  normaliseAddress(l.Address),
			price:    l.Price,
			bedrooms: l.Bedrooms,
		}
		if dup, ok := findDuplicate(seen, s); ok {
			n.logger.Debug("[normalizer] Duplicate skipped: %s (£%d) matches %s", l.Address, l.Price, dup.address)
			continue
		}
		seen = append(seen, s)
		l.ID = ListingID(l.Address, l.Bedrooms, l.Price)

		if l.WithinBudget {
			within = append(within, l)
		} else {
			expanded = append(expanded, l)
		}
	}

	listings := make([]models.NormalizedListing, 0, len(within)+len(expanded))
	listings = append(listings, within...)
	listings = append(listings, expanded...)

	res := NormalizeResult{
		Listings:           listings,
		HasExpandedResults: len(expanded) > 0 && len(within) < lowResultThreshold,
		Dropped:            len(raw) - len(listings),
	}
	n.logger.Info("[normalizer] Normalized %d → %d listings for %s (within %d, expanded %d, dropped %d)",
		len(raw), len(listings), req.City, len(within), len(expanded), res.Dropped)
	return res
}

// toListing applies the per-record checks that do not depend on other records.
func (n *Normalizer) toListing(r models.RawListing, req models.SearchRequest, collectedAt time.Time) (models.NormalizedListing, bool) {
	address := normaliseText(r.String("address"))
	if address == "" {
		if title := normaliseText(r.String("title")); title != "" {
			address = title + ", " + req.City
		}
	}
	if isBoilerplate(address) {
		n.logger.Debug("[normalizer] Dropping portal boilerplate: %q", address)
		return models.NormalizedListing{}, false
	}

	price, ok := parsePrice(r.String("price"))
	if !ok {
		n.logger.Debug("[normalizer] Dropping unparseable price %q: %s", r.String("price"), address)
		return models.NormalizedListing{}, false
	}

	bedrooms := 1
	if r.Has("bedrooms") {
		b, ok := parseInt(r.String("bedrooms"))
		if !ok {
			n.logger.Debug("[normalizer] Dropping unparseable bedrooms %q: %s", r.String("bedrooms"), address)
			return models.NormalizedListing{}, false
		}
		bedrooms = b
	}

	c := candidate{Address: address, Price: price, Bedrooms: bedrooms}
	if err := n.validate.Struct(c); err != nil {
		n.logger.Debug("[normalizer] Dropping invalid listing %q: %v", address, err)
		return models.NormalizedListing{}, false
	}

	l := models.NormalizedListing{
		Address:     address,
		Postcode:    strings.ToUpper(normaliseText(r.String("postcode"))),
		Price:       price,
		Bedrooms:    bedrooms,
		ImageURL:    r.String("image_url"),
		SourceURL:   r.String("property_url"),
		City:        req.City,
		CollectedAt: collectedAt,
		Description: normaliseText(r.String("description")),
	}
	if l.ImageURL == "" {
		l.ImageURL = defaultImageURL
	}
	if b, ok := parseInt(r.String("bathrooms")); ok && b >= 0 {
		l.Bathrooms = &b
	}
	if a, ok := parseInt(r.String("area_sqm")); ok && a > 0 {
		l.AreaSqm = &a
	}
	if lat, ok := r.Float("latitude"); ok {
		l.Latitude = &lat
	}
	if lng, ok := r.Float("longitude"); ok {
		l.Longitude = &lng
	}
	return l, true
}

// parsePrice extracts a whole-pound price from text such as "£250,000" or
// "Offers over £1,250,000". Values at or below MinimumPrice are rejected,
// which includes every negative amount.
func parsePrice(raw string) (int, bool) {
	v, ok := leadingNumber(raw)
	if !ok || v > math.MaxInt32 {
		return 0, false
	}
	price := int(math.Round(v))
	if price <= MinimumPrice {
		return 0, false
	}
	return price, true
}

// parseInt reads the first integer in s: "4 bedrooms" → 4, "3.0" → 3.
// Negative counts are rejected.
func parseInt(s string) (int, bool) {
	v, ok := leadingNumber(s)
	if !ok || v < 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// leadingNumber returns the first number in s. It is negative when a minus
// sign precedes it, with only currency symbols or spaces in between.
func leadingNumber(s string) (float64, bool) {
	loc := numberRegexp.FindStringIndex(s)
	if loc == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[loc[0]:loc[1]], ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	prefix := strings.TrimRight(s[:loc[0]], signGap)
	if strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "−") {
		v = -v
	}
	return v, true
}

func isBoilerplate(address string) bool {
	lower := strings.ToLower(address)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return portalPageRegexp.MatchString(address)
}

// inCity checks the address (and postcode, when given) against the city name,
// its 4-character prefix, known aliases and postcode areas, then falls back
// to a generic street-address shape.
func inCity(address, postcode, city string) bool {
	addr := strings.ToLower(address)
	cityLower := strings.ToLower(strings.TrimSpace(city))
	if cityLower == "" || strings.Contains(addr, cityLower) {
		return true
	}
	if len(cityLower) >= 4 && strings.Contains(addr, cityLower[:4]) {
		return true
	}

	if p, ok := lookupCity(cityLower); ok {
		for _, alias := range p.Aliases {
			if strings.Contains(addr, alias) {
				return true
			}
		}
		if re, ok := postcodeAreaPatterns[cityLower]; ok {
			if re.MatchString(addr) || re.MatchString(strings.ToLower(postcode)) {
				return true
			}
		}
	}

	return streetAddressRegexp.MatchString(address)
}

// findDuplicate returns the first seen listing that s duplicates.
func findDuplicate(seen []seenListing, s seenListing) (seenListing, bool) {
	for _, prev := range seen {
		if prev.key == s.key {
			return prev, true
		}
		if prev.bedrooms != s.bedrooms {
			continue
		}
		if relativeDiff(prev.price, s.price) >= duplicatePriceTolerance {
			continue
		}
		if similarity(prev.address, s.address) > duplicateSimilarity {
			return prev, true
		}
	}
	return seenListing{}, false
}

// ListingID is stable for the same address, bedroom count and price bucket.
func ListingID(address string, bedrooms, price int) string {
	return uuid.NewSHA1(listingNamespace, []byte(dedupKey(address, bedrooms, price))).String()
}

// dedupKey combines the normalized address, bedrooms and a 5%-wide price bucket.
func dedupKey(address string, bedrooms, price int) string {
	return fmt.Sprintf("%s|%d|%d", normaliseAddress(address), bedrooms, priceBucket(price))
}

// priceBucket places price on a geometric scale where each bucket spans 5%.
func priceBucket(price int) int {
	if price <= 0 {
		return 0
	}
	return int(math.Floor(math.Log(float64(price)) / math.Log(1+priceBucketWidth)))
}

func normaliseAddress(address string) string {
	return normaliseText(punctRegexp.ReplaceAllString(strings.ToLower(address), ""))
}

func relativeDiff(a, b int) float64 {
	hi := math.Max(float64(a), float64(b))
	if hi == 0 {
		return 0
	}
	return math.Abs(float64(a)-float64(b)) / hi
}

// similarity is 1 minus the edit distance normalised by the longer string.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}
	return float64(longer-levenshtein(ra, rb)) / float64(longer)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
