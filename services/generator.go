package services

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"hmo-finder/models"
	"hmo-finder/utils"
)

const (
	minSyntheticSqm    = 90
	maxSyntheticSqm    = 130
	coordinateJitter   = 0.05
	syntheticURLScheme = "synthetic://hmo/"
)

var syntheticImages = []string{
	"https://images.unsplash.com/photo-1580587771525-78b9dba3b914?w=800&h=600&fit=crop&crop=entropy&q=80",
	"https://images.unsplash.com/photo-1564013799919-ab600027ffc6?w=800&h=600&fit=crop&crop=entropy&q=80",
	"https://images.unsplash.com/photo-1493809842364-78817add7ffb?w=800&h=600&fit=crop&crop=entropy&q=80",
}

// Generator builds plausible substitute listings when no collected data is
// available. Every listing it returns is marked synthetic.
type Generator struct {
	mu     sync.Mutex
	faker  *gofakeit.Faker
	policy Policy
	logger *utils.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator. The same non-zero seed always yields the
// same sequence of listings; seed 0 picks a random one.
func NewGenerator(seed uint64, logger *utils.Logger) *Generator {
	return &Generator{
		faker:  gofakeit.New(seed),
		policy: SyntheticPolicy(),
		logger: logger,
		now:    time.Now,
	}
}

// IsSynthetic reports whether l was produced by a Generator.
func IsSynthetic(l models.NormalizedListing) bool {
	return l.Synthetic || strings.HasPrefix(l.SourceURL, syntheticURLScheme)
}

// Generate returns count listings for req, enriched with the synthetic policy.
// Bedrooms fall in [minBedrooms, minBedrooms+2] and prices in the top 40% of
// the budget, so every listing is within budget.
func (g *Generator) Generate(req models.SearchRequest, count int) []models.EnrichedListing {
	req, _ = req.Clamp()
	if count <= 0 {
		count = req.Count
	}
	if count > models.MaxCount {
		count = models.MaxCount
	}

	profile, ok := lookupCity(req.City)
	if !ok {
		profile = cityProfiles["liverpool"]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	createdAt := g.now().UTC()
	out := make([]models.EnrichedListing, 0, count)
	for i := 0; i < count; i++ {
		l := g.listing(req, profile, createdAt)
		out = append(out, EnrichListing(l, g.policy))
	}

	g.logger.Warn("[generator] Generated %d synthetic listings for %s", len(out), req.City)
	return out
}

func (g *Generator) listing(req models.SearchRequest, profile cityProfile, createdAt time.Time) models.NormalizedListing {
	f := g.faker

	street := f.RandomString(profile.Streets)
	area := f.RandomString(profile.Areas)
	address := fmt.Sprintf("%d %s, %s, %s", f.Number(1, 199), street, area, req.City)
	postcode := fmt.Sprintf("%s %d%s", f.RandomString(profile.Districts), f.Number(1, 9), strings.ToUpper(f.LetterN(2)))

	bedrooms := req.MinBedrooms + f.Number(0, 2)
	price := req.MaxPrice
	lowK := max(int(math.Ceil(float64(req.MaxPrice)*0.6/1000)), MinimumPrice/1000+1)
	if highK := req.MaxPrice / 1000; lowK <= highK {
		price = f.Number(lowK, highK) * 1000
	}
	sqm := f.Number(minSyntheticSqm, maxSyntheticSqm)
	lat := profile.Lat + f.Float64Range(-coordinateJitter, coordinateJitter)
	lng := profile.Lng + f.Float64Range(-coordinateJitter, coordinateJitter)

	id := ListingID(address, bedrooms, price)
	return models.NormalizedListing{
		ID:           id,
		Address:      address,
		Postcode:     postcode,
		Price:        price,
		Bedrooms:     bedrooms,
		ImageURL:     f.RandomString(syntheticImages),
		SourceURL:    syntheticURLScheme + strings.ToLower(strings.ReplaceAll(req.City, " ", "-")) + "/" + id,
		City:         req.City,
		CollectedAt:  createdAt,
		WithinBudget: true,
		Synthetic:    true,
		Latitude:     &lat,
		Longitude:    &lng,
		AreaSqm:      &sqm,
		Description: fmt.Sprintf("%d bedroom HMO in %s, %s. Illustrative listing generated while live data is unavailable.",
			bedrooms, area, req.City),
	}
}
