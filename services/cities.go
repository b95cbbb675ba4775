package services

import (
	"regexp"
	"sort"
	"strings"
)

// cityProfile is everything the pipeline knows about a supported city: the
// aliases used to recognise its addresses and the pools used to generate
// substitute listings.
type cityProfile struct {
	Name          string
	Aliases       []string
	PostcodeAreas []string
	Districts     []string
	Areas         []string
	Streets       []string
	Lat, Lng      float64
}

var cityProfiles = map[string]cityProfile{
	"liverpool": {
		Name: "Liverpool", Aliases: []string{"lpool", "merseyside"}, PostcodeAreas: []string{"l"},
		Districts: []string{"L7", "L8", "L15", "L17", "L18"},
		Areas:     []string{"Toxteth", "Wavertree", "Mossley Hill", "Aigburth", "Smithdown"},
		Streets:   []string{"Smithdown Road", "Lodge Lane", "Wavertree Road", "Allerton Road", "Penny Lane"},
		Lat:       53.4084, Lng: -2.9916,
	},
	"manchester": {
		Name: "Manchester", Aliases: []string{"mcr", "manc", "greater manchester"}, PostcodeAreas: []string{"m"},
		Districts: []string{"M13", "M14", "M16", "M19", "M20"},
		Areas:     []string{"Fallowfield", "Rusholme", "Withington", "Didsbury", "Chorlton"},
		Streets:   []string{"Oxford Road", "Wilmslow Road", "Stockport Road", "Princess Street", "Oldham Road"},
		Lat:       53.4808, Lng: -2.2426,
	},
	"birmingham": {
		Name: "Birmingham", Aliases: []string{"brum", "bham", "west midlands"}, PostcodeAreas: []string{"b"},
		Districts: []string{"B11", "B12", "B14", "B21", "B29"},
		Areas:     []string{"Selly Oak", "Edgbaston", "Moseley", "Kings Heath", "Handsworth"},
		Streets:   []string{"Broad Street", "Hagley Road", "Pershore Road", "Stratford Road", "Moseley Road"},
		Lat:       52.4862, Lng: -1.8904,
	},
	"leeds": {
		Name: "Leeds", Aliases: []string{"west yorkshire"}, PostcodeAreas: []string{"ls"},
		Districts: []string{"LS2", "LS4", "LS6", "LS11"},
		Areas:     []string{"Headingley", "Hyde Park", "Burley", "Kirkstall", "Meanwood"},
		Streets:   []string{"Headingley Lane", "Hyde Park Road", "Burley Road", "Kirkstall Road", "Meanwood Road"},
		Lat:       53.8008, Lng: -1.5491,
	},
	"sheffield": {
		Name: "Sheffield", Aliases: []string{"south yorkshire"}, PostcodeAreas: []string{"s"},
		Districts: []string{"S6", "S7", "S10", "S11"},
		Areas:     []string{"Ecclesall", "Crookes", "Broomhill", "Fulwood", "Heeley"},
		Streets:   []string{"Ecclesall Road", "London Road", "Abbeydale Road", "Chesterfield Road", "Fulwood Road"},
		Lat:       53.3811, Lng: -1.4701,
	},
	"bristol": {
		Name: "Bristol", PostcodeAreas: []string{"bs"},
		Districts: []string{"BS2", "BS5", "BS6", "BS7"},
		Areas:     []string{"Clifton", "Redland", "Cotham", "Montpelier", "St Pauls"},
		Streets:   []string{"Gloucester Road", "Whiteladies Road", "Park Street", "Baldwin Street", "Queen Square"},
		Lat:       51.4545, Lng: -2.5879,
	},
	"london": {
		Name: "London", Aliases: []string{"ldn"}, PostcodeAreas: []string{"e", "n", "se", "sw", "w", "nw", "ec", "wc"},
		Districts: []string{"E1", "E2", "E3", "E8", "E15"},
		Areas:     []string{"Stratford", "Mile End", "Bethnal Green", "Hackney", "Tower Hamlets"},
		Streets:   []string{"Roman Road", "Mile End Road", "Bethnal Green Road", "Commercial Street", "Brick Lane"},
		Lat:       51.5074, Lng: -0.1278,
	},
	"nottingham": {
		Name: "Nottingham", Aliases: []string{"notts"}, PostcodeAreas: []string{"ng"},
		Districts: []string{"NG5", "NG7"},
		Areas:     []string{"Lenton", "Beeston", "Radford", "Forest Fields", "Hyson Green"},
		Streets:   []string{"Derby Road", "Alfreton Road", "Mansfield Road", "Ilkeston Road", "Gregory Boulevard"},
		Lat:       52.9548, Lng: -1.1581,
	},
	"leicester": {
		Name: "Leicester", PostcodeAreas: []string{"le"},
		Districts: []string{"LE1", "LE2", "LE3", "LE5"},
		Areas:     []string{"Stoneygate", "Clarendon Park", "West End", "Highfields", "Evington"},
		Streets:   []string{"London Road", "Narborough Road", "Hinckley Road", "Belgrave Road", "Evington Road"},
		Lat:       52.6369, Lng: -1.1398,
	},
	"newcastle": {
		Name: "Newcastle", Aliases: []string{"toon", "tyne"}, PostcodeAreas: []string{"ne"},
		Districts: []string{"NE2", "NE4", "NE6"},
		Areas:     []string{"Jesmond", "Heaton", "Byker", "Sandyford", "Fenham"},
		Streets:   []string{"Northumberland Street", "Grainger Street", "Clayton Street", "Grey Street", "Osborne Road"},
		Lat:       54.9783, Lng: -1.6178,
	},
	"coventry": {
		Name: "Coventry", PostcodeAreas: []string{"cv"},
		Districts: []string{"CV1", "CV2", "CV5", "CV6"},
		Areas:     []string{"Earlsdon", "Chapelfields", "Stoke", "Radford", "Hillfields"},
		Streets:   []string{"Warwick Road", "Holyhead Road", "Foleshill Road", "Binley Road", "Allesley Old Road"},
		Lat:       52.4068, Lng: -1.5197,
	},
	"salford": {
		Name: "Salford", Aliases: []string{"mcr"}, PostcodeAreas: []string{"m"},
		Districts: []string{"M5", "M6", "M7"},
		Areas:     []string{"Ordsall", "Pendleton", "Weaste", "Seedley", "Little Hulton"},
		Streets:   []string{"Chapel Street", "Eccles New Road", "Liverpool Street", "Regent Road", "Bolton Road"},
		Lat:       53.4875, Lng: -2.2901,
	},
	"hull": {
		Name: "Hull", Aliases: []string{"kingston upon hull"}, PostcodeAreas: []string{"hu"},
		Districts: []string{"HU3", "HU5", "HU6"},
		Areas:     []string{"Newland", "Boulevard", "Avenues", "Spring Bank", "Anlaby Road"},
		Streets:   []string{"Spring Bank", "Anlaby Road", "Beverley Road", "Hessle Road", "Holderness Road"},
		Lat:       53.7676, Lng: -0.3274,
	},
	"preston": {
		Name: "Preston", PostcodeAreas: []string{"pr"},
		Districts: []string{"PR1", "PR2"},
		Areas:     []string{"Ribbleton", "Fulwood", "Ashton", "Deepdale", "Fishwick"},
		Streets:   []string{"Blackpool Road", "Garstang Road", "New Hall Lane", "Watling Street Road", "Ribbleton Avenue"},
		Lat:       53.7632, Lng: -2.7031,
	},
	"stockport": {
		Name: "Stockport", PostcodeAreas: []string{"sk"},
		Districts: []string{"SK1", "SK2", "SK3", "SK4"},
		Areas:     []string{"Edgeley", "Shaw Heath", "Davenport", "Cheadle Heath", "Reddish"},
		Streets:   []string{"Wellington Road", "London Road", "Buxton Road", "Bramhall Lane", "Stockport Road"},
		Lat:       53.4106, Lng: -2.1575,
	},
}

// postcodeAreaPatterns matches outward codes such as "L15" or "M14 6" per city.
var postcodeAreaPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(cityProfiles))
	for key, p := range cityProfiles {
		if len(p.PostcodeAreas) == 0 {
			continue
		}
		out[key] = regexp.MustCompile(`\b(?:` + strings.Join(p.PostcodeAreas, "|") + `)\d{1,2}[a-z]?\b`)
	}
	return out
}()

func lookupCity(city string) (cityProfile, bool) {
	p, ok := cityProfiles[strings.ToLower(strings.TrimSpace(city))]
	return p, ok
}

// KnownCities lists the cities with template data, sorted by name.
func KnownCities() []string {
	names := make([]string, 0, len(cityProfiles))
	for _, p := range cityProfiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
