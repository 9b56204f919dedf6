package clinicinfo

import (
	"fmt"
	"strings"
	"unicode"
)

type Topic string

const (
	TopicHours     Topic = "hours"
	TopicDoctors   Topic = "doctors"
	TopicInsurance Topic = "insurance"
	TopicServices  Topic = "services"
	TopicLocation  Topic = "location"
	TopicSummary   Topic = "summary"
)

// Topics lists the lookup topics in tie-break order.
var Topics = []Topic{TopicHours, TopicDoctors, TopicInsurance, TopicServices, TopicLocation}

// topicKeywords are matched as prefixes of the query's words.
var topicKeywords = map[Topic][]string{
	TopicHours:     {"hour", "open", "close", "closing", "when", "weekday", "weekend", "saturday", "sunday", "holiday", "schedule"},
	TopicDoctors:   {"doctor", "dr", "physician", "specialist", "specialty", "speaks", "language", "cardiologist", "pediatrician"},
	TopicInsurance: {"insurance", "insured", "coverage", "cover", "plan", "medicare", "medicaid", "aetna", "cigna"},
	TopicServices:  {"service", "offer", "treatment", "lab", "test", "vaccin", "immuniz", "physical", "procedure", "checkup"},
	TopicLocation:  {"where", "address", "location", "locate", "parking", "park", "direction", "access", "wheelchair", "phone", "contact", "email", "call"},
}

// Answer is the result of a free-text lookup.
type Answer struct {
	Topic Topic  `json:"topic"`
	Text  string `json:"text"`
}

// Lookup routes a free-text question to the best matching topic by keyword
// hits and answers it. Queries without any hit get the summary.
func (d *Directory) Lookup(query string) Answer {
	words := tokenize(query)

	best, bestScore := TopicSummary, 0
	for _, topic := range Topics {
		if score := countHits(words, topicKeywords[topic]); score > bestScore {
			best, bestScore = topic, score
		}
	}

	return Answer{Topic: best, Text: d.Answer(best, query)}
}

// Answer answers query within a known topic.
func (d *Directory) Answer(topic Topic, query string) string {
	switch topic {
	case TopicHours:
		return d.HoursFor(query)
	case TopicDoctors:
		specialty, language := d.doctorFilters(query)
		return DoctorsText(d.SearchDoctors(specialty, language), d.Contact.Phone)
	case TopicInsurance:
		return d.InsuranceText(d.insuranceMentioned(query))
	case TopicServices:
		return d.ServicesText(d.serviceMentioned(query))
	case TopicLocation:
		return d.LocationInfo(query)
	default:
		return d.Summary()
	}
}

// HoursFor returns the opening hours line matching dayType.
func (d *Directory) HoursFor(dayType string) string {
	t := strings.ToLower(dayType)
	switch {
	case strings.Contains(t, "weekend"), strings.Contains(t, "saturday"), strings.Contains(t, "sunday"):
		return d.Hours.Weekend
	case strings.Contains(t, "holiday"):
		return d.Hours.Holidays
	default:
		return d.Hours.Weekday
	}
}

// SearchDoctors filters by specialty substring and exact language, both
// case-insensitive. Empty filters match everything.
func (d *Directory) SearchDoctors(specialty, language string) []Doctor {
	specialty = strings.ToLower(strings.TrimSpace(specialty))
	language = strings.ToLower(strings.TrimSpace(language))

	var out []Doctor
	for _, doc := range d.Doctors {
		if specialty != "" && !strings.Contains(strings.ToLower(doc.Specialty), specialty) {
			continue
		}
		if language != "" && !speaks(doc, language) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func DoctorsText(docs []Doctor, phone string) string {
	if len(docs) == 0 {
		return fmt.Sprintf("No doctors found. Call %s for help.", phone)
	}

	entries := make([]string, 0, len(docs))
	for _, doc := range docs {
		status := "✓ Accepting"
		if !doc.AcceptingNewPatients {
			status = "✗ Not accepting"
		}
		entries = append(entries, fmt.Sprintf("%s - %s\n  %s experience | Languages: %s\n  %s new patients",
			doc.Name, doc.Specialty, doc.Experience, strings.Join(doc.Languages, ", "), status))
	}
	return strings.Join(entries, "\n\n")
}

// AcceptsInsurance reports the accepted plan whose name contains name.
func (d *Directory) AcceptsInsurance(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	for _, ins := range d.Insurance {
		if strings.Contains(strings.ToLower(ins), needle) {
			return ins, true
		}
	}
	return "", false
}

func (d *Directory) InsuranceText(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Accepted insurance:\n• " + strings.Join(d.Insurance, "\n• ")
	}
	if ins, ok := d.AcceptsInsurance(name); ok {
		return fmt.Sprintf("✓ Yes, we accept %s.", ins)
	}
	return fmt.Sprintf("✗ We do not accept %s. Call us for alternatives.", name)
}

// MatchServices returns services containing keyword. ok is false when the
// keyword matched nothing and the full list was returned instead.
func (d *Directory) MatchServices(keyword string) (services []string, ok bool) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return d.Services, false
	}
	for _, s := range d.Services {
		if strings.Contains(strings.ToLower(s), needle) {
			services = append(services, s)
		}
	}
	if len(services) == 0 {
		return d.Services, false
	}
	return services, true
}

func (d *Directory) ServicesText(keyword string) string {
	services, ok := d.MatchServices(keyword)
	switch {
	case ok:
		return "Matching services:\n• " + strings.Join(services, "\n• ")
	case strings.TrimSpace(keyword) != "":
		return "All services:\n• " + strings.Join(services, "\n• ")
	default:
		return "Services offered:\n• " + strings.Join(services, "\n• ")
	}
}

// LocationInfo answers address, parking, accessibility or contact questions.
func (d *Directory) LocationInfo(infoType string) string {
	words := tokenize(infoType)
	switch {
	case countHits(words, []string{"park"}) > 0:
		return d.Location.Parking
	case countHits(words, []string{"access", "wheelchair", "elevator"}) > 0:
		return d.Location.Accessibility
	case countHits(words, []string{"contact", "phone", "email", "call", "fax"}) > 0:
		return fmt.Sprintf("Phone: %s\nEmail: %s", d.Contact.Phone, d.Contact.Email)
	default:
		loc := d.Location
		return fmt.Sprintf("%s, %s, %s %s\n%s", loc.Address, loc.City, loc.State, loc.Zip, loc.Parking)
	}
}

func (d *Directory) Summary() string {
	return fmt.Sprintf("%s\nHours: %s; %s\nLocation: %s, %s, %s %s\nPhone: %s\nAsk about hours, doctors, insurance, services or location.",
		d.Name, d.Hours.Weekday, d.Hours.Weekend,
		d.Location.Address, d.Location.City, d.Location.State, d.Location.Zip,
		d.Contact.Phone)
}

func (d *Directory) doctorFilters(query string) (specialty, language string) {
	q := strings.ToLower(query)
	for _, doc := range d.Doctors {
		if specialty == "" && strings.Contains(q, strings.ToLower(doc.Specialty)) {
			specialty = doc.Specialty
		}
		for _, lang := range doc.Languages {
			if language == "" && containsWord(tokenize(q), strings.ToLower(lang)) {
				language = lang
			}
		}
	}
	return specialty, language
}

func (d *Directory) insuranceMentioned(query string) string {
	q := strings.ToLower(query)
	for _, ins := range d.Insurance {
		if strings.Contains(q, strings.ToLower(ins)) {
			return ins
		}
	}
	return ""
}

// serviceMentioned returns the first query word that is a prefix of a
// word in some service name.
func (d *Directory) serviceMentioned(query string) string {
	for _, w := range tokenize(query) {
		if len(w) < 3 || containsWord(topicKeywords[TopicServices], w) {
			continue
		}
		for _, s := range d.Services {
			for _, sw := range tokenize(s) {
				if strings.HasPrefix(sw, w) {
					return w
				}
			}
		}
	}
	return ""
}

func speaks(doc Doctor, language string) bool {
	for _, l := range doc.Languages {
		if strings.ToLower(l) == language {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countHits(words, keywords []string) int {
	hits := 0
	for _, w := range words {
		for _, k := range keywords {
			if w == k || (len(k) > 2 && strings.HasPrefix(w, k)) {
				hits++
				break
			}
		}
	}
	return hits
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
