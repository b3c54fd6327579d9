package records

import (
	"slices"
	"strings"
)

// IndustryOther collects donors that match no known industry. Excluded from
// influence analysis.
const IndustryOther = "other"

// industryKeywords matches donor names and provider industry labels to
// canonical industry keys.
var industryKeywords = map[string][]string{
	"pharmaceuticals": {"pharma", "drug", "biotech", "therapeutics"},
	"oil_gas":         {"oil", "gas", "petroleum", "exxon", "chevron", "drilling"},
	"tech":            {"tech", "software", "internet", "google", "meta", "amazon", "microsoft", "apple"},
	"finance":         {"bank", "financ", "invest", "capital", "securities", "hedge"},
	"defense":         {"defense", "aerospace", "lockheed", "raytheon", "boeing", "northrop"},
	"healthcare":      {"health", "hospital", "medical", "insurance", "care"},
	"agriculture":     {"farm", "agri", "food", "dairy", "cattle"},
	"telecom":         {"telecom", "wireless", "cable", "broadband", "verizon", "comcast"},
	"education":       {"education", "school", "universit", "college"},
	"transportation":  {"airline", "rail", "transport", "automotive", "trucking"},
	"labor":           {"union", "labor", "workers", "afl-cio", "teamsters"},
	"environment":     {"environment", "climate", "solar", "wind", "renewable", "conservation"},
}

// industryNames maps canonical industry keys to display names.
var industryNames = map[string]string{
	"pharmaceuticals": "Pharmaceuticals",
	"oil_gas":         "Oil & Gas",
	"tech":            "Technology",
	"finance":         "Finance",
	"defense":         "Defense",
	"healthcare":      "Healthcare",
	"agriculture":     "Agriculture",
	"telecom":         "Telecommunications",
	"education":       "Education",
	"transportation":  "Transportation",
	"labor":           "Labor",
	"environment":     "Environment",
}

// billCategoryKeywords matches bill titles and summaries to issue-area tags.
var billCategoryKeywords = map[string][]string{
	"healthcare":     {"health", "medicare", "medicaid", "insurance", "hospital", "prescription"},
	"economy":        {"tax", "economy", "jobs", "wage", "budget", "trade", "banking"},
	"education":      {"education", "school", "student", "college", "teacher"},
	"environment":    {"environment", "climate", "pollution", "emissions", "clean air", "clean water"},
	"energy":         {"energy", "oil", "gas", "drilling", "pipeline", "renewable"},
	"immigration":    {"immigration", "border", "visa", "citizenship", "refugee"},
	"defense":        {"defense", "military", "armed forces", "veteran", "weapons"},
	"infrastructure": {"infrastructure", "highway", "bridge", "broadband", "transit"},
	"justice":        {"justice", "prison", "police", "crime", "court", "sentencing"},
	"labor":          {"labor", "worker", "union", "overtime", "workplace"},
	"technology":     {"technology", "data", "privacy", "internet", "artificial intelligence"},
	"agriculture":    {"agriculture", "farm", "crop", "livestock"},
}

// industryCategories relates each industry to the bill issue areas that
// affect it.
var industryCategories = map[string][]string{
	"pharmaceuticals": {"healthcare"},
	"oil_gas":         {"energy", "environment"},
	"tech":            {"technology"},
	"finance":         {"economy"},
	"defense":         {"defense"},
	"healthcare":      {"healthcare"},
	"agriculture":     {"agriculture"},
	"telecom":         {"technology"},
	"education":       {"education"},
	"transportation":  {"infrastructure"},
	"labor":           {"labor"},
	"environment":     {"environment"},
}

// favorablePositions encodes, per industry and issue area, which vote
// position benefits the industry. Regulation-heavy areas favor "no" votes;
// subsidy areas favor "yes". Pairs absent from the map are not favorable.
var favorablePositions = map[string]map[string]string{
	"pharmaceuticals": {"healthcare": PositionNo},
	"oil_gas":         {"environment": PositionNo, "energy": PositionYes},
	"tech":            {"technology": PositionNo},
	"finance":         {"economy": PositionNo},
	"defense":         {"defense": PositionYes},
}

// IndustryName returns the display name for a canonical industry key.
func IndustryName(key string) string {
	if name, ok := industryNames[key]; ok {
		return name
	}
	return key
}

// IndustryForDonor maps a donor to a canonical industry key using the
// provider-supplied industry label first, then the donor name. Falls back
// to IndustryOther. Industries are checked in stable order so a donor
// matching more than one always resolves the same way.
func IndustryForDonor(name, label string) string {
	if key, ok := matchIndustry(label); ok {
		return key
	}
	if key, ok := matchIndustry(name); ok {
		return key
	}
	return IndustryOther
}

func matchIndustry(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	lowered := strings.ToLower(text)
	for _, key := range industryKeys() {
		for _, kw := range industryKeywords[key] {
			if strings.Contains(lowered, kw) {
				return key, true
			}
		}
	}
	return "", false
}

// BillCategories returns the issue-area tags matched in a bill's title and
// summary. Untaggable bills fall back to a single "other" tag.
func BillCategories(title, summary string) []string {
	text := strings.ToLower(title)
	if summary != "" {
		text += " " + strings.ToLower(summary)
	}

	var tags []string
	for category, keywords := range billCategoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, category)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{"other"}
	}

	slices.Sort(tags)
	return tags
}

// IndustryStances derives per-industry favorability for a vote from its
// position and issue tags. Only industries related to at least one tag
// appear in the result.
func IndustryStances(position string, billCategories []string) []IndustryStance {
	var stances []IndustryStance

	for _, industry := range industryKeys() {
		related := false
		favorable := false

		for _, category := range industryCategories[industry] {
			if !slices.Contains(billCategories, category) {
				continue
			}
			related = true
			if favorablePositions[industry][category] == position {
				favorable = true
			}
		}

		if related {
			stances = append(stances, IndustryStance{
				Industry:  industry,
				Favorable: favorable,
			})
		}
	}

	return stances
}

// industryKeys returns canonical industry keys in stable order so tagging
// output is deterministic.
func industryKeys() []string {
	keys := make([]string, 0, len(industryCategories))
	for key := range industryCategories {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
