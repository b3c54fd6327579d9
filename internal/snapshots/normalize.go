package snapshots

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opendocket/docket/internal/records"
)

// adapter converts one provider's wire shape into a canonical snapshot.
type adapter struct {
	category records.Category
	convert  func(subjectID string, body []byte) (*Snapshot, error)
}

// adapters maps the payload source tag to its converter. Payloads without a
// source tag fall back to the category default in defaultProviders.
var adapters = map[string]adapter{
	"propublica":  {records.CategoryVotes, convertVotes},
	"opensecrets": {records.CategoryDonations, convertDonations},
	"fec":         {records.CategoryTrades, convertTrades},
	"campaign":    {records.CategoryPromises, convertPromises},
}

var defaultProviders = map[records.Category]string{
	records.CategoryVotes:     "propublica",
	records.CategoryDonations: "opensecrets",
	records.CategoryTrades:    "fec",
	records.CategoryPromises:  "campaign",
}

// Normalize converts raw provider payloads into canonically ordered,
// fingerprinted snapshots. One failed category never blocks the others: the
// returned errors hold one NormalizationError per category that could not be
// converted, and the returned snapshots cover the rest, in canonical
// category order.
func Normalize(subjectID string, payloads map[records.Category][]byte, capturedAt time.Time) ([]Snapshot, []error) {
	var (
		snaps []Snapshot
		errs  []error
	)

	for _, category := range records.Categories() {
		body, ok := payloads[category]
		if !ok {
			continue
		}

		snap, err := normalizeCategory(subjectID, category, body)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		snap.CapturedAt = capturedAt
		snaps = append(snaps, *snap)
	}

	return snaps, errs
}

func normalizeCategory(subjectID string, category records.Category, body []byte) (*Snapshot, error) {
	var envelope struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &NormalizationError{
			Category: category,
			Reason:   fmt.Sprintf("invalid payload: %v", err),
		}
	}

	provider := envelope.Source
	if provider == "" {
		provider = defaultProviders[category]
	}

	a, ok := adapters[provider]
	if !ok {
		return nil, &NormalizationError{
			Category: category,
			Provider: provider,
			Reason:   "unknown provider",
		}
	}
	if a.category != category {
		return nil, &NormalizationError{
			Category: category,
			Provider: provider,
			Reason:   fmt.Sprintf("provider serves %s payloads", a.category),
		}
	}

	snap, err := a.convert(subjectID, body)
	if err != nil {
		return nil, err
	}

	if err := snap.canonicalize(); err != nil {
		return nil, &NormalizationError{
			Category: category,
			Provider: provider,
			Reason:   err.Error(),
		}
	}

	return snap, nil
}

func convertVotes(subjectID string, body []byte) (*Snapshot, error) {
	var payload struct {
		Votes []struct {
			ID          string `json:"id"`
			BillNumber  string `json:"billNumber"`
			Title       string `json:"title"`
			Date        string `json:"date"`
			Vote        string `json:"vote"`
			BillSummary string `json:"billSummary"`
			Result      string `json:"result"`
		} `json:"votes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, normErr(records.CategoryVotes, "propublica", "invalid payload: %v", err)
	}

	votes := make([]records.VoteEvent, 0, len(payload.Votes))
	for i, v := range payload.Votes {
		if v.ID == "" {
			return nil, normErr(records.CategoryVotes, "propublica", "vote %d: missing id", i)
		}
		if v.Title == "" {
			return nil, normErr(records.CategoryVotes, "propublica", "vote %s: missing title", v.ID)
		}
		if v.Vote == "" {
			return nil, normErr(records.CategoryVotes, "propublica", "vote %s: missing position", v.ID)
		}

		date, err := parseDate(v.Date)
		if err != nil {
			return nil, normErr(records.CategoryVotes, "propublica", "vote %s: %v", v.ID, err)
		}

		categories := records.BillCategories(v.Title, v.BillSummary)
		position := strings.ToLower(v.Vote)

		votes = append(votes, records.VoteEvent{
			ID:          v.ID,
			BillNumber:  v.BillNumber,
			Title:       v.Title,
			Date:        date,
			Position:    position,
			Result:      v.Result,
			BillSummary: v.BillSummary,
			Categories:  categories,
			Industries:  records.IndustryStances(position, categories),
		})
	}

	return &Snapshot{
		SubjectID: subjectID,
		Category:  records.CategoryVotes,
		Votes:     votes,
	}, nil
}

func convertDonations(subjectID string, body []byte) (*Snapshot, error) {
	var payload struct {
		Summary *struct {
			TotalRaised             float64 `json:"totalRaised"`
			IndividualContributions float64 `json:"individualContributions"`
			PACContributions        float64 `json:"pacContributions"`
			SelfFunding             float64 `json:"selfFunding"`
		} `json:"summary"`
		TopDonors []struct {
			Name     string  `json:"name"`
			Amount   float64 `json:"amount"`
			Type     string  `json:"type"`
			Industry string  `json:"industry"`
			Date     string  `json:"date"`
		} `json:"topDonors"`
		TopIndustries []struct {
			Industry string  `json:"industry"`
			Amount   float64 `json:"amount"`
		} `json:"topIndustries"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, normErr(records.CategoryDonations, "opensecrets", "invalid payload: %v", err)
	}
	if payload.Summary == nil {
		return nil, normErr(records.CategoryDonations, "opensecrets", "missing summary")
	}

	set := &records.DonationSet{
		Summary: records.DonationSummary{
			TotalRaised:             payload.Summary.TotalRaised,
			IndividualContributions: payload.Summary.IndividualContributions,
			PACContributions:        payload.Summary.PACContributions,
			SelfFunding:             payload.Summary.SelfFunding,
		},
	}

	for i, d := range payload.TopDonors {
		if d.Name == "" {
			return nil, normErr(records.CategoryDonations, "opensecrets", "donor %d: missing name", i)
		}

		// Donor dates are optional in the feed; donors without one are
		// still counted but excluded from timing analysis.
		var date time.Time
		if d.Date != "" {
			parsed, err := parseDate(d.Date)
			if err != nil {
				return nil, normErr(records.CategoryDonations, "opensecrets", "donor %s: %v", d.Name, err)
			}
			date = parsed
		}

		donorType := records.DonorTypeIndividual
		if strings.EqualFold(d.Type, "pac") {
			donorType = records.DonorTypePAC
		}

		set.TopDonors = append(set.TopDonors, records.DonationEvent{
			Donor:    d.Name,
			Amount:   d.Amount,
			Type:     donorType,
			Industry: records.IndustryForDonor(d.Name, d.Industry),
			Date:     date,
		})
	}

	for _, ind := range payload.TopIndustries {
		if ind.Industry == "" {
			continue
		}
		set.TopIndustries = append(set.TopIndustries, records.IndustryTotal{
			Industry: ind.Industry,
			Amount:   ind.Amount,
		})
	}

	return &Snapshot{
		SubjectID: subjectID,
		Category:  records.CategoryDonations,
		Donations: set,
	}, nil
}

func convertTrades(subjectID string, body []byte) (*Snapshot, error) {
	var payload struct {
		Trades []struct {
			ID              string `json:"id"`
			Date            string `json:"date"`
			Ticker          string `json:"ticker"`
			AssetName       string `json:"assetName"`
			TransactionType string `json:"transactionType"`
			Amount          string `json:"amount"`
			FilingDate      string `json:"filingDate"`
		} `json:"trades"`
		ConflictAlerts []struct {
			TradeID  string `json:"tradeId"`
			Reason   string `json:"reason"`
			Severity string `json:"severity"`
		} `json:"conflictAlerts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, normErr(records.CategoryTrades, "fec", "invalid payload: %v", err)
	}

	set := &records.TradeSet{}
	for i, tr := range payload.Trades {
		if tr.ID == "" {
			return nil, normErr(records.CategoryTrades, "fec", "trade %d: missing id", i)
		}
		if tr.AssetName == "" {
			return nil, normErr(records.CategoryTrades, "fec", "trade %s: missing asset name", tr.ID)
		}

		date, err := parseDate(tr.Date)
		if err != nil {
			return nil, normErr(records.CategoryTrades, "fec", "trade %s: %v", tr.ID, err)
		}

		txType := strings.ToLower(tr.TransactionType)
		if txType != records.TradePurchase && txType != records.TradeSale {
			return nil, normErr(records.CategoryTrades, "fec", "trade %s: unknown transaction type %q", tr.ID, tr.TransactionType)
		}

		var filedAt time.Time
		if tr.FilingDate != "" {
			parsed, err := parseDate(tr.FilingDate)
			if err != nil {
				return nil, normErr(records.CategoryTrades, "fec", "trade %s: %v", tr.ID, err)
			}
			filedAt = parsed
		}

		set.Trades = append(set.Trades, records.TradeEvent{
			ID:      tr.ID,
			Date:    date,
			Ticker:  tr.Ticker,
			Asset:   tr.AssetName,
			Type:    txType,
			Amount:  tr.Amount,
			FiledAt: filedAt,
		})
	}

	for _, alert := range payload.ConflictAlerts {
		if alert.TradeID == "" {
			continue
		}
		set.Conflicts = append(set.Conflicts, records.ConflictNote{
			TradeID:  alert.TradeID,
			Reason:   alert.Reason,
			Severity: alert.Severity,
		})
	}

	return &Snapshot{
		SubjectID: subjectID,
		Category:  records.CategoryTrades,
		Trades:    set,
	}, nil
}

func convertPromises(subjectID string, body []byte) (*Snapshot, error) {
	var payload struct {
		Items []struct {
			ID       string `json:"id"`
			Text     string `json:"text"`
			Category string `json:"category"`
			Source   string `json:"source"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, normErr(records.CategoryPromises, "campaign", "invalid payload: %v", err)
	}

	promises := make([]records.PromiseRecord, 0, len(payload.Items))
	for i, item := range payload.Items {
		if item.ID == "" {
			return nil, normErr(records.CategoryPromises, "campaign", "promise %d: missing id", i)
		}
		if item.Text == "" {
			return nil, normErr(records.CategoryPromises, "campaign", "promise %s: missing text", item.ID)
		}
		if item.Category == "" {
			return nil, normErr(records.CategoryPromises, "campaign", "promise %s: missing category", item.ID)
		}

		promises = append(promises, records.PromiseRecord{
			ID:       item.ID,
			Text:     item.Text,
			Category: strings.ToLower(item.Category),
			Source:   item.Source,
		})
	}

	return &Snapshot{
		SubjectID: subjectID,
		Category:  records.CategoryPromises,
		Promises:  promises,
	}, nil
}

// parseDate accepts date-only and RFC 3339 timestamps, normalized to UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func normErr(category records.Category, provider, format string, args ...any) *NormalizationError {
	return &NormalizationError{
		Category: category,
		Provider: provider,
		Reason:   fmt.Sprintf(format, args...),
	}
}
