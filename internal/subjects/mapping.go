package subjects

import (
	"net/url"
	"strconv"

	"github.com/opendocket/docket/pkg/query"
	"github.com/opendocket/docket/pkg/repository"
)

var projection = query.
	NewProjection("public", "subjects", "s").
	Map("id", "ID").
	Map("name", "Name").
	Map("chamber", "Chamber").
	Map("state", "State").
	Map("district", "District").
	Map("party", "Party").
	Map("provider_ref", "ProviderRef").
	Map("email", "Email").
	Map("phone", "Phone").
	Map("website", "Website").
	Map("transparency_score", "TransparencyScore").
	Map("alignment_score", "AlignmentScore").
	Map("peer_missed_vote_rate", "PeerMissedVoteRate").
	Map("last_outreach_at", "LastOutreachAt").
	Map("active", "Active").
	Map("created_at", "CreatedAt").
	Map("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field: "ID",
}

// Filters contains optional filtering criteria for roster queries. Nil
// fields are ignored. Chamber, State, Party, and Active use exact matching;
// Name uses case-insensitive contains matching.
type Filters struct {
	Name    *string `json:"name,omitempty"`
	Chamber *string `json:"chamber,omitempty"`
	State   *string `json:"state,omitempty"`
	Party   *string `json:"party,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("Chamber", f.Chamber).
		WhereEquals("State", f.State).
		WhereEquals("Party", f.Party).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if c := values.Get("chamber"); c != "" {
		f.Chamber = &c
	}

	if s := values.Get("state"); s != "" {
		f.State = &s
	}

	if p := values.Get("party"); p != "" {
		f.Party = &p
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanSubject(s repository.Scanner) (Subject, error) {
	var sub Subject
	err := s.Scan(
		&sub.ID,
		&sub.Name,
		&sub.Chamber,
		&sub.State,
		&sub.District,
		&sub.Party,
		&sub.ProviderRef,
		&sub.Email,
		&sub.Phone,
		&sub.Website,
		&sub.TransparencyScore,
		&sub.AlignmentScore,
		&sub.PeerMissedVoteRate,
		&sub.LastOutreachAt,
		&sub.Active,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	return sub, err
}
