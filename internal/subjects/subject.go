// Package subjects implements the roster of tracked elected officials.
// It provides types, data access, and business logic for roster CRUD,
// seat-key identity, and the active-subject enumeration the pipeline
// batches over.
package subjects

import (
	"regexp"
	"time"
)

// Chambers a subject can hold a seat in.
const (
	ChamberHouse  = "house"
	ChamberSenate = "senate"
)

// seatKeyPattern constrains subject ids to jurisdiction-seat keys:
// lowercase state code plus a district number or senate seat, e.g. "ca-12"
// or "vt-sen-1".
var seatKeyPattern = regexp.MustCompile(`^[a-z]{2}-(?:[0-9]{1,2}|sen-[12])$`)

// ValidSeatKey reports whether id is a well-formed seat key.
func ValidSeatKey(id string) bool {
	return seatKeyPattern.MatchString(id)
}

// Subject is one tracked elected official. The id is the stable seat key;
// everything else is mutable roster data. The nullable score fields are
// externally sourced overrides consumed by the aggregator.
type Subject struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Chamber            string     `json:"chamber"`
	State              string     `json:"state"`
	District           *string    `json:"district,omitempty"`
	Party              string     `json:"party,omitempty"`
	ProviderRef        string     `json:"provider_ref"`
	Email              *string    `json:"email,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Website            *string    `json:"website,omitempty"`
	TransparencyScore  *float64   `json:"transparency_score,omitempty"`
	AlignmentScore     *float64   `json:"alignment_score,omitempty"`
	PeerMissedVoteRate *float64   `json:"peer_missed_vote_rate,omitempty"`
	LastOutreachAt     *time.Time `json:"last_outreach_at,omitempty"`
	Active             bool       `json:"active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to register a new subject.
type CreateCommand struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Chamber     string  `json:"chamber"`
	State       string  `json:"state"`
	District    *string `json:"district,omitempty"`
	Party       string  `json:"party,omitempty"`
	ProviderRef string  `json:"provider_ref"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// Validate checks the command's identity fields.
func (cmd CreateCommand) Validate() error {
	if !ValidSeatKey(cmd.ID) {
		return ErrInvalidSeatKey
	}
	if cmd.Chamber != ChamberHouse && cmd.Chamber != ChamberSenate {
		return ErrInvalidChamber
	}
	if cmd.Name == "" || cmd.ProviderRef == "" {
		return ErrInvalidSubject
	}
	return nil
}

// UpdateCommand carries mutable roster data for an existing subject. Nil
// fields leave the current value unchanged; identity fields cannot change.
type UpdateCommand struct {
	Name               *string    `json:"name,omitempty"`
	Party              *string    `json:"party,omitempty"`
	ProviderRef        *string    `json:"provider_ref,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Website            *string    `json:"website,omitempty"`
	TransparencyScore  *float64   `json:"transparency_score,omitempty"`
	AlignmentScore     *float64   `json:"alignment_score,omitempty"`
	PeerMissedVoteRate *float64   `json:"peer_missed_vote_rate,omitempty"`
	LastOutreachAt     *time.Time `json:"last_outreach_at,omitempty"`
	Active             *bool      `json:"active,omitempty"`
}
