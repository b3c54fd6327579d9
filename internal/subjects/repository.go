package subjects

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/opendocket/docket/pkg/pagination"
	"github.com/opendocket/docket/pkg/query"
	"github.com/opendocket/docket/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a roster repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "subjects"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Subject], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "State", "Party")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count subjects: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	subs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubject)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}

	result := pagination.NewPageResult(subs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Subject, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSubject)
	if err != nil {
		return nil, repository.Translate(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Subject, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO subjects(id, name, chamber, state, district, party, provider_ref, email, phone, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, name, chamber, state, district, party, provider_ref, email, phone, website,
			transparency_score, alignment_score, peer_missed_vote_rate, last_outreach_at,
			active, created_at, updated_at`

	insertArgs := []any{
		cmd.ID,
		cmd.Name,
		cmd.Chamber,
		cmd.State,
		cmd.District,
		cmd.Party,
		cmd.ProviderRef,
		cmd.Email,
		cmd.Phone,
		cmd.Website,
	}

	s, err := repository.Transact(ctx, r.db, func(tx *sql.Tx) (Subject, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanSubject)
	})
	if err != nil {
		return nil, repository.Translate(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("subject created", "id", s.ID, "name", s.Name)
	return &s, nil
}

func (r *repo) Update(ctx context.Context, id string, cmd UpdateCommand) (*Subject, error) {
	q := `
		UPDATE subjects SET
			name = COALESCE($2, name),
			party = COALESCE($3, party),
			provider_ref = COALESCE($4, provider_ref),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			website = COALESCE($7, website),
			transparency_score = COALESCE($8, transparency_score),
			alignment_score = COALESCE($9, alignment_score),
			peer_missed_vote_rate = COALESCE($10, peer_missed_vote_rate),
			last_outreach_at = COALESCE($11, last_outreach_at),
			active = COALESCE($12, active),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, chamber, state, district, party, provider_ref, email, phone, website,
			transparency_score, alignment_score, peer_missed_vote_rate, last_outreach_at,
			active, created_at, updated_at`

	updateArgs := []any{
		id,
		cmd.Name,
		cmd.Party,
		cmd.ProviderRef,
		cmd.Email,
		cmd.Phone,
		cmd.Website,
		cmd.TransparencyScore,
		cmd.AlignmentScore,
		cmd.PeerMissedVoteRate,
		cmd.LastOutreachAt,
		cmd.Active,
	}

	s, err := repository.Transact(ctx, r.db, func(tx *sql.Tx) (Subject, error) {
		return repository.QueryOne(ctx, tx, q, updateArgs, scanSubject)
	})
	if err != nil {
		return nil, repository.Translate(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("subject updated", "id", s.ID)
	return &s, nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	_, err := repository.Transact(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM subjects WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.Translate(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("subject deleted", "id", id)
	return nil
}

// ListActiveIDs returns the seat keys of every active subject in stable
// order. This is the batch enumeration the pipeline runs over.
func (r *repo) ListActiveIDs(ctx context.Context) ([]string, error) {
	ids, err := repository.QueryMany(
		ctx, r.db,
		"SELECT id FROM subjects WHERE active ORDER BY id",
		nil,
		func(s repository.Scanner) (string, error) {
			var id string
			err := s.Scan(&id)
			return id, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	return ids, nil
}
