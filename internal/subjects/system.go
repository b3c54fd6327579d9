package subjects

import (
	"context"

	"github.com/opendocket/docket/pkg/pagination"
)

// System defines the public contract for roster operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Subject], error)

	Find(ctx context.Context, id string) (*Subject, error)
	Create(ctx context.Context, cmd CreateCommand) (*Subject, error)
	Update(ctx context.Context, id string, cmd UpdateCommand) (*Subject, error)
	Delete(ctx context.Context, id string) error

	ListActiveIDs(ctx context.Context) ([]string, error)
}
