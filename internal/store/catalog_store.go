package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/tokenboard/internal/models"
)

var ErrPerformerAlreadyExists = errors.New("performer already exists")

// CatalogStore loads the externally owned catalog: job types and the
// performer directory. The engine only reads these.
type CatalogStore interface {
	PutJobType(ctx context.Context, jobType *models.JobType) error
	CreatePerformer(ctx context.Context, performer *models.Performer) error
}
