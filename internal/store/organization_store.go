package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/tokenboard/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = fmt.Errorf("organization %w", ErrNotFound)
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations are created at signup and never deleted, only deactivated.
// The token balance is not writable through this interface; it only moves
// through Tx.SetOrganizationBalance alongside a ledger entry.
type OrganizationStore interface {
	// CreateOrganization creates a new organization in the store.
	// Returns ErrOrganizationAlreadyExists if an organization with the same ID already exists.
	CreateOrganization(ctx context.Context, org *models.Organization) error

	// UpdateOrganization updates the organization's settings (name, plan,
	// concurrency limit, auto-assign, active flag). The balance is ignored.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	UpdateOrganization(ctx context.Context, org *models.Organization) error
}
