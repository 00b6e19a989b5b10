package memory

import (
	"context"
	"slices"
	"time"

	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// CreateOrganization creates a new organization in memory.
func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if organization already exists
	if _, exists := s.committed.organizations[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	s.committed.organizations[org.OrgID] = *org

	return nil
}

// UpdateOrganization updates an existing organization's settings.
// The stored balance is kept; only the ledger moves it.
func (s *Store) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.committed.organizations[org.OrgID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	// Update timestamp
	org.UpdatedAt = time.Now()

	clone := *org
	clone.TokenBalance = existing.TokenBalance
	s.committed.organizations[org.OrgID] = clone

	return nil
}

// PutJobType creates or replaces a job type in the catalog.
func (s *Store) PutJobType(ctx context.Context, jobType *models.JobType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed.jobTypes[jobType.JobTypeID] = *jobType

	return nil
}

// CreatePerformer adds a performer to the directory.
func (s *Store) CreatePerformer(ctx context.Context, performer *models.Performer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.committed.performers[performer.PerformerID]; exists {
		return store.ErrPerformerAlreadyExists
	}

	clone := *performer
	clone.Skills = slices.Clone(performer.Skills)
	s.committed.performers[performer.PerformerID] = clone

	return nil
}
