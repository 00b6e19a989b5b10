package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

// CreateOrganization creates a new organization in the database.
// The organization's opening balance is written as given.
func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.TokenBalance,
		org.PlanID,
		org.MaxInProgress,
		org.AutoAssign,
		org.Active,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganizationAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

// UpdateOrganization updates an existing organization's settings.
// The balance column is never written here.
func (s *Store) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations SET
			name = $2,
			plan_id = $3,
			max_in_progress = $4,
			auto_assign = $5,
			active = $6,
			updated_at = $7
		WHERE org_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.PlanID,
		org.MaxInProgress,
		org.AutoAssign,
		org.Active,
		org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update organization: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Msg("Updated organization")

	return nil
}

// PutJobType creates or replaces a job type in the catalog.
func (s *Store) PutJobType(ctx context.Context, jobType *models.JobType) error {
	query := `
		INSERT INTO job_types (job_type_id, name, unit_cost, unit_payout)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_type_id) DO UPDATE SET
			name = EXCLUDED.name,
			unit_cost = EXCLUDED.unit_cost,
			unit_payout = EXCLUDED.unit_payout
	`

	_, err := s.pool.Exec(ctx, query,
		jobType.JobTypeID,
		jobType.Name,
		jobType.UnitCost,
		jobType.UnitPayout,
	)
	if err != nil {
		return fmt.Errorf("failed to put job type: %w", mapPostgresError(err))
	}

	return nil
}

// CreatePerformer adds a performer and their skills to the directory.
func (s *Store) CreatePerformer(ctx context.Context, performer *models.Performer) error {
	err := pgx.BeginFunc(ctx, s.pool, func(pgTx pgx.Tx) error {
		_, err := pgTx.Exec(ctx, `
			INSERT INTO performers (performer_id, name, active, token_balance, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`,
			performer.PerformerID,
			performer.Name,
			performer.Active,
			performer.TokenBalance,
			performer.CreatedAt,
		)
		if err != nil {
			return err
		}

		for _, skill := range performer.Skills {
			_, err := pgTx.Exec(ctx,
				`INSERT INTO performer_skills (performer_id, job_type_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				performer.PerformerID, skill)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrPerformerAlreadyExists
		}
		return fmt.Errorf("failed to create performer: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("performer_id", performer.PerformerID.String()).
		Int("skills", len(performer.Skills)).
		Msg("Created performer")

	return nil
}
