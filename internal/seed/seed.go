// Package seed loads development fixtures (job types, organizations and
// performers) from a YAML file into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
	"gopkg.in/yaml.v3"
)

const openingBalanceNote = "opening balance"

// File is the seed document.
type File struct {
	JobTypes      []JobType      `yaml:"job_types"`
	Organizations []Organization `yaml:"organizations"`
	Performers    []Performer    `yaml:"performers"`
}

type JobType struct {
	ID         uuid.UUID `yaml:"id"`
	Name       string    `yaml:"name"`
	UnitCost   int64     `yaml:"unit_cost"`
	UnitPayout int64     `yaml:"unit_payout"`
}

type Organization struct {
	ID            uuid.UUID `yaml:"id"`
	Name          string    `yaml:"name"`
	Balance       int64     `yaml:"balance"`
	MaxInProgress int       `yaml:"max_in_progress"`
	AutoAssign    *bool     `yaml:"auto_assign"` // defaults to true
	Active        *bool     `yaml:"active"`      // defaults to true
}

type Performer struct {
	ID     uuid.UUID `yaml:"id"`
	Name   string    `yaml:"name"`
	Skills []string  `yaml:"skills"` // job type names
	Active *bool     `yaml:"active"` // defaults to true
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a seed document, fills in missing ids and validates it.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	file.assignIDs()

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) assignIDs() {
	for i := range f.JobTypes {
		if f.JobTypes[i].ID == uuid.Nil {
			f.JobTypes[i].ID = uuid.Must(uuid.NewV7())
		}
	}
	for i := range f.Organizations {
		if f.Organizations[i].ID == uuid.Nil {
			f.Organizations[i].ID = uuid.Must(uuid.NewV7())
		}
	}
	for i := range f.Performers {
		if f.Performers[i].ID == uuid.Nil {
			f.Performers[i].ID = uuid.Must(uuid.NewV7())
		}
	}
}

// Validate checks names are present and unique, amounts are in range
// and every performer skill names a job type in the file.
func (f *File) Validate() error {
	jobTypes := map[string]bool{}
	for _, jt := range f.JobTypes {
		if strings.TrimSpace(jt.Name) == "" {
			return errors.New("job type name is required")
		}
		if jobTypes[jt.Name] {
			return fmt.Errorf("duplicate job type %q", jt.Name)
		}
		if jt.UnitCost < 0 || jt.UnitPayout < 0 {
			return fmt.Errorf("job type %q: unit cost and payout must not be negative", jt.Name)
		}
		if jt.UnitCost > models.MaxAmount || jt.UnitPayout > models.MaxAmount {
			return fmt.Errorf("job type %q: unit cost and payout must be at most %d", jt.Name, models.MaxAmount)
		}
		jobTypes[jt.Name] = true
	}

	for _, org := range f.Organizations {
		if strings.TrimSpace(org.Name) == "" {
			return errors.New("organization name is required")
		}
		if org.Balance < 0 {
			return fmt.Errorf("organization %q: balance must not be negative", org.Name)
		}
		if org.Balance > models.MaxAmount {
			return fmt.Errorf("organization %q: balance must be at most %d", org.Name, models.MaxAmount)
		}
		if org.MaxInProgress < 0 {
			return fmt.Errorf("organization %q: max_in_progress must not be negative", org.Name)
		}
	}

	for _, p := range f.Performers {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("performer name is required")
		}
		for _, skill := range p.Skills {
			if !jobTypes[skill] {
				return fmt.Errorf("performer %q: unknown skill %q", p.Name, skill)
			}
		}
	}

	return nil
}

// Apply writes the seed into the ledger's store. Organizations start empty
// and receive their opening balance as a PURCHASE entry.
func (f *File) Apply(ctx context.Context, l *ledger.Ledger) error {
	st := l.Store()
	now := l.Now()

	skillIDs := make(map[string]uuid.UUID, len(f.JobTypes))
	for _, jt := range f.JobTypes {
		if err := st.PutJobType(ctx, &models.JobType{
			JobTypeID:  jt.ID,
			Name:       jt.Name,
			UnitCost:   jt.UnitCost,
			UnitPayout: jt.UnitPayout,
		}); err != nil {
			return fmt.Errorf("failed to seed job type %q: %w", jt.Name, err)
		}
		skillIDs[jt.Name] = jt.ID
	}

	for _, org := range f.Organizations {
		if err := seedOrganization(ctx, l, org, now); err != nil {
			return err
		}
	}

	for i, p := range f.Performers {
		skills := make([]uuid.UUID, 0, len(p.Skills))
		for _, name := range p.Skills {
			skills = append(skills, skillIDs[name])
		}

		err := st.CreatePerformer(ctx, &models.Performer{
			PerformerID: p.ID,
			Name:        p.Name,
			Active:      boolOr(p.Active, true),
			Skills:      skills,
			// keeps the least-loaded tie break in file order
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
		switch {
		case errors.Is(err, store.ErrPerformerAlreadyExists):
			log.Debug().Str("performer_id", p.ID.String()).Msg("Performer already seeded")
		case err != nil:
			return fmt.Errorf("failed to seed performer %q: %w", p.Name, err)
		}
	}

	log.Info().
		Int("job_types", len(f.JobTypes)).
		Int("organizations", len(f.Organizations)).
		Int("performers", len(f.Performers)).
		Msg("Seed data applied")

	return nil
}

func seedOrganization(ctx context.Context, l *ledger.Ledger, org Organization, now time.Time) error {
	err := l.Store().CreateOrganization(ctx, &models.Organization{
		OrgID:         org.ID,
		Name:          org.Name,
		MaxInProgress: org.MaxInProgress,
		AutoAssign:    boolOr(org.AutoAssign, true),
		Active:        boolOr(org.Active, true),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if errors.Is(err, store.ErrOrganizationAlreadyExists) {
		log.Debug().Str("org_id", org.ID.String()).Msg("Organization already seeded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed organization %q: %w", org.Name, err)
	}

	if org.Balance == 0 {
		return nil
	}

	err = l.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := l.Append(ctx, tx, ledger.EntrySpec{
			OrgID:     org.ID,
			Direction: models.DirectionCredit,
			Amount:    org.Balance,
			Reason:    models.ReasonPurchase,
			Note:      openingBalanceNote,
			Metadata:  map[string]any{"reference": "seed"},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to credit opening balance for %q: %w", org.Name, err)
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
