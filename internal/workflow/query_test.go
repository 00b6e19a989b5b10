package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

func TestGetTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.performer(t, "ada", 0, f.jobType.JobTypeID)
	bob := f.performer(t, "bob", time.Hour)
	ticket := f.createTicket(t, 1, models.PriorityMedium)

	for _, actor := range []*auth.Actor{f.owner, f.operator, ada, requester(f.org.OrgID, auth.CompanyRoleViewer)} {
		got, err := f.engine.GetTicket(ctx, actor, ticket.TicketID)
		require.NoError(t, err)
		require.Equal(t, ticket.TicketID, got.TicketID)
	}

	_, err := f.engine.GetTicket(ctx, bob, ticket.TicketID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.GetTicket(ctx, requester(uuid.Must(uuid.NewV7()), auth.CompanyRoleOwner), ticket.TicketID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.GetTicket(ctx, f.owner, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrTicketNotFound)
}

func TestListTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.performer(t, "ada", 0, f.jobType.JobTypeID)

	assigned := f.createTicket(t, 1, models.PriorityMedium)
	f.engine = New(f.engine.ledger, f.engine.assigner, WithAutoAssign(false))
	unassigned := f.createTicket(t, 1, models.PriorityMedium)
	f.move(t, ada, assigned.TicketID, models.StatusInProgress, "")

	all, err := f.engine.ListTickets(ctx, f.owner, f.org.OrgID, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, unassigned.TicketID, all[0].TicketID)

	inProgress, err := f.engine.ListTickets(ctx, f.owner, f.org.OrgID, TicketFilter{Status: models.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	require.Equal(t, assigned.TicketID, inProgress[0].TicketID)

	// performers cannot widen the filter past their own tickets
	mine, err := f.engine.ListTickets(ctx, ada, f.org.OrgID, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, assigned.TicketID, mine[0].TicketID)

	paged, err := f.engine.ListTickets(ctx, f.operator, f.org.OrgID, TicketFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, assigned.TicketID, paged[0].TicketID)

	_, err = f.engine.ListTickets(ctx, requester(uuid.Must(uuid.NewV7()), auth.CompanyRoleOwner), f.org.OrgID, TicketFilter{})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.ListTickets(ctx, f.owner, f.org.OrgID, TicketFilter{Status: "ARCHIVED"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.performer(t, "ada", 0, f.jobType.JobTypeID)
	ticket := f.createTicket(t, 1, models.PriorityMedium)

	entry, err := f.engine.GetAssignment(ctx, f.operator, ticket.TicketID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentAuto, entry.Reason)
	require.Equal(t, ada.UserID, *entry.PerformerID)
	require.Equal(t, true, entry.Metadata["skill_filtered"])
	require.Equal(t, 1, entry.Metadata["skilled_candidate_count"])

	_, err = f.engine.GetAssignment(ctx, f.owner, ticket.TicketID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestReassignTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.createTicket(t, 1, models.PriorityMedium)
	require.Nil(t, ticket.AssignedTo)

	ada := f.performer(t, "ada", 0)

	_, err := f.engine.ReassignTicket(ctx, f.owner, ticket.TicketID, ada.UserID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.engine.ReassignTicket(ctx, f.operator, ticket.TicketID, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrPerformerNotFound)

	got, err := f.engine.ReassignTicket(ctx, f.operator, ticket.TicketID, ada.UserID)
	require.NoError(t, err)
	require.Equal(t, ada.UserID, *got.AssignedTo)

	// the new assignee can now pick up the work and gets paid on approval
	f.move(t, ada, ticket.TicketID, models.StatusInProgress, "")
	f.move(t, ada, ticket.TicketID, models.StatusInReview, "")
	f.move(t, f.owner, ticket.TicketID, models.StatusDone, "")
	require.Len(t, f.earnings(t, ada.UserID, models.ReasonJobPayout), 1)

	_, err = f.engine.ReassignTicket(ctx, f.operator, ticket.TicketID, ada.UserID)
	require.ErrorIs(t, err, ErrIllegalTransition)
}
