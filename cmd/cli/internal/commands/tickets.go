package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"connectrpc.com/connect"
	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
)

type TicketsCmd struct {
	Create     TicketCreateCmd     `cmd:"" help:"Open a ticket"`
	Get        TicketGetCmd        `cmd:"" help:"Show a ticket"`
	List       TicketListCmd       `cmd:"" help:"List an organization's tickets"`
	Revisions  TicketRevisionsCmd  `cmd:"" help:"List a ticket's review rounds"`
	Assignment TicketAssignmentCmd `cmd:"" help:"Show the intake assignment decision (operators only)"`
	Transition TransitionCmd       `cmd:"" help:"Move a ticket to another status"`
	Overrides  OverridesCmd        `cmd:"" help:"Set or clear cost and payout overrides (operators only)"`
	Reassign   ReassignCmd         `cmd:"" help:"Assign a ticket to a performer (operators only)"`
}

type TicketCreateCmd struct {
	ClientFlags `embed:""`

	Org         string `help:"organization id" required:""`
	Title       string `help:"ticket title" required:""`
	Description string `help:"ticket description" default:""`
	JobType     string `help:"job type id, untyped tickets are free" default:""`
	Quantity    int    `help:"number of units" default:"1"`
	Priority    string `help:"priority (low, medium, high, urgent)" default:"medium"`
}

func (c *TicketCreateCmd) Run(ctx context.Context, globals *Globals) error {
	orgID, err := parseUUID("org", c.Org)
	if err != nil {
		return err
	}
	jobTypeID, err := parseOptionalUUID("job type", c.JobType)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.CreateTicket(ctx, connect.NewRequest(&v1.CreateTicketRequest{
		OrgID:       orgID,
		Title:       c.Title,
		Description: c.Description,
		JobTypeID:   jobTypeID,
		Quantity:    c.Quantity,
		Priority:    strings.ToUpper(c.Priority),
	}))
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return c.printTicket(os.Stdout, resp.Msg.Ticket)
}

type TicketGetCmd struct {
	ClientFlags `embed:""`

	TicketID string `arg:"" help:"ticket id"`
}

func (c *TicketGetCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.GetTicket(ctx, connect.NewRequest(&v1.GetTicketRequest{TicketID: ticketID}))
	if err != nil {
		return fmt.Errorf("failed to get ticket: %w", err)
	}

	return c.printTicket(os.Stdout, resp.Msg.Ticket)
}

type TicketListCmd struct {
	ClientFlags `embed:""`

	Org        string `help:"organization id" required:""`
	Status     string `help:"status to filter by (todo, in_progress, in_review, done)" default:""`
	AssignedTo string `help:"performer id to filter by" default:""`
	Page       int    `help:"Page number" default:"1"`
	PageSize   int    `help:"Number of tickets per page" default:"20"`
}

func (c *TicketListCmd) Run(ctx context.Context, globals *Globals) error {
	orgID, err := parseUUID("org", c.Org)
	if err != nil {
		return err
	}
	assignedTo, err := parseOptionalUUID("assigned to", c.AssignedTo)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.ListTickets(ctx, connect.NewRequest(&v1.ListTicketsRequest{
		OrgID:      orgID,
		Status:     strings.ToUpper(c.Status),
		AssignedTo: assignedTo,
		Page:       c.Page,
		PageSize:   c.PageSize,
	}))
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	if c.JSON {
		return printJSON(os.Stdout, resp.Msg)
	}
	return printTickets(os.Stdout, resp.Msg.Tickets)
}

type TicketRevisionsCmd struct {
	ClientFlags `embed:""`

	TicketID string `arg:"" help:"ticket id"`
}

func (c *TicketRevisionsCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.ListRevisions(ctx, connect.NewRequest(&v1.ListRevisionsRequest{TicketID: ticketID}))
	if err != nil {
		return fmt.Errorf("failed to list revisions: %w", err)
	}

	if c.JSON {
		return printJSON(os.Stdout, resp.Msg)
	}
	return printRevisions(os.Stdout, resp.Msg.Revisions)
}

type TicketAssignmentCmd struct {
	ClientFlags `embed:""`

	TicketID string `arg:"" help:"ticket id"`
}

func (c *TicketAssignmentCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.GetAssignment(ctx, connect.NewRequest(&v1.GetAssignmentRequest{TicketID: ticketID}))
	if err != nil {
		return fmt.Errorf("failed to get assignment: %w", err)
	}

	return printJSON(os.Stdout, resp.Msg.Assignment)
}

type TransitionCmd struct {
	ClientFlags `embed:""`

	TicketID string `arg:"" help:"ticket id"`
	Status   string `arg:"" help:"target status (in_progress, in_review, done)"`
	Note     string `help:"revision note, required when sending work back" default:""`
}

func (c *TransitionCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.TransitionStatus(ctx, connect.NewRequest(&v1.TransitionStatusRequest{
		TicketID:     ticketID,
		Status:       strings.ToUpper(c.Status),
		RevisionNote: c.Note,
	}))
	if err != nil {
		return fmt.Errorf("failed to transition ticket: %w", err)
	}

	return c.printTicket(os.Stdout, resp.Msg.Ticket)
}

type OverridesCmd struct {
	ClientFlags `embed:""`

	TicketID    string `arg:"" help:"ticket id"`
	Cost        *int64 `help:"total cost override in tokens"`
	Payout      *int64 `help:"total payout override in tokens"`
	ClearCost   bool   `help:"remove the cost override" default:"false"`
	ClearPayout bool   `help:"remove the payout override" default:"false"`
}

func (c *OverridesCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.UpdateOverrides(ctx, connect.NewRequest(&v1.UpdateOverridesRequest{
		TicketID:            ticketID,
		CostOverride:        c.Cost,
		PayoutOverride:      c.Payout,
		ClearCostOverride:   c.ClearCost,
		ClearPayoutOverride: c.ClearPayout,
	}))
	if err != nil {
		return fmt.Errorf("failed to update overrides: %w", err)
	}

	return c.printTicket(os.Stdout, resp.Msg.Ticket)
}

type ReassignCmd struct {
	ClientFlags `embed:""`

	TicketID  string `arg:"" help:"ticket id"`
	Performer string `arg:"" help:"performer id"`
}

func (c *ReassignCmd) Run(ctx context.Context, globals *Globals) error {
	ticketID, err := parseUUID("ticket id", c.TicketID)
	if err != nil {
		return err
	}
	performerID, err := parseUUID("performer id", c.Performer)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Tickets.ReassignTicket(ctx, connect.NewRequest(&v1.ReassignTicketRequest{
		TicketID:    ticketID,
		PerformerID: performerID,
	}))
	if err != nil {
		return fmt.Errorf("failed to reassign ticket: %w", err)
	}

	return c.printTicket(os.Stdout, resp.Msg.Ticket)
}

func (f *ClientFlags) printTicket(w io.Writer, t *v1.Ticket) error {
	if f.JSON {
		return printJSON(w, t)
	}
	return printTicket(w, t)
}

func printTicket(w io.Writer, t *v1.Ticket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ticket:\t%s (#%d)\n", t.TicketID, t.Number)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Quantity:\t%d\n", t.Quantity)
	fmt.Fprintf(tw, "Job type:\t%s\n", uuidOrDash(t.JobTypeID))
	fmt.Fprintf(tw, "Cost:\t%s (override %s)\n", int64OrDash(t.EffectiveCost), int64OrDash(t.CostOverride))
	fmt.Fprintf(tw, "Payout:\t%s (override %s)\n", int64OrDash(t.EffectivePayout), int64OrDash(t.PayoutOverride))
	fmt.Fprintf(tw, "Assigned to:\t%s\n", uuidOrDash(t.AssignedTo))
	return tw.Flush()
}

func printTickets(w io.Writer, tickets []*v1.Ticket) error {
	if len(tickets) == 0 {
		_, err := fmt.Fprintln(w, "No tickets found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tTICKET\tSTATUS\tPRIORITY\tCOST\tASSIGNED TO\tTITLE")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Number, t.TicketID, t.Status, t.Priority, int64OrDash(t.EffectiveCost), uuidOrDash(t.AssignedTo), t.Title)
	}
	return tw.Flush()
}

func printRevisions(w io.Writer, revisions []*v1.Revision) error {
	if len(revisions) == 0 {
		_, err := fmt.Fprintln(w, "No revisions yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tSUBMITTED\tFEEDBACK")
	for _, r := range revisions {
		feedback := r.Feedback
		if feedback == "" {
			feedback = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Number, r.SubmittedAt.Format("2006-01-02 15:04"), feedback)
	}
	return tw.Flush()
}
