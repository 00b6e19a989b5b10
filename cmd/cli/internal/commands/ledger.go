package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
)

type BalanceCmd struct {
	ClientFlags `embed:""`

	Org       string `help:"organization whose balance to show"`
	Performer string `help:"performer whose earnings to show"`
}

func (c *BalanceCmd) Run(ctx context.Context, globals *Globals) error {
	if (c.Org == "") == (c.Performer == "") {
		return errors.New("exactly one of --org or --performer is required")
	}
	orgID, err := parseOptionalUUID("org", c.Org)
	if err != nil {
		return err
	}
	performerID, err := parseOptionalUUID("performer", c.Performer)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Ledger.GetBalance(ctx, connect.NewRequest(&v1.GetBalanceRequest{
		OrgID:       orgID,
		PerformerID: performerID,
	}))
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	if c.JSON {
		return printJSON(os.Stdout, resp.Msg)
	}
	fmt.Println(resp.Msg.Balance)
	return nil
}

type LedgerCmd struct {
	ClientFlags `embed:""`

	Org       string    `help:"organization whose ledger to list"`
	Direction string    `help:"direction to filter by (credit, debit)" default:""`
	Reason    string    `help:"reason to filter by (job_created, job_payout, admin_adjustment, withdrawal, purchase)" default:""`
	Ticket    string    `help:"ticket id to filter by" default:""`
	Performer string    `help:"performer id to filter by, or whose earnings to list without --org" default:""`
	Since     time.Time `help:"only entries at or after this RFC 3339 time"`
	Until     time.Time `help:"only entries before this RFC 3339 time"`
	Page      int       `help:"Page number" default:"1"`
	PageSize  int       `help:"Number of entries per page" default:"50"`
}

func (c *LedgerCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := c.request()
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Ledger.ListLedger(ctx, connect.NewRequest(req))
	if err != nil {
		return fmt.Errorf("failed to list ledger: %w", err)
	}

	if c.JSON {
		return printJSON(os.Stdout, resp.Msg)
	}
	return printLedger(os.Stdout, resp.Msg)
}

func (c *LedgerCmd) request() (*v1.ListLedgerRequest, error) {
	if c.Org == "" && c.Performer == "" {
		return nil, errors.New("one of --org or --performer is required")
	}

	var orgID uuid.UUID
	if c.Org != "" {
		id, err := parseUUID("org", c.Org)
		if err != nil {
			return nil, err
		}
		orgID = id
	}
	ticketID, err := parseOptionalUUID("ticket", c.Ticket)
	if err != nil {
		return nil, err
	}
	performerID, err := parseOptionalUUID("performer", c.Performer)
	if err != nil {
		return nil, err
	}

	req := &v1.ListLedgerRequest{
		OrgID:       orgID,
		Direction:   strings.ToUpper(c.Direction),
		Reason:      strings.ToUpper(c.Reason),
		TicketID:    ticketID,
		PerformerID: performerID,
		Page:        c.Page,
		PageSize:    c.PageSize,
	}
	if !c.Since.IsZero() {
		req.Since = &c.Since
	}
	if !c.Until.IsZero() {
		req.Until = &c.Until
	}
	return req, nil
}

type AdjustCmd struct {
	ClientFlags `embed:""`

	Org       string `help:"organization to adjust" required:""`
	Direction string `help:"credit or debit" required:"" enum:"credit,debit"`
	Amount    int64  `help:"tokens to move" required:""`
	Note      string `help:"reason for the adjustment" required:""`
}

func (c *AdjustCmd) Run(ctx context.Context, globals *Globals) error {
	orgID, err := parseUUID("org", c.Org)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Ledger.AdjustBalance(ctx, connect.NewRequest(&v1.AdjustBalanceRequest{
		OrgID:     orgID,
		Direction: strings.ToUpper(c.Direction),
		Amount:    c.Amount,
		Note:      c.Note,
	}))
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	return c.printEntry(os.Stdout, resp.Msg.Entry)
}

type PurchaseCmd struct {
	ClientFlags `embed:""`

	Org       string `help:"organization that bought tokens" required:""`
	Amount    int64  `help:"tokens bought" required:""`
	Reference string `help:"payment reference" required:""`
}

func (c *PurchaseCmd) Run(ctx context.Context, globals *Globals) error {
	orgID, err := parseUUID("org", c.Org)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Ledger.CreditPurchase(ctx, connect.NewRequest(&v1.CreditPurchaseRequest{
		OrgID:     orgID,
		Amount:    c.Amount,
		Reference: c.Reference,
	}))
	if err != nil {
		return fmt.Errorf("failed to credit purchase: %w", err)
	}

	return c.printEntry(os.Stdout, resp.Msg.Entry)
}

type WithdrawCmd struct {
	ClientFlags `embed:""`

	Performer string `help:"performer withdrawing earnings" required:""`
	Amount    int64  `help:"tokens to withdraw" required:""`
	Note      string `help:"withdrawal note" default:""`
}

func (c *WithdrawCmd) Run(ctx context.Context, globals *Globals) error {
	performerID, err := parseUUID("performer", c.Performer)
	if err != nil {
		return err
	}

	clients, err := c.clients(globals)
	if err != nil {
		return err
	}

	resp, err := clients.Ledger.Withdraw(ctx, connect.NewRequest(&v1.WithdrawRequest{
		PerformerID: performerID,
		Amount:      c.Amount,
		Note:        c.Note,
	}))
	if err != nil {
		return fmt.Errorf("failed to withdraw: %w", err)
	}

	return c.printEntry(os.Stdout, resp.Msg.Entry)
}

func (f *ClientFlags) printEntry(w io.Writer, e *v1.LedgerEntry) error {
	if f.JSON {
		return printJSON(w, e)
	}
	return printEntries(w, []*v1.LedgerEntry{e})
}

func printLedger(w io.Writer, page *v1.ListLedgerResponse) error {
	if len(page.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No ledger entries found.")
		return err
	}

	if err := printEntries(w, page.Entries); err != nil {
		return err
	}

	if page.HasMore {
		_, err := fmt.Fprintf(w, "\nPage %d, more entries available (--page %d)\n", page.Page, page.Page+1)
		return err
	}
	return nil
}

func printEntries(w io.Writer, entries []*v1.LedgerEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tACCOUNT\tREASON\tDIRECTION\tAMOUNT\tBEFORE\tAFTER\tTICKET\tPERFORMER\tNOTE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Account, e.Reason, e.Direction, e.Amount, e.BalanceBefore, e.BalanceAfter,
			uuidOrDash(e.TicketID), uuidOrDash(e.PerformerID), e.Note)
	}
	return tw.Flush()
}
