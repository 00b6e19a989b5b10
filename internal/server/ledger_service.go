package server

import (
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
	"github.com/wolfeidau/tokenboard/api/tokenboard/v1/tokenboardv1connect"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/ledger"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/workflow"
)

var _ tokenboardv1connect.LedgerServiceHandler = &LedgerServer{}

// LedgerServer serves balances and the token ledger over connect.
type LedgerServer struct {
	engine *workflow.Engine
}

func NewLedgerServer(engine *workflow.Engine) *LedgerServer {
	return &LedgerServer{engine: engine}
}

func (s *LedgerServer) GetBalance(ctx context.Context, req *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.engine.GetBalance(ctx, actor, workflow.Account{
		OrgID:       req.Msg.OrgID,
		PerformerID: req.Msg.PerformerID,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.GetBalanceResponse{Balance: balance}), nil
}

func (s *LedgerServer) ListLedger(ctx context.Context, req *connect.Request[v1.ListLedgerRequest]) (*connect.Response[v1.ListLedgerResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	filter := ledger.Filter{
		Direction:   models.Direction(req.Msg.Direction),
		Reason:      models.Reason(req.Msg.Reason),
		TicketID:    req.Msg.TicketID,
		PerformerID: req.Msg.PerformerID,
		Page:        req.Msg.Page,
		PageSize:    req.Msg.PageSize,
	}
	if req.Msg.Since != nil {
		filter.Since = *req.Msg.Since
	}
	if req.Msg.Until != nil {
		filter.Until = *req.Msg.Until
	}

	// an organization id selects the organization ledger, where performer_id
	// narrows the listing; without one performer_id selects earnings
	account := workflow.Account{PerformerID: req.Msg.PerformerID}
	if req.Msg.OrgID != uuid.Nil {
		orgID := req.Msg.OrgID
		account = workflow.Account{OrgID: &orgID}
	} else {
		filter.PerformerID = nil
	}

	page, err := s.engine.ListLedger(ctx, actor, account, filter)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &v1.ListLedgerResponse{
		Entries:  make([]*v1.LedgerEntry, 0, len(page.Entries)),
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  page.HasMore,
	}
	for _, e := range page.Entries {
		resp.Entries = append(resp.Entries, toLedgerEntry(e))
	}
	return connect.NewResponse(resp), nil
}

func (s *LedgerServer) AdjustBalance(ctx context.Context, req *connect.Request[v1.AdjustBalanceRequest]) (*connect.Response[v1.AdjustBalanceResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.AdjustBalance(ctx, actor, workflow.AdjustInput{
		OrgID:     req.Msg.OrgID,
		Direction: models.Direction(req.Msg.Direction),
		Amount:    req.Msg.Amount,
		Note:      req.Msg.Note,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.AdjustBalanceResponse{Entry: toLedgerEntry(entry)}), nil
}

func (s *LedgerServer) CreditPurchase(ctx context.Context, req *connect.Request[v1.CreditPurchaseRequest]) (*connect.Response[v1.CreditPurchaseResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.CreditPurchase(ctx, actor, workflow.PurchaseInput{
		OrgID:     req.Msg.OrgID,
		Amount:    req.Msg.Amount,
		Reference: req.Msg.Reference,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.CreditPurchaseResponse{Entry: toLedgerEntry(entry)}), nil
}

func (s *LedgerServer) Withdraw(ctx context.Context, req *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.Withdraw(ctx, actor, workflow.WithdrawInput{
		PerformerID: req.Msg.PerformerID,
		Amount:      req.Msg.Amount,
		Note:        req.Msg.Note,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.WithdrawResponse{Entry: toLedgerEntry(entry)}), nil
}
