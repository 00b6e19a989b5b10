package server

import (
	"context"

	"connectrpc.com/connect"
	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
	"github.com/wolfeidau/tokenboard/api/tokenboard/v1/tokenboardv1connect"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/workflow"
)

var _ tokenboardv1connect.TicketServiceHandler = &TicketServer{}

// TicketServer serves the ticket lifecycle over connect.
type TicketServer struct {
	engine *workflow.Engine
}

func NewTicketServer(engine *workflow.Engine) *TicketServer {
	return &TicketServer{engine: engine}
}

func (s *TicketServer) CreateTicket(ctx context.Context, req *connect.Request[v1.CreateTicketRequest]) (*connect.Response[v1.CreateTicketResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.CreateTicket(ctx, actor, workflow.CreateTicketInput{
		OrgID:       req.Msg.OrgID,
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		JobTypeID:   req.Msg.JobTypeID,
		Quantity:    req.Msg.Quantity,
		Priority:    models.Priority(req.Msg.Priority),
	})
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := s.toTicket(ctx, ticket)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.CreateTicketResponse{Ticket: msg}), nil
}

func (s *TicketServer) TransitionStatus(ctx context.Context, req *connect.Request[v1.TransitionStatusRequest]) (*connect.Response[v1.TransitionStatusResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.TransitionStatus(ctx, actor, workflow.TransitionInput{
		TicketID:     req.Msg.TicketID,
		Status:       models.TicketStatus(req.Msg.Status),
		RevisionNote: req.Msg.RevisionNote,
	})
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := s.toTicket(ctx, ticket)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.TransitionStatusResponse{Ticket: msg}), nil
}

func (s *TicketServer) UpdateOverrides(ctx context.Context, req *connect.Request[v1.UpdateOverridesRequest]) (*connect.Response[v1.UpdateOverridesResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.UpdateOverrides(ctx, actor, workflow.OverridesInput{
		TicketID:            req.Msg.TicketID,
		CostOverride:        req.Msg.CostOverride,
		PayoutOverride:      req.Msg.PayoutOverride,
		ClearCostOverride:   req.Msg.ClearCostOverride,
		ClearPayoutOverride: req.Msg.ClearPayoutOverride,
	})
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := s.toTicket(ctx, ticket)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.UpdateOverridesResponse{Ticket: msg}), nil
}

func (s *TicketServer) ReassignTicket(ctx context.Context, req *connect.Request[v1.ReassignTicketRequest]) (*connect.Response[v1.ReassignTicketResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.ReassignTicket(ctx, actor, req.Msg.TicketID, req.Msg.PerformerID)
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := s.toTicket(ctx, ticket)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.ReassignTicketResponse{Ticket: msg}), nil
}

func (s *TicketServer) GetTicket(ctx context.Context, req *connect.Request[v1.GetTicketRequest]) (*connect.Response[v1.GetTicketResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.GetTicket(ctx, actor, req.Msg.TicketID)
	if err != nil {
		return nil, connectError(err)
	}

	msg, err := s.toTicket(ctx, ticket)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.GetTicketResponse{Ticket: msg}), nil
}

func (s *TicketServer) ListTickets(ctx context.Context, req *connect.Request[v1.ListTicketsRequest]) (*connect.Response[v1.ListTicketsResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	tickets, err := s.engine.ListTickets(ctx, actor, req.Msg.OrgID, workflow.TicketFilter{
		Status:     models.TicketStatus(req.Msg.Status),
		AssignedTo: req.Msg.AssignedTo,
		Page:       req.Msg.Page,
		PageSize:   req.Msg.PageSize,
	})
	if err != nil {
		return nil, connectError(err)
	}

	resp := &v1.ListTicketsResponse{Tickets: make([]*v1.Ticket, 0, len(tickets))}
	for _, t := range tickets {
		msg, err := s.toTicket(ctx, t)
		if err != nil {
			return nil, connectError(err)
		}
		resp.Tickets = append(resp.Tickets, msg)
	}
	return connect.NewResponse(resp), nil
}

func (s *TicketServer) ListRevisions(ctx context.Context, req *connect.Request[v1.ListRevisionsRequest]) (*connect.Response[v1.ListRevisionsResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	revisions, err := s.engine.ListRevisions(ctx, actor, req.Msg.TicketID)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &v1.ListRevisionsResponse{Revisions: make([]*v1.Revision, 0, len(revisions))}
	for _, r := range revisions {
		resp.Revisions = append(resp.Revisions, toRevision(r))
	}
	return connect.NewResponse(resp), nil
}

func (s *TicketServer) GetAssignment(ctx context.Context, req *connect.Request[v1.GetAssignmentRequest]) (*connect.Response[v1.GetAssignmentResponse], error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.engine.GetAssignment(ctx, actor, req.Msg.TicketID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&v1.GetAssignmentResponse{Assignment: toAssignment(entry)}), nil
}
