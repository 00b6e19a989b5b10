// Package tokenboardv1connect wires the tokenboard.v1 services to
// connect-go handlers and clients.
package tokenboardv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
)

const (
	TicketServiceName = "tokenboard.v1.TicketService"
	LedgerServiceName = "tokenboard.v1.LedgerService"
)

// Procedure paths, as sent on the wire.
const (
	TicketServiceCreateTicketProcedure     = "/tokenboard.v1.TicketService/CreateTicket"
	TicketServiceTransitionStatusProcedure = "/tokenboard.v1.TicketService/TransitionStatus"
	TicketServiceUpdateOverridesProcedure  = "/tokenboard.v1.TicketService/UpdateOverrides"
	TicketServiceReassignTicketProcedure   = "/tokenboard.v1.TicketService/ReassignTicket"
	TicketServiceGetTicketProcedure        = "/tokenboard.v1.TicketService/GetTicket"
	TicketServiceListTicketsProcedure      = "/tokenboard.v1.TicketService/ListTickets"
	TicketServiceListRevisionsProcedure    = "/tokenboard.v1.TicketService/ListRevisions"
	TicketServiceGetAssignmentProcedure    = "/tokenboard.v1.TicketService/GetAssignment"

	LedgerServiceGetBalanceProcedure     = "/tokenboard.v1.LedgerService/GetBalance"
	LedgerServiceListLedgerProcedure     = "/tokenboard.v1.LedgerService/ListLedger"
	LedgerServiceAdjustBalanceProcedure  = "/tokenboard.v1.LedgerService/AdjustBalance"
	LedgerServiceCreditPurchaseProcedure = "/tokenboard.v1.LedgerService/CreditPurchase"
	LedgerServiceWithdrawProcedure       = "/tokenboard.v1.LedgerService/Withdraw"
)

// TicketServiceHandler serves ticket lifecycle RPCs.
type TicketServiceHandler interface {
	CreateTicket(context.Context, *connect.Request[v1.CreateTicketRequest]) (*connect.Response[v1.CreateTicketResponse], error)
	TransitionStatus(context.Context, *connect.Request[v1.TransitionStatusRequest]) (*connect.Response[v1.TransitionStatusResponse], error)
	UpdateOverrides(context.Context, *connect.Request[v1.UpdateOverridesRequest]) (*connect.Response[v1.UpdateOverridesResponse], error)
	ReassignTicket(context.Context, *connect.Request[v1.ReassignTicketRequest]) (*connect.Response[v1.ReassignTicketResponse], error)
	GetTicket(context.Context, *connect.Request[v1.GetTicketRequest]) (*connect.Response[v1.GetTicketResponse], error)
	ListTickets(context.Context, *connect.Request[v1.ListTicketsRequest]) (*connect.Response[v1.ListTicketsResponse], error)
	ListRevisions(context.Context, *connect.Request[v1.ListRevisionsRequest]) (*connect.Response[v1.ListRevisionsResponse], error)
	GetAssignment(context.Context, *connect.Request[v1.GetAssignmentRequest]) (*connect.Response[v1.GetAssignmentResponse], error)
}

// LedgerServiceHandler serves balance and ledger RPCs.
type LedgerServiceHandler interface {
	GetBalance(context.Context, *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error)
	ListLedger(context.Context, *connect.Request[v1.ListLedgerRequest]) (*connect.Response[v1.ListLedgerResponse], error)
	AdjustBalance(context.Context, *connect.Request[v1.AdjustBalanceRequest]) (*connect.Response[v1.AdjustBalanceResponse], error)
	CreditPurchase(context.Context, *connect.Request[v1.CreditPurchaseRequest]) (*connect.Response[v1.CreditPurchaseResponse], error)
	Withdraw(context.Context, *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error)
}

func withCodec[T any](opts []T, codec T) []T {
	return append([]T{codec}, opts...)
}

// route serves each procedure from its handler, 404 for anything else.
func route(prefix string, handlers map[string]http.Handler) (string, http.Handler) {
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// NewTicketServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewTicketServiceHandler(svc TicketServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(Codec{})))

	return route("/"+TicketServiceName+"/", map[string]http.Handler{
		TicketServiceCreateTicketProcedure:     connect.NewUnaryHandler(TicketServiceCreateTicketProcedure, svc.CreateTicket, opts...),
		TicketServiceTransitionStatusProcedure: connect.NewUnaryHandler(TicketServiceTransitionStatusProcedure, svc.TransitionStatus, opts...),
		TicketServiceUpdateOverridesProcedure:  connect.NewUnaryHandler(TicketServiceUpdateOverridesProcedure, svc.UpdateOverrides, opts...),
		TicketServiceReassignTicketProcedure:   connect.NewUnaryHandler(TicketServiceReassignTicketProcedure, svc.ReassignTicket, opts...),
		TicketServiceGetTicketProcedure:        connect.NewUnaryHandler(TicketServiceGetTicketProcedure, svc.GetTicket, opts...),
		TicketServiceListTicketsProcedure:      connect.NewUnaryHandler(TicketServiceListTicketsProcedure, svc.ListTickets, opts...),
		TicketServiceListRevisionsProcedure:    connect.NewUnaryHandler(TicketServiceListRevisionsProcedure, svc.ListRevisions, opts...),
		TicketServiceGetAssignmentProcedure:    connect.NewUnaryHandler(TicketServiceGetAssignmentProcedure, svc.GetAssignment, opts...),
	})
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(Codec{})))

	return route("/"+LedgerServiceName+"/", map[string]http.Handler{
		LedgerServiceGetBalanceProcedure:     connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...),
		LedgerServiceListLedgerProcedure:     connect.NewUnaryHandler(LedgerServiceListLedgerProcedure, svc.ListLedger, opts...),
		LedgerServiceAdjustBalanceProcedure:  connect.NewUnaryHandler(LedgerServiceAdjustBalanceProcedure, svc.AdjustBalance, opts...),
		LedgerServiceCreditPurchaseProcedure: connect.NewUnaryHandler(LedgerServiceCreditPurchaseProcedure, svc.CreditPurchase, opts...),
		LedgerServiceWithdrawProcedure:       connect.NewUnaryHandler(LedgerServiceWithdrawProcedure, svc.Withdraw, opts...),
	})
}

// TicketServiceClient calls the ticket service.
type TicketServiceClient struct {
	createTicket     *connect.Client[v1.CreateTicketRequest, v1.CreateTicketResponse]
	transitionStatus *connect.Client[v1.TransitionStatusRequest, v1.TransitionStatusResponse]
	updateOverrides  *connect.Client[v1.UpdateOverridesRequest, v1.UpdateOverridesResponse]
	reassignTicket   *connect.Client[v1.ReassignTicketRequest, v1.ReassignTicketResponse]
	getTicket        *connect.Client[v1.GetTicketRequest, v1.GetTicketResponse]
	listTickets      *connect.Client[v1.ListTicketsRequest, v1.ListTicketsResponse]
	listRevisions    *connect.Client[v1.ListRevisionsRequest, v1.ListRevisionsResponse]
	getAssignment    *connect.Client[v1.GetAssignmentRequest, v1.GetAssignmentResponse]
}

// NewTicketServiceClient creates a client for the service at baseURL.
func NewTicketServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TicketServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(Codec{})))

	return &TicketServiceClient{
		createTicket:     connect.NewClient[v1.CreateTicketRequest, v1.CreateTicketResponse](httpClient, baseURL+TicketServiceCreateTicketProcedure, opts...),
		transitionStatus: connect.NewClient[v1.TransitionStatusRequest, v1.TransitionStatusResponse](httpClient, baseURL+TicketServiceTransitionStatusProcedure, opts...),
		updateOverrides:  connect.NewClient[v1.UpdateOverridesRequest, v1.UpdateOverridesResponse](httpClient, baseURL+TicketServiceUpdateOverridesProcedure, opts...),
		reassignTicket:   connect.NewClient[v1.ReassignTicketRequest, v1.ReassignTicketResponse](httpClient, baseURL+TicketServiceReassignTicketProcedure, opts...),
		getTicket:        connect.NewClient[v1.GetTicketRequest, v1.GetTicketResponse](httpClient, baseURL+TicketServiceGetTicketProcedure, opts...),
		listTickets:      connect.NewClient[v1.ListTicketsRequest, v1.ListTicketsResponse](httpClient, baseURL+TicketServiceListTicketsProcedure, opts...),
		listRevisions:    connect.NewClient[v1.ListRevisionsRequest, v1.ListRevisionsResponse](httpClient, baseURL+TicketServiceListRevisionsProcedure, opts...),
		getAssignment:    connect.NewClient[v1.GetAssignmentRequest, v1.GetAssignmentResponse](httpClient, baseURL+TicketServiceGetAssignmentProcedure, opts...),
	}
}

func (c *TicketServiceClient) CreateTicket(ctx context.Context, req *connect.Request[v1.CreateTicketRequest]) (*connect.Response[v1.CreateTicketResponse], error) {
	return c.createTicket.CallUnary(ctx, req)
}

func (c *TicketServiceClient) TransitionStatus(ctx context.Context, req *connect.Request[v1.TransitionStatusRequest]) (*connect.Response[v1.TransitionStatusResponse], error) {
	return c.transitionStatus.CallUnary(ctx, req)
}

func (c *TicketServiceClient) UpdateOverrides(ctx context.Context, req *connect.Request[v1.UpdateOverridesRequest]) (*connect.Response[v1.UpdateOverridesResponse], error) {
	return c.updateOverrides.CallUnary(ctx, req)
}

func (c *TicketServiceClient) ReassignTicket(ctx context.Context, req *connect.Request[v1.ReassignTicketRequest]) (*connect.Response[v1.ReassignTicketResponse], error) {
	return c.reassignTicket.CallUnary(ctx, req)
}

func (c *TicketServiceClient) GetTicket(ctx context.Context, req *connect.Request[v1.GetTicketRequest]) (*connect.Response[v1.GetTicketResponse], error) {
	return c.getTicket.CallUnary(ctx, req)
}

func (c *TicketServiceClient) ListTickets(ctx context.Context, req *connect.Request[v1.ListTicketsRequest]) (*connect.Response[v1.ListTicketsResponse], error) {
	return c.listTickets.CallUnary(ctx, req)
}

func (c *TicketServiceClient) ListRevisions(ctx context.Context, req *connect.Request[v1.ListRevisionsRequest]) (*connect.Response[v1.ListRevisionsResponse], error) {
	return c.listRevisions.CallUnary(ctx, req)
}

func (c *TicketServiceClient) GetAssignment(ctx context.Context, req *connect.Request[v1.GetAssignmentRequest]) (*connect.Response[v1.GetAssignmentResponse], error) {
	return c.getAssignment.CallUnary(ctx, req)
}

// LedgerServiceClient calls the ledger service.
type LedgerServiceClient struct {
	getBalance     *connect.Client[v1.GetBalanceRequest, v1.GetBalanceResponse]
	listLedger     *connect.Client[v1.ListLedgerRequest, v1.ListLedgerResponse]
	adjustBalance  *connect.Client[v1.AdjustBalanceRequest, v1.AdjustBalanceResponse]
	creditPurchase *connect.Client[v1.CreditPurchaseRequest, v1.CreditPurchaseResponse]
	withdraw       *connect.Client[v1.WithdrawRequest, v1.WithdrawResponse]
}

// NewLedgerServiceClient creates a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(Codec{})))

	return &LedgerServiceClient{
		getBalance:     connect.NewClient[v1.GetBalanceRequest, v1.GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
		listLedger:     connect.NewClient[v1.ListLedgerRequest, v1.ListLedgerResponse](httpClient, baseURL+LedgerServiceListLedgerProcedure, opts...),
		adjustBalance:  connect.NewClient[v1.AdjustBalanceRequest, v1.AdjustBalanceResponse](httpClient, baseURL+LedgerServiceAdjustBalanceProcedure, opts...),
		creditPurchase: connect.NewClient[v1.CreditPurchaseRequest, v1.CreditPurchaseResponse](httpClient, baseURL+LedgerServiceCreditPurchaseProcedure, opts...),
		withdraw:       connect.NewClient[v1.WithdrawRequest, v1.WithdrawResponse](httpClient, baseURL+LedgerServiceWithdrawProcedure, opts...),
	}
}

func (c *LedgerServiceClient) GetBalance(ctx context.Context, req *connect.Request[v1.GetBalanceRequest]) (*connect.Response[v1.GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListLedger(ctx context.Context, req *connect.Request[v1.ListLedgerRequest]) (*connect.Response[v1.ListLedgerResponse], error) {
	return c.listLedger.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) AdjustBalance(ctx context.Context, req *connect.Request[v1.AdjustBalanceRequest]) (*connect.Response[v1.AdjustBalanceResponse], error) {
	return c.adjustBalance.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CreditPurchase(ctx context.Context, req *connect.Request[v1.CreditPurchaseRequest]) (*connect.Response[v1.CreditPurchaseResponse], error) {
	return c.creditPurchase.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) Withdraw(ctx context.Context, req *connect.Request[v1.WithdrawRequest]) (*connect.Response[v1.WithdrawResponse], error) {
	return c.withdraw.CallUnary(ctx, req)
}
