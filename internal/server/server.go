package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tokenboard/api/tokenboard/v1/tokenboardv1connect"
	"github.com/wolfeidau/tokenboard/internal/logger"
	"github.com/wolfeidau/tokenboard/internal/workflow"
)

// Server wraps the HTTP server and the ticket and ledger services
type Server struct {
	ticketServer *TicketServer
	ledgerServer *LedgerServer
}

// NewServer creates a new server on top of the workflow engine
func NewServer(engine *workflow.Engine) *Server {
	return &Server{
		ticketServer: NewTicketServer(engine),
		ledgerServer: NewLedgerServer(engine),
	}
}

// Handler returns the HTTP handler for the server. Extra interceptors run
// after request logging.
func (s *Server) Handler(log zerolog.Logger, interceptors ...connect.Interceptor) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	opts := connect.WithInterceptors(append([]connect.Interceptor{logger.NewConnectRequests(log)}, interceptors...)...)

	ticketPath, ticketHandler := tokenboardv1connect.NewTicketServiceHandler(s.ticketServer, opts)
	mux.Handle(ticketPath, ticketHandler)

	ledgerPath, ledgerHandler := tokenboardv1connect.NewLedgerServiceHandler(s.ledgerServer, opts)
	mux.Handle(ledgerPath, ledgerHandler)

	return mux
}
