package client

import (
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/wolfeidau/tokenboard/api/tokenboard/v1/tokenboardv1connect"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
}

// Clients holds the RPC clients
type Clients struct {
	Tickets *tokenboardv1connect.TicketServiceClient
	Ledger  *tokenboardv1connect.LedgerServiceClient
}

// NewClients creates new RPC clients with the given configuration
func NewClients(config Config, opts ...connect.ClientOption) *Clients {
	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	return &Clients{
		Tickets: tokenboardv1connect.NewTicketServiceClient(httpClient, config.ServerURL, opts...),
		Ledger:  tokenboardv1connect.NewLedgerServiceClient(httpClient, config.ServerURL, opts...),
	}
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8443",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}
