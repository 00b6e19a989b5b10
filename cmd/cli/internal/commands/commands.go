package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/cmd/cli/internal/credentials"
	"github.com/wolfeidau/tokenboard/internal/auth"
	"github.com/wolfeidau/tokenboard/internal/client"
)

type Globals struct {
	Debug   bool
	Version string
}

// ClientFlags select the server and the identity requests are sent as.
// A ready made token wins over a signing key.
type ClientFlags struct {
	Server     string `help:"Server URL" default:"http://localhost:8443" env:"TOKENBOARD_SERVER"`
	Token      string `help:"bearer token to send" env:"TOKENBOARD_TOKEN"`
	SigningKey string `help:"path to an ES256 signing key used to mint tokens" type:"path" env:"TOKENBOARD_SIGNING_KEY"`

	AsUser        string `help:"user id to mint tokens for" env:"TOKENBOARD_USER_ID"`
	AsRole        string `help:"platform role to mint tokens for (admin, creative, client)" default:"client" env:"TOKENBOARD_ROLE"`
	AsCompanyRole string `help:"company role to mint tokens for (owner, manager, member, viewer)" env:"TOKENBOARD_COMPANY_ROLE"`
	AsOrg         string `help:"active organization to mint tokens for" env:"TOKENBOARD_ORG"`

	JSON bool `help:"print responses as JSON" default:"false"`
}

func (f *ClientFlags) interceptor() (*credentials.AuthInterceptor, error) {
	if f.Token != "" {
		return credentials.NewStaticInterceptor(f.Token)
	}
	if f.SigningKey == "" {
		return nil, errors.New("either --token or --signing-key is required")
	}

	keyPEM, err := os.ReadFile(f.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	actor, err := actorFromFlags(f.AsUser, f.AsRole, f.AsCompanyRole, f.AsOrg)
	if err != nil {
		return nil, err
	}
	return credentials.NewSigningInterceptor(string(keyPEM), actor)
}

func (f *ClientFlags) clients(globals *Globals) (*client.Clients, error) {
	authInterceptor, err := f.interceptor()
	if err != nil {
		return nil, err
	}

	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return nil, fmt.Errorf("failed to create interceptor: %w", err)
	}

	config := client.Config{
		ServerURL: f.Server,
		Timeout:   30 * time.Second,
		Debug:     globals.Debug,
	}
	return client.NewClients(config, connect.WithInterceptors(otelInterceptor, authInterceptor)), nil
}

func actorFromFlags(userID, role, companyRole, org string) (*auth.Actor, error) {
	id, err := parseUUID("user id", userID)
	if err != nil {
		return nil, err
	}
	orgID, err := parseOptionalUUID("org", org)
	if err != nil {
		return nil, err
	}

	actor := &auth.Actor{
		UserID:      id,
		Role:        auth.Role(strings.ToUpper(role)),
		CompanyRole: auth.CompanyRole(strings.ToUpper(companyRole)),
	}
	if orgID != nil {
		actor.OrgID = *orgID
	}
	if err := actor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}
	return actor, nil
}

func parseUUID(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

func parseOptionalUUID(name, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(name, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func uuidOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func int64OrDash(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
