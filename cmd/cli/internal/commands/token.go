package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/wolfeidau/tokenboard/internal/auth"
)

type TokenCmd struct {
	UserID      string        `help:"user id the token identifies" required:""`
	Role        string        `help:"platform role (admin, creative, client)" required:""`
	CompanyRole string        `help:"company role (owner, manager, member, viewer)" default:""`
	Org         string        `help:"active organization id" default:""`
	TTL         time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey  string        `help:"path to the ES256 signing key" required:"" type:"path" env:"TOKENBOARD_SIGNING_KEY"`
}

func (t *TokenCmd) Run(globals *Globals) error {
	actor, err := actorFromFlags(t.UserID, t.Role, t.CompanyRole, t.Org)
	if err != nil {
		return err
	}

	keyPEM, err := os.ReadFile(t.SigningKey)
	if err != nil {
		return fmt.Errorf("failed to read signing key: %w", err)
	}

	token, err := auth.IssueToken(string(keyPEM), actor, t.TTL)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
