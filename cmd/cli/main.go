package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/tokenboard/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Tickets  commands.TicketsCmd  `cmd:"" help:"Create, inspect and move tickets"`
		Balance  commands.BalanceCmd  `cmd:"" help:"Show an organization balance or performer earnings"`
		Ledger   commands.LedgerCmd   `cmd:"" help:"List an organization's ledger entries"`
		Adjust   commands.AdjustCmd   `cmd:"" help:"Correct an organization balance (operators only)"`
		Purchase commands.PurchaseCmd `cmd:"" help:"Credit purchased tokens (operators only)"`
		Withdraw commands.WithdrawCmd `cmd:"" help:"Withdraw performer earnings"`
		Token    commands.TokenCmd    `cmd:"" help:"Generate a JWT token"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
