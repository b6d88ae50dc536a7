package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/omni/tokenbridge-transfers/bridge"
	"github.com/omni/tokenbridge-transfers/units"
)

// promptConfirmer asks on the terminal before every step that moves funds.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *promptConfirmer) ask(ctx context.Context, format string, args ...interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, format+" [y/N]: ", args...)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("can't read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func amount(intent *bridge.Intent) string {
	return units.FormatAmount(intent.Amount, intent.Asset.Decimals, intent.Asset.Symbol)
}

func (c *promptConfirmer) PromptNativeCurrencyApproval(ctx context.Context, intent *bridge.Intent) (bool, error) {
	return c.ask(ctx, "Approve the fee token of chain %d to be spent", intent.DestinationChainID)
}

func (c *promptConfirmer) PromptTokenApproval(ctx context.Context, intent *bridge.Intent) (bool, error) {
	return c.ask(ctx, "Approve %s to be spent by the bridge", amount(intent))
}

func (c *promptConfirmer) PromptWithdrawal(ctx context.Context, intent *bridge.Intent) (bool, error) {
	return c.ask(ctx, "Withdraw %s from chain %d to %d, it can be claimed after the challenge period", amount(intent), intent.SourceChainID, intent.DestinationChainID)
}

func (c *promptConfirmer) PromptCctpTransfer(ctx context.Context, intent *bridge.Intent) (bool, error) {
	return c.ask(ctx, "Burn %s on chain %d to mint it on %d", amount(intent), intent.SourceChainID, intent.DestinationChainID)
}
