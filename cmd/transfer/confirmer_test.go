package main

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-transfers/bridge"
)

func TestPromptConfirmer(t *testing.T) {
	t.Parallel()

	intent := &bridge.Intent{
		SourceChainID:      42161,
		DestinationChainID: 1,
		Asset:              bridge.NativeAsset("ETH", 18),
		Amount:             big.NewInt(1_500_000_000_000_000_000),
	}
	out := new(bytes.Buffer)
	c := newPromptConfirmer(strings.NewReader("y\nno\n YES \n"), out)
	ctx := context.Background()

	ok, err := c.PromptWithdrawal(ctx, intent)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), "Withdraw 1.5 ETH from chain 42161 to 1")

	ok, err = c.PromptTokenApproval(ctx, intent)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.PromptCctpTransfer(ctx, intent)
	require.NoError(t, err)
	require.True(t, ok)

	// no input left
	ok, err = c.PromptNativeCurrencyApproval(ctx, intent)
	require.NoError(t, err)
	require.False(t, ok)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.PromptWithdrawal(cancelled, intent)
	require.ErrorIs(t, err, context.Canceled)
}
