package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/tokenbridge-transfers/contract"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/wallet"
)

var (
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)

	depositDataArgs          = abi.Arguments{{Type: uint256Type}, {Type: bytesType}}
	customFeeDepositDataArgs = abi.Arguments{{Type: uint256Type}, {Type: bytesType}, {Type: uint256Type}}
)

// standardDeposit moves assets from a parent chain to its direct child.
type standardDeposit struct {
	starter
}

func newStandardDeposit(props *Props) (TransferStarter, error) {
	if props.Destination.EthBridge == nil {
		return nil, preconditionError("chain %d has no eth bridge", props.Destination.ChainID)
	}
	transferType := entity.TransferTypeEthDeposit
	if !props.Asset.IsNative() {
		if props.Destination.TokenBridge == nil {
			return nil, preconditionError("chain %d has no token bridge", props.Destination.ChainID)
		}
		transferType = entity.TransferTypeErc20Deposit
	}
	return &standardDeposit{starter{Props: props, transferType: transferType}}, nil
}

func (s *standardDeposit) inbox() common.Address {
	return s.Destination.EthBridge.Inbox
}

func (s *standardDeposit) router() *contract.GatewayRouter {
	return contract.NewL1GatewayRouter(s.SourceClient, s.Destination.TokenBridge.ParentGatewayRouter)
}

func (s *standardDeposit) gateway(ctx context.Context) (common.Address, error) {
	gateway, err := s.router().GetGateway(ctx, s.Asset.Address)
	if err != nil {
		return common.Address{}, readError("parent gateway", err)
	}
	return gateway, nil
}

// feeTokenApproval resolves how much of the custom fee token must be approved to whom.
// ok is false when the destination chain pays gas in ETH.
func (s *standardDeposit) feeTokenApproval(ctx context.Context, amount *big.Int) (token, spender common.Address, required *big.Int, ok bool, err error) {
	feeToken := s.Destination.CustomFeeToken()
	if feeToken == nil {
		return common.Address{}, common.Address{}, nil, false, nil
	}
	if s.Asset.IsNative() {
		return *feeToken, s.inbox(), amount, true, nil
	}
	spender, err = s.gateway(ctx)
	if err != nil {
		return common.Address{}, common.Address{}, nil, false, err
	}
	fees, err := estimateRetryable(ctx, s.SourceClient, s.DestinationClient, s.inbox(), tokenDepositCalldataLength, s.Retryable)
	if err != nil {
		return common.Address{}, common.Address{}, nil, false, err
	}
	return *feeToken, spender, fees.Deposit(), true, nil
}

func (s *standardDeposit) RequiresNativeCurrencyApproval(ctx context.Context, props RequiresNativeCurrencyApprovalProps) (bool, error) {
	token, spender, required, ok, err := s.feeTokenApproval(ctx, props.Amount)
	if err != nil || !ok {
		return false, err
	}
	return s.allowanceBelow(ctx, token, props.OwnerAddress, spender, required)
}

func (s *standardDeposit) ApproveNativeCurrency(ctx context.Context, props ApproveNativeCurrencyProps) (*types.Transaction, error) {
	token, spender, required, ok, err := s.feeTokenApproval(ctx, props.Amount)
	if err != nil || !ok {
		return nil, err
	}
	return s.approve(ctx, props.Signer, token, spender, required)
}

func (s *standardDeposit) RequiresTokenApproval(ctx context.Context, props RequiresTokenApprovalProps) (bool, error) {
	if s.Asset.IsNative() {
		return false, nil
	}
	gateway, err := s.gateway(ctx)
	if err != nil {
		return false, err
	}
	return s.allowanceBelow(ctx, s.Asset.Address, props.OwnerAddress, gateway, props.Amount)
}

func (s *standardDeposit) ApproveToken(ctx context.Context, props ApproveTokenProps) (*types.Transaction, error) {
	if s.Asset.IsNative() {
		return nil, preconditionError("native currency has no token approval")
	}
	gateway, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, props.Signer, s.Asset.Address, gateway, props.Amount)
}

// CheckTokenRegistration refuses deposits while the router resolves the token to a
// child address other than the known one, which happens during gateway re-registration.
func (s *standardDeposit) CheckTokenRegistration(ctx context.Context) error {
	if s.Asset.IsNative() || s.Asset.ChildAddress == nil {
		return nil
	}
	routed, err := s.router().CalculateL2TokenAddress(ctx, s.Asset.Address)
	if err != nil {
		return readError("child token address", err)
	}
	if routed != *s.Asset.ChildAddress {
		return fmt.Errorf("token %s routes to %s instead of %s: %w", s.Asset.Address, routed, s.Asset.ChildAddress, ErrGatewayRegistration)
	}
	return nil
}

func (s *standardDeposit) Transfer(ctx context.Context, props TransferProps) (*TransferResult, error) {
	if err := s.checkTransfer(&props); err != nil {
		return nil, err
	}
	if s.Asset.IsNative() {
		return s.transferNative(ctx, &props)
	}
	return s.transferToken(ctx, &props)
}

func (s *standardDeposit) transferNative(ctx context.Context, props *TransferProps) (*TransferResult, error) {
	inbox := contract.NewInbox(s.SourceClient, s.inbox())
	if s.Destination.CustomFeeToken() != nil {
		data, err := inbox.DepositERC20Data(props.Amount)
		if err != nil {
			return nil, err
		}
		return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(inbox.Address()), Data: data})
	}
	if props.DestinationAddress != nil && *props.DestinationAddress != props.Signer.Address() {
		return s.transferNativeToOther(ctx, props)
	}
	data, err := inbox.DepositEthData()
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(inbox.Address()), Value: props.Amount, Data: data})
}

// transferNativeToOther deposits ETH to a different address through a retryable
// ticket, depositEth always credits the sender.
func (s *standardDeposit) transferNativeToOther(ctx context.Context, props *TransferProps) (*TransferResult, error) {
	fees, err := estimateRetryable(ctx, s.SourceClient, s.DestinationClient, s.inbox(), 0, s.Retryable)
	if err != nil {
		return nil, err
	}
	dest := *props.DestinationAddress
	inbox := contract.NewInbox(s.SourceClient, s.inbox())
	data, err := inbox.CreateRetryableTicketData(&contract.RetryableTicket{
		To:                dest,
		CallValue:         props.Amount,
		MaxSubmissionCost: fees.MaxSubmissionCost,
		ExcessFeeRefund:   dest,
		CallValueRefund:   dest,
		GasLimit:          fees.GasLimit,
		MaxFeePerGas:      fees.MaxFeePerGas,
	})
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Add(props.Amount, fees.Deposit())
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(inbox.Address()), Value: value, Data: data})
}

func (s *standardDeposit) transferToken(ctx context.Context, props *TransferProps) (*TransferResult, error) {
	fees, err := estimateRetryable(ctx, s.SourceClient, s.DestinationClient, s.inbox(), tokenDepositCalldataLength, s.Retryable)
	if err != nil {
		return nil, err
	}
	var (
		extra []byte
		value *big.Int
	)
	if s.Destination.CustomFeeToken() != nil {
		extra, err = customFeeDepositDataArgs.Pack(fees.MaxSubmissionCost, []byte{}, fees.Deposit())
	} else {
		extra, err = depositDataArgs.Pack(fees.MaxSubmissionCost, []byte{})
		value = fees.Deposit()
	}
	if err != nil {
		return nil, fmt.Errorf("can't encode deposit data: %w", err)
	}
	router := s.router()
	data, err := router.OutboundTransferCustomRefundData(
		s.Asset.Address,
		props.Signer.Address(),
		recipient(props),
		props.Amount,
		fees.GasLimit,
		fees.MaxFeePerGas,
		extra,
	)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, props.Signer, &wallet.TxRequest{To: addressOf(router.Address()), Value: value, Data: data})
}

func addressOf(addr common.Address) *common.Address {
	return &addr
}
