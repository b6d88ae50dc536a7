package presenter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
)

var formats = map[uint64]string{
	1:        "https://etherscan.io/tx/%s",
	11155111: "https://sepolia.etherscan.io/tx/%s",
	42161:    "https://arbiscan.io/tx/%s",
	42170:    "https://nova.arbiscan.io/tx/%s",
	421614:   "https://sepolia.arbiscan.io/tx/%s",
	660279:   "https://explorer.xai-chain.net/tx/%s",
}

func txLink(chainID uint64, hash common.Hash) string {
	if format, ok := formats[chainID]; ok {
		return fmt.Sprintf(format, hash)
	}
	return ""
}

func transactionToInfo(tx *entity.Transaction) *TransactionInfo {
	info := &TransactionInfo{
		Transaction: tx,
		Pending:     !tx.Status.IsTerminal(),
		SourceLink:  txLink(tx.SourceChainID, tx.TxID),
	}
	if tx.ChildTxID != nil {
		info.ChildLink = txLink(tx.DestinationChainID, *tx.ChildTxID)
	}
	return info
}

func (p *Presenter) chainToChainInfo(chain *config.ChainConfig, destinations []uint64) *ChainInfo {
	info := &ChainInfo{
		ChainID:             chain.ChainID,
		Name:                chain.Name,
		Testnet:             chain.Testnet,
		Nova:                chain.Nova,
		Custom:              p.chains.IsCustomChain(chain.ChainID),
		NativeCurrency:      "ETH",
		Cctp:                chain.CCTP != nil,
		ConfirmPeriodBlocks: chain.ConfirmPeriodBlocks,
		DestinationChainIDs: destinations,
	}
	if info.DestinationChainIDs == nil {
		info.DestinationChainIDs = []uint64{}
	}
	if chain.Parent != nil {
		parentID := chain.Parent.ChainID
		info.ParentChainID = &parentID
	}
	if chain.NativeToken != nil && chain.NativeToken.Symbol != "" {
		info.NativeCurrency = chain.NativeToken.Symbol
	}
	return info
}
