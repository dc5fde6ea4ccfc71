package dex

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"stakeLedger/internal/chain"
)

// Transactor signs contract transactions with the operator key, submits
// them, and blocks until they are mined. A reverted transaction is an error.
type Transactor struct {
	chain       *chain.Client
	key         *ecdsa.PrivateKey
	from        common.Address
	chainID     *big.Int
	logger      *zap.Logger
	receiptPoll time.Duration
}

// NewTransactor builds a transactor for the operator key, reading the chain
// id from the connected node.
func NewTransactor(ctx context.Context, chainClient *chain.Client, key *ecdsa.PrivateKey, logger *zap.Logger) (*Transactor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	return &Transactor{
		chain:       chainClient,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		chainID:     chainID,
		logger:      logger,
		receiptPoll: 2 * time.Second,
	}, nil
}

// From returns the operator account address.
func (t *Transactor) From() common.Address {
	return t.from
}

// ChainID returns the connected chain's id.
func (t *Transactor) ChainID() *big.Int {
	return new(big.Int).Set(t.chainID)
}

// Send signs and submits a transaction carrying the packed calldata and
// waits for the receipt.
func (t *Transactor) Send(ctx context.Context, to common.Address, value *big.Int, data []byte) error {
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := t.chain.PendingNonceAt(ctx, t.from)
	if err != nil {
		return fmt.Errorf("read account nonce: %w", err)
	}
	gasPrice, err := t.chain.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := t.chain.EstimateGas(ctx, ethereum.CallMsg{From: t.from, To: &to, Value: value, Data: data})
	if err != nil {
		return fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	if err := t.chain.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	receipt, err := t.waitMined(ctx, signed.Hash())
	if err != nil {
		return fmt.Errorf("wait for transaction %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	t.logger.Debug("transaction mined",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}

func (t *Transactor) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(t.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := t.chain.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
