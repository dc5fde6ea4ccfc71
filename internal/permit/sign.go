package permit

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"stakeLedger/internal/model"
)

// Sign produces a permit authorization for the given pool from an ECDSA key.
// The nonce must be the owner's current pool nonce at submission time.
func Sign(key *ecdsa.PrivateKey, chainID *big.Int, pool, spender common.Address, value, nonce, deadline *big.Int) (model.PermitAuthorization, error) {
	owner := crypto.PubkeyToAddress(key.PublicKey)
	digest := Digest(chainID, pool, owner, spender, value, nonce, deadline)

	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return model.PermitAuthorization{}, fmt.Errorf("sign permit: %w", err)
	}

	auth := model.PermitAuthorization{
		Owner:    owner,
		Spender:  spender,
		Value:    new(big.Int).Set(value),
		Deadline: new(big.Int).Set(deadline),
		V:        sig[64] + 27,
	}
	copy(auth.R[:], sig[0:32])
	copy(auth.S[:], sig[32:64])
	return auth, nil
}
