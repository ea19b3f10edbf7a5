package sign

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"gotest.tools/v3/assert"
)

func TestCanSignAndVerifyTransaction(t *testing.T) {
	key, err := crypto.GenerateKey()
	assert.NilError(t, err)

	type mintBody struct {
		Name string `json:"name"`
	}
	tx, err := NewTransaction(key, "pet-ledger", 40, mintBody{Name: "shelly"})
	assert.NilError(t, err)

	buf, err := tx.Marshal()
	assert.NilError(t, err)

	toVerify, err := UnmarshalTransaction(buf)
	assert.NilError(t, err)

	assert.Equal(t, toVerify.Signer, crypto.PubkeyToAddress(key.PublicKey).Hex())
	assert.Equal(t, toVerify.Namespace, "pet-ledger")
	assert.Equal(t, toVerify.Nonce, uint64(40))
	assert.NilError(t, toVerify.Verify())
	assert.Equal(t, toVerify.HashHex(), tx.HashHex())
}

func TestTamperedBodyFailsVerification(t *testing.T) {
	key, err := crypto.GenerateKey()
	assert.NilError(t, err)

	tx, err := NewTransaction(key, "pet-ledger", 1, map[string]any{"receiver": "0xabc"})
	assert.NilError(t, err)

	tx.Body = []byte(`{"receiver":"0xdef"}`)
	assert.ErrorContains(t, tx.Verify(), ErrSignatureValidation.Error())
}

func TestTransactionFromDifferentKeyFailsVerification(t *testing.T) {
	goodKey, err := crypto.GenerateKey()
	assert.NilError(t, err)
	badKey, err := crypto.GenerateKey()
	assert.NilError(t, err)

	tx, err := NewTransaction(goodKey, "pet-ledger", 7, struct{}{})
	assert.NilError(t, err)

	// Claim the envelope was signed by someone else.
	tx.Signer = crypto.PubkeyToAddress(badKey.PublicKey).Hex()
	assert.ErrorContains(t, tx.Verify(), ErrSignatureValidation.Error())
}

func TestUnmarshalRejectsMissingFields(t *testing.T) {
	_, err := UnmarshalTransaction([]byte(`{"namespace":"pet-ledger","nonce":1}`))
	assert.ErrorContains(t, err, ErrInvalidTransaction.Error())
}
