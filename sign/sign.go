// Package sign provides the signed envelope that carries a command to the
// sequencer. The envelope binds a signer address, a namespace, and a nonce to
// an arbitrary JSON body with a secp256k1 signature over the keccak hash of
// all four.
package sign

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

var (
	// ErrSignatureValidation is returned when a signature does not recover
	// to the transaction's signer address.
	ErrSignatureValidation = eris.New("signature validation failed")
	// ErrInvalidTransaction is returned when an envelope is missing a
	// required field.
	ErrInvalidTransaction = eris.New("invalid transaction")
)

// Transaction is a signed command envelope. Body holds the JSON encoding of
// the command; the command name travels out of band (the submission route).
type Transaction struct {
	Signer    string          `json:"signer"`
	Namespace string          `json:"namespace"`
	Nonce     uint64          `json:"nonce"`
	Signature []byte          `json:"signature"`
	Body      json.RawMessage `json:"body"`
}

// NewTransaction signs the given data under the namespace and nonce. The
// signer address is derived from the private key.
func NewTransaction(
	pk *ecdsa.PrivateKey, namespace string, nonce uint64, data any,
) (*Transaction, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal transaction body")
	}
	tx := &Transaction{
		Signer:    crypto.PubkeyToAddress(pk.PublicKey).Hex(),
		Namespace: namespace,
		Nonce:     nonce,
		Body:      body,
	}
	sig, err := crypto.Sign(tx.hash().Bytes(), pk)
	if err != nil {
		return nil, eris.Wrap(err, "failed to sign transaction")
	}
	tx.Signature = sig
	return tx, nil
}

// UnmarshalTransaction decodes a transaction from its JSON form. Verify must
// still be called before the envelope is trusted.
func UnmarshalTransaction(buf []byte) (*Transaction, error) {
	tx := &Transaction{}
	if err := json.Unmarshal(buf, tx); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal transaction")
	}
	if tx.Signer == "" || len(tx.Signature) == 0 {
		return nil, eris.Wrap(ErrInvalidTransaction, "missing signer or signature")
	}
	return tx, nil
}

// Marshal serializes the transaction so it can round-trip through
// UnmarshalTransaction.
func (t *Transaction) Marshal() ([]byte, error) {
	buf, err := json.Marshal(t)
	return buf, eris.Wrap(err, "failed to marshal transaction")
}

// Verify checks that the signature recovers to the envelope's signer
// address. A nil return means the signature is valid.
func (t *Transaction) Verify() error {
	pub, err := crypto.SigToPub(t.hash().Bytes(), t.Signature)
	if err != nil {
		return eris.Wrap(err, "failed to recover public key")
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(t.Signer) {
		return eris.Wrap(ErrSignatureValidation, t.Signer)
	}
	return nil
}

// Hash returns the keccak hash of the signed fields. It identifies the
// transaction in the pending pool and in receipts.
func (t *Transaction) Hash() common.Hash {
	return t.hash()
}

// HashHex returns the hash as a 0x-prefixed hex string.
func (t *Transaction) HashHex() string {
	return t.hash().Hex()
}

func (t *Transaction) hash() common.Hash {
	h := crypto.NewKeccakState()
	h.Write([]byte(t.Signer))
	h.Write([]byte(t.Namespace))
	h.Write([]byte(fmt.Sprintf("%d", t.Nonce)))
	h.Write(t.Body)
	var out common.Hash
	h.Read(out[:])
	return out
}
