package derive

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namespace tags a derived address with the kind of record it locates.
type Namespace string

const (
	NamespaceState    Namespace = "state"
	NamespacePool     Namespace = "pool"
	NamespaceUserPool Namespace = "user_pool"
	NamespaceVault    Namespace = "vault"
	NamespaceFeeVault Namespace = "fee_vault"
)

// derivedMarker keeps derived addresses out of the keccak preimage space used
// by externally owned accounts.
const derivedMarker = 0xff

// Address derives a stable identity from the program address, a namespace tag
// and the contextual seeds. The namespace is length-prefixed so no tag can
// alias another tag followed by seed bytes.
func Address(program common.Address, ns Namespace, seeds ...[]byte) common.Address {
	parts := make([][]byte, 0, len(seeds)+4)
	parts = append(parts, []byte{derivedMarker}, program.Bytes(), []byte{byte(len(ns))}, []byte(ns))
	parts = append(parts, seeds...)
	hash := crypto.Keccak256(parts...)
	return common.BytesToAddress(hash[12:])
}

// State returns the address of the singleton authority record.
func State(program common.Address) common.Address {
	return Address(program, NamespaceState)
}

// Pool returns the address of the pool record for a slug.
func Pool(program common.Address, slug Slug) common.Address {
	return Address(program, NamespacePool, slug.Bytes())
}

// Position returns the address of a participant's position in a pool.
func Position(program common.Address, slug Slug, participant common.Address) common.Address {
	return Address(program, NamespaceUserPool, slug.Bytes(), participant.Bytes())
}

// DepositVault returns the address of the pool's deposit custody vault.
func DepositVault(program common.Address, slug Slug) common.Address {
	return Address(program, NamespaceVault, slug.Bytes())
}

// FeeVault returns the address of the pool's fee custody vault.
func FeeVault(program common.Address, slug Slug) common.Address {
	return Address(program, NamespaceFeeVault, slug.Bytes())
}
