package derive

import "github.com/ethereum/go-ethereum/common"

// Authorizer is the credential a transfer is executed under.
type Authorizer interface {
	// Identity is the address that must own the source vault.
	Identity() common.Address
	// Verify reports whether the credential is valid for the program.
	Verify(program common.Address) bool
}

// Participant is a caller identity the host has already authenticated.
type Participant common.Address

func (p Participant) Identity() common.Address {
	return common.Address(p)
}

func (p Participant) Verify(common.Address) bool {
	return common.Address(p) != (common.Address{})
}

// Capability lets a pool authorize transfers out of the vaults it controls.
// It carries no secret: it is valid only when its seeds re-derive its address
// under the verifying program.
type Capability struct {
	program common.Address
	ns      Namespace
	seeds   [][]byte
	address common.Address
}

// PoolCapability builds the signing capability of the pool for slug.
func PoolCapability(program common.Address, slug Slug) Capability {
	seed := slug.Bytes()
	return Capability{
		program: program,
		ns:      NamespacePool,
		seeds:   [][]byte{seed},
		address: Address(program, NamespacePool, seed),
	}
}

func (c Capability) Identity() common.Address {
	return c.address
}

func (c Capability) Verify(program common.Address) bool {
	if c.ns == "" || c.program != program {
		return false
	}
	return Address(program, c.ns, c.seeds...) == c.address
}
