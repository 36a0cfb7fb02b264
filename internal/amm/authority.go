package amm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
)

// Credential is the pool's signing credential for the withdrawal leg. It only
// carries the seed/bump pair; deriving and verifying the signer is the
// transfer capability's job.
type Credential struct {
	Seed uint64
	Bump uint8
}

// AuthorityCredential returns the pool credential for (seed, bump). It is
// recomputed for every swap and never stored on the pool.
func AuthorityCredential(seed uint64, bump uint8) Credential {
	return Credential{Seed: seed, Bump: bump}
}

// SignerSeeds returns ["config", seed_le_u64, [bump]].
func (c Credential) SignerSeeds() [][]byte {
	return append(ConfigSeeds(c.Seed), []byte{c.Bump})
}

// ConfigSeeds returns the pool config seeds without the bump:
// ["config", seed_le_u64]
func ConfigSeeds(seed uint64) [][]byte {
	seedLE := make([]byte, 8)
	binary.LittleEndian.PutUint64(seedLE, seed)
	return [][]byte{[]byte(constants.ConfigSeedPrefix), seedLE}
}

// Authority is who authorizes a transfer: either a trader signature or the
// pool credential.
type Authority struct {
	Signer     solana.PublicKey
	Credential *Credential
}

// TraderAuthority authorizes a transfer out of a trader-owned account
func TraderAuthority(trader solana.PublicKey) Authority {
	return Authority{Signer: trader}
}

// PoolAuthority authorizes a transfer out of a pool vault
func PoolAuthority(c Credential) Authority {
	return Authority{Credential: &c}
}

// IsDerived reports whether the authority is a pool credential
func (a Authority) IsDerived() bool {
	return a.Credential != nil
}
