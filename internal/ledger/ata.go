package ledger

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
)

var associatedTokenProgramID = solana.MustPublicKeyFromBase58(constants.ProgramAddresses["AssociatedTokenAccount"])

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint).
// The owner may itself be off-curve, as pool config addresses are.
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (ata solana.PublicKey, bump uint8, err error) {
	// Seeds: [owner, token_program, mint]
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			solana.TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		associatedTokenProgramID,
	)
}
