// Package chain anchors proof artifacts on Solana through the
// citizenship_verifier Anchor program.
package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// DefaultProgramID is the deployed citizenship_verifier program.
const DefaultProgramID = "F9BEdj8sdPevfz2mYCxC3seg9MW9edLRUyGs8gsPjmRx"

// storeProofDiscriminator is the Anchor sighash of "global:store_proof".
var storeProofDiscriminator = [8]byte{135, 188, 214, 120, 42, 122, 73, 134}

// ProofData is the storeProof argument. Field order is the wire order.
type ProofData struct {
	UserID            string
	CitizenshipNumber string
	Name              string
	Dob               string
	ZkProof           []byte
}

// EncodeStoreProof returns the instruction data: discriminator followed by
// the borsh-encoded ProofData.
func EncodeStoreProof(data ProofData) ([]byte, error) {
	if data.ZkProof == nil {
		data.ZkProof = []byte{}
	}
	args, err := borsh.Serialize(data)
	if err != nil {
		return nil, fmt.Errorf("encode proof data: %w", err)
	}
	out := make([]byte, 0, len(storeProofDiscriminator)+len(args))
	out = append(out, storeProofDiscriminator[:]...)
	return append(out, args...), nil
}

// NewStoreProofInstruction builds storeProof with accounts
// [proofAccount (signer, writable), user (signer, writable), system program].
func NewStoreProofInstruction(programID, proofAccount, user solana.PublicKey, data ProofData) (solana.Instruction, error) {
	payload, err := EncodeStoreProof(data)
	if err != nil {
		return nil, err
	}
	accounts := []*solana.AccountMeta{
		solana.NewAccountMeta(proofAccount, true, true),
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(programID, accounts, payload), nil
}
