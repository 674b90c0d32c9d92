package chain

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeStoreProof(t *testing.T) {
	got, err := EncodeStoreProof(ProofData{
		UserID:  "ab",
		Name:    "N",
		Dob:     "d",
		ZkProof: []byte{1, 2},
	})
	require.NoError(t, err)

	want := []byte{135, 188, 214, 120, 42, 122, 73, 134}
	want = append(want, 2, 0, 0, 0, 'a', 'b')
	want = append(want, 0, 0, 0, 0)
	want = append(want, 1, 0, 0, 0, 'N')
	want = append(want, 1, 0, 0, 0, 'd')
	want = append(want, 2, 0, 0, 0, 1, 2)
	assert.Equal(t, want, got)
}

func TestEncodeStoreProofNilProof(t *testing.T) {
	got, err := EncodeStoreProof(ProofData{})
	require.NoError(t, err)
	assert.Len(t, got, 8+4*5)
}

func TestNewStoreProofInstructionAccounts(t *testing.T) {
	programID := solana.MustPublicKeyFromBase58(DefaultProgramID)
	proofAccount := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()

	ix, err := NewStoreProofInstruction(programID, proofAccount, user, ProofData{UserID: "u"})
	require.NoError(t, err)
	assert.True(t, ix.ProgramID().Equals(programID))

	accounts := ix.Accounts()
	require.Len(t, accounts, 3)
	assert.True(t, accounts[0].PublicKey.Equals(proofAccount))
	assert.True(t, accounts[0].IsSigner)
	assert.True(t, accounts[0].IsWritable)
	assert.True(t, accounts[1].PublicKey.Equals(user))
	assert.True(t, accounts[1].IsSigner)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, "11111111111111111111111111111111", accounts[2].PublicKey.String())
	assert.False(t, accounts[2].IsSigner)
	assert.False(t, accounts[2].IsWritable)
}
