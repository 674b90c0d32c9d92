package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"zkid/internal/platform/config"
	"zkid/internal/platform/metrics"
	"zkid/pkg/requestcontext"
)

// Receipt describes what Anchor did.
type Receipt struct {
	DryRun       bool
	ProofAccount string
	Signature    string
	Instruction  []byte
}

// Anchorer logs every storeProof instruction and sends it only when a payer
// is configured. The wallet cannot sign server-side, so when sending the
// payer fills the user account and the wallet is carried in ProofData.
type Anchorer struct {
	programID solana.PublicKey
	client    *rpc.Client
	payer     *solana.PrivateKey
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewAnchorer(cfg config.Solana, logger *slog.Logger, m *metrics.Metrics) (*Anchorer, error) {
	programID := cfg.ProgramID
	if programID == "" {
		programID = DefaultProgramID
	}
	pid, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q: %w", programID, err)
	}
	a := &Anchorer{programID: pid, logger: logger, metrics: m}
	if !cfg.Submit {
		return a, nil
	}

	payer, err := solana.PrivateKeyFromSolanaKeygenFile(cfg.PayerKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read payer keypair from %s: %w", cfg.PayerKeyPath, err)
	}
	endpoint := cfg.RPCURL
	if endpoint == "" {
		endpoint = rpc.DevNet_RPC
	}
	a.payer = &payer
	a.client = rpc.New(endpoint)
	return a, nil
}

func (a *Anchorer) DryRun() bool { return a.client == nil }

// Anchor builds storeProof for the wallet's proof and, outside dry-run mode,
// submits it. proofHash is the hex digest stored as zk_proof.
func (a *Anchorer) Anchor(ctx context.Context, wallet, name, dob, proofHash string) (*Receipt, error) {
	walletKey, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, fmt.Errorf("invalid wallet %q: %w", wallet, err)
	}
	zk, err := hex.DecodeString(proofHash)
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, fmt.Errorf("invalid proof hash: %w", err)
	}
	proofAccount, err := solana.NewRandomPrivateKey()
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, fmt.Errorf("generate proof account: %w", err)
	}

	user := walletKey
	if a.payer != nil {
		user = a.payer.PublicKey()
	}
	data := ProofData{UserID: wallet, Name: name, Dob: dob, ZkProof: zk}
	ix, err := NewStoreProofInstruction(a.programID, proofAccount.PublicKey(), user, data)
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, err
	}
	raw, err := ix.Data()
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, fmt.Errorf("instruction data: %w", err)
	}

	receipt := &Receipt{DryRun: a.DryRun(), ProofAccount: proofAccount.PublicKey().String(), Instruction: raw}
	a.logger.InfoContext(ctx, "storeProof instruction built",
		"request_id", requestcontext.RequestID(ctx),
		"program_id", a.programID.String(),
		"proof_account", receipt.ProofAccount,
		"data_bytes", len(raw),
		"dry_run", receipt.DryRun,
	)
	if receipt.DryRun {
		a.metrics.IncrementAnchor("dry_run")
		return receipt, nil
	}

	sig, err := a.send(ctx, ix, proofAccount)
	if err != nil {
		a.metrics.IncrementAnchor("failed")
		return nil, err
	}
	receipt.Signature = sig.String()
	a.metrics.IncrementAnchor("submitted")
	return receipt, nil
}

func (a *Anchorer) send(ctx context.Context, ix solana.Instruction, proofAccount solana.PrivateKey) (solana.Signature, error) {
	latest, err := a.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		latest.Value.Blockhash,
		solana.TransactionPayer(a.payer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(a.payer.PublicKey()) {
			return a.payer
		}
		if pk.Equals(proofAccount.PublicKey()) {
			return &proofAccount
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}
	sig, err := a.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}
