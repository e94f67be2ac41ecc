package main

import (
	"fmt"
	"math/big"
	"strings"

	awsSdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/internal/aws"
	"github.com/moonbeam-foundation/bridge-signer-go/internal/keyGenerator"
	"github.com/moonbeam-foundation/bridge-signer-go/internal/keyGenerator/awsKms"
	"github.com/moonbeam-foundation/bridge-signer-go/internal/keyGenerator/localKeyGenerator"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/chains"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/logger"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/storageKey"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/transactionSigner"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func parseHash(s string) ([32]byte, error) {
	var hash [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return hash, errors.Wrapf(err, "invalid hash %q", s)
	}
	if len(b) != len(hash) {
		return hash, errors.Errorf("hash must be 32 bytes, got %d", len(b))
	}
	copy(hash[:], b)
	return hash, nil
}

func chainFromContext(c *cli.Context) (*chains.Chain, error) {
	name, err := config.ParseChainName(c.String("chain"))
	if err != nil {
		return nil, err
	}
	return chains.GetChain(name)
}

func printAccount(c *cli.Context, id account.AccountId20) {
	fmt.Fprintf(c.App.Writer, "Account:  %s\n", id.String())
	fmt.Fprintf(c.App.Writer, "Checksum: %s\n", id.ChecksumHex())
}

func deriveAddressCommand(c *cli.Context) error {
	if pubHex := c.String("public-key"); pubHex != "" {
		b, err := hexutil.Decode(pubHex)
		if err != nil {
			return errors.Wrap(err, "invalid public key")
		}
		if len(b) != account.CompressedPublicKeyLength {
			return errors.Errorf("public key must be %d bytes, got %d", account.CompressedPublicKeyLength, len(b))
		}
		var pub account.CompressedPublicKey
		copy(pub[:], b)

		id, err := account.TryFromPublicKey(pub)
		if err != nil {
			return err
		}
		printAccount(c, id)
		return nil
	}

	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg := parseConfig(c)
	if err := cfg.ValidateKeyPair(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	kp, err := newKeyPair(c.Context, &cfg.KeyPair, l)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Key:      %s\n", kp.Id())
	fmt.Fprintf(c.App.Writer, "Public:   %s\n", kp.Public())
	printAccount(c, keyPair.AccountOf(kp))
	return nil
}

func parseAddressCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one address argument")
	}
	id, err := account.ParseAccountId(strings.TrimSpace(c.Args().First()))
	if err != nil {
		return err
	}
	printAccount(c, id)
	return nil
}

// eraFromFlags returns an immortal era unless an anchor block hash is given.
func eraFromFlags(c *cli.Context, chain *chains.Chain) (extension.TransactionEra, error) {
	hashHex := c.String("era-block-hash")
	if hashHex == "" {
		return extension.Immortal(), nil
	}
	hash, err := parseHash(hashHex)
	if err != nil {
		return extension.TransactionEra{}, err
	}

	period := uint32(c.Uint64("era-period"))
	if c.IsSet("mortality") && !c.IsSet("era-period") {
		period = chain.MortalityBlocks(c.Duration("mortality"))
	}
	return extension.Mortal(uint32(c.Uint64("era-block-number")), hash, period), nil
}

func callFromFlags(c *cli.Context, chain *chains.Chain) (extrinsic.Call, error) {
	encoded := c.StringSlice("call")
	calls := make([]extrinsic.Call, 0, len(encoded))
	for _, s := range encoded {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid call %q", s)
		}
		if len(b) < 2 {
			return nil, errors.Errorf("call %q is shorter than its pallet and call index", s)
		}
		calls = append(calls, extrinsic.EncodedCall(b))
	}
	if len(calls) == 1 {
		return calls[0], nil
	}
	return chain.BatchAll(calls...), nil
}

func signCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg := parseConfig(c)
	if cfg.GenesisHash == "" {
		return errors.New("--genesis-hash is required to sign")
	}
	if cfg.Persistence.Type != "" {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateKeyPair()
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	chain, err := chainFromContext(c)
	if err != nil {
		return err
	}
	genesis, err := cfg.GenesisHashBytes()
	if err != nil {
		return err
	}

	call, err := callFromFlags(c, chain)
	if err != nil {
		return err
	}
	era, err := eraFromFlags(c, chain)
	if err != nil {
		return err
	}
	tip, ok := new(big.Int).SetString(c.String("tip"), 10)
	if !ok {
		return errors.Errorf("invalid tip %q", c.String("tip"))
	}
	nonce := c.Uint64("nonce")
	if nonce > uint64(^uint32(0)) {
		return errors.Errorf("nonce %d overflows u32", nonce)
	}

	kp, err := newKeyPair(c.Context, &cfg.KeyPair, l)
	if err != nil {
		return err
	}

	unsigned := transactionSigner.NewUnsignedTransaction(call, uint32(nonce)).WithTip(tip).WithEra(era)
	ext, err := chain.SignTransaction(c.Context, transactionSigner.NewTransactionSigner(l), genesis, kp, unsigned)
	if err != nil {
		return err
	}

	encoded, err := ext.Hex()
	if err != nil {
		return err
	}
	hash, err := ext.Hash()
	if err != nil {
		return err
	}

	if cfg.Persistence.Type != "" {
		if err := journal(cfg, chain, ext, l); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.App.Writer, "Signer:    %s\n", ext.Signer.String())
	fmt.Fprintf(c.App.Writer, "Era:       %s\n", ext.Extension.Era)
	fmt.Fprintf(c.App.Writer, "Hash:      %s\n", hexutil.Encode(hash[:]))
	fmt.Fprintf(c.App.Writer, "Extrinsic: %s\n", encoded)
	return nil
}

func journal(cfg *config.BridgeSignerConfig, chain *chains.Chain, ext *extrinsic.UncheckedExtrinsic, l *zap.Logger) error {
	store, err := newStore(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	record, err := persistence.NewSignedTransactionRecord(chain.Name, ext)
	if err != nil {
		return err
	}
	if err := store.SaveSignedTransaction(record); err != nil {
		return errors.Wrap(err, "failed to journal signed transaction")
	}
	l.Sugar().Infow("Journaled signed transaction", "hash", record.Hash, "signer", record.Signer.String(), "nonce", record.Nonce)
	return nil
}

func verifyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	chain, err := chainFromContext(c)
	if err != nil {
		return err
	}
	genesis, err := parseHash(c.String("genesis-hash"))
	if err != nil {
		return errors.Wrap(err, "--genesis-hash")
	}

	ext, err := extrinsic.DecodeUncheckedExtrinsicHex(c.String("extrinsic"))
	if err != nil {
		return err
	}

	era := extension.Immortal()
	if !ext.Extension.Era.IsImmortal() {
		hashHex := c.String("era-block-hash")
		if hashHex == "" {
			return errors.Errorf("extrinsic is %s, --era-block-hash is required", ext.Extension.Era)
		}
		anchor, err := parseHash(hashHex)
		if err != nil {
			return err
		}
		era = extension.Mortal(uint32(ext.Extension.Era.Phase), anchor, uint32(ext.Extension.Era.Period))
	}

	fmt.Fprintf(c.App.Writer, "Signer: %s\n", ext.Signer.String())
	fmt.Fprintf(c.App.Writer, "Nonce:  %d\n", ext.Extension.Nonce)
	fmt.Fprintf(c.App.Writer, "Tip:    %s\n", ext.Extension.TipOrZero())
	fmt.Fprintf(c.App.Writer, "Era:    %s\n", ext.Extension.Era)

	if !chain.VerifyExtrinsic(transactionSigner.NewTransactionSigner(l), genesis, era, ext) {
		return errors.Errorf("signature does not verify for %s", chain)
	}
	fmt.Fprintf(c.App.Writer, "Valid:  true\n")
	return nil
}

func storageKeyCommand(c *cli.Context) error {
	if addr := c.String("account"); addr != "" {
		id, err := account.ParseAccountId(strings.TrimSpace(addr))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, storageKey.AccountInfoKey(id).String())
		return nil
	}

	pallet, item := c.String("pallet"), c.String("item")
	if pallet == "" || item == "" {
		return errors.New("either --account or both --pallet and --item are required")
	}
	if !c.IsSet("key") {
		fmt.Fprintln(c.App.Writer, storageKey.StorageValueKey(pallet, item).String())
		return nil
	}

	hasher, err := storageKey.ParseHasher(c.String("hasher"))
	if err != nil {
		return err
	}
	encodedKey, err := hexutil.Decode(c.String("key"))
	if err != nil {
		return errors.Wrap(err, "invalid --key")
	}
	key, err := storageKey.StorageMapFinalKey(pallet, item, hasher, encodedKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, key.String())
	return nil
}

func chainsCommand(c *cli.Context) error {
	for _, chain := range chains.AllChains() {
		fmt.Fprintf(c.App.Writer, "%s (%s)\n", chain.Name, chain.DisplayName)
		fmt.Fprintf(c.App.Writer, "  bridged with:     %s\n", chain.BridgedChain)
		fmt.Fprintf(c.App.Writer, "  runtime version:  spec %d, tx %d\n", chain.RuntimeVersion.SpecVersion, chain.RuntimeVersion.TransactionVersion)
		fmt.Fprintf(c.App.Writer, "  block interval:   %s\n", chain.AverageBlockInterval)
		fmt.Fprintf(c.App.Writer, "  batch_all:        pallet %d, call %d\n", chain.UtilityPalletIndex, chain.BatchAllCallIndex)
		fmt.Fprintf(c.App.Writer, "  best finalized:   %s\n", chain.BestFinalizedHeaderIdMethod())
		fmt.Fprintf(c.App.Writer, "  free headers:     %s\n", chain.FreeHeadersIntervalMethod())
		fmt.Fprintf(c.App.Writer, "  outbound details: %s\n", chain.ToChainMessageDetailsMethod())
		fmt.Fprintf(c.App.Writer, "  inbound details:  %s\n", chain.FromChainMessageDetailsMethod())
	}
	return nil
}

func openJournal(c *cli.Context) (persistence.ISignedTransactionStore, *zap.Logger, error) {
	l, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}
	cfg := parseConfig(c)
	if err := cfg.ValidatePersistence(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store, err := newStore(&cfg.Persistence, l)
	if err != nil {
		return nil, nil, err
	}
	return store, l, nil
}

func journalListCommand(c *cli.Context) error {
	signer, err := account.ParseAccountId(strings.TrimSpace(c.String("signer")))
	if err != nil {
		return err
	}
	store, _, err := openJournal(c)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.ListSignedTransactions(signer)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Fprintf(c.App.Writer, "%s  nonce %-8d %-10s %d\n", record.Hash, record.Nonce, record.Chain, record.CreatedAt)
	}
	fmt.Fprintf(c.App.Writer, "%d signed transaction(s) for %s\n", len(records), signer.String())
	return nil
}

func journalShowCommand(c *cli.Context) error {
	store, _, err := openJournal(c)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	record, err := store.LoadSignedTransaction(c.String("hash"))
	if err != nil {
		return err
	}
	if record == nil {
		return errors.Errorf("no journaled transaction with hash %s", c.String("hash"))
	}
	fmt.Fprintf(c.App.Writer, "Chain:     %s\n", record.Chain)
	fmt.Fprintf(c.App.Writer, "Signer:    %s\n", record.Signer.String())
	fmt.Fprintf(c.App.Writer, "Nonce:     %d\n", record.Nonce)
	fmt.Fprintf(c.App.Writer, "Extrinsic: %s\n", record.EncodedExtrinsic)
	return nil
}

func journalDeleteCommand(c *cli.Context) error {
	store, l, err := openJournal(c)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteSignedTransaction(c.String("hash")); err != nil {
		return err
	}
	l.Sugar().Infow("Deleted journaled transaction", "hash", c.String("hash"))
	return nil
}

// loadAWSConfig loads the AWS config and logs the principal it resolves to.
func loadAWSConfig(c *cli.Context, l *zap.Logger) (awsSdk.Config, error) {
	awsCfg, err := aws.LoadAWSConfig(c.Context, aws.LoadOptions{
		Region:  c.String("aws-region"),
		Profile: c.String("aws-profile"),
	})
	if err != nil {
		return awsSdk.Config{}, err
	}

	identity, err := aws.CallerIdentity(c.Context, awsCfg)
	if err != nil {
		return awsSdk.Config{}, err
	}
	l.Sugar().Infow("Using AWS identity", "arn", identity, "region", awsCfg.Region)
	return awsCfg, nil
}

func printGeneratedKey(c *cli.Context, generated *keyGenerator.GeneratedKey) {
	fmt.Fprintf(c.App.Writer, "Key:      %s\n", generated.KeyId)
	fmt.Fprintf(c.App.Writer, "Public:   %s\n", generated.Public)
	printAccount(c, generated.Account)
	if generated.PrivateKey != "" {
		fmt.Fprintf(c.App.Writer, "Private:  %s\n", generated.PrivateKey)
	}
}

func generateKeyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	generated, err := localKeyGenerator.NewLocalKeyGenerator(l).GenerateKey(c.Context, c.String("name"), "")
	if err != nil {
		return err
	}
	printGeneratedKey(c, generated)
	return nil
}

func kmsCreateKeyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	awsCfg, err := loadAWSConfig(c, l)
	if err != nil {
		return err
	}

	generator := awsKms.NewAWSKMSKeyGenerator(awsCfg, c.String("chain"), l)
	generated, err := generator.GenerateKey(c.Context, c.String("name"), c.String("alias"))
	if err != nil {
		return err
	}
	printGeneratedKey(c, generated)
	return nil
}

func kmsWhoamiCommand(c *cli.Context) error {
	awsCfg, err := aws.LoadAWSConfig(c.Context, aws.LoadOptions{
		Region:  c.String("aws-region"),
		Profile: c.String("aws-profile"),
	})
	if err != nil {
		return err
	}
	identity, err := aws.CallerIdentity(c.Context, awsCfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, identity)
	return nil
}
