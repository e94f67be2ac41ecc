package chains

import (
	"context"
	"fmt"
	"time"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/storageKey"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/transactionSigner"
)

// AverageBlockInterval is the block time of Cumulus based parachains.
const AverageBlockInterval = 12 * time.Second

const (
	utilityPalletIndex = 30
	batchAllCallIndex  = 2
)

type RuntimeVersion struct {
	SpecVersion        uint32
	TransactionVersion uint32
}

// Chain describes a parachain that accepts Ethereum style signed extrinsics and takes
// part in a bridge.
type Chain struct {
	Name         config.ChainName
	DisplayName  string
	BridgedChain config.ChainName

	// runtimeApiPrefix names the runtime APIs the chain exposes to relayers,
	// e.g. MoonbeamPolkadotFinalityApi.
	runtimeApiPrefix string

	RuntimeVersion       RuntimeVersion
	AverageBlockInterval time.Duration
	UtilityPalletIndex   uint8
	BatchAllCallIndex    uint8
	MetadataHashMode     extension.MetadataHashMode
}

var (
	Moonbeam = &Chain{
		Name:                 config.ChainName_Moonbeam,
		DisplayName:          "Moonbeam",
		BridgedChain:         config.ChainName_Moonriver,
		runtimeApiPrefix:     "MoonbeamPolkadot",
		RuntimeVersion:       RuntimeVersion{SpecVersion: 3700, TransactionVersion: 3},
		AverageBlockInterval: AverageBlockInterval,
		UtilityPalletIndex:   utilityPalletIndex,
		BatchAllCallIndex:    batchAllCallIndex,
		MetadataHashMode:     extension.MetadataHashModeDisabled,
	}
	Moonriver = &Chain{
		Name:                 config.ChainName_Moonriver,
		DisplayName:          "Moonriver",
		BridgedChain:         config.ChainName_Moonbeam,
		runtimeApiPrefix:     "MoonriverKusama",
		RuntimeVersion:       RuntimeVersion{SpecVersion: 3700, TransactionVersion: 3},
		AverageBlockInterval: AverageBlockInterval,
		UtilityPalletIndex:   utilityPalletIndex,
		BatchAllCallIndex:    batchAllCallIndex,
		MetadataHashMode:     extension.MetadataHashModeDisabled,
	}
	// Stagenet and Betanet are both Moonbase runtimes and share the moonbase_westend APIs.
	Stagenet = &Chain{
		Name:                 config.ChainName_Stagenet,
		DisplayName:          "Stagenet",
		BridgedChain:         config.ChainName_Betanet,
		runtimeApiPrefix:     "MoonbaseWestend",
		RuntimeVersion:       RuntimeVersion{SpecVersion: 3700, TransactionVersion: 3},
		AverageBlockInterval: AverageBlockInterval,
		UtilityPalletIndex:   utilityPalletIndex,
		BatchAllCallIndex:    batchAllCallIndex,
		MetadataHashMode:     extension.MetadataHashModeDisabled,
	}
	Betanet = &Chain{
		Name:                 config.ChainName_Betanet,
		DisplayName:          "Betanet",
		BridgedChain:         config.ChainName_Stagenet,
		runtimeApiPrefix:     "MoonbaseWestend",
		RuntimeVersion:       RuntimeVersion{SpecVersion: 3700, TransactionVersion: 3},
		AverageBlockInterval: AverageBlockInterval,
		UtilityPalletIndex:   utilityPalletIndex,
		BatchAllCallIndex:    batchAllCallIndex,
		MetadataHashMode:     extension.MetadataHashModeDisabled,
	}

	chainsByName = map[config.ChainName]*Chain{
		config.ChainName_Moonbeam:  Moonbeam,
		config.ChainName_Moonriver: Moonriver,
		config.ChainName_Stagenet:  Stagenet,
		config.ChainName_Betanet:   Betanet,
	}
)

func GetChain(name config.ChainName) (*Chain, error) {
	chain, ok := chainsByName[name]
	if !ok {
		return nil, fmt.Errorf("unsupported chain %q. Supported: %s", name, config.GetSupportedChainNamesString())
	}
	return chain, nil
}

// AllChains returns the supported chains in the order of config.GetSupportedChainNames.
func AllChains() []*Chain {
	names := config.GetSupportedChainNames()
	all := make([]*Chain, 0, len(names))
	for _, name := range names {
		all = append(all, chainsByName[name])
	}
	return all
}

func (c *Chain) BestFinalizedHeaderIdMethod() string {
	return c.runtimeApiPrefix + "FinalityApi_best_finalized"
}

func (c *Chain) FreeHeadersIntervalMethod() string {
	return c.runtimeApiPrefix + "FinalityApi_free_headers_interval"
}

// ToChainMessageDetailsMethod is the outbound lane API of the bridged chain that reports
// messages sent to this chain.
func (c *Chain) ToChainMessageDetailsMethod() string {
	return "To" + c.runtimeApiPrefix + "OutboundLaneApi_message_details"
}

func (c *Chain) FromChainMessageDetailsMethod() string {
	return "From" + c.runtimeApiPrefix + "InboundLaneApi_message_details"
}

// SignParam fills the chain's runtime version and metadata hash mode.
func (c *Chain) SignParam(genesisHash [32]byte, signer keyPair.IKeyPair) transactionSigner.SignParam {
	return transactionSigner.SignParam{
		SpecVersion:        c.RuntimeVersion.SpecVersion,
		TransactionVersion: c.RuntimeVersion.TransactionVersion,
		GenesisHash:        genesisHash,
		Signer:             signer,
		MetadataHashMode:   c.MetadataHashMode,
	}
}

func (c *Chain) SignTransaction(
	ctx context.Context,
	ts transactionSigner.ITransactionSigner,
	genesisHash [32]byte,
	signer keyPair.IKeyPair,
	unsigned transactionSigner.UnsignedTransaction,
) (*extrinsic.UncheckedExtrinsic, error) {
	return ts.SignTransaction(ctx, c.SignParam(genesisHash, signer), unsigned)
}

// VerifyExtrinsic checks ext against this chain's runtime version. era must carry the
// anchor block the transaction was signed at.
func (c *Chain) VerifyExtrinsic(
	ts transactionSigner.ITransactionSigner,
	genesisHash [32]byte,
	era extension.TransactionEra,
	ext *extrinsic.UncheckedExtrinsic,
) bool {
	return ts.VerifyExtrinsic(ext, transactionSigner.ImplicitFor(c.SignParam(genesisHash, nil), era))
}

func (c *Chain) BatchAll(calls ...extrinsic.Call) extrinsic.UtilityCall {
	return extrinsic.BatchAll(c.UtilityPalletIndex, c.BatchAllCallIndex, calls...)
}

func (c *Chain) AccountInfoStorageKey(id account.AccountId20) storageKey.StorageKey {
	return storageKey.AccountInfoKey(id)
}

// MortalityBlocks converts a wall clock validity window into a period in blocks, capped at
// extension.MaxEraPeriod.
func (c *Chain) MortalityBlocks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	blocks := d / c.AverageBlockInterval
	if d%c.AverageBlockInterval != 0 {
		blocks++
	}
	if blocks > extension.MaxEraPeriod {
		return extension.MaxEraPeriod
	}
	return uint32(blocks)
}

func (c *Chain) String() string {
	return c.DisplayName
}
