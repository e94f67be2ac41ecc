package main

import (
	"fmt"
	"log"
	"os"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bridge-signer",
		Usage: "Sign and inspect bridge relayer transactions for Ethereum account chains",
		Description: `Offline tooling for relayers that submit transactions to Moonbeam based parachains.

Accounts are 20 byte Ethereum addresses and signatures are recoverable secp256k1
signatures. The signing key is either held in memory or lives in AWS KMS.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "chain",
				Usage:   fmt.Sprintf("Target chain: %s", config.GetSupportedChainNamesString()),
				Value:   config.ChainName_Moonbeam.String(),
				EnvVars: []string{config.EnvChain},
			},
			&cli.StringFlag{
				Name:    "genesis-hash",
				Aliases: []string{"genesis"},
				Usage:   "Genesis hash of the target chain (0x prefixed)",
				EnvVars: []string{config.EnvGenesisHash},
			},
			&cli.StringFlag{
				Name:    "key-pair-type",
				Usage:   "Signing key backend: memory or aws-kms",
				Value:   string(config.KeyPairType_Memory),
				EnvVars: []string{config.EnvKeyPairType},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex encoded secp256k1 private key for the memory backend",
				EnvVars: []string{config.EnvPrivateKey},
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "KMS key id, ARN or alias for the aws-kms backend",
				EnvVars: []string{config.EnvKMSKeyId},
			},
			&cli.Float64Flag{
				Name:    "kms-requests-per-second",
				Usage:   "Maximum KMS requests per second, 0 for unlimited",
				EnvVars: []string{config.EnvKMSRequestsPerSecond},
			},
			&cli.IntFlag{
				Name:  "kms-burst",
				Usage: "KMS request burst size",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region override",
				EnvVars: []string{config.EnvAWSRegion},
			},
			&cli.StringFlag{
				Name:    "aws-profile",
				Usage:   "AWS shared config profile",
				EnvVars: []string{config.EnvAWSProfile},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Usage:   "Signed transaction journal: memory, badger or redis. Empty disables the journal when signing",
				EnvVars: []string{config.EnvPersistenceType},
			},
			&cli.StringFlag{
				Name:    "badger-dir",
				Usage:   "Directory of the badger journal",
				EnvVars: []string{config.EnvBadgerDir},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port) of the redis journal",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every redis key",
				EnvVars: []string{config.EnvRedisKeyPrefix},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvDebug},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "derive-address",
				Usage: "Derive the account of a compressed public key, or of the configured key pair",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "public-key",
						Usage: "33 byte compressed secp256k1 public key (hex)",
					},
				},
				Action: deriveAddressCommand,
			},
			{
				Name:  "generate-key",
				Usage: "Generate a local signing key and print it with its account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Name recorded in the log",
						Value: "relayer",
					},
				},
				Action: generateKeyCommand,
			},
			{
				Name:      "parse-address",
				Usage:     "Validate an address and print its canonical forms",
				ArgsUsage: "<0x address>",
				Action:    parseAddressCommand,
			},
			{
				Name:  "sign",
				Usage: "Sign a call into a submittable extrinsic",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:     "call",
						Usage:    "SCALE encoded call (hex). Repeat to wrap the calls in utility.batch_all",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "nonce",
						Usage: "Account nonce",
					},
					&cli.StringFlag{
						Name:  "tip",
						Usage: "Tip in the smallest unit (decimal)",
						Value: "0",
					},
					&cli.DurationFlag{
						Name:  "mortality",
						Usage: "Validity window, converted to blocks with the chain's block time. Needs --era-block-hash",
					},
				}, eraFlags()...),
				Action: signCommand,
			},
			{
				Name:  "verify",
				Usage: "Check the signature of an extrinsic against the configured chain",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "extrinsic",
						Usage:    "SCALE encoded extrinsic (hex)",
						Required: true,
					},
				}, eraFlags()...),
				Action: verifyCommand,
			},
			{
				Name:  "storage-key",
				Usage: "Compute a storage key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "account",
						Usage: "Print the System.Account key of this address",
					},
					&cli.StringFlag{
						Name:  "pallet",
						Usage: "Pallet prefix, e.g. System",
					},
					&cli.StringFlag{
						Name:  "item",
						Usage: "Storage item name, e.g. Account",
					},
					&cli.StringFlag{
						Name:  "hasher",
						Usage: "Map hasher for --key: Identity, Twox64Concat, Twox128, Twox256, Blake2_128, Blake2_128Concat or Blake2_256",
						Value: "Blake2_128Concat",
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "SCALE encoded map key (hex). Omit for a storage value",
					},
				},
				Action: storageKeyCommand,
			},
			{
				Name:   "chains",
				Usage:  "List supported chains",
				Action: chainsCommand,
			},
			{
				Name:  "journal",
				Usage: "Inspect the signed transaction journal",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List the transactions signed by an account",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "signer",
								Usage:    "Signer address",
								Required: true,
							},
						},
						Action: journalListCommand,
					},
					{
						Name:  "show",
						Usage: "Print a journaled extrinsic",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "hash",
								Usage:    "Extrinsic hash",
								Required: true,
							},
						},
						Action: journalShowCommand,
					},
					{
						Name:  "delete",
						Usage: "Remove a journaled extrinsic",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "hash",
								Usage:    "Extrinsic hash",
								Required: true,
							},
						},
						Action: journalDeleteCommand,
					},
				},
			},
			{
				Name:  "kms",
				Usage: "Manage AWS KMS signing keys",
				Subcommands: []*cli.Command{
					{
						Name:  "create-key",
						Usage: "Create a secp256k1 KMS key for a relayer and print its address",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Key name tag",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "alias",
								Usage: "Alias to create, without the alias/ prefix",
							},
						},
						Action: kmsCreateKeyCommand,
					},
					{
						Name:   "whoami",
						Usage:  "Print the AWS principal the CLI authenticates as",
						Action: kmsWhoamiCommand,
					},
				},
			},
		},
	}
}

func eraFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{
			Name:  "era-block-number",
			Usage: "Number of the block a mortal transaction is anchored at",
		},
		&cli.StringFlag{
			Name:  "era-block-hash",
			Usage: "Hash of the anchor block. Omit for an immortal transaction",
		},
		&cli.Uint64Flag{
			Name:  "era-period",
			Usage: "Mortality period in blocks",
			Value: 64,
		},
	}
}
