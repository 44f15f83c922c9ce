package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chronodrachma/verushash/pkg/config"
	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/types"
	"github.com/chronodrachma/verushash/pkg/hashcache"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the hasher stack built from configuration for one command run.
type app struct {
	cfg    config.Config
	log    *logrus.Entry
	hasher *consensus.VerusHasher
	cached *hashcache.CachedHasher
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg)

	engine, err := consensus.NewEngine(cfg.Engine, log)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg: cfg,
		log: log,
		hasher: consensus.NewVerusHasher(engine,
			consensus.WithLogger(log.WithField("component", "verushash")),
			consensus.WithLegacyReverse(cfg.LegacyReverse),
		),
	}

	cache, err := hashcache.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		a.cached = hashcache.NewCachedHasher(a.hasher, cache, log.WithField("component", "hashcache"))
	}
	return a, nil
}

func (a *app) close() {
	if a.cached != nil {
		a.cached.Close()
		return
	}
	a.hasher.Close()
}

func (a *app) heightHasher() types.HeightHasher {
	if a.cached != nil {
		return a.cached
	}
	return a.hasher
}

// digest hashes header with variant, or with the selector when variant is 0.
func (a *app) digest(variant consensus.Variant, header []byte, height int64, hasHeight, reverse bool) (types.Hash, error) {
	var err error
	if variant == 0 {
		if hasHeight {
			variant, err = a.hasher.SelectAtHeight(header, height)
		} else {
			variant, err = a.hasher.Select(header)
		}
		if err != nil {
			return types.Hash{}, err
		}
	}
	if a.cached != nil {
		if reverse {
			return a.cached.ComputeReverse(context.Background(), variant, header)
		}
		return a.cached.Compute(context.Background(), variant, header)
	}
	if reverse {
		return a.hasher.ComputeReverse(variant, header)
	}
	return a.hasher.Compute(variant, header)
}

// configKeys are the persistent flags that config.Load reads through viper.
var configKeys = []string{
	"log-level", "log-format", "engine", "legacy-reverse", "cache-dir",
	"cache-memory", "redis-addr", "redis-password", "redis-db", "chain-name",
}

// bindFlags binds each named flag to the viper key of the same name.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names []string) error {
	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			return errors.Errorf("flag %q is not defined", name)
		}
		if err := v.BindPFlag(name, flag); err != nil {
			return errors.Wrapf(err, "bind flag %q", name)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "vrshash",
		Short:         "vrshash computes and checks VerusHash block header digests",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				return nil
			}
			v.SetConfigFile(cfgFile)
			return errors.Wrap(v.ReadInConfig(), "read config")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "text", "log format (text|json)")
	flags.String("engine", consensus.EngineAuto, "hash engine (auto|native|sha256)")
	flags.Bool("legacy-reverse", false, "reverse entry points return wire-order digests, like older node bindings")
	flags.String("cache-dir", "", "badger digest cache directory")
	flags.Bool("cache-memory", false, "use an in-memory badger digest cache")
	flags.String("redis-addr", "", "redis digest cache host:port")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-db", 0, "redis database")
	flags.String("chain-name", "VRSC", "chain name used to prefix cache keys")
	if err := bindFlags(v, flags, configKeys); err != nil {
		panic(err)
	}

	root.AddCommand(newHashCmd(v), newSelectCmd(), newVerifyCmd(v), newVersionCmd())
	return root
}

func newHashCmd(v *viper.Viper) *cobra.Command {
	var (
		variantName string
		height      int64
		reverse     bool
	)
	cmd := &cobra.Command{
		Use:   "hash [header-hex]",
		Short: "Print the VerusHash digest of a header (hex argument or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := readHeader(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			var variant consensus.Variant
			if variantName != "any" {
				if variant, err = consensus.ParseVariant(variantName); err != nil {
					return err
				}
			}
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			digest, err := a.digest(variant, header, height, cmd.Flags().Changed("height"), reverse)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&variantName, "variant", "any", "variant (any|v1|v2|v2b|v2b1|v2b2)")
	cmd.Flags().Int64Var(&height, "height", 0, "block height for height-aware selection")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "print the digest byte-reversed")
	return cmd
}

func newSelectCmd() *cobra.Command {
	var height int64
	cmd := &cobra.Command{
		Use:   "select [header-hex]",
		Short: "Print the VerusHash variant a header selects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := readHeader(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			var variant consensus.Variant
			if cmd.Flags().Changed("height") {
				variant, err = consensus.SelectVariantAtHeight(header, height)
			} else {
				variant, err = consensus.SelectVariant(header)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), variant)
			return nil
		},
	}
	cmd.Flags().Int64Var(&height, "height", 0, "block height for height-aware selection")
	return cmd
}

func newVerifyCmd(v *viper.Viper) *cobra.Command {
	var height int64
	cmd := &cobra.Command{
		Use:   "verify [header-hex] --height N",
		Short: "Check a full block header's proof of work against its nBits target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readHeader(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			hdr := types.NewBlockHeader()
			if _, err := hdr.ParseFromSlice(raw); err != nil {
				return errors.Wrap(err, "parse header")
			}
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.close()

			powHash, err := consensus.CheckProofOfWork(hdr, height, a.heightHasher())
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"height": height,
				"hash":   powHash.Reverse().Hex(),
			}).Info("proof of work valid")
			fmt.Fprintln(cmd.OutOrStdout(), powHash.Reverse().Hex())
			return nil
		},
	}
	cmd.Flags().Int64Var(&height, "height", 0, "block height")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vrshash %s (native engine: %t)\n", version, consensus.NativeEngineAvailable)
		},
	}
}

// readHeader decodes the header hex from args[0] or, if absent, from in.
func readHeader(in io.Reader, args []string) ([]byte, error) {
	var s string
	if len(args) == 1 {
		s = args[0]
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "read header from stdin")
		}
		s = line
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	header, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "header is not hex")
	}
	return header, nil
}
