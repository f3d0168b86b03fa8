package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/geanlabs/beaconcore/config"
	"github.com/geanlabs/beaconcore/consensus"
	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/node"
	"github.com/geanlabs/beaconcore/p2p"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/state"
	"github.com/geanlabs/beaconcore/storage/pebble"
	"github.com/geanlabs/beaconcore/types"
	"github.com/urfave/cli/v2"
)

func loadSpec(c *cli.Context) (*params.ChainSpec, error) {
	if path := c.String("config"); path != "" {
		return params.LoadFromFile(path)
	}
	return params.Preset(c.String("preset"))
}

var maxSizeCommand = &cli.Command{
	Name:  "max-size",
	Usage: "Print the maximum SSZ payload size of every execution fork",
	Action: func(c *cli.Context) error {
		spec, err := loadSpec(c)
		if err != nil {
			return err
		}
		for _, fork := range types.ExecutionForks {
			n, err := execution.MaxPayloadSize(fork, spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%-8s %d\n", fork, n)
		}
		largest, err := execution.MaxPayloadSizeAnyFork(spec)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%-8s %d\n", "any", largest)
		return nil
	},
}

var decodeCommand = &cli.Command{
	Name:  "decode",
	Usage: "Decode an SSZ execution payload and print its header or JSON form",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "fork", Required: true, Usage: "Payload fork (merge, capella, deneb, eip6110)"},
		&cli.StringFlag{Name: "file", Required: true, Usage: "SSZ payload file"},
		&cli.BoolFlag{Name: "json", Usage: "Print the payload as JSON"},
	},
	Action: func(c *cli.Context) error {
		spec, err := loadSpec(c)
		if err != nil {
			return err
		}
		fork, err := types.ParseForkName(c.String("fork"))
		if err != nil {
			return err
		}
		data, err := os.ReadFile(c.String("file"))
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		payload, err := execution.DecodeSSZ(data, fork, spec)
		if err != nil {
			return err
		}

		if c.Bool("json") {
			out, err := payload.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, string(out))
			return nil
		}

		header, err := payload.ToHeader(spec)
		if err != nil {
			return err
		}
		root, err := payload.HashTreeRoot(spec)
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "fork:              %s\n", header.Fork)
		fmt.Fprintf(w, "block_number:      %d\n", header.BlockNumber)
		fmt.Fprintf(w, "block_hash:        %s\n", header.BlockHash)
		fmt.Fprintf(w, "parent_hash:       %s\n", header.ParentHash)
		fmt.Fprintf(w, "timestamp:         %d\n", header.Timestamp)
		fmt.Fprintf(w, "base_fee_per_gas:  %s\n", header.BaseFeePerGas.Dec())
		fmt.Fprintf(w, "transactions:      %d\n", len(payload.Transactions()))
		fmt.Fprintf(w, "transactions_root: %s\n", header.TransactionsRoot)
		if fork >= types.Capella {
			fmt.Fprintf(w, "withdrawals_root:  %s\n", header.WithdrawalsRoot)
		}
		if fork == types.Eip6110 {
			fmt.Fprintf(w, "deposit_receipts_root: %s\n", header.DepositReceiptsRoot)
		}
		fmt.Fprintf(w, "hash_tree_root:    0x%s\n", hex.EncodeToString(root[:]))
		return nil
	},
}

var processDepositsCommand = &cli.Command{
	Name:  "process-deposits",
	Usage: "Apply the pending deposit queue of a YAML state fixture",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "state", Required: true, Usage: "State fixture file"},
	},
	Action: func(c *cli.Context) error {
		logger := newLogger(c)
		spec, err := loadSpec(c)
		if err != nil {
			return err
		}
		pre, err := state.LoadFixtureFile(c.String("state"))
		if err != nil {
			return err
		}
		post, err := consensus.ProcessPendingDepositsStaged(pre, spec)
		if err != nil {
			return err
		}
		logger.Info("processed pending deposits",
			"processed", len(pre.PendingDeposits)-len(post.PendingDeposits),
			"deposit_index_advance", post.Eth1DepositIndex-pre.Eth1DepositIndex,
			"remaining", len(post.PendingDeposits),
		)

		validatorsRoot, err := post.ValidatorsRoot()
		if err != nil {
			return err
		}
		pendingRoot, err := post.PendingDepositsRoot()
		if err != nil {
			return err
		}
		finalizedRoot, err := post.FinalizedCheckpointRoot()
		if err != nil {
			return err
		}

		w := c.App.Writer
		fmt.Fprintf(w, "eth1_deposit_index: %d\n", post.Eth1DepositIndex)
		fmt.Fprintf(w, "validators:         %d\n", post.NumValidators())
		fmt.Fprintf(w, "pending_deposits:   %d\n", len(post.PendingDeposits))
		fmt.Fprintf(w, "validators_root:    0x%s\n", hex.EncodeToString(validatorsRoot[:]))
		fmt.Fprintf(w, "pending_root:       0x%s\n", hex.EncodeToString(pendingRoot[:]))
		fmt.Fprintf(w, "finalized_root:     0x%s\n", hex.EncodeToString(finalizedRoot[:]))
		for i, v := range post.Validators {
			fmt.Fprintf(w, "  %d %s.. balance=%d effective=%d\n", i, v.Pubkey.Short(), post.Balances[i], v.EffectiveBalance)
		}
		return nil
	},
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Relay execution payloads over gossip and persist them",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "listen", Usage: "libp2p listen multiaddr (repeatable)"},
		&cli.StringFlag{Name: "bootnodes-file", Usage: "nodes.yaml with bootnode multiaddrs"},
		&cli.StringFlag{Name: "datadir", Value: "data", Usage: "Directory for the node key and payload database"},
		&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address"},
	},
	Action: func(c *cli.Context) error {
		logger := newLogger(c)
		spec, err := loadSpec(c)
		if err != nil {
			return err
		}

		var bootnodes []string
		if path := c.String("bootnodes-file"); path != "" {
			if bootnodes, err = config.LoadBootnodes(path); err != nil {
				return err
			}
		}

		datadir := c.String("datadir")
		key, err := p2p.LoadOrCreateKey(filepath.Join(datadir, "node.key"))
		if err != nil {
			return err
		}
		store, err := pebble.Open(pebble.Config{
			Path:   filepath.Join(datadir, "payloads"),
			Spec:   spec,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		n, err := node.New(c.Context, &node.Config{
			Spec:        spec,
			Store:       store,
			PrivateKey:  key,
			ListenAddrs: c.StringSlice("listen"),
			Bootnodes:   bootnodes,
			MetricsAddr: c.String("metrics-addr"),
			Logger:      logger,
		})
		if err != nil {
			store.Close()
			return fmt.Errorf("create node: %w", err)
		}
		if err := n.Start(); err != nil {
			n.Stop()
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-c.Context.Done():
		}

		logger.Info("shutting down...")
		n.Stop()
		return nil
	},
}
