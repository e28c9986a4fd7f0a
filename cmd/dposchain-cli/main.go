// Command dposchain-cli drives a local producer election and voting
// engine for manual testing and demos. Each invocation loads its
// configuration from a TOML file (config.Load), opens the configured
// DataDir as a LevelDBStore, and runs one command against it, so state
// persists across invocations the way it would across blocks in a real
// deployment. serve instead keeps that store open behind the read-only
// HTTP API for as long as the process runs.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"dposchain/config"
	"dposchain/core/dispatch"
	"dposchain/core/host"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/native/election"
	"dposchain/native/producers"
	"dposchain/native/unstake"
	"dposchain/native/voting"
	"dposchain/observability/logging"
	"dposchain/rpc"
)

// defaultConfigPath is used unless DPOSCHAIN_CONFIG overrides it, so
// operators can point multiple local instances at separate config files.
const defaultConfigPath = "./dposchain.toml"

// demoAuthority grants every account authority; a CLI demo has no wallet
// layer to authenticate against.
type demoAuthority struct{}

func (demoAuthority) HasAuthority(uint64) bool { return true }

// demoTransferer logs transfers instead of moving real balances; this demo
// has no token ledger of its own.
type demoTransferer struct{ log *slog.Logger }

func (t demoTransferer) Transfer(from, to, amount uint64, memo string) error {
	t.log.Info("transfer", "from", from, "to", to, "amount", amount, "memo", memo)
	return nil
}

// demoPublisher prints the tabulator's output.
type demoPublisher struct{ log *slog.Logger }

func (p demoPublisher) PublishActive(ids []uint64, medians types.ProducerPreferences) {
	p.log.Info("active producer set published", "producers", ids, "medianInflationBps", medians.InflationBps)
}

// demoNotifier logs require_recipient-style notifications.
type demoNotifier struct{ log *slog.Logger }

func (n demoNotifier) NotifyRecipient(account uint64) {
	n.log.Info("notify_recipient", "account", account)
}

func main() {
	configPath := defaultConfigPath
	if env := strings.TrimSpace(os.Getenv("DPOSCHAIN_CONFIG")); env != "" {
		configPath = env
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: loading config:", err)
		os.Exit(1)
	}

	log := logging.Setup("dposchain-cli", cfg.LogEnv)

	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		return
	}

	s, err := store.OpenLevelDBStore(cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: opening data dir:", err)
		os.Exit(1)
	}
	defer s.Close()

	registry := producers.New(s.Producers(), s.ProducerConfigs(), demoAuthority{}, nil, log)
	votingEngine := voting.New(s.Voters(), s.Producers(), s.ProducerConfigs(), demoAuthority{}, host.SystemClock{}, demoTransferer{log}, demoNotifier{log}, nil, log, cfg.SystemAccount)
	unstakeEngine := unstake.New(s.UnstakeRequests(), s.UnstakeCounts(), s.Voters(), demoAuthority{}, host.SystemClock{}, demoTransferer{log}, votingEngine, nil, log, cfg.SystemAccount)
	tabulator := election.New(s.Producers(), s.ProducerConfigs(), demoPublisher{log}, nil, log)
	d := dispatch.New(registry, votingEngine, unstakeEngine, tabulator)

	if args[0] == "serve" {
		log.Info("dposchain read API listening", "address", cfg.RPCAddress)
		if err := http.ListenAndServe(cfg.RPCAddress, rpc.New(s, log).Handler()); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(d, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(d *dispatch.Dispatcher, args []string) error {
	switch args[0] {
	case "register-producer":
		if len(args) < 2 {
			return fmt.Errorf("usage: register-producer <owner>")
		}
		owner, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		return d.Dispatch(dispatch.RegisterProducerAction{Producer: owner, ProducerKey: []byte("demo-key")})
	case "stake-vote":
		if len(args) < 3 {
			return fmt.Errorf("usage: stake-vote <voter> <amount>")
		}
		voter, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return err
		}
		return d.Dispatch(dispatch.StakeVoteAction{Voter: voter, Amount: amount})
	case "vote-producer":
		if len(args) < 2 {
			return fmt.Errorf("usage: vote-producer <voter> <producer1,producer2,...>")
		}
		voter, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		var ids []uint64
		if len(args) >= 3 && strings.TrimSpace(args[2]) != "" {
			for _, raw := range strings.Split(args[2], ",") {
				id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
		}
		return d.Dispatch(dispatch.VoteProducerAction{Voter: voter, Producers: ids})
	case "unstake-vote":
		if len(args) < 3 {
			return fmt.Errorf("usage: unstake-vote <voter> <amount>")
		}
		voter, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return err
		}
		return d.Dispatch(dispatch.UnstakeVoteAction{Voter: voter, Amount: amount})
	case "block":
		return d.Dispatch(dispatch.BlockAction{})
	default:
		printUsage()
		return nil
	}
}

func printUsage() {
	fmt.Println("dposchain-cli commands:")
	fmt.Println("  register-producer <owner>")
	fmt.Println("  stake-vote <voter> <amount>")
	fmt.Println("  vote-producer <voter> <producer1,producer2,...>")
	fmt.Println("  unstake-vote <voter> <amount>")
	fmt.Println("  block")
	fmt.Println("  serve                          (starts the read-only HTTP API on RPCAddress from config)")
}
