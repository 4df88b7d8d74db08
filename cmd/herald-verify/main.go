package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/herald/metrics"
	"github.com/ethpandaops/herald/types"
	"github.com/ethpandaops/herald/utils"
	"github.com/ethpandaops/herald/verify"
	"github.com/ethpandaops/herald/verify/blockproof"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file, if empty string defaults will be used")
	bundlePath := flag.String("bundle", "", "Path to the proof bundle to verify (JSON)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &types.Config{}
	err := utils.ReadConfig(cfg, *configPath)
	if err != nil {
		logrus.Fatalf("error reading config file: %v", err)
	}

	logger := utils.InitLogger(cfg)

	if *bundlePath == "" {
		logger.Fatalf("no proof bundle given, use -bundle")
	}

	if cfg.Metrics.Enabled {
		err = metrics.StartMetricsServer(logger.WithField("module", "metrics"), cfg.Metrics.Host, cfg.Metrics.Port)
		if err != nil {
			logger.Fatalf("error starting metrics server: %v", err)
		}
	}

	if cfg.Verify.VerifyingKeyPath == "" {
		logger.Fatalf("no verifying key configured")
	}
	system, err := blockproof.LoadGroth16SystemFromFile(cfg.Verify.VerifyingKeyPath)
	if err != nil {
		logger.Fatalf("error loading verifying key: %v", err)
	}

	bundle, err := readBundle(*bundlePath)
	if err != nil {
		logger.Fatalf("error reading proof bundle: %v", err)
	}

	verifier := verify.NewVerifier(system,
		verify.WithLogger(logger.WithField("module", "verify")),
		verify.WithConcurrency(cfg.Verify.Concurrency),
	)

	result, err := verifier.VerifyBatch(ctx, bundle)
	if err != nil {
		logger.Fatalf("batch verification failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"anchor":            result.Anchor.Number(),
		"execution_headers": len(result.ExecutionHeaders),
		"beacon_headers":    len(result.BeaconHeaders),
		"accounts":          len(result.Accounts),
		"transactions":      len(result.Transactions),
	}).Printf("proof bundle verified")

	for _, header := range result.ExecutionHeaders {
		logger.Infof("verified execution block %v (%v)", header.Number(), header.Hash())
	}
	for _, header := range result.BeaconHeaders {
		logger.Infof("verified beacon slot %v (%v)", header.Slot(), header.Root())
	}
	for _, account := range result.Accounts {
		logger.Infof("verified account %v: balance %v, nonce %v",
			account.Address, account.Account.Balance, account.Account.Nonce)
	}
	for _, tx := range result.Transactions {
		logger.Infof("verified transaction %v in block %v",
			tx.Transaction.Hash(), tx.Header().Number())
	}
}

func readBundle(path string) (*types.ProofBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	bundle := &types.ProofBundle{}
	if err := json.Unmarshal(data, bundle); err != nil {
		return nil, err
	}

	return bundle, nil
}
