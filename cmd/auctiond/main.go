// main.go - Sealed-bid auction settlement daemon.
//
// Wires the settlement engine to its hosting environment: the Groth16 bid
// verifier, the persistent event log, the in-memory token ledger, the JSON
// API server, health checks, metrics and per-bidder rate limiting. With
// run_demo enabled it also drives one full auction through submit, reveal,
// settlement and claims before serving.
//
// Usage:
//   auctiond -config auctiond.json

package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/rs/zerolog"

	"sealedbid/api"
	"sealedbid/internal/auction"
	"sealedbid/internal/commitment"
	"sealedbid/internal/events"
	"sealedbid/internal/funds"
	"sealedbid/internal/proofs"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "auctiond.json", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("daemon failed")
		os.Exit(1)
	}
}

func run(cfg *Config, logger zerolog.Logger) error {
	eventLog, err := events.OpenBoltLog(cfg.EventLogPath)
	if err != nil {
		return err
	}
	defer eventLog.Close()

	metrics := NewMetricsCollector()

	// Circuit compilation and key setup dominate cold-start time, so both
	// are measured and the keys are persisted for reuse.
	setupStart := time.Now()
	ccs, err := proofs.CompileBidCircuit()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.KeyDir, 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	pk, vk, err := proofs.SetupOrLoadKeys(ccs,
		filepath.Join(cfg.KeyDir, "bid_pk.bin"),
		filepath.Join(cfg.KeyDir, "bid_vk.bin"))
	if err != nil {
		return fmt.Errorf("key setup failed: %w", err)
	}
	metrics.RecordCircuitSetup(time.Since(setupStart))
	logger.Info().Dur("elapsed", time.Since(setupStart)).Msg("bid circuit ready")

	ledger := funds.NewTokenLedger(cfg.EscrowAccount)

	engine := auction.NewEngine(ledger, cfg.EscrowAccount,
		auction.WithVerifier(proofs.NewGroth16Verifier(vk)),
		auction.WithEventSink(eventLog),
		auction.WithLogger(logger))

	health := NewHealthChecker(version)
	health.RegisterComponent("event_log", eventLog.Ping)
	health.RegisterComponent("funds_ledger", func() error {
		if ledger.BalanceOf(cfg.EscrowAccount).Sign() < 0 {
			return fmt.Errorf("escrow balance negative")
		}
		return nil
	})

	limiter := NewBidderRateLimiter(cfg.SubmitBurst, cfg.SubmitRefillPerSec, time.Second)

	server := api.NewServer(api.Config{
		Addr:        cfg.ListenAddr,
		Engine:      engine,
		Logger:      logger,
		AllowSubmit: limiter.Allow,
		Health:      health.Handler(),
		Metrics:     metrics.Handler(),
	})
	ready := make(chan struct{}, 1)
	if err := server.Start(ready); err != nil {
		return err
	}
	<-ready

	if cfg.RunDemo {
		if err := runDemo(cfg, engine, ledger, ccs, pk, metrics, logger); err != nil {
			logger.Error().Err(err).Msg("demo scenario failed")
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// runDemo drives one complete auction with cfg.NumBidders bidders against the
// engine directly, using a simulated clock so the bid and reveal windows pass
// without waiting. The bidder submitting last bids highest and wins.
func runDemo(cfg *Config, engine *auction.Engine, ledger *funds.TokenLedger, ccs constraint.ConstraintSystem, pk groth16.ProvingKey, metrics *MetricsCollector, logger zerolog.Logger) error {
	logger.Info().Int("bidders", cfg.NumBidders).Msg("running demo auction")

	clock := uint64(1000)
	seller := "seller"
	minPrice := big.NewInt(cfg.MinPrice)

	id, err := engine.CreateAuction(seller, "demo-item", minPrice, cfg.BidDuration, cfg.RevealDuration, clock)
	if err != nil {
		return err
	}
	metrics.RecordAuctionCreated()

	type demoBid struct {
		bidder  string
		amount  *big.Int
		salt    *big.Int
		deposit *big.Int
	}
	bids := make([]demoBid, cfg.NumBidders)

	for i := range bids {
		bidder := fmt.Sprintf("bidder%d", i+1)
		amount := big.NewInt(cfg.MinPrice + int64(i)*10)
		deposit := big.NewInt(cfg.BaseDeposit + int64(i)*20)
		ledger.Mint(bidder, deposit)

		var s fr.Element
		if _, err := s.SetRandom(); err != nil {
			return fmt.Errorf("salt generation failed: %w", err)
		}
		salt := s.BigInt(new(big.Int))

		cm, err := commitment.Commit(amount, salt)
		if err != nil {
			return err
		}
		proveStart := time.Now()
		proof, err := proofs.Prove(amount, salt, minPrice, ccs, pk)
		if err != nil {
			return fmt.Errorf("proof generation failed for %s: %w", bidder, err)
		}
		verifyStart := time.Now()
		if err := engine.Submit(id, cm, deposit, proof, bidder, clock); err != nil {
			metrics.RecordRejection("submit")
			return fmt.Errorf("submission failed for %s: %w", bidder, err)
		}
		metrics.RecordBidSubmitted(id)
		metrics.RecordHistogram(MetricProofVerifyTime, time.Since(verifyStart).Seconds(), nil)
		logger.Info().
			Str("bidder", bidder).
			Str("deposit", deposit.String()).
			Dur("prove_time", verifyStart.Sub(proveStart)).
			Msg("sealed bid submitted")

		bids[i] = demoBid{bidder: bidder, amount: amount, salt: salt, deposit: deposit}
	}

	// Bid window closes, reveal window opens.
	clock = 1000 + cfg.BidDuration
	for _, b := range bids {
		if err := engine.Reveal(id, b.amount, b.salt, b.bidder, clock); err != nil {
			metrics.RecordRejection("reveal")
			return fmt.Errorf("reveal failed for %s: %w", b.bidder, err)
		}
		a := engine.Auction(id)
		highest, _ := new(big.Float).SetInt(a.HighestBid).Float64()
		metrics.RecordBidRevealed(id, highest)
		logger.Info().Str("bidder", b.bidder).Str("amount", b.amount.String()).Msg("bid revealed")
	}

	// Reveal window closes, settle.
	clock = 1000 + cfg.BidDuration + cfg.RevealDuration
	if err := engine.Settle(id, clock); err != nil {
		return fmt.Errorf("settlement failed: %w", err)
	}
	settled := engine.Auction(id)
	metrics.RecordSettlement(settled.Phase == auction.PhaseCancelled)
	logger.Info().
		Str("winner", settled.Winner).
		Str("winning_amount", settled.HighestBid.String()).
		Msg("auction settled")

	// Everyone pulls what settlement owes them.
	for _, b := range bids {
		refund, err := engine.WithdrawRefund(id, b.bidder, clock)
		if err != nil {
			return fmt.Errorf("refund claim failed for %s: %w", b.bidder, err)
		}
		metrics.RecordClaim("refund")
		logger.Info().Str("bidder", b.bidder).Str("refund", refund.String()).Msg("refund claimed")
	}
	if settled.Winner != "" {
		proceeds, err := engine.ClaimSellerPayment(id, seller, clock)
		if err != nil {
			return fmt.Errorf("seller claim failed: %w", err)
		}
		metrics.RecordClaim("seller")
		logger.Info().Str("proceeds", proceeds.String()).Msg("seller payment claimed")
	}

	for _, b := range bids {
		logger.Info().
			Str("account", b.bidder).
			Str("balance", ledger.BalanceOf(b.bidder).String()).
			Msg("final balance")
	}
	logger.Info().
		Str("account", seller).
		Str("balance", ledger.BalanceOf(seller).String()).
		Msg("final balance")
	logger.Info().
		Str("account", "escrow").
		Str("balance", ledger.BalanceOf(cfg.EscrowAccount).String()).
		Msg("final balance")
	return nil
}
