// Package auction implements the sealed-bid auction settlement engine.
//
// Overview:
//   - Auctions move through an explicit lifecycle: Open -> Revealing ->
//     Settled or Cancelled. Each entry point is a single transition function.
//   - Bids are admitted through a commit-reveal protocol: a hiding MiMC
//     commitment (optionally gated by a zero-knowledge proof of bid validity)
//     during the bidding window, the plaintext amount and salt during the
//     reveal window.
//   - Deposits are escrowed on submission and paid back out through pull-based
//     claims after settlement, exactly once per party.
//
// Execution model:
//   - Every entry point runs to completion and either commits its full state
//     delta or leaves no trace. Operations on the same auction are mutually
//     exclusive; operations on different auctions run in parallel.
//   - The proof verifier and the value-transfer ledger are injected
//     capabilities; their failures abort the enclosing call with no persisted
//     side effect, which keeps commitments and deposits always paired.
//
// All per-auction and per-(auction, bidder) state lives behind one Store
// aggregate root; nothing is ever deleted, history is permanent.
package auction
