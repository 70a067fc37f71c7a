// Package arbiter validates untrusted proposals against ground truth.
//
// The external reasoning service may hallucinate task ids, emit unparseable
// instants, or ignore free-block boundaries entirely. Arbitration is the
// safety net between those proposals and anything durable: schedule
// arbitration filters placements down to a non-conflicting serial schedule,
// and recommendation arbitration repairs an invalid "do this next" choice
// with a deterministic fallback ranking.
//
// Dropping proposal data is policy enforcement, never an error. The only
// error this package returns is the caller-contract violation of asking for
// a recommendation with zero pending tasks.
package arbiter
