// Package ledger defines the manufacturing decision ledger: the immutable,
// hash-verified audit record written for every feasibility/generation
// decision attempt, and the narrow storage interface it is persisted behind.
//
// # Architecture
//
// The ledger consists of four layers:
//
//  1. Artifact schema and hashing - canonical record shape, deterministic
//     content digests (RFC 8785 canonical JSON + SHA-256)
//  2. Store - content-addressed, atomic, immutable persistence
//     (filesystem by default, SQLite as the transactional alternative)
//  3. Query - filtered, paginated, cursor-based read access
//  4. Diff - bounded structural comparison between two artifacts
//
// # Run Artifacts
//
// Each RunArtifact captures:
//   - The sanitized request summary (never a client feasibility claim,
//     never credential material)
//   - The authoritative server-computed feasibility evaluation
//   - The decision (risk level, score, block reason, warnings)
//   - SHA-256 digests of every persisted payload
//   - Generation outputs, inline or by path reference
//
// Artifacts are write-once. The single mutation path is the append-only
// meta patch, which can merge extension metadata and append advisory
// provenance references but cannot touch status, decision, hashes, or
// outputs.
//
// # Basic Usage
//
//	st, err := store.NewFSStore(&store.FSConfig{Root: "data/runs"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	art := &ledger.RunArtifact{ /* ... */ }
//	if err := st.Put(ctx, art); err != nil {
//	    // the decision is still reportable; persistence failure is logged
//	}
//
//	page, err := st.List(ctx, &ledger.Query{Status: ledger.StatusBlocked, Limit: 50})
//
// # Thread Safety
//
// Artifacts are immutable once written, so concurrent readers never observe
// a half-written record and never coordinate with writers. All store
// implementations are safe for concurrent use.
package ledger
