// Vulcan is the manufacturing decision ledger and safety gate for the
// Tonewood CAD/CAM platform.
//
// It records every manufacturing decision attempt as an immutable,
// hash-verified run artifact and enforces the two-tier policy engine
// governing risky operations: the non-bypassable feasibility gate and the
// supervised-override safety mode engine.
//
// Usage:
//
//	# List blocked high-risk runs
//	vulcan ledger list --status BLOCKED --risk RED
//
//	# Fetch one run artifact
//	vulcan ledger get run-20260830-1b4e28ba-2fa1-11d2-883f-0016d3cca427
//
//	# Compare two decisions
//	vulcan ledger diff <run_id_a> <run_id_b>
//
//	# Dry-run a promotion decision
//	vulcan promote check --preset neck-carve-std --lane tuned
//
//	# Run the audit HTTP API
//	vulcan serve --config config.yaml
//
//	# Validate a configuration file
//	vulcan validate --config config.yaml
package main

func main() {
	Execute()
}
