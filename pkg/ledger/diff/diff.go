// Package diff compares two run artifacts structurally. Comparison is
// restricted to the decision-relevant sections (decision, hashes,
// feasibility, and the structured operation plan); large free-text payloads
// such as generated G-code are excluded since line-level diffing is not
// useful at this level. Their hashes are compared instead.
package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"tonewood-hq/vulcan/pkg/ledger"
)

// DefaultMaxItems caps diff output when the caller does not choose a cap.
const DefaultMaxItems = 500

// Op classifies one difference between the two sides.
type Op string

const (
	OpAdded   Op = "added"
	OpRemoved Op = "removed"
	OpChanged Op = "changed"
)

// Entry is one reported difference. AValue/BValue are present according to
// the operation: added carries BValue, removed carries AValue, changed
// carries both.
type Entry struct {
	Path   string `json:"path"`
	Op     Op     `json:"op"`
	AValue any    `json:"a_value,omitempty"`
	BValue any    `json:"b_value,omitempty"`
}

// Artifacts compares the decision-relevant sections of two artifacts.
// Output is hard-capped at maxItems; traversal is in sorted key order, so
// the cap cuts off deterministically. Diffing an artifact against itself
// always yields an empty list.
func Artifacts(a, b *ledger.RunArtifact, maxItems int) ([]Entry, error) {
	av, err := comparable(a)
	if err != nil {
		return nil, err
	}
	bv, err := comparable(b)
	if err != nil {
		return nil, err
	}
	return Values(av, bv, maxItems), nil
}

// comparable projects an artifact onto its decision-relevant sections,
// normalized through JSON so structs and open documents compare uniformly.
func comparable(a *ledger.RunArtifact) (map[string]any, error) {
	projected := map[string]any{
		"decision":    a.Decision,
		"hashes":      a.Hashes,
		"feasibility": a.Feasibility,
		"opplan":      a.Outputs.OpPlan,
	}
	raw, err := json.Marshal(projected)
	if err != nil {
		return nil, fmt.Errorf("normalize artifact %s: %w", a.RunID, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize artifact %s: %w", a.RunID, err)
	}
	return out, nil
}

// Values recursively compares two structured values. Object keys are
// visited in sorted order and arrays by index; a type change at a path is
// reported as changed. maxItems <= 0 means no cap.
func Values(a, b any, maxItems int) []Entry {
	entries := []Entry{}
	walk("", a, b, maxItems, &entries)
	return entries
}

func walk(path string, a, b any, maxItems int, entries *[]Entry) {
	if maxItems > 0 && len(*entries) >= maxItems {
		return
	}

	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		keys := map[string]bool{}
		for k := range am {
			keys[k] = true
		}
		for k := range bm {
			keys[k] = true
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)

		for _, k := range sorted {
			if maxItems > 0 && len(*entries) >= maxItems {
				return
			}
			childPath := joinPath(path, k)
			av, aOK := am[k]
			bv, bOK := bm[k]
			switch {
			case aOK && !bOK:
				*entries = append(*entries, Entry{Path: childPath, Op: OpRemoved, AValue: av})
			case !aOK && bOK:
				*entries = append(*entries, Entry{Path: childPath, Op: OpAdded, BValue: bv})
			default:
				walk(childPath, av, bv, maxItems, entries)
			}
		}
		return
	}

	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice && bIsSlice {
		n := len(as)
		if len(bs) > n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			if maxItems > 0 && len(*entries) >= maxItems {
				return
			}
			childPath := fmt.Sprintf("%s[%d]", path, i)
			switch {
			case i >= len(bs):
				*entries = append(*entries, Entry{Path: childPath, Op: OpRemoved, AValue: as[i]})
			case i >= len(as):
				*entries = append(*entries, Entry{Path: childPath, Op: OpAdded, BValue: bs[i]})
			default:
				walk(childPath, as[i], bs[i], maxItems, entries)
			}
		}
		return
	}

	// Leaves, or a type change (map vs slice vs scalar) at this path.
	if !reflect.DeepEqual(a, b) {
		*entries = append(*entries, Entry{Path: path, Op: OpChanged, AValue: a, BValue: b})
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
