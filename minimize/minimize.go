// Package minimize reduces a dfa.DFA to an equivalent DFA with the fewest
// states, via Hopcroft-style partition refinement driven by an
// inverse-transition index and a worklist.
package minimize

import (
	"github.com/coregx/rulefa/dfa"
)

// blockID identifies one block (equivalence class of states) in the
// current partition.
type blockID = int

// Options configures a Minimize call.
type Options struct {
	// SeedDeadState controls whether the dead state starts the initial
	// partition in its own singleton block, separate from the rest of the
	// non-accepting states. When false, the dead state is lumped into the
	// general non-accepting block along with everything else and only
	// separated out later if refinement finds a behavioral difference.
	// Both settings converge to the same minimized DFA; this only changes
	// how much refinement work gets done to discover that the dead state
	// is distinct.
	SeedDeadState bool
}

// Option configures a Minimize call.
type Option func(*Options)

// WithSeedDeadState overrides the default initial-partition treatment of
// the dead state.
func WithSeedDeadState(b bool) Option {
	return func(o *Options) { o.SeedDeadState = b }
}

// Minimize returns a fresh, minimized DFA equivalent to d: it accepts the
// same language per case tag, with no two states behaving identically for
// every byte and every future input.
func Minimize(d *dfa.DFA, opts ...Option) (*dfa.DFA, error) {
	cfg := Options{SeedDeadState: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := d.NumStates()

	blockOf := make([]blockID, n)
	var blocks [][]dfa.StateID

	newBlock := func(members []dfa.StateID) blockID {
		id := len(blocks)
		blocks = append(blocks, members)
		for _, s := range members {
			blockOf[s] = id
		}
		return id
	}

	// Initial partition: one block per distinct case tag among accepting
	// states, one singleton for the dead state, and one shared block for
	// all other non-accepting states (states that are "stuck" but not the
	// canonical dead state still behave like it once merged, but we start
	// conservatively with a single shared non-accepting block and let
	// refinement split it if needed).
	byTag := make(map[uint32][]dfa.StateID)
	var nonAccept []dfa.StateID
	for s := dfa.StateID(0); s < dfa.StateID(n); s++ {
		if s == d.Dead() {
			continue
		}
		if tag, ok := d.CaseTag(s); ok {
			byTag[tag] = append(byTag[tag], s)
		} else {
			nonAccept = append(nonAccept, s)
		}
	}

	if cfg.SeedDeadState {
		newBlock([]dfa.StateID{d.Dead()})
		newBlock(nonAccept)
	} else {
		newBlock(append([]dfa.StateID{d.Dead()}, nonAccept...))
	}
	for _, members := range byTag {
		newBlock(members)
	}
	numInitialBlocks := len(blocks)

	// Inverse-transition index: pre[b][t] lists states s such that
	// d.Transition(s, b) == t. Keying by block would need a rebuild every
	// time the partition changes; instead it is built once up front keyed
	// by destination STATE, and per-block predecessor sets are derived on
	// demand from the block's members, which stays valid as blocks only
	// ever split.
	pre := make([][][]dfa.StateID, 256)
	for b := 0; b < 256; b++ {
		pre[b] = make([][]dfa.StateID, n)
		for s := dfa.StateID(0); s < dfa.StateID(n); s++ {
			t := d.Transition(s, byte(b))
			pre[b][t] = append(pre[b][t], s)
		}
	}

	type workItem struct {
		block blockID
		sym   byte
	}
	// Seed with every initial block except its largest: omitting one block
	// is always safe (splitting on a block's complement carries the same
	// information once every other block is accounted for), and omitting
	// the largest minimizes how many predecessor sets get scanned before
	// the partition settles. A block created by a later split is enqueued
	// directly when it's created (below), not here.
	largest := 0
	for i := 1; i < numInitialBlocks; i++ {
		if len(blocks[i]) > len(blocks[largest]) {
			largest = i
		}
	}
	var worklist []workItem
	for i := 0; i < numInitialBlocks; i++ {
		if i == largest {
			continue
		}
		for b := 0; b < 256; b++ {
			worklist = append(worklist, workItem{block: i, sym: byte(b)})
		}
	}

	enqueued := make(map[workItem]bool)
	for _, w := range worklist {
		enqueued[w] = true
	}

	for len(worklist) > 0 {
		w := worklist[0]
		worklist = worklist[1:]
		enqueued[w] = false

		// Predecessors of every state currently in block w.block, via sym.
		var preds []dfa.StateID
		for _, s := range blocks[w.block] {
			preds = append(preds, pre[w.sym][s]...)
		}
		if len(preds) == 0 {
			continue
		}

		// Group preds by their current block, then split any block that
		// contains both a predecessor and a non-predecessor.
		byBlock := make(map[blockID][]dfa.StateID)
		for _, s := range preds {
			byBlock[blockOf[s]] = append(byBlock[blockOf[s]], s)
		}

		for bid, inSet := range byBlock {
			full := blocks[bid]
			if len(inSet) == len(full) {
				continue // whole block transitions into w.block on sym; no split
			}
			inMark := make(map[dfa.StateID]bool, len(inSet))
			for _, s := range inSet {
				inMark[s] = true
			}
			var yes, no []dfa.StateID
			for _, s := range full {
				if inMark[s] {
					yes = append(yes, s)
				} else {
					no = append(no, s)
				}
			}

			// Keep the larger half in place (reuse bid), move the smaller
			// half to a fresh block, and (re)enqueue every symbol for
			// whichever half is smaller, since it's the one whose
			// predecessor sets might now need re-examining.
			smaller, larger := yes, no
			if len(no) < len(yes) {
				smaller, larger = no, yes
			}
			for _, s := range larger {
				blockOf[s] = bid
			}
			blocks[bid] = larger
			newID := newBlock(smaller)

			for b := 0; b < 256; b++ {
				item := workItem{block: newID, sym: byte(b)}
				if !enqueued[item] {
					enqueued[item] = true
					worklist = append(worklist, item)
				}
			}
		}
	}

	return dfa.FromBlocks(d, blockOf, len(blocks)), nil
}
