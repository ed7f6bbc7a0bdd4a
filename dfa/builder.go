package dfa

import (
	"github.com/coregx/rulefa/internal/bitset"
	"github.com/coregx/rulefa/nfa"
	"github.com/coregx/rulefa/rerr"
)

// BuildOptions bounds resource usage during subset construction.
type BuildOptions struct {
	// MaxStates caps the number of DFA states Build will allocate. Zero
	// means DefaultMaxStates.
	MaxStates int
}

// DefaultMaxStates mirrors the automaton's overall 500,000-state budget.
const DefaultMaxStates = 500000

// BuildOption configures a Build call.
type BuildOption func(*BuildOptions)

// WithMaxStates overrides the default state budget.
func WithMaxStates(n int) BuildOption {
	return func(o *BuildOptions) { o.MaxStates = n }
}

// Build runs subset construction over n, producing a DFA with a total
// transition table and a single dead state. Case tags are resolved by
// priority: when multiple NFA accept states merge into one DFA state, the
// smallest case tag (the earliest-declared rule) wins.
func Build(n *nfa.NFA, opts ...BuildOption) (*DFA, error) {
	cfg := BuildOptions{MaxStates: DefaultMaxStates}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxStates <= 0 {
		cfg.MaxStates = DefaultMaxStates
	}

	epCache := buildEpsilonClosureCache(n)

	closureOfSet := func(states *bitset.Set) *bitset.Set {
		result := bitset.New(n.NumStates())
		for _, i := range states.Elements() {
			result.Or(epCache[i])
		}
		return result
	}

	seen := make(map[string]StateID)
	var subsets []*bitset.Set
	var states []dstate

	register := func(subset *bitset.Set) (StateID, bool, error) {
		key := subset.Key()
		if id, ok := seen[key]; ok {
			return id, false, nil
		}
		if len(states) >= cfg.MaxStates {
			return 0, false, &rerr.LimitExceeded{Rule: -1, Limit: cfg.MaxStates, Actual: len(states) + 1, What: "DFA states"}
		}
		id := StateID(len(states))
		seen[key] = id
		subsets = append(subsets, subset)
		states = append(states, dstate{caseTag: caseTagOf(n, subset)})
		return id, true, nil
	}

	deadSubset := bitset.New(n.NumStates())
	deadID, _, err := register(deadSubset)
	if err != nil {
		return nil, err
	}
	for b := 0; b < 256; b++ {
		states[deadID].trans[b] = deadID
	}

	startSubset := bitset.New(n.NumStates())
	startSubset.Set(int(n.Start()))
	startClosure := closureOfSet(startSubset)
	startID, _, err := register(startClosure)
	if err != nil {
		return nil, err
	}

	worklist := []StateID{startID}
	for len(worklist) > 0 {
		s := worklist[0]
		worklist = worklist[1:]
		subset := subsets[s]

		for b := 0; b < 256; b++ {
			moved := bitset.New(n.NumStates())
			for _, i := range subset.Elements() {
				if t, ok := n.ByteTransition(nfa.StateID(i), byte(b)); ok {
					moved.Set(int(t))
				}
			}
			if moved.IsEmpty() {
				states[s].trans[b] = deadID
				continue
			}
			closure := closureOfSet(moved)
			target, created, err := register(closure)
			if err != nil {
				return nil, err
			}
			if created {
				worklist = append(worklist, target)
			}
			states[s].trans[b] = target
		}
	}

	return &DFA{states: states, start: startID, dead: deadID, numCases: n.NumCases()}, nil
}

// caseTagOf returns the priority-resolved case tag for the NFA states in
// subset: the smallest tag among any KindMatch states present, or NoCaseTag
// if none are.
func caseTagOf(n *nfa.NFA, subset *bitset.Set) uint32 {
	best := NoCaseTag
	for _, i := range subset.Elements() {
		if tag, ok := n.CaseTag(nfa.StateID(i)); ok && tag < best {
			best = tag
		}
	}
	return best
}

// buildEpsilonClosureCache computes, for every NFA state, the set of states
// reachable from it via zero-width transitions only (including itself).
// Cycles through KindSplit/KindEpsilon states are possible (e.g. a star
// applied to an empty fragment) and are handled by the visited tracking in
// the per-state DFS.
func buildEpsilonClosureCache(n *nfa.NFA) []*bitset.Set {
	cache := make([]*bitset.Set, n.NumStates())
	for i := 0; i < n.NumStates(); i++ {
		closure := bitset.New(n.NumStates())
		var visit func(s nfa.StateID)
		visit = func(s nfa.StateID) {
			if closure.Has(int(s)) {
				return
			}
			closure.Set(int(s))
			for _, t := range n.EpsilonTargets(s) {
				visit(t)
			}
		}
		visit(nfa.StateID(i))
		cache[i] = closure
	}
	return cache
}
