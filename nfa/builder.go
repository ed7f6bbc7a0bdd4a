package nfa

import (
	"github.com/coregx/rulefa/flatregex"
	"github.com/coregx/rulefa/rerr"
)

// BuildOptions bounds resource usage during construction, following the
// teacher's functional-option-over-a-config-struct pattern.
type BuildOptions struct {
	// MaxStates caps the number of NFA states Build will allocate. Zero
	// means DefaultMaxStates.
	MaxStates int
}

// DefaultMaxStates is the default bound on NFA states, matching the
// automaton's overall 500,000-state budget.
const DefaultMaxStates = 500000

// BuildOption configures a Build call.
type BuildOption func(*BuildOptions)

// WithMaxStates overrides the default state budget.
func WithMaxStates(n int) BuildOption {
	return func(o *BuildOptions) { o.MaxStates = n }
}

// Hole identifies one unpatched outgoing edge: slot 0 selects a state's
// sole transition (KindChar, KindCharset, KindEpsilon, or a KindSplit's
// first target); slot 2 selects a KindSplit state's second target.
type Hole struct {
	State StateID
	Slot  int
}

// Fragment is a partially built subautomaton: a start state and the holes
// still needing a target. A fragment with no holes is sealed and cannot be
// extended.
type Fragment struct {
	Start StateID
	Holes []Hole
}

// builder accumulates states for one compilation and enforces MaxStates.
type builder struct {
	states    []state
	maxStates int
}

func newBuilder(maxStates int) *builder {
	if maxStates <= 0 {
		maxStates = DefaultMaxStates
	}
	return &builder{maxStates: maxStates}
}

func (b *builder) alloc(st state) (StateID, error) {
	if len(b.states) >= b.maxStates {
		return InvalidState, &rerr.LimitExceeded{
			Rule: -1, Limit: b.maxStates, Actual: len(b.states) + 1, What: "NFA states",
		}
	}
	id := StateID(len(b.states))
	b.states = append(b.states, st)
	return id, nil
}

func (b *builder) patch(h Hole, target StateID) {
	if h.Slot == 2 {
		b.states[h.State].out2 = target
	} else {
		b.states[h.State].out = target
	}
}

// patchAll points every hole in holes at target.
func (b *builder) patchAll(holes []Hole, target StateID) {
	for _, h := range holes {
		b.patch(h, target)
	}
}

// MakeChar builds a one-byte-matching fragment.
func (b *builder) MakeChar(c byte) (Fragment, error) {
	id, err := b.alloc(state{kind: KindChar, ch: c, out: InvalidState})
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Start: id, Holes: []Hole{{id, 0}}}, nil
}

// MakeCharset builds a fragment matching any byte in [lo, hi], or its
// Sigma-complement when inverted.
func (b *builder) MakeCharset(lo, hi byte, inverted bool) (Fragment, error) {
	id, err := b.alloc(state{kind: KindCharset, lo: lo, hi: hi, inverted: inverted, out: InvalidState})
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Start: id, Holes: []Hole{{id, 0}}}, nil
}

// MakeLiteral builds a fragment matching the exact byte string s, as a
// chain of MakeChar fragments concatenated left to right. s must be
// non-empty.
func (b *builder) MakeLiteral(s []byte) (Fragment, error) {
	frag, err := b.MakeChar(s[0])
	if err != nil {
		return Fragment{}, err
	}
	for _, c := range s[1:] {
		next, err := b.MakeChar(c)
		if err != nil {
			return Fragment{}, err
		}
		frag = b.ApplyCat(frag, next)
	}
	return frag, nil
}

// MakeEmpty builds a zero-width fragment matching the empty string: a
// single epsilon state whose own outgoing edge is its one hole.
func (b *builder) MakeEmpty() (Fragment, error) {
	id, err := b.alloc(state{kind: KindEpsilon, out: InvalidState})
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Start: id, Holes: []Hole{{id, 0}}}, nil
}

// ApplyCat concatenates a then b: every hole of a is patched to b's start,
// and b's holes become the result's holes.
func (b *builder) ApplyCat(a, b2 Fragment) Fragment {
	b.patchAll(a.Holes, b2.Start)
	return Fragment{Start: a.Start, Holes: b2.Holes}
}

// ApplyUnion builds a|b: a new split state branches to both starts, and the
// result's holes are the union of both operands' holes.
func (b *builder) ApplyUnion(a, bFrag Fragment) (Fragment, error) {
	id, err := b.alloc(state{kind: KindSplit, out: a.Start, out2: bFrag.Start})
	if err != nil {
		return Fragment{}, err
	}
	holes := make([]Hole, 0, len(a.Holes)+len(bFrag.Holes))
	holes = append(holes, a.Holes...)
	holes = append(holes, bFrag.Holes...)
	return Fragment{Start: id, Holes: holes}, nil
}

// ApplyKStar builds a*: a split state either enters a's body, whose holes
// loop back to the split, or skips it entirely via the result's one hole.
func (b *builder) ApplyKStar(a Fragment) (Fragment, error) {
	id, err := b.alloc(state{kind: KindSplit, out: a.Start, out2: InvalidState})
	if err != nil {
		return Fragment{}, err
	}
	b.patchAll(a.Holes, id)
	return Fragment{Start: id, Holes: []Hole{{id, 2}}}, nil
}

// ApplyKPlus builds a+ as ApplyCat(a, ApplyKStar(a')), where a' is an
// independent second construction of a's subgraph obtained by cloning it.
// a must not have been patched into anything else yet.
func (b *builder) ApplyKPlus(a Fragment) (Fragment, error) {
	clone, err := b.cloneFragment(a)
	if err != nil {
		return Fragment{}, err
	}
	star, err := b.ApplyKStar(clone)
	if err != nil {
		return Fragment{}, err
	}
	return b.ApplyCat(a, star), nil
}

// ApplyOptional builds a? as (ε|a): a union of a with a fresh empty
// fragment.
func (b *builder) ApplyOptional(a Fragment) (Fragment, error) {
	empty, err := b.MakeEmpty()
	if err != nil {
		return Fragment{}, err
	}
	return b.ApplyUnion(empty, a)
}

// ConcludeCase seals fragment a by patching every remaining hole to a fresh
// match state carrying caseTag, and returns a's start — the entry point of
// this rule's automaton.
func (b *builder) ConcludeCase(a Fragment, caseTag uint32) (StateID, error) {
	id, err := b.alloc(state{kind: KindMatch, caseTag: caseTag})
	if err != nil {
		return InvalidState, err
	}
	b.patchAll(a.Holes, id)
	return a.Start, nil
}

// cloneFragment deep-copies the subgraph reachable from a.Start, remapping
// internal edges to the copies and producing fresh holes at the positions
// corresponding to a's own holes. This relies on the builder invariant that
// an unpatched fragment's internal states never reference anything outside
// the fragment except through its own holes.
func (b *builder) cloneFragment(a Fragment) (Fragment, error) {
	remap := make(map[StateID]StateID)

	var order []StateID
	var visit func(s StateID) error
	visit = func(s StateID) error {
		if _, ok := remap[s]; ok {
			return nil
		}
		newID, err := b.alloc(b.states[s])
		if err != nil {
			return err
		}
		remap[s] = newID
		order = append(order, s)
		old := b.states[s]
		switch old.kind {
		case KindChar, KindCharset, KindEpsilon:
			if old.out != InvalidState {
				if err := visit(old.out); err != nil {
					return err
				}
			}
		case KindSplit:
			if old.out != InvalidState {
				if err := visit(old.out); err != nil {
					return err
				}
			}
			if old.out2 != InvalidState {
				if err := visit(old.out2); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(a.Start); err != nil {
		return Fragment{}, err
	}

	// Remap every already-resolved edge (one whose value isn't
	// InvalidState) to its clone; leave holes as InvalidState so they
	// remain holes in the copy.
	for _, old := range order {
		newID := remap[old]
		st := b.states[newID]
		switch st.kind {
		case KindChar, KindCharset, KindEpsilon:
			if st.out != InvalidState {
				st.out = remap[st.out]
			}
		case KindSplit:
			if st.out != InvalidState {
				st.out = remap[st.out]
			}
			if st.out2 != InvalidState {
				st.out2 = remap[st.out2]
			}
		}
		b.states[newID] = st
	}

	newHoles := make([]Hole, len(a.Holes))
	for i, h := range a.Holes {
		newHoles[i] = Hole{State: remap[h.State], Slot: h.Slot}
	}
	return Fragment{Start: remap[a.Start], Holes: newHoles}, nil
}

// chainStarts builds a right-leaning chain of split states fanning out to
// every start in starts, so the automaton has a single shared entry point.
// Requires len(starts) >= 1.
func (b *builder) chainStarts(starts []StateID) (StateID, error) {
	if len(starts) == 1 {
		return starts[0], nil
	}
	tail, err := b.chainStarts(starts[1:])
	if err != nil {
		return InvalidState, err
	}
	id, err := b.alloc(state{kind: KindSplit, out: starts[0], out2: tail})
	if err != nil {
		return InvalidState, err
	}
	return id, nil
}

// fragmentFromProgram runs prog as a postfix stack machine, desugaring Plus
// and Question at the point each is popped, and returns the single
// resulting fragment.
func (b *builder) fragmentFromProgram(prog flatregex.Program) (Fragment, error) {
	var stack []Fragment
	pop := func() (Fragment, error) {
		if len(stack) == 0 {
			return Fragment{}, &rerr.InvariantViolation{Rule: -1, Message: "postfix program popped an operand with none on the stack"}
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f, nil
	}
	for _, sym := range prog {
		switch sym.Kind {
		case flatregex.Char:
			f, err := b.MakeChar(sym.Ch)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Literal:
			f, err := b.MakeLiteral(sym.Str)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Charset:
			f, err := b.MakeCharset(sym.Lo, sym.Hi, sym.Inverted)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Union:
			rhs, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			lhs, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			f, err := b.ApplyUnion(lhs, rhs)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Concat:
			rhs, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			lhs, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, b.ApplyCat(lhs, rhs))
		case flatregex.KleeneStar:
			operand, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			f, err := b.ApplyKStar(operand)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Plus:
			operand, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			f, err := b.ApplyKPlus(operand)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		case flatregex.Question:
			operand, err := pop()
			if err != nil {
				return Fragment{}, err
			}
			f, err := b.ApplyOptional(operand)
			if err != nil {
				return Fragment{}, err
			}
			stack = append(stack, f)
		}
	}
	if len(stack) != 1 {
		return Fragment{}, &rerr.InvariantViolation{Rule: -1, Message: "postfix program did not reduce to one fragment"}
	}
	return stack[0], nil
}

// Build assembles one NFA from a sequence of already-preprocessed rule
// programs, one per rule, in rule order. Rule i's case tag is i; priority
// among merged accept states is resolved downstream by the dfa package,
// which keeps the smaller (earlier) tag.
func Build(programs []flatregex.Program, opts ...BuildOption) (*NFA, error) {
	cfg := BuildOptions{MaxStates: DefaultMaxStates}
	for _, opt := range opts {
		opt(&cfg)
	}
	b := newBuilder(cfg.MaxStates)

	starts := make([]StateID, 0, len(programs))
	for i, prog := range programs {
		if len(prog) == 0 {
			// Kind None/EOF: a rule with no reachable transitions still
			// contributes a case tag, via an unreachable match state.
			id, err := b.alloc(state{kind: KindMatch, caseTag: uint32(i)})
			if err != nil {
				return nil, attributeRule(err, i)
			}
			_ = id
			continue
		}
		frag, err := b.fragmentFromProgram(prog)
		if err != nil {
			return nil, attributeRule(err, i)
		}
		start, err := b.ConcludeCase(frag, uint32(i))
		if err != nil {
			return nil, attributeRule(err, i)
		}
		starts = append(starts, start)
	}

	if len(starts) == 0 {
		return nil, &rerr.SyntaxError{Rule: -1, Message: "no rule contributes a reachable transition"}
	}

	start, err := b.chainStarts(starts)
	if err != nil {
		return nil, err
	}
	return &NFA{states: b.states, start: start, numCases: len(programs)}, nil
}

func attributeRule(err error, idx int) error {
	switch e := err.(type) {
	case *rerr.LimitExceeded:
		if e.Rule < 0 {
			e.Rule = idx
		}
		return e
	case *rerr.InvariantViolation:
		if e.Rule < 0 {
			e.Rule = idx
		}
		return e
	case *rerr.SyntaxError:
		if e.Rule < 0 {
			e.Rule = idx
		}
		return e
	default:
		return err
	}
}
