package dfa

import (
	"testing"

	"github.com/coregx/rulefa/flatregex"
	"github.com/coregx/rulefa/nfa"
)

func mustNFA(t *testing.T, progs ...flatregex.Program) *nfa.NFA {
	t.Helper()
	n, err := nfa.Build(progs)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func run(d *DFA, s string) StateID {
	cur := d.Start()
	for i := 0; i < len(s); i++ {
		cur = d.Transition(cur, s[i])
	}
	return cur
}

func TestBuildSimpleUnion(t *testing.T) {
	n := mustNFA(t, flatregex.Program{
		flatregex.CharSym('a'), flatregex.CharSym('b'), flatregex.UnionSym(),
	})
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []byte{'a', 'b'} {
		if tag, ok := d.CaseTag(d.Transition(d.Start(), b)); !ok || tag != 0 {
			t.Fatalf("byte %q: want case 0, got tag=%d ok=%v", b, tag, ok)
		}
	}
	if !d.IsDead(d.Transition(d.Start(), 'c')) {
		t.Fatal("'c' should land on the dead state")
	}
}

func TestDeadStateIsSelfLooping(t *testing.T) {
	n := mustNFA(t, flatregex.Program{flatregex.CharSym('a')})
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	dead := d.Transition(d.Start(), 'z')
	if !d.IsDead(dead) {
		t.Fatal("expected dead state")
	}
	for _, b := range []byte{'a', 'z', 0x00, 0xFF} {
		if d.Transition(dead, b) != dead {
			t.Fatalf("dead state must self-loop on byte %d", b)
		}
	}
	if _, ok := d.CaseTag(dead); ok {
		t.Fatal("dead state must not be accepting")
	}
}

func TestCaseTagPriorityEarliestRuleWins(t *testing.T) {
	// Rule 0: "if" (string-style, single literal path). Rule 1: "[a-z]+"
	// overlapping on the same input "if".
	ifProg := flatregex.Program{flatregex.LiteralSym([]byte("if"))}
	idProg := flatregex.Program{
		flatregex.CharsetSym('a', 'z', false), flatregex.PlusSym(),
	}
	n := mustNFA(t, ifProg, idProg)
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	final := run(d, "if")
	tag, ok := d.CaseTag(final)
	if !ok || tag != 0 {
		t.Fatalf("want case 0 (earliest rule) on \"if\", got tag=%d ok=%v", tag, ok)
	}
}

func TestTotalOverEveryByte(t *testing.T) {
	n := mustNFA(t, flatregex.Program{flatregex.CharSym('a')})
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	for b := 0; b < 256; b++ {
		_ = d.Transition(d.Start(), byte(b))
	}
}

func TestCaseTagDisjointPrefixRulesStayDistinct(t *testing.T) {
	// Regression fixture for the minimize package's case-tag corruption bug:
	// disjoint-prefix rules ("mx" case 0, "nx" case 1) must still resolve to
	// their own case tag here, in the unminimized DFA, establishing the
	// ground truth minimize_test.go checks its own output against.
	mx := flatregex.Program{flatregex.LiteralSym([]byte("mx"))}
	nx := flatregex.Program{flatregex.LiteralSym([]byte("nx"))}
	n := mustNFA(t, mx, nx)
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	if tag, ok := d.CaseTag(run(d, "mx")); !ok || tag != 0 {
		t.Fatalf(`"mx": want case 0, got tag=%d ok=%v`, tag, ok)
	}
	if tag, ok := d.CaseTag(run(d, "nx")); !ok || tag != 1 {
		t.Fatalf(`"nx": want case 1, got tag=%d ok=%v`, tag, ok)
	}
}

func TestNumCasesCarriesThroughFromNFA(t *testing.T) {
	n := mustNFA(t, flatregex.Program{flatregex.CharSym('a')}, flatregex.Program{flatregex.CharSym('b')})
	d, err := Build(n)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.NumCases(), n.NumCases(); got != want {
		t.Fatalf("DFA.NumCases() = %d, want %d (from NFA)", got, want)
	}
	if got := d.NumCases(); got != 2 {
		t.Fatalf("NumCases() = %d, want 2", got)
	}
}
