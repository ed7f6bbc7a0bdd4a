package nfa

import (
	"testing"

	"github.com/coregx/rulefa/flatregex"
)

func programFor(t *testing.T, pat string) flatregex.Program {
	t.Helper()
	// Hand-assemble postfix programs directly so this package's tests
	// don't depend on preprocess.
	switch pat {
	case "a":
		return flatregex.Program{flatregex.CharSym('a')}
	case "b":
		return flatregex.Program{flatregex.CharSym('b')}
	case "a|b":
		return flatregex.Program{flatregex.CharSym('a'), flatregex.CharSym('b'), flatregex.UnionSym()}
	case "ab":
		return flatregex.Program{flatregex.CharSym('a'), flatregex.CharSym('b'), flatregex.ConcatSym()}
	case "a*":
		return flatregex.Program{flatregex.CharSym('a'), flatregex.StarSym()}
	case "a+":
		return flatregex.Program{flatregex.CharSym('a'), flatregex.PlusSym()}
	case "a?":
		return flatregex.Program{flatregex.CharSym('a'), flatregex.QuestionSym()}
	}
	t.Fatalf("no hand-built program for %q", pat)
	return nil
}

func walkByte(n *NFA, states []StateID, b byte) []StateID {
	var next []StateID
	seen := map[StateID]bool{}
	var addClosure func(s StateID)
	addClosure = func(s StateID) {
		if seen[s] {
			return
		}
		seen[s] = true
		next = append(next, s)
		for _, t := range n.EpsilonTargets(s) {
			addClosure(t)
		}
	}
	for _, s := range states {
		if t, ok := n.ByteTransition(s, b); ok {
			addClosure(t)
		}
	}
	return next
}

func closureOf(n *NFA, starts ...StateID) []StateID {
	var out []StateID
	seen := map[StateID]bool{}
	var visit func(s StateID)
	visit = func(s StateID) {
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
		for _, t := range n.EpsilonTargets(s) {
			visit(t)
		}
	}
	for _, s := range starts {
		visit(s)
	}
	return out
}

func hasMatch(n *NFA, states []StateID, tag uint32) bool {
	for _, s := range states {
		if ct, ok := n.CaseTag(s); ok && ct == tag {
			return true
		}
	}
	return false
}

func TestBuildSingleChar(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a")})
	if err != nil {
		t.Fatal(err)
	}
	cur := closureOf(n, n.Start())
	cur = walkByte(n, cur, 'a')
	if !hasMatch(n, cur, 0) {
		t.Fatal("expected match on 'a'")
	}
}

func TestBuildUnion(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a|b")})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []byte{'a', 'b'} {
		cur := closureOf(n, n.Start())
		cur = walkByte(n, cur, b)
		if !hasMatch(n, cur, 0) {
			t.Fatalf("expected match on %q", b)
		}
	}
	cur := closureOf(n, n.Start())
	cur = walkByte(n, cur, 'c')
	if hasMatch(n, cur, 0) {
		t.Fatal("did not expect match on 'c'")
	}
}

func TestBuildConcat(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "ab")})
	if err != nil {
		t.Fatal(err)
	}
	cur := closureOf(n, n.Start())
	cur = walkByte(n, cur, 'a')
	if hasMatch(n, cur, 0) {
		t.Fatal("did not expect match after just 'a'")
	}
	cur = walkByte(n, cur, 'b')
	if !hasMatch(n, cur, 0) {
		t.Fatal("expected match after 'ab'")
	}
}

func TestBuildStarMatchesEmptyAndRepeats(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a*")})
	if err != nil {
		t.Fatal(err)
	}
	if !hasMatch(n, closureOf(n, n.Start()), 0) {
		t.Fatal("a* should match the empty string")
	}
	cur := closureOf(n, n.Start())
	for i := 0; i < 5; i++ {
		cur = walkByte(n, cur, 'a')
		if !hasMatch(n, cur, 0) {
			t.Fatalf("a* should match after %d a's", i+1)
		}
	}
}

func TestBuildPlusRequiresOneThenRepeats(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a+")})
	if err != nil {
		t.Fatal(err)
	}
	if hasMatch(n, closureOf(n, n.Start()), 0) {
		t.Fatal("a+ should not match the empty string")
	}
	cur := closureOf(n, n.Start())
	cur = walkByte(n, cur, 'a')
	if !hasMatch(n, cur, 0) {
		t.Fatal("a+ should match after one 'a'")
	}
	cur = walkByte(n, cur, 'a')
	if !hasMatch(n, cur, 0) {
		t.Fatal("a+ should match after two a's")
	}
}

func TestBuildQuestionMatchesEmptyAndOne(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a?")})
	if err != nil {
		t.Fatal(err)
	}
	if !hasMatch(n, closureOf(n, n.Start()), 0) {
		t.Fatal("a? should match the empty string")
	}
	cur := walkByte(n, closureOf(n, n.Start()), 'a')
	if !hasMatch(n, cur, 0) {
		t.Fatal("a? should match after one 'a'")
	}
	cur = walkByte(n, cur, 'a')
	if hasMatch(n, cur, 0) {
		t.Fatal("a? should not match after two a's")
	}
}

func TestBuildMultipleRulesGetDistinctCaseTags(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a"), programFor(t, "b")})
	if err != nil {
		t.Fatal(err)
	}
	cur := closureOf(n, n.Start())
	cur = walkByte(n, cur, 'a')
	if !hasMatch(n, cur, 0) {
		t.Fatal("expected case 0 on 'a'")
	}
	cur = closureOf(n, n.Start())
	cur = walkByte(n, cur, 'b')
	if !hasMatch(n, cur, 1) {
		t.Fatal("expected case 1 on 'b'")
	}
}

func TestBuildMaxStatesExceeded(t *testing.T) {
	_, err := Build([]flatregex.Program{programFor(t, "ab")}, WithMaxStates(2))
	if err == nil {
		t.Fatal("expected LimitExceeded error")
	}
}

func TestNumCasesMatchesProgramCount(t *testing.T) {
	n, err := Build([]flatregex.Program{programFor(t, "a"), programFor(t, "b"), programFor(t, "ab")})
	if err != nil {
		t.Fatal(err)
	}
	if got := n.NumCases(); got != 3 {
		t.Fatalf("NumCases() = %d, want 3", got)
	}
}

func TestBuildStarvedOperatorReturnsErrorNotPanic(t *testing.T) {
	// The shape a starved shunting-yard would never emit if it's doing its
	// job, but fragmentFromProgram must not panic if one reaches it anyway.
	malformed := flatregex.Program{flatregex.CharSym('a'), flatregex.UnionSym()}
	if _, err := Build([]flatregex.Program{malformed}); err == nil {
		t.Fatal("expected an error for a postfix program with a starved operator")
	}
}
