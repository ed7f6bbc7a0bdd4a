// Package flatregex defines the postfix, postorder-friendly tagged symbol
// stream the preprocessor emits and the NFA builder consumes as a
// left-to-right stack machine. It is an intermediate value type: it holds no
// behavior beyond what's needed to inspect and validate a postfix program.
package flatregex

import "fmt"

// Kind identifies the tag of a Symbol.
type Kind uint8

const (
	// Char matches a single literal byte.
	Char Kind = iota
	// Literal matches a non-empty literal byte string, treated as the
	// concatenation of its bytes.
	Literal
	// Charset matches any Sigma byte in [Lo, Hi], or its complement within
	// Sigma when Inverted is set.
	Charset
	// Union is a binary operator: the two preceding operands on the stack.
	Union
	// Concat is a binary operator: the two preceding operands on the stack.
	Concat
	// KleeneStar is a unary operator: the one preceding operand on the
	// stack.
	KleeneStar
	// Plus is a unary sugar operator, present only in the postfix stream
	// the preprocessor emits. It never reaches the NFA, DFA, or minimizer:
	// the NFA builder desugars it to a star composition (e+ = e e*) the
	// moment it is popped off the fragment stack.
	Plus
	// Question is a unary sugar operator, present only in the postfix
	// stream the preprocessor emits. Desugared by the NFA builder to a
	// union with an empty fragment (e? = (ε|e)) the moment it is popped.
	Question
)

// Arity returns the number of operands the symbol consumes from the
// fragment stack when applied. Char, Literal, and Charset are operand
// symbols (arity 0 — they push, they don't pop).
func (k Kind) Arity() int {
	switch k {
	case Union, Concat:
		return 2
	case KleeneStar, Plus, Question:
		return 1
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Char:
		return "Char"
	case Literal:
		return "Literal"
	case Charset:
		return "Charset"
	case Union:
		return "Union"
	case Concat:
		return "Concat"
	case KleeneStar:
		return "KleeneStar"
	case Plus:
		return "Plus"
	case Question:
		return "Question"
	default:
		return "Unknown"
	}
}

// Symbol is one tagged entry in a postfix program. Only the fields relevant
// to Kind are meaningful.
type Symbol struct {
	Kind     Kind
	Ch       byte   // Char
	Str      []byte // Literal; non-empty
	Lo, Hi   byte   // Charset; Lo <= Hi
	Inverted bool   // Charset
}

func (s Symbol) String() string {
	switch s.Kind {
	case Char:
		return fmt.Sprintf("Char(%q)", s.Ch)
	case Literal:
		return fmt.Sprintf("Literal(%q)", s.Str)
	case Charset:
		if s.Inverted {
			return fmt.Sprintf("Charset(^%q-%q)", s.Lo, s.Hi)
		}
		return fmt.Sprintf("Charset(%q-%q)", s.Lo, s.Hi)
	default:
		return s.Kind.String()
	}
}

// Program is a postfix (RPN) symbol stream: operands precede the operators
// that consume them.
type Program []Symbol

// CharSym builds a Char symbol.
func CharSym(c byte) Symbol { return Symbol{Kind: Char, Ch: c} }

// LiteralSym builds a Literal symbol. s must be non-empty; callers that
// might pass an empty string should emit nothing instead (an empty pattern
// is a SyntaxError at the preprocessor, not a flatregex concern).
func LiteralSym(s []byte) Symbol { return Symbol{Kind: Literal, Str: s} }

// CharsetSym builds a Charset symbol over the closed range [lo, hi].
func CharsetSym(lo, hi byte, inverted bool) Symbol {
	return Symbol{Kind: Charset, Lo: lo, Hi: hi, Inverted: inverted}
}

// UnionSym, ConcatSym, and StarSym build the corresponding operator symbols.
func UnionSym() Symbol    { return Symbol{Kind: Union} }
func ConcatSym() Symbol   { return Symbol{Kind: Concat} }
func StarSym() Symbol     { return Symbol{Kind: KleeneStar} }
func PlusSym() Symbol     { return Symbol{Kind: Plus} }
func QuestionSym() Symbol { return Symbol{Kind: Question} }

// Validate checks the operand-count invariant: at every point while
// scanning left to right, the running operand-stack depth covers the
// symbol about to be applied, and the program ends with exactly one operand
// remaining. A violation here indicates a bug in the preprocessor's
// shunting-yard, not malformed user input — the preprocessor itself already
// rejects malformed input before ever producing a Program.
func (p Program) Validate() error {
	depth := 0
	for i, sym := range p {
		switch sym.Kind {
		case Char, Literal, Charset:
			depth++
		case Union, Concat:
			if depth < 2 {
				return fmt.Errorf("flatregex: symbol %d (%s) needs 2 operands, have %d", i, sym.Kind, depth)
			}
			depth--
		case KleeneStar, Plus, Question:
			if depth < 1 {
				return fmt.Errorf("flatregex: symbol %d (%s) needs 1 operand, have %d", i, sym.Kind, depth)
			}
		default:
			return fmt.Errorf("flatregex: symbol %d has unknown kind %d", i, sym.Kind)
		}
	}
	if depth != 1 {
		return fmt.Errorf("flatregex: program leaves %d operands on the stack, want 1", depth)
	}
	return nil
}
