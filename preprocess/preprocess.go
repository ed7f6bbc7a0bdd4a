// Package preprocess turns a rule's raw pattern bytes into a flatregex
// postfix program the NFA builder can consume as a left-to-right stack
// machine.
//
// For Kind==Regex the pipeline runs four steps: encode operator characters
// to sentinel bytes outside the alphabet, fold bracket expressions into
// Charset/Union subprograms, insert explicit concatenation between
// juxtaposed operands, then run shunting-yard to produce postfix order. For
// Kind==String the pattern is treated as an opaque literal and none of this
// runs. Kind==None and Kind==EOF carry no pattern at all and always produce
// an empty program.
package preprocess

import (
	"github.com/coregx/rulefa/alphabet"
	"github.com/coregx/rulefa/flatregex"
	"github.com/coregx/rulefa/rerr"
	"github.com/coregx/rulefa/rule"
)

// Operator sentinel bytes. All lie outside Sigma (Sigma's minimum byte is
// 0x09) except for the two values Sigma actually uses at the low end, 0x09
// (tab) and 0x0A (newline), which this encoding carefully skips over so
// literal tabs and newlines are never mistaken for operators.
const (
	opUnion    byte = 0x01
	opConcat   byte = 0x02
	opKleene   byte = 0x03
	opPlus     byte = 0x04
	opOptional byte = 0x05
	opLParen   byte = 0x06
	opRParen   byte = 0x07
	opLBrace   byte = 0x08
	opRBrace   byte = 0x11
	opInvert   byte = 0x12
	opRangeMid byte = 0x13
)

func isOpByte(b byte) bool {
	switch b {
	case opUnion, opConcat, opKleene, opPlus, opOptional,
		opLParen, opRParen, opLBrace, opRBrace, opInvert, opRangeMid:
		return true
	default:
		return false
	}
}

// Process converts rule pattern bytes into a flatregex.Program. ruleIdx is
// attached to any returned *rerr.SyntaxError for attribution.
func Process(pat []byte, kind rule.Kind, ruleIdx int) (flatregex.Program, error) {
	switch kind {
	case rule.None, rule.EOF:
		return flatregex.Program{}, nil
	case rule.String:
		return processString(pat, ruleIdx)
	case rule.Regex:
		return processRegex(pat, ruleIdx)
	default:
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unknown rule kind"}
	}
}

func processString(pat []byte, ruleIdx int) (flatregex.Program, error) {
	if len(pat) == 0 {
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "empty pattern"}
	}
	for _, b := range pat {
		if !alphabet.InSigma(b) {
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "byte outside alphabet in string literal"}
		}
	}
	return flatregex.Program{flatregex.LiteralSym(pat)}, nil
}

func processRegex(pat []byte, ruleIdx int) (flatregex.Program, error) {
	if len(pat) == 0 {
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "empty pattern"}
	}
	encoded, err := encode(pat, ruleIdx)
	if err != nil {
		return nil, err
	}
	toks, err := tokenize(encoded, ruleIdx)
	if err != nil {
		return nil, err
	}
	toks = insertConcats(toks)
	prog, err := shuntingYard(toks, ruleIdx)
	if err != nil {
		return nil, err
	}
	// shuntingYard's expectOperand tracking already rejects malformed
	// operator/operand sequences; this is a second, cheap check of the same
	// invariant flatregex.Program.Validate defines. A failure here means a
	// bug in shuntingYard, not malformed user input.
	if err := prog.Validate(); err != nil {
		return nil, &rerr.InvariantViolation{Rule: ruleIdx, Message: err.Error()}
	}
	return prog, nil
}

// encode maps decoded operator characters to sentinel bytes and validates
// that every other byte lies in Sigma. A backslash forces the following
// byte to be treated as a literal regardless of what character it is.
func encode(pat []byte, ruleIdx int) ([]byte, error) {
	out := make([]byte, 0, len(pat))
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		if c == '\\' {
			i++
			if i >= len(pat) {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "trailing backslash"}
			}
			if !alphabet.InSigma(pat[i]) {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "escaped byte outside alphabet"}
			}
			out = append(out, pat[i])
			continue
		}
		switch c {
		case '|':
			out = append(out, opUnion)
		case '.':
			out = append(out, opConcat)
		case '*':
			out = append(out, opKleene)
		case '+':
			out = append(out, opPlus)
		case '?':
			out = append(out, opOptional)
		case '(':
			out = append(out, opLParen)
		case ')':
			out = append(out, opRParen)
		case '[':
			out = append(out, opLBrace)
		case ']':
			out = append(out, opRBrace)
		case '^':
			out = append(out, opInvert)
		case '-':
			out = append(out, opRangeMid)
		default:
			if !alphabet.InSigma(c) {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "byte outside alphabet"}
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// tokKind identifies the shape of a shunting-yard token.
type tokKind uint8

const (
	tokOperand tokKind = iota
	tokUnion
	tokConcat
	tokStar
	tokPlus
	tokQuestion
	tokLParen
	tokRParen
)

type token struct {
	kind    tokKind
	operand flatregex.Program // only set when kind == tokOperand
}

func isUnaryPostfix(k tokKind) bool {
	return k == tokStar || k == tokPlus || k == tokQuestion
}

// canEndExpr reports whether a token may be the last token of a complete
// subexpression, i.e. whether an operand immediately following it implies
// concatenation.
func canEndExpr(k tokKind) bool {
	return k == tokOperand || k == tokRParen || isUnaryPostfix(k)
}

// canStartExpr reports whether a token may begin a subexpression.
func canStartExpr(k tokKind) bool {
	return k == tokOperand || k == tokLParen
}

// tokenize walks the encoded byte stream, folding bracket expressions into
// single Charset/Union operand tokens and emitting one token per literal
// byte or operator elsewhere.
func tokenize(encoded []byte, ruleIdx int) ([]token, error) {
	var toks []token
	for i := 0; i < len(encoded); i++ {
		b := encoded[i]
		switch b {
		case opLBrace:
			end := indexByte(encoded, opRBrace, i+1)
			if end < 0 {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unmatched '['"}
			}
			prog, err := parseCharClass(encoded[i+1:end], ruleIdx)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokOperand, operand: prog})
			i = end
		case opRBrace:
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unmatched ']'"}
		case opUnion:
			toks = append(toks, token{kind: tokUnion})
		case opConcat:
			toks = append(toks, token{kind: tokConcat})
		case opKleene:
			toks = append(toks, token{kind: tokStar})
		case opPlus:
			toks = append(toks, token{kind: tokPlus})
		case opOptional:
			toks = append(toks, token{kind: tokQuestion})
		case opLParen:
			toks = append(toks, token{kind: tokLParen})
		case opRParen:
			toks = append(toks, token{kind: tokRParen})
		case opInvert, opRangeMid:
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "'^' and '-' are only meaningful inside a character class"}
		default:
			toks = append(toks, token{kind: tokOperand, operand: flatregex.Program{flatregex.CharSym(b)}})
		}
	}
	return toks, nil
}

func indexByte(b []byte, target byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == target {
			return i
		}
	}
	return -1
}

// parseCharClass parses the content between '[' and ']' (sentinel-encoded,
// sentinels excluded) into a single operand program: either one Charset
// symbol, or a left-folded Union of several.
func parseCharClass(body []byte, ruleIdx int) (flatregex.Program, error) {
	inverted := false
	i := 0
	if len(body) > 0 && body[0] == opInvert {
		inverted = true
		i = 1
	}
	if i >= len(body) {
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "empty character class"}
	}

	var spans []byteRange
	for i < len(body) {
		lo := body[i]
		if isOpByte(lo) {
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unexpected operator inside character class"}
		}
		i++
		hi := lo
		if i < len(body) && body[i] == opRangeMid {
			i++
			if i >= len(body) {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "dangling range operator in character class"}
			}
			hi = body[i]
			if isOpByte(hi) {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unexpected operator inside character class range"}
			}
			i++
			if lo > hi {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "invalid range: lower bound exceeds upper bound"}
			}
		}
		spans = append(spans, byteRange{lo, hi})
	}

	ranges := mergeRanges(spans)
	if inverted {
		ranges = complementRanges(ranges)
		if len(ranges) == 0 {
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "negated character class matches no byte in the alphabet"}
		}
	}

	prog := make(flatregex.Program, 0, len(ranges)*2)
	prog = append(prog, flatregex.CharsetSym(ranges[0].lo, ranges[0].hi, false))
	for _, r := range ranges[1:] {
		prog = append(prog, flatregex.CharsetSym(r.lo, r.hi, false), flatregex.UnionSym())
	}
	return prog, nil
}

type byteRange struct{ lo, hi byte }

// mergeRanges sorts and coalesces overlapping or adjacent ranges.
func mergeRanges(spans []byteRange) []byteRange {
	rs := make([]byteRange, len(spans))
	copy(rs, spans)
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].lo > rs[j].lo; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
	out := rs[:0:0]
	for _, r := range rs {
		if len(out) > 0 && int(r.lo) <= int(out[len(out)-1].hi)+1 {
			if r.hi > out[len(out)-1].hi {
				out[len(out)-1].hi = r.hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// complementRanges returns Sigma minus the given merged, sorted ranges, as
// merged ranges over Sigma's own member bytes. Sigma is not contiguous (tab
// and newline sit below the printable block), so the complement is computed
// by walking the full Sigma byte list rather than assuming one span.
func complementRanges(ranges []byteRange) []byteRange {
	inRange := func(b byte) bool {
		for _, r := range ranges {
			if b >= r.lo && b <= r.hi {
				return true
			}
		}
		return false
	}
	var out []byteRange
	for _, b := range alphabet.Sigma {
		if inRange(b) {
			continue
		}
		if len(out) > 0 && int(b) == int(out[len(out)-1].hi)+1 {
			out[len(out)-1].hi = b
			continue
		}
		out = append(out, byteRange{b, b})
	}
	return out
}

// insertConcats inserts an explicit tokConcat between any two adjacent
// tokens where juxtaposition implies concatenation.
func insertConcats(toks []token) []token {
	if len(toks) < 2 {
		return toks
	}
	out := make([]token, 0, len(toks)*2)
	for i, t := range toks {
		out = append(out, t)
		if i+1 < len(toks) && canEndExpr(t.kind) && canStartExpr(toks[i+1].kind) {
			out = append(out, token{kind: tokConcat})
		}
	}
	return out
}

type opInfo struct {
	prec   int
	binary bool
}

func precedenceOf(k tokKind) opInfo {
	switch k {
	case tokUnion:
		return opInfo{1, true}
	case tokConcat:
		return opInfo{2, true}
	case tokStar, tokPlus, tokQuestion:
		return opInfo{3, false}
	default:
		return opInfo{0, false}
	}
}

func symbolFor(k tokKind) flatregex.Symbol {
	switch k {
	case tokUnion:
		return flatregex.UnionSym()
	case tokConcat:
		return flatregex.ConcatSym()
	case tokStar:
		return flatregex.StarSym()
	case tokPlus:
		return flatregex.PlusSym()
	case tokQuestion:
		return flatregex.QuestionSym()
	default:
		panic("preprocess: symbolFor called on non-operator token")
	}
}

// shuntingYard converts infix tokens to a postfix flatregex.Program. It
// tracks whether an operand or an operator is expected next, the same
// expectOperand flag PreProcessor.cpp's makeRPN threads through its loop:
// an operand/'(' is only valid where an operand is expected, an
// operator/')' only where one isn't, and a binary operator leaves the next
// position expecting an operand again while a unary postfix operator
// doesn't. This rejects malformed operator/operand sequences (a leading or
// trailing binary operator, two binary operators in a row, an empty group)
// at the point of detection, before a Program is ever produced.
//
// Equal-precedence ties only pop the operator stack for binary operators,
// giving them left-associativity; unary postfix operators stack without
// popping each other.
func shuntingYard(toks []token, ruleIdx int) (flatregex.Program, error) {
	var ops []token
	var out flatregex.Program
	expectOperand := true

	pushOperator := func(t token) {
		info := precedenceOf(t.kind)
		for len(ops) > 0 {
			top := ops[len(ops)-1]
			if top.kind == tokLParen {
				break
			}
			topInfo := precedenceOf(top.kind)
			if topInfo.prec > info.prec || (topInfo.prec == info.prec && topInfo.binary) {
				out = append(out, symbolFor(top.kind))
				ops = ops[:len(ops)-1]
				continue
			}
			break
		}
		ops = append(ops, t)
	}

	for _, t := range toks {
		switch t.kind {
		case tokOperand:
			if !expectOperand {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "operand where an operator is required"}
			}
			out = append(out, t.operand...)
			expectOperand = false
		case tokLParen:
			if !expectOperand {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "operand where an operator is required"}
			}
			ops = append(ops, t)
			expectOperand = true
		case tokRParen:
			if expectOperand {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "operator where an operand is required"}
			}
			found := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == tokLParen {
					found = true
					break
				}
				out = append(out, symbolFor(top.kind))
			}
			if !found {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unmatched ')'"}
			}
			expectOperand = false
		default: // binary or unary postfix operator
			if expectOperand {
				return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "operator where an operand is required"}
			}
			pushOperator(t)
			expectOperand = precedenceOf(t.kind).binary
		}
	}

	if expectOperand {
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "pattern ends expecting an operand"}
	}

	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == tokLParen {
			return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "unmatched '('"}
		}
		out = append(out, symbolFor(top.kind))
	}

	if len(out) == 0 {
		return nil, &rerr.SyntaxError{Rule: ruleIdx, Message: "pattern produced no operand"}
	}
	return out, nil
}
