package bf

import "errors"

// ErrUnmatchedBrackets is returned by Parse when a `[` has no matching
// `]` (or vice versa).
var ErrUnmatchedBrackets = errors.New("bf: unmatched brackets")

// TreeKind identifies which case of Tree a value represents.
type TreeKind int

const (
	TreeMove TreeKind = iota
	TreeAdd
	TreeWrite
	TreeRead
	TreeLoop
)

// Tree is one run-length-folded BF node: a pointer move or cell add
// collapses consecutive identical tokens into a single signed amount,
// and a loop holds its body as a nested instruction list.
type Tree struct {
	Kind   TreeKind
	Amount int   // Move: signed cell offset
	Add    uint8 // Add: wrapping byte delta
	Body   []Tree
}

func Move(amount int) Tree   { return Tree{Kind: TreeMove, Amount: amount} }
func AddBy(amount uint8) Tree { return Tree{Kind: TreeAdd, Add: amount} }
func Write() Tree            { return Tree{Kind: TreeWrite} }
func Read() Tree             { return Tree{Kind: TreeRead} }
func Loop(body []Tree) Tree  { return Tree{Kind: TreeLoop, Body: body} }

func (t Tree) appendTokens(into []Token) []Token {
	switch t.Kind {
	case TreeMove:
		tok := TokenRight
		n := t.Amount
		if n < 0 {
			tok = TokenLeft
			n = -n
		}
		for i := 0; i < n; i++ {
			into = append(into, tok)
		}
	case TreeAdd:
		if t.Add > 127 {
			for i := 0; i < int(256-int(t.Add)); i++ {
				into = append(into, TokenDec)
			}
		} else {
			for i := 0; i < int(t.Add); i++ {
				into = append(into, TokenInc)
			}
		}
	case TreeWrite:
		into = append(into, TokenWrite)
	case TreeRead:
		into = append(into, TokenRead)
	case TreeLoop:
		into = append(into, TokenBeginLoop)
		for _, child := range t.Body {
			into = child.appendTokens(into)
		}
		into = append(into, TokenEndLoop)
	}
	return into
}

// Program is an ordered sequence of top-level BF tree nodes.
type Program struct {
	Instructions []Tree
}

// NewProgram builds a Program from tree nodes.
func NewProgram(instructions ...Tree) Program {
	return Program{Instructions: instructions}
}

// Add appends a node, matching push_instruction's adjacent-Move/Add
// folding: two consecutive Move or Add nodes merge into one rather than
// growing the instruction count, which keeps emitted programs compact
// without needing a later pass.
func (p *Program) Add(t Tree) {
	if len(p.Instructions) > 0 {
		last := &p.Instructions[len(p.Instructions)-1]
		switch {
		case last.Kind == TreeMove && t.Kind == TreeMove:
			last.Amount += t.Amount
			return
		case last.Kind == TreeAdd && t.Kind == TreeAdd:
			last.Add += t.Add
			return
		}
	}
	p.Instructions = append(p.Instructions, t)
}

// Append folds rhs's instructions onto p one at a time through Add, so
// folding happens across the join point too.
func (p *Program) Append(rhs Program) {
	for _, t := range rhs.Instructions {
		p.Add(t)
	}
}

// ToTokens flattens the tree into its BF token stream.
func (p Program) ToTokens() []Token {
	var out []Token
	for _, t := range p.Instructions {
		out = t.appendTokens(out)
	}
	return out
}

// String renders the program as BF source text.
func (p Program) String() string {
	return Stringify(p.ToTokens())
}

// Parse tokenizes and parses BF source text, ignoring any non-instruction
// character as a comment.
func Parse(script string) (Program, error) {
	return ParseTokens(Tokenize(script))
}

// MustParse is Parse but panics on error. It exists for package-level
// vars that embed a fixed, known-good BF literal at init time, standing
// in for the source language's compile-time `bf!{...}` macro.
func MustParse(script string) Program {
	p, err := Parse(script)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseTokens parses an already-tokenized BF stream.
func ParseTokens(tokens []Token) (Program, error) {
	index := 0
	body := parseTokensImpl(tokens, &index)
	if index != len(tokens) {
		return Program{}, ErrUnmatchedBrackets
	}
	return Program{Instructions: body}, nil
}

func parseTokensImpl(tokens []Token, index *int) []Tree {
	var result []Tree

	for *index < len(tokens) {
		switch tokens[*index] {
		case TokenLeft:
			if n := len(result); n > 0 && result[n-1].Kind == TreeMove {
				result[n-1].Amount--
			} else {
				result = append(result, Move(-1))
			}
		case TokenRight:
			if n := len(result); n > 0 && result[n-1].Kind == TreeMove {
				result[n-1].Amount++
			} else {
				result = append(result, Move(1))
			}
		case TokenInc:
			if n := len(result); n > 0 && result[n-1].Kind == TreeAdd {
				result[n-1].Add++
			} else {
				result = append(result, AddBy(1))
			}
		case TokenDec:
			if n := len(result); n > 0 && result[n-1].Kind == TreeAdd {
				result[n-1].Add--
			} else {
				result = append(result, AddBy(255))
			}
		case TokenWrite:
			result = append(result, Write())
		case TokenRead:
			result = append(result, Read())
		case TokenBeginLoop:
			*index++
			body := parseTokensImpl(tokens, index)
			result = append(result, Loop(body))
		case TokenEndLoop:
			return result
		}
		*index++
	}

	return result
}
