package lang

import (
	"strconv"
)

// ParseExpr compiles a key-path expression string into its AST.
//
// The grammar, LL(1)-compatible and parsed by recursive descent:
//
//	expr        := key_path ('|' operator)*
//	operator    := 'default_key' '(' key_path ')'
//	             | 'sub' '(' STRING ',' STRING [',' NUMBER [',' NUMBER]] ')'
//	key_path    := namespace KEY ('.' KEY)*
//	namespace   := ('<' ('i'|'s'|'b') '>')?
//
// Operators chain left to right: a|sub(x,y)|sub(u,v) applies the outer
// substitution to the inner's result. Whitespace between tokens is
// ignored.
func ParseExpr(input string) (Expr, error) {
	p := &parser{input: input}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if !p.eof() {
		return nil, syntaxErr(p.input, p.pos, "end of expression")
	}

	return expr, nil
}

// parser holds the parser state. The same machinery serves both the
// expression grammar and the stack grammar.
type parser struct {
	input string
	pos   int
}

// parseExpr parses a key path followed by any number of piped operators.
func (p *parser) parseExpr() (Expr, error) {
	kp, err := p.parseKeyPath()
	if err != nil {
		return nil, err
	}

	var expr Expr = kp

	for {
		p.skipWhitespace()

		if p.peek() != '|' {
			break
		}

		p.advance()
		p.skipWhitespace()

		name := p.parseWord()

		switch name {
		case "default_key":
			expr, err = p.parseDefaultKey(expr)

		case "sub":
			expr, err = p.parseSubstitution(expr)

		default:
			return nil, syntaxErr(p.input, p.pos, "operator default_key or sub")
		}

		if err != nil {
			return nil, err
		}
	}

	return expr, nil
}

// parseDefaultKey parses '(' key_path ')' and attaches the given primary.
// The argument is restricted to a plain key path, so defaults cannot nest.
func (p *parser) parseDefaultKey(primary Expr) (Expr, error) {
	p.skipWhitespace()

	if !p.expect('(') {
		return nil, syntaxErr(p.input, p.pos, "(")
	}

	fallback, err := p.parseKeyPath()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if !p.expect(')') {
		return nil, syntaxErr(p.input, p.pos, ")")
	}

	return &DefaultKey{Primary: primary, Fallback: fallback}, nil
}

// parseSubstitution parses
// '(' STRING ',' STRING [',' NUMBER [',' NUMBER]] ')'.
func (p *parser) parseSubstitution(source Expr) (Expr, error) {
	p.skipWhitespace()

	if !p.expect('(') {
		return nil, syntaxErr(p.input, p.pos, "(")
	}

	pattern, err := p.parseString()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if !p.expect(',') {
		return nil, syntaxErr(p.input, p.pos, ",")
	}

	replacement, err := p.parseString()
	if err != nil {
		return nil, err
	}

	sub := &Substitution{
		Source:      source,
		Pattern:     pattern,
		Replacement: replacement,
		Count:       -1,
	}

	p.skipWhitespace()

	if p.expect(',') {
		sub.Count, err = p.parseNumber()
		if err != nil {
			return nil, err
		}

		p.skipWhitespace()

		if p.expect(',') {
			sub.Flags, err = p.parseNumber()
			if err != nil {
				return nil, err
			}

			p.skipWhitespace()
		}
	}

	if !p.expect(')') {
		return nil, syntaxErr(p.input, p.pos, ")")
	}

	return sub, nil
}

// parseKeyPath parses an optional namespace selector followed by a dotted
// key sequence. The wildcard key is rejected anywhere but the terminal
// position.
func (p *parser) parseKeyPath() (*KeyPath, error) {
	p.skipWhitespace()

	namespace := DefaultNamespace

	if p.peek() == '<' {
		p.advance()
		p.skipWhitespace()

		selector := p.parseWord()

		switch selector {
		case NamespaceBuild, NamespaceImport, NamespaceSub:
			namespace = selector

		default:
			return nil, syntaxErr(p.input, p.pos, "namespace selector i, s, or b")
		}

		p.skipWhitespace()

		if !p.expect('>') {
			return nil, syntaxErr(p.input, p.pos, ">")
		}

		p.skipWhitespace()
	}

	keys := make([]string, 0, 4)

	for {
		key := p.parseWord()
		if key == "" {
			return nil, syntaxErr(p.input, p.pos, "key name")
		}

		keys = append(keys, key)

		p.skipWhitespace()

		if p.peek() != '.' {
			break
		}

		p.advance()
		p.skipWhitespace()
	}

	for _, key := range keys[:len(keys)-1] {
		if key == WildcardKey {
			return nil, syntaxErr(p.input, p.pos, "wildcard key only in terminal position")
		}
	}

	return &KeyPath{Namespace: namespace, Keys: keys}, nil
}

// parseString parses a quoted string literal. Both single and double
// quotes delimit; the content is kept verbatim (escape sequences pass
// through to the regexp engine untouched, with backslash protecting an
// embedded quote character from terminating the literal).
func (p *parser) parseString() (string, error) {
	p.skipWhitespace()

	quote := p.peek()
	if quote != '"' && quote != '\'' {
		return "", syntaxErr(p.input, p.pos, "quoted string")
	}

	p.advance()

	start := p.pos

	for !p.eof() {
		switch p.peek() {
		case '\\':
			p.advance()

			if !p.eof() {
				p.advance()
			}

		case quote:
			content := p.input[start:p.pos]
			p.advance()

			return content, nil

		default:
			p.advance()
		}
	}

	return "", syntaxErr(p.input, p.pos, "closing quote")
}

// parseNumber parses an optionally signed integer literal.
func (p *parser) parseNumber() (int, error) {
	p.skipWhitespace()

	start := p.pos

	if p.peek() == '-' || p.peek() == '+' {
		p.advance()
	}

	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.advance()
	}

	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, syntaxErr(p.input, start, "number")
	}

	return n, nil
}

// parseWord consumes a maximal run of word characters. An empty result
// means the next input byte is not a word character.
func (p *parser) parseWord() string {
	start := p.pos

	for !p.eof() && isWordChar(p.peek()) {
		p.advance()
	}

	return p.input[start:p.pos]
}

// Helper methods

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.input[p.pos]
}

func (p *parser) advance() {
	if !p.eof() {
		p.pos++
	}
}

func (p *parser) expect(ch byte) bool {
	if p.peek() == ch {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) skipWhitespace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.advance()

		default:
			return
		}
	}
}

func isWordChar(ch byte) bool {
	return ch == '_' ||
		(ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}
