package lang

// ParseStack compiles a stack string into its ordered sequence of
// variable names:
//
//	stack := VAR ('.' VAR)*
//
// "a.b.c" yields [a, b, c]. The sequence describes a sub-import join
// chain from the outermost variable inward.
func ParseStack(input string) ([]string, error) {
	p := &parser{input: input}

	names := make([]string, 0, 2)

	for {
		p.skipWhitespace()

		name := p.parseWord()
		if name == "" {
			return nil, syntaxErr(p.input, p.pos, "variable name")
		}

		names = append(names, name)

		p.skipWhitespace()

		if p.peek() != '.' {
			break
		}

		p.advance()
	}

	if !p.eof() {
		return nil, syntaxErr(p.input, p.pos, "end of stack")
	}

	return names, nil
}
