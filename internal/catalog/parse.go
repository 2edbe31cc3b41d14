package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ArgKind discriminates family argument types.
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgInt
	ArgReal
)

// Arg is one argument of a parametrized metric family instance.
type Arg struct {
	Kind ArgKind
	Str  string
	Int  int64
	Real float64
}

// StringArg builds a string argument.
func StringArg(s string) Arg { return Arg{Kind: ArgString, Str: s} }

// IntArg builds an integer argument.
func IntArg(i int64) Arg { return Arg{Kind: ArgInt, Int: i} }

// RealArg builds a real argument.
func RealArg(f float64) Arg { return Arg{Kind: ArgReal, Real: f} }

// String renders the argument in canonical form, round-trippable through the
// parser.
func (a Arg) String() string {
	switch a.Kind {
	case ArgInt:
		return strconv.FormatInt(a.Int, 10)
	case ArgReal:
		return strconv.FormatFloat(a.Real, 'g', -1, 64)
	default:
		return strconv.Quote(a.Str)
	}
}

// InstanceName renders the canonical name of a family instance, e.g.
// `Curve["power"]`. Memoization and the metric cache key off this form.
func InstanceName(family string, args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return family + "[" + strings.Join(parts, ",") + "]"
}

// parsedName is the decomposition of a metric name per the grammar
// Identifier | Identifier[args] | Identifier[args][fields].
type parsedName struct {
	ident   string
	args    []Arg
	hasArgs bool
	fields  []string
}

type nameScanner struct {
	input string
	pos   int
}

func (s *nameScanner) errf(format string, args ...any) error {
	return &ParseError{Input: s.input, Pos: s.pos, Msg: fmt.Sprintf(format, args...)}
}

func (s *nameScanner) skipSpace() {
	for s.pos < len(s.input) && s.input[s.pos] == ' ' {
		s.pos++
	}
}

func (s *nameScanner) peek() (byte, bool) {
	if s.pos >= len(s.input) {
		return 0, false
	}
	return s.input[s.pos], true
}

func (s *nameScanner) ident() (string, error) {
	start := s.pos
	for s.pos < len(s.input) {
		r := rune(s.input[s.pos])
		if unicode.IsLetter(r) || r == '_' || (s.pos > start && unicode.IsDigit(r)) {
			s.pos++
			continue
		}
		break
	}
	if s.pos == start {
		return "", s.errf("expected identifier")
	}
	return s.input[start:s.pos], nil
}

func (s *nameScanner) stringLit() (string, error) {
	start := s.pos
	s.pos++ // opening quote
	var b strings.Builder
	for s.pos < len(s.input) {
		c := s.input[s.pos]
		switch c {
		case '"':
			s.pos++
			return b.String(), nil
		case '\\':
			if s.pos+1 >= len(s.input) {
				return "", s.errf("unterminated escape")
			}
			s.pos++
			b.WriteByte(s.input[s.pos])
			s.pos++
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	s.pos = start
	return "", s.errf("unterminated string")
}

func (s *nameScanner) number() (Arg, error) {
	start := s.pos
	if c, ok := s.peek(); ok && (c == '+' || c == '-') {
		s.pos++
	}
	real := false
	for s.pos < len(s.input) {
		c := s.input[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			real = true
			s.pos++
			continue
		}
		break
	}
	text := s.input[start:s.pos]
	if real {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Arg{}, s.errf("bad number %q", text)
		}
		return RealArg(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Arg{}, s.errf("bad number %q", text)
	}
	return IntArg(i), nil
}

// item scans one bracketed list element: a quoted string, a number, or a
// bare identifier.
func (s *nameScanner) item() (Arg, error) {
	c, ok := s.peek()
	if !ok {
		return Arg{}, s.errf("expected argument")
	}
	switch {
	case c == '"':
		str, err := s.stringLit()
		if err != nil {
			return Arg{}, err
		}
		return StringArg(str), nil
	case c == '+' || c == '-' || (c >= '0' && c <= '9'):
		return s.number()
	default:
		id, err := s.ident()
		if err != nil {
			return Arg{}, err
		}
		return StringArg(id), nil
	}
}

func (s *nameScanner) bracketList() ([]Arg, error) {
	s.pos++ // '['
	var items []Arg
	for {
		s.skipSpace()
		c, ok := s.peek()
		if !ok {
			return nil, s.errf("unterminated bracket")
		}
		if c == ']' {
			s.pos++
			return items, nil
		}
		if len(items) > 0 {
			if c != ',' {
				return nil, s.errf("expected ',' or ']'")
			}
			s.pos++
			s.skipSpace()
		}
		item, err := s.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// parseName decomposes a metric name. Trailing fields select into a
// structured result after computation.
func parseName(input string) (parsedName, error) {
	s := &nameScanner{input: strings.TrimSpace(input)}
	var p parsedName

	ident, err := s.ident()
	if err != nil {
		return p, err
	}
	p.ident = ident

	if c, ok := s.peek(); ok && c == '[' {
		args, err := s.bracketList()
		if err != nil {
			return p, err
		}
		p.args = args
		p.hasArgs = true
	}

	if c, ok := s.peek(); ok && c == '[' {
		fields, err := s.bracketList()
		if err != nil {
			return p, err
		}
		for _, f := range fields {
			p.fields = append(p.fields, f.String())
			if f.Kind == ArgString {
				p.fields[len(p.fields)-1] = f.Str
			}
		}
	}

	if s.pos != len(s.input) {
		return p, s.errf("trailing input")
	}
	return p, nil
}
