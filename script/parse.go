// Package script parses the command language used to control the engine from
// the REPL, from script files and from the command line.
//
// A command is a name followed by arguments, separated by whitespace:
//
//	wave saw
//	note 61 # comments run to the end of the line
//	set amp 0.25
//	bounce "out.wav" 2.5
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmpty is returned by Parse for blank lines and lines holding only a
// comment.
var ErrEmpty = errors.New("empty command")

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}

type Command struct {
	Name Identifier
	Args []Node
	Line int // set by ParseScript
}

type Identifier string
type Int int
type Float float64
type String string

func (c Command) String() string {
	parts := []string{string(c.Name)}
	for _, arg := range c.Args {
		switch v := arg.(type) {
		case String:
			parts = append(parts, strconv.Quote(string(v)))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " ")
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

// ParseScript parses one command per line, skipping blank lines and
// comments. Errors name the offending line.
func ParseScript(r io.Reader) ([]Command, error) {
	var commands []Command
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		cmd, err := Parse(scanner.Text())
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			return commands, fmt.Errorf("line %d: %w", line, err)
		}
		cmd.Line = line
		commands = append(commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return commands, err
	}
	return commands, nil
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	switch token.typ {
	case typeEOF:
		return cmd, ErrEmpty
	case typeIdentifier:
	default:
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func unexpected(t token) error {
	return fmt.Errorf("unexpected %v %q at position %d", t.typ, t.text, t.pos)
}
