package script

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	typeInt tokenType = iota + 1
	typeFloat
	typeIdentifier
	typeString
	typeEOF
)

func (t tokenType) String() string {
	switch t {
	case typeInt:
		return "int"
	case typeFloat:
		return "float"
	case typeIdentifier:
		return "identifier"
	case typeString:
		return "string"
	case typeEOF:
		return "EOF"
	}
	return "unknown"
}

type token struct {
	typ  tokenType
	pos  int
	text string
}

// lex splits a line into words at whitespace and classifies each word. A
// '#' outside a string starts a comment that runs to the end of the line.
func lex(input string) ([]token, error) {
	var tokens []token
	for pos := 0; pos < len(input); {
		r, w := utf8.DecodeRuneInString(input[pos:])
		if isSpace(r) {
			pos += w
			continue
		}
		if r == '#' {
			break
		}
		end, err := wordEnd(input, pos)
		if err != nil {
			return tokens, err
		}
		tok, err := classify(input[pos:end], pos)
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		pos = end
	}
	return append(tokens, token{typ: typeEOF, pos: len(input)}), nil
}

// wordEnd returns the offset just past the word starting at pos. Quoted
// strings may contain spaces and '#'; quotes cannot be escaped.
func wordEnd(input string, pos int) (int, error) {
	if input[pos] != '"' {
		if n := strings.IndexFunc(input[pos:], endsWord); n >= 0 {
			return pos + n, nil
		}
		return len(input), nil
	}
	n := strings.IndexByte(input[pos+1:], '"')
	if n < 0 {
		return 0, fmt.Errorf("unterminated string starting at position %d", pos)
	}
	end := pos + n + 2
	if end < len(input) {
		if r, _ := utf8.DecodeRuneInString(input[end:]); !endsWord(r) {
			return 0, fmt.Errorf("unexpected character: %#U after string at position %d", r, end)
		}
	}
	return end, nil
}

func classify(word string, pos int) (token, error) {
	tok := token{pos: pos, text: word}
	first, _ := utf8.DecodeRuneInString(word)
	switch {
	case first == '"':
		tok.typ = typeString
	case unicode.IsLetter(first):
		if i := strings.IndexFunc(word, notIdentifier); i >= 0 {
			return tok, invalidIn(word, i, pos)
		}
		tok.typ = typeIdentifier
	case isDigit(first) || first == '-' || first == '.':
		if i := strings.IndexFunc(word, notNumeric); i >= 0 {
			return tok, invalidIn(word, i, pos)
		}
		tok.typ = typeInt
		if strings.ContainsAny(word, ".eE") {
			tok.typ = typeFloat
		}
		if !validNumber(word, tok.typ) {
			return tok, fmt.Errorf("malformed number %q at position %d", word, pos)
		}
	default:
		return tok, invalidIn(word, 0, pos)
	}
	return tok, nil
}

func validNumber(word string, typ tokenType) bool {
	if typ == typeInt {
		_, err := strconv.Atoi(word)
		return err == nil
	}
	// notNumeric already ruled out the hex and underscore forms ParseFloat
	// accepts
	_, err := strconv.ParseFloat(word, 64)
	return err == nil
}

func invalidIn(word string, i, pos int) error {
	r, _ := utf8.DecodeRuneInString(word[i:])
	return fmt.Errorf("unexpected character: %#U at position %d", r, pos+i)
}

func endsWord(r rune) bool {
	return isSpace(r) || r == '#'
}

func notIdentifier(r rune) bool {
	return !(unicode.IsLetter(r) || isDigit(r) || r == '_' || r == '-')
}

func notNumeric(r rune) bool {
	return !(isDigit(r) || strings.ContainsRune(".-+eE", r))
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}
