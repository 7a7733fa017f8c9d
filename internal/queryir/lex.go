package queryir

import "strings"

// TokenKind classifies lexer tokens.
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokNumber
	TokString
	TokRef   // @name
	TokSpace
	TokPunct // any other single character
)

// Token is one lexeme. Concatenating the Text of all tokens returned by Lex
// reproduces the input exactly.
type Token struct {
	Kind TokenKind
	Text string

	// Unterminated marks a TokString whose closing quote is missing.
	Unterminated bool
}

// Name returns the referenced query name of a TokRef token.
func (t Token) Name() string {
	return strings.TrimPrefix(t.Text, "@")
}

// Lex splits a SQL fragment into tokens. Quoted strings ('...', "...", `...`)
// are opaque; a doubled quote or a backslash escapes the quote character.
// An unterminated string runs to the end of input and is marked
// Unterminated.
func Lex(src string) []Token {
	var toks []Token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isSpace(c):
			j := i + 1
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			toks = append(toks, Token{Kind: TokSpace, Text: src[i:j]})
			i = j
		case c == '\'' || c == '"' || c == '`':
			j, closed := scanString(src, i)
			toks = append(toks, Token{Kind: TokString, Text: src[i:j], Unterminated: !closed})
			i = j
		case c == '@' && i+1 < len(src) && isIdentStart(src[i+1]):
			j := scanIdent(src, i+1)
			toks = append(toks, Token{Kind: TokRef, Text: src[i:j]})
			i = j
		case isIdentStart(c):
			j := scanIdent(src, i)
			toks = append(toks, Token{Kind: TokIdent, Text: src[i:j]})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, Token{Kind: TokNumber, Text: src[i:j]})
			i = j
		default:
			toks = append(toks, Token{Kind: TokPunct, Text: src[i : i+1]})
			i++
		}
	}
	return toks
}

// scanString returns the end of the string starting at start and whether
// its closing quote was found.
func scanString(src string, start int) (int, bool) {
	quote := src[start]
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			if j+1 < len(src) && src[j+1] == quote {
				j++
				continue
			}
			return j + 1, true
		}
	}
	return len(src), false
}

func scanIdent(src string, start int) int {
	j := start
	for j < len(src) && isIdentPart(src[j]) {
		j++
	}
	return j
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// nextSignificant returns the index of the closest non-space token after i, or -1.
func nextSignificant(toks []Token, i int) int {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].Kind != TokSpace {
			return j
		}
	}
	return -1
}
