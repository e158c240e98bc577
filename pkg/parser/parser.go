/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/

// Package parser drives the lexer line by line, collecting each
// instruction's mnemonic and operand tokens and finalizing variable
// definitions left pending from pass 1. It is pass 2 of the two-pass
// assembler: it runs a fresh Lexer over the same source, reusing the
// symbol table pass 1 built.
package parser

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/pdxjjb/m6800asm/pkg/lexer"
	"github.com/pdxjjb/m6800asm/pkg/symbol"
	"github.com/pdxjjb/m6800asm/pkg/token"
)

// DefaultExcerptLength is the width of the source excerpt an Error
// reports, overridable via internal/config.
const DefaultExcerptLength = 12

// Error is a typed parse failure: where in the source it happened, what
// the grammar expected there, and what token was actually found.
type Error struct {
	Excerpt  string
	Expected string
	Found    string
	Line     int
}

func (e *Error) Error() string {
	return fmt.Sprintf(
		"parser failed near %q, expected one of %s, but found %q on line %d",
		e.Excerpt, e.Expected, e.Found, e.Line)
}

var errEOF = errors.New("parser: unexpected end of input")

// Instruction is one parsed line's mnemonic and its operand tokens, in
// left-to-right source order. Label is the line's label, if any, empty
// otherwise.
type Instruction struct {
	Label    string
	Mnemonic token.Mnemonic
	Operands []token.Token
}

// Parser parses one source string line by line against the symbol table
// a prior lexer pass has already populated.
type Parser struct {
	line       int
	lexer      *lexer.Lexer
	symbols    *symbol.Table
	excerptLen int
}

// New returns a Parser over source, reading and finalizing symbols into
// the given table. symbols should be the table a pass-1 Lexer over the
// same source has already populated.
func New(source string, symbols *symbol.Table) *Parser {
	return &Parser{line: 1, lexer: lexer.New(source), symbols: symbols, excerptLen: DefaultExcerptLength}
}

// SetExcerptLength overrides the diagnostic excerpt width (default
// DefaultExcerptLength), per internal/config's Diagnostics.ExcerptLength.
func (p *Parser) SetExcerptLength(n int) { p.excerptLen = n }

// Line parses and returns the next line's instruction. instr is nil
// (with err nil) for a variable-definition line, which has no bytes to
// emit. more is false once the source is exhausted; callers should stop
// looping at that point regardless of err.
func (p *Parser) Line() (instr *Instruction, more bool, err error) {
	instr, more, err = p.line()
	if errors.Is(err, errEOF) {
		return nil, false, nil
	}
	return instr, more, err
}

func (p *Parser) line() (*Instruction, bool, error) {
	tok, ok := p.lexer.Next()
	if !ok {
		return nil, false, errEOF
	}
	for tok.Kind == token.EOL {
		p.line++
		tok, ok = p.lexer.Next()
		if !ok {
			return nil, false, errEOF
		}
	}

	switch tok.Kind {
	case token.Label:
		mnemonic, err := p.take(token.MnemonicKind)
		if err != nil {
			return nil, true, err
		}
		instr, err := p.instruction(mnemonic)
		if err != nil {
			return nil, true, err
		}
		instr.Label = strings.TrimSuffix(tok.Text, ":")
		if _, err := p.take(token.EOL); err != nil {
			return nil, true, err
		}
		p.line++
		return instr, true, nil

	case token.Variable:
		if err := p.variable(tok); err != nil {
			return nil, true, err
		}
		if _, err := p.take(token.EOL); err != nil {
			return nil, true, err
		}
		p.line++
		return nil, true, nil

	case token.MnemonicKind:
		instr, err := p.instruction(tok)
		if err != nil {
			return nil, true, err
		}
		if _, err := p.take(token.EOL); err != nil {
			return nil, true, err
		}
		p.line++
		return instr, true, nil
	}

	return nil, true, p.mismatch([]token.Kind{token.Label, token.Variable, token.MnemonicKind}, tok, true)
}

// variable finalizes a pending variable definition: '=' then a direct or
// extended address literal, whose already-recorded pending text (set by
// the lexer's pass-1 equalToken) is decoded into bytes and written back.
// A value an earlier parser pass over the same table already decoded is
// kept as it is.
func (p *Parser) variable(name token.Token) error {
	addr := uint16(p.lexer.LastAddr())

	if _, err := p.take(token.Equal); err != nil {
		return err
	}
	if _, err := p.take(token.DirAddrUint8, token.ExtAddrUint16); err != nil {
		return err
	}

	entry, found := p.symbols.Get(name.Text)
	if !found {
		return &Error{
			Excerpt: p.lexer.Excerpt(p.excerptLen), Expected: "a defined variable",
			Found: name.Text, Line: p.line,
		}
	}
	var decoded []byte
	switch v := entry.Value.(type) {
	case []byte:
		// An earlier parser pass over this same table already decoded it.
		decoded = v
	case string:
		b, err := ParseImmediateValue(v)
		if err != nil {
			return pkgerrors.Wrapf(err, "decoding variable %q", name.Text)
		}
		decoded = b
	default:
		return &Error{
			Excerpt: p.lexer.Excerpt(p.excerptLen), Expected: "a variable value",
			Found: name.Text, Line: p.line,
		}
	}
	p.symbols.Set(name.Text, addr, symbol.Variable, decoded)
	return nil
}

// instruction collects a mnemonic's operand tokens.
func (p *Parser) instruction(mnemonic token.Token) (*Instruction, error) {
	return &Instruction{Mnemonic: mnemonic.Mnemonic, Operands: p.operands()}, nil
}

var operandKinds = []token.Kind{
	token.RegisterKind, token.Comma,
	token.ImmUint8, token.ImmUint16,
	token.DirAddrUint8, token.ExtAddrUint16, token.DispAddrInt8,
}

// operands collects tokens in left-to-right source order until the next
// token isn't one of the operand kinds (or the source ends), retracting
// that lookahead token so the caller's subsequent take(EOL) sees it.
func (p *Parser) operands() []token.Token {
	var ops []token.Token
	for {
		tok, err := p.take(operandKinds...)
		if err != nil {
			return ops
		}
		ops = append(ops, tok)
	}
}

// take consumes the next token if its kind is one of kinds, retracting
// and reporting a mismatch error otherwise (including at end of input,
// reported via errEOF so callers higher up can tell it apart from a
// genuine grammar violation).
func (p *Parser) take(kinds ...token.Kind) (token.Token, error) {
	tok, ok := p.lexer.Next()
	if ok {
		for _, k := range kinds {
			if tok.Kind == k {
				return tok, nil
			}
		}
	}
	p.lexer.Retract()
	if !ok {
		return token.Token{}, errEOF
	}
	return token.Token{}, p.mismatch(kinds, tok, true)
}

func (p *Parser) mismatch(kinds []token.Kind, tok token.Token, found bool) error {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	foundName := "EOF"
	if found {
		foundName = tok.Kind.String()
	}
	return &Error{
		Excerpt:  p.lexer.Excerpt(p.excerptLen),
		Expected: strings.Join(names, ", "),
		Found:    foundName,
		Line:     p.line,
	}
}

// ParseImmediateValue decodes an immediate or address lexeme's hex digits
// into bytes: '#$HH'/'#$HHHH' for immediates, '$HH'/'$HHHH' for addresses.
func ParseImmediateValue(value string) ([]byte, error) {
	if strings.HasPrefix(value, "#$") {
		return hex.DecodeString(value[2:])
	}
	if strings.HasPrefix(value, "$") {
		return hex.DecodeString(value[1:])
	}
	return hex.DecodeString(value)
}
