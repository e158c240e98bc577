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

// Package lexer scans 6800 assembly source into a token stream, building
// the symbol table (labels and variables) along the way. It is pass 1 of
// the two-pass assembler: the parser drives a second Lexer instance over
// the same source during pass 2, by which point every variable's pending
// text value has already been resolved by Set.
package lexer

import (
	"encoding/hex"
	"regexp"

	"github.com/pkg/errors"

	"github.com/pdxjjb/m6800asm/pkg/symbol"
	"github.com/pdxjjb/m6800asm/pkg/token"
)

var delimiter = regexp.MustCompile(`[,\t\r\n ]`)
var delimiterCR = regexp.MustCompile(`[,\t\r\n ]`)

// pendingKind discriminates a pendingDefinition.
type pendingKind struct{ k int }

var pendingLabel = pendingKind{0}
var pendingVariable = pendingKind{1}

// pendingDefinition bridges "this identifier might be a label or a
// variable" (seen at the identifier) to "now I see the token that
// disambiguates it" (a following mnemonic or colon for a label, a
// following '=' for a variable). A raw two-element tuple would work just
// as well but loses the kind check a reader gets from two named fields.
type pendingDefinition struct {
	kind pendingKind
	name string
}

// Lexer scans one source string into tokens, left to right, with
// single-token retract support for the parser.
type Lexer struct {
	source  string
	pointer int
	at      int // source offset of the token currently in hand

	symbols *symbol.Table
	pending []pendingDefinition

	last token.Token // most recently emitted token, for displacement detection
}

// New returns a Lexer positioned at the start of source with an empty
// symbol table.
func New(source string) *Lexer {
	return &Lexer{source: source, symbols: symbol.New()}
}

// Symbols returns the symbol table this Lexer is populating.
func (l *Lexer) Symbols() *symbol.Table { return l.symbols }

// LastAddr returns the source offset of the token currently in hand.
func (l *Lexer) LastAddr() int { return l.at }

// Excerpt returns up to n bytes of source starting at the token currently
// in hand, with newlines folded to spaces, for use in parser diagnostics.
func (l *Lexer) Excerpt(n int) string {
	end := l.at + n
	if end > len(l.source) {
		end = len(l.source)
	}
	if l.at > end {
		return ""
	}
	raw := l.source[l.at:end]
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' || raw[i] == '\r' {
			out[i] = ' '
		} else {
			out[i] = raw[i]
		}
	}
	return string(out)
}

// Retract rewinds the cursor to before the token currently in hand, so the
// next Next call re-scans it. Used by the parser on a one-token lookahead
// miss.
func (l *Lexer) Retract() { l.pointer = l.at }

// Next scans and returns the next token. ok is false once the source is
// exhausted.
func (l *Lexer) Next() (token.Token, bool) {
	l.at = l.pointer
	term := l.readTerm()
	if term == "" {
		return token.Token{}, false
	}

	tok := l.classify(term)
	if tok.Kind == token.Unknown {
		if e, found := l.symbols.Get(term); found && e.Kind == symbol.Variable {
			switch v := e.Value.(type) {
			case string:
				tok = l.classify(v)
			case []byte:
				// A prior parser pass over this same table already
				// finalized the variable to its decoded bytes (see
				// parser.variable); reconstruct an equivalent literal
				// so substitution still works on later passes.
				tok = l.classify("$" + hex.EncodeToString(v))
			}
		}
	}
	return tok, true
}

// classify runs term through the fixed disambiguation pipeline of
// spec.md §4.1, in order, returning the first rule's token or Unknown.
func (l *Lexer) classify(term string) token.Token {
	if tok, ok := l.eolToken(term); ok {
		return tok
	}
	if tok, ok := l.registerToken(term); ok {
		return tok
	}
	if tok, ok := l.mnemonicToken(term); ok {
		return tok
	}
	if tok, ok := l.displacementToken(term); ok {
		return tok
	}
	if tok, ok := l.directOrExtendedToken(term); ok {
		return tok
	}
	if tok, ok := l.commaToken(term); ok {
		return tok
	}
	if tok, ok := l.equalToken(term); ok {
		return tok
	}
	if tok, ok := l.immediateToken(term); ok {
		return tok
	}
	if tok, ok := l.labelToken(term); ok {
		return tok
	}
	if tok, ok := l.variableToken(term); ok {
		return tok
	}
	return l.set(token.Unknown, token.Mnemonic{}, token.Register{}, term)
}

func (l *Lexer) set(kind token.Kind, m token.Mnemonic, r token.Register, text string) token.Token {
	t := token.Token{Kind: kind, Mnemonic: m, Register: r, Text: text}
	l.last = t
	return t
}

// cur returns the byte at the cursor, or 0 past the end of source.
func (l *Lexer) cur() byte {
	if l.pointer >= len(l.source) {
		return 0
	}
	return l.source[l.pointer]
}

func (l *Lexer) inc() { l.pointer++ }
func (l *Lexer) dec() { l.pointer-- }

// readTerm consumes and returns the next lexeme: whitespace/comments are
// skipped first, then a single comma or line terminator is returned
// immediately without being consumed (commaToken and eolToken consume
// it), and otherwise a run of non-delimiter characters is consumed.
func (l *Lexer) readTerm() string {
	l.skipWhitespaceAndComments()

	switch l.cur() {
	case '\r':
		return "\r\n"
	case '\n':
		return "\n"
	case ',':
		return ","
	}

	var term []byte
	for l.cur() != 0 && !delimiter.Match([]byte{l.cur()}) {
		term = append(term, l.cur())
		l.inc()
	}
	return string(term)
}

// peekNext returns the next lexeme without moving the cursor, for the
// label/variable/displacement lookahead rules.
func (l *Lexer) peekNext() string {
	save := l.pointer
	l.skipWhitespaceAndComments()
	index := l.pointer
	l.pointer = save

	var term []byte
	for index < len(l.source) && !delimiterCR.Match([]byte{l.source[index]}) {
		term = append(term, l.source[index])
		index++
	}
	return string(term)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		moved := false
		for l.cur() == ' ' || l.cur() == '\t' {
			l.inc()
			moved = true
		}
		if l.cur() == ';' {
			l.skipToNextLine()
			moved = true
		}
		if !moved {
			return
		}
	}
}

func (l *Lexer) skipToNextLine() {
	for {
		if l.cur() == 0 {
			return
		}
		l.inc()
		if l.cur() == '\n' || l.cur() == '\r' {
			return
		}
	}
}

func (l *Lexer) eolToken(term string) (token.Token, bool) {
	if term == "\r\n" {
		l.inc()
		l.inc()
		return l.set(token.EOL, token.Mnemonic{}, token.Register{}, "\r\n"), true
	}
	if len(term) > 0 && term[0] == '\n' {
		l.inc()
		return l.set(token.EOL, token.Mnemonic{}, token.Register{}, "\n"), true
	}
	return token.Token{}, false
}

// registerToken recognizes the bare register names A, B, X. The
// indexed-addressing tail of $NN,X needs no lookahead here at all: the
// comma is its own token (commaToken, tried later in classify's
// pipeline) and the following X lexes as an ordinary register token on
// the next call, giving the resolver its DIR_U8, COMMA, X sequence for
// free - see DESIGN.md on why the original's equivalent lookahead
// doesn't carry over.
func (l *Lexer) registerToken(term string) (token.Token, bool) {
	if r, ok := token.LookupRegister(term); ok {
		return l.set(token.RegisterKind, token.Mnemonic{}, r, term), true
	}
	return token.Token{}, false
}

// mnemonicToken recognizes a bare 3-letter mnemonic (TAB, NOP, ...) and
// the 4-letter mnemonic+register spelling (LDAA, STAB, ...) the 6800
// assembly convention uses for accumulator ops: on a match it retracts
// the register letter so the next Next call re-reads it as its own
// Register token. Either form resolves a pending label definition.
func (l *Lexer) mnemonicToken(term string) (token.Token, bool) {
	if len(term) == 3 {
		if m, ok := token.LookupMnemonic(term); ok {
			l.resolvePendingLabel()
			return l.set(token.MnemonicKind, m, token.Register{}, term), true
		}
	}
	if len(term) == 4 {
		if m, ok := token.LookupMnemonic(term[:3]); ok {
			if _, ok := token.LookupRegister(term[3:]); ok {
				l.dec()
				l.resolvePendingLabel()
				return l.set(token.MnemonicKind, m, token.Register{}, term[:3]), true
			}
		}
	}
	return token.Token{}, false
}

func (l *Lexer) resolvePendingLabel() {
	if n := len(l.pending); n > 0 && l.pending[n-1].kind == pendingLabel {
		p := l.pending[n-1]
		l.pending = l.pending[:n-1]
		start := l.at
		for start > 0 && l.source[start-1] != '\n' {
			start--
		}
		pos := uint16(start)
		l.symbols.Set(p.name, pos, symbol.Label, pos)
	}
}

// displacementToken recognizes a branch target (label or $NN) following
// one of the 16 branch mnemonics.
func (l *Lexer) displacementToken(term string) (token.Token, bool) {
	if !token.BranchMnemonics[l.last.Mnemonic] || l.last.Kind != token.MnemonicKind {
		return token.Token{}, false
	}
	suffix := ""
	if len(term) > 3 {
		suffix = term[3:]
	}
	if _, isRegister := token.LookupRegister(suffix); isRegister {
		return token.Token{}, false
	}
	if l.peekNext() == "=" {
		return token.Token{}, false
	}
	return l.set(token.DispAddrInt8, token.Mnemonic{}, token.Register{}, term), true
}

func (l *Lexer) directOrExtendedToken(term string) (token.Token, bool) {
	if len(term) == 0 || term[0] != '$' {
		return token.Token{}, false
	}
	n, err := decodeHexBytes(term[1:])
	if err != nil {
		return token.Token{}, false
	}
	switch n {
	case 1:
		return l.set(token.DirAddrUint8, token.Mnemonic{}, token.Register{}, term), true
	case 2:
		return l.set(token.ExtAddrUint16, token.Mnemonic{}, token.Register{}, term), true
	}
	return token.Token{}, false
}

func (l *Lexer) commaToken(term string) (token.Token, bool) {
	if l.cur() == ',' {
		l.inc()
		return l.set(token.Comma, token.Mnemonic{}, token.Register{}, term), true
	}
	return token.Token{}, false
}

// labelToken recognizes a label: a term starting the line (the character
// before it is a newline, or it begins the source) whose following term
// is a mnemonic, or which itself ends in a colon. It pushes a pending
// definition that mnemonicToken resolves once the label's address is
// known (the start of the mnemonic's line, where the label sits).
func (l *Lexer) labelToken(term string) (token.Token, bool) {
	peekBack := l.pointer - (len(term) + 1)
	prevIsNewline := peekBack < 0
	if peekBack >= 0 {
		prevIsNewline = l.source[peekBack] == '\n'
	}
	if !prevIsNewline {
		return token.Token{}, false
	}
	_, isMnemonic := token.LookupMnemonic(l.peekNext())
	endsColon := len(term) > 0 && term[len(term)-1] == ':'
	if !isMnemonic && !endsColon {
		return token.Token{}, false
	}
	l.pending = append(l.pending, pendingDefinition{kind: pendingLabel, name: term})
	return l.set(token.Label, token.Mnemonic{}, token.Register{}, term), true
}

// variableToken recognizes a variable definition's name: a term whose
// following term is '='. It pushes a pending definition that equalToken
// resolves into a symbol-table entry.
func (l *Lexer) variableToken(term string) (token.Token, bool) {
	if l.peekNext() != "=" {
		return token.Token{}, false
	}
	l.pending = append(l.pending, pendingDefinition{kind: pendingVariable, name: term})
	return l.set(token.Variable, token.Mnemonic{}, token.Register{}, term), true
}

// equalToken recognizes '=' and, if a variable definition is pending,
// finalizes its symbol-table entry with its (still textual) right-hand
// side; the parser overwrites Value with the decoded bytes during pass 2.
func (l *Lexer) equalToken(term string) (token.Token, bool) {
	if term != "=" {
		return token.Token{}, false
	}
	if n := len(l.pending); n > 0 && l.pending[n-1].kind == pendingVariable {
		p := l.pending[n-1]
		l.pending = l.pending[:n-1]
		pos := uint16(l.at - len(p.name) - 1)
		l.symbols.Set(p.name, pos, symbol.Variable, l.peekNext())
	}
	return l.set(token.Equal, token.Mnemonic{}, token.Register{}, term), true
}

func (l *Lexer) immediateToken(term string) (token.Token, bool) {
	if len(term) < 2 || term[0] != '#' || term[1] != '$' {
		return token.Token{}, false
	}
	n, err := decodeHexBytes(term[2:])
	if err != nil {
		return token.Token{}, false
	}
	switch n {
	case 1:
		return l.set(token.ImmUint8, token.Mnemonic{}, token.Register{}, term), true
	case 2:
		return l.set(token.ImmUint16, token.Mnemonic{}, token.Register{}, term), true
	}
	return token.Token{}, false
}

// decodeHexBytes reports how many bytes hexPart decodes to, mirroring
// Python's len(bytes.fromhex(s)): an odd-length or malformed string is an
// error, not a rule match, the way the original silently falls through.
func decodeHexBytes(hexPart string) (int, error) {
	if len(hexPart)%2 != 0 {
		return 0, errors.Errorf("odd-length hex literal %q", hexPart)
	}
	n := 0
	for i := 0; i < len(hexPart); i += 2 {
		if !isHexDigit(hexPart[i]) || !isHexDigit(hexPart[i+1]) {
			return 0, errors.Errorf("invalid hex literal %q", hexPart)
		}
		n++
	}
	return n, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
