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

package lexer

import (
	"testing"

	"github.com/pdxjjb/m6800asm/pkg/token"
)

func allTokens(t *testing.T, source string) []token.Token {
	t.Helper()
	lx := New(source)
	var toks []token.Token
	for {
		tok, ok := lx.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

func checkKinds(t *testing.T, toks []token.Token, want ...token.Kind) {
	t.Helper()
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestImmediateInstruction(t *testing.T) {
	toks := allTokens(t, "LDA A #$10\n")
	checkKinds(t, toks, token.MnemonicKind, token.RegisterKind, token.ImmUint8, token.EOL)
	if toks[0].Mnemonic != token.LDA {
		t.Errorf("got mnemonic %s, want LDA", toks[0].Mnemonic)
	}
	if toks[1].Register != token.A {
		t.Errorf("got register %s, want A", toks[1].Register)
	}
}

func TestIndexedAddressingEmitsComma(t *testing.T) {
	toks := allTokens(t, "ADD A $10,X\n")
	checkKinds(t, toks,
		token.MnemonicKind, token.RegisterKind, token.DirAddrUint8,
		token.Comma, token.RegisterKind, token.EOL)
	if toks[4].Register != token.X {
		t.Errorf("got register %s, want X", toks[4].Register)
	}
}

func TestExtendedAddress(t *testing.T) {
	toks := allTokens(t, "STA A $1234\n")
	checkKinds(t, toks, token.MnemonicKind, token.RegisterKind, token.ExtAddrUint16, token.EOL)
}

func TestCombinedMnemonicRegisterSpelling(t *testing.T) {
	toks := allTokens(t, "LDAA #$05\n")
	checkKinds(t, toks, token.MnemonicKind, token.RegisterKind, token.ImmUint8, token.EOL)
	if toks[0].Mnemonic != token.LDA || toks[1].Register != token.A {
		t.Errorf("got %+v", toks[:2])
	}
}

func TestLabelDefinitionAndReference(t *testing.T) {
	source := "LOOP NOP\nBNE LOOP\n"
	lx := New(source)
	for {
		if _, ok := lx.Next(); !ok {
			break
		}
	}
	entry, ok := lx.Symbols().Get("LOOP")
	if !ok {
		t.Fatalf("expected LOOP in symbol table")
	}
	if entry.Kind.String() != "label" {
		t.Errorf("got kind %s, want label", entry.Kind)
	}
}

func TestBranchDisplacementToken(t *testing.T) {
	toks := allTokens(t, "START NOP\nBNE START\n")
	checkKinds(t, toks,
		token.Label, token.MnemonicKind, token.EOL,
		token.MnemonicKind, token.DispAddrInt8, token.EOL)
	if toks[4].Text != "START" {
		t.Errorf("got displacement text %q, want START", toks[4].Text)
	}
}

func TestVariableDefinitionAndUse(t *testing.T) {
	source := "COUNT = $05\nLDA A COUNT\n"
	toks := allTokens(t, source)
	checkKinds(t, toks,
		token.Variable, token.Equal, token.DirAddrUint8, token.EOL,
		token.MnemonicKind, token.RegisterKind, token.DirAddrUint8, token.EOL)
}
