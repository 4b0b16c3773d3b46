package aotvm

import (
	"strconv"
)

// Name is a property key: either a string or a symbol.
type Name struct {
	string
	sym *JSSymbol
}

func NameStr(s string) Name {
	return Name{string: s}
}

func NameSym(sym *JSSymbol) Name {
	return Name{sym: sym}
}

func (n Name) IsSymbol() bool { return n.sym != nil }

func (n Name) Symbol() *JSSymbol { return n.sym }

func (n Name) Str() string { return n.string }

func (n Name) String() string {
	if n.sym != nil {
		return "@@" + n.sym.String()
	}
	return n.string
}

// Value converts the key back into a language value.
func (n Name) Value() JSValue {
	if n.sym != nil {
		return n.sym
	}
	return JSString(n.string)
}

const maxArrayIndex = 1<<32 - 2

// arrayIndex reports whether the key is a canonical array index
// (0 .. 2^32-2), the keys OwnPropertyKeys lists first.
func (n Name) arrayIndex() (uint32, bool) {
	if n.sym != nil {
		return 0, false
	}
	return parseArrayIndex(n.string)
}

func parseArrayIndex(s string) (uint32, bool) {
	if s == "" || len(s) > 10 {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	var idx uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		idx = idx*10 + uint64(c-'0')
	}
	if idx > maxArrayIndex {
		return 0, false
	}
	return uint32(idx), true
}

func indexName(i int) Name {
	return NameStr(strconv.Itoa(i))
}
