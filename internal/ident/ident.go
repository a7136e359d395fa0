// Package ident provides identifiers that can name an output, CRTC or mode
// by any combination of XID, name, index or the preferred-mode marker.
package ident

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is one way of identifying an entity.
type Kind uint8

const (
	KindID Kind = 1 << iota
	KindName
	KindIndex
	KindPreferred
)

// matchable are the kinds that carry a payload comparable between entities.
const matchable = KindID | KindName | KindIndex

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	case KindIndex:
		return "index"
	case KindPreferred:
		return "preferred"
	default:
		return "?"
	}
}

// Kinds is the set of kinds present on an identifier.
type Kinds uint8

// Has reports whether k is in the set.
func (s Kinds) Has(k Kind) bool { return s&Kinds(k) != 0 }

// Empty reports whether no kind is present.
func (s Kinds) Empty() bool { return s == 0 }

// List returns the present kinds in a fixed order.
func (s Kinds) List() []Kind {
	var out []Kind
	for _, k := range []Kind{KindID, KindName, KindIndex, KindPreferred} {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Identifier carries zero or more identification kinds, each with its own
// payload. The zero value carries nothing and matches nothing.
type Identifier struct {
	kinds Kinds
	id    uint32
	name  string
	index int
}

// ByID returns an identifier carrying only an XID.
func ByID(id uint32) Identifier {
	var i Identifier
	i.SetID(id)
	return i
}

// ByName returns an identifier carrying only a name.
func ByName(name string) Identifier {
	var i Identifier
	i.SetName(name)
	return i
}

// ByIndex returns an identifier carrying only a positional index.
func ByIndex(index int) Identifier {
	var i Identifier
	i.SetIndex(index)
	return i
}

// Preferred returns an identifier carrying only the preferred-mode marker.
func Preferred() Identifier {
	var i Identifier
	i.SetPreferred()
	return i
}

// Kinds returns the set of present kinds.
func (i Identifier) Kinds() Kinds { return i.kinds }

// Has reports whether the identifier carries kind k.
func (i Identifier) Has(k Kind) bool { return i.kinds.Has(k) }

// IsZero reports whether the identifier carries no kind at all.
func (i Identifier) IsZero() bool { return i.kinds.Empty() }

// IsPreferred reports whether the identifier carries the preferred marker.
func (i Identifier) IsPreferred() bool { return i.kinds.Has(KindPreferred) }

// ID returns the XID payload and whether it is present.
func (i Identifier) ID() (uint32, bool) { return i.id, i.kinds.Has(KindID) }

// Name returns the name payload and whether it is present.
func (i Identifier) Name() (string, bool) { return i.name, i.kinds.Has(KindName) }

// Index returns the index payload and whether it is present.
func (i Identifier) Index() (int, bool) { return i.index, i.kinds.Has(KindIndex) }

// SetID adds the id kind and overwrites its payload.
func (i *Identifier) SetID(id uint32) {
	i.kinds |= Kinds(KindID)
	i.id = id
}

// SetName adds the name kind and overwrites its payload.
func (i *Identifier) SetName(name string) {
	i.kinds |= Kinds(KindName)
	i.name = name
}

// SetIndex adds the index kind and overwrites its payload.
func (i *Identifier) SetIndex(index int) {
	i.kinds |= Kinds(KindIndex)
	i.index = index
}

// SetPreferred adds the preferred marker.
func (i *Identifier) SetPreferred() {
	i.kinds |= Kinds(KindPreferred)
}

// SetAll copies every kind present on src onto i, leaving kinds that src
// does not carry untouched.
func (i *Identifier) SetAll(src Identifier) {
	if src.Has(KindID) {
		i.SetID(src.id)
	}
	if src.Has(KindName) {
		i.SetName(src.name)
	}
	if src.Has(KindIndex) {
		i.SetIndex(src.index)
	}
	if src.Has(KindPreferred) {
		i.SetPreferred()
	}
}

// Matches reports whether i and other share at least one payload kind and
// agree on every shared one.
func (i Identifier) Matches(other Identifier) bool {
	common := i.kinds & other.kinds & Kinds(matchable)
	if common == 0 {
		return false
	}
	if common.Has(KindID) && i.id != other.id {
		return false
	}
	if common.Has(KindName) && i.name != other.name {
		return false
	}
	if common.Has(KindIndex) && i.index != other.index {
		return false
	}
	return true
}

// Identified is anything that carries an Identifier.
type Identified interface {
	Ident() Identifier
}

// Find returns the first entity matching id in enumeration order together
// with its position. An empty identifier finds nothing.
func Find[T Identified](entities []T, id Identifier) (T, int, bool) {
	var zero T
	if id.IsZero() {
		return zero, -1, false
	}
	for n, e := range entities {
		if e.Ident().Matches(id) {
			return e, n, true
		}
	}
	return zero, -1, false
}

// Parse turns user text into an identifier: "0x3f" is an id, "2" is an
// index, "preferred" is the preferred marker, anything else is a name.
func Parse(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, fmt.Errorf("empty identifier")
	}
	if strings.EqualFold(s, "preferred") {
		return Preferred(), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return Identifier{}, fmt.Errorf("invalid id %q: %w", s, err)
		}
		return ByID(uint32(v)), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Identifier{}, fmt.Errorf("invalid index %d", n)
		}
		return ByIndex(n), nil
	}
	return ByName(s), nil
}

func (i Identifier) String() string {
	if i.IsZero() {
		return "<none>"
	}
	var parts []string
	if i.Has(KindName) {
		parts = append(parts, strconv.Quote(i.name))
	}
	if i.Has(KindID) {
		parts = append(parts, fmt.Sprintf("0x%x", i.id))
	}
	if i.Has(KindIndex) {
		parts = append(parts, "#"+strconv.Itoa(i.index))
	}
	if i.Has(KindPreferred) {
		parts = append(parts, "preferred")
	}
	return strings.Join(parts, " ")
}
