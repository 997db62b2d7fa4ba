package stopwatch

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// nodeHexLen is the length of the hex-encoded node (low 48 bits) of a UUID.
const nodeHexLen = 12

// MatchKind says which rule produced an identifier match.
type MatchKind string

const (
	MatchName MatchKind = "name"
	MatchID   MatchKind = "id"
)

// NodeHex renders the low 48 bits of id as lowercase hex.
func NodeHex(id uuid.UUID) string {
	return hex.EncodeToString(id[10:])
}

// Identifier is a client-supplied string naming a stopwatch either by its
// exact name or by a prefix of its node hex.
type Identifier struct {
	raw string

	parsed   bool
	fragment string
	isHex    bool
}

// NewIdentifier wraps a raw client string.
func NewIdentifier(raw string) *Identifier {
	return &Identifier{raw: raw}
}

// Raw returns the identifier exactly as the client sent it.
func (i *Identifier) Raw() string { return i.raw }

func (i *Identifier) String() string { return i.raw }

// HexFragment returns the normalised fragment and whether the identifier can
// ever produce an id match. Computed once.
func (i *Identifier) HexFragment() (string, bool) {
	if !i.parsed {
		i.fragment, i.isHex = parseHexFragment(i.raw)
		i.parsed = true
	}
	return i.fragment, i.isHex
}

// Match checks the identifier against an (id, name) pair. A name match is
// reported in preference to an id match.
func (i *Identifier) Match(id uuid.UUID, name string) (MatchKind, bool) {
	if i.raw == name {
		return MatchName, true
	}
	frag, ok := i.HexFragment()
	if !ok {
		return "", false
	}
	if strings.HasPrefix(NodeHex(id), frag) {
		return MatchID, true
	}
	return "", false
}

func parseHexFragment(raw string) (string, bool) {
	frag := strings.ToLower(strings.ReplaceAll(raw, "-", ""))
	if frag == "" || len(frag) > nodeHexLen {
		return "", false
	}
	for _, r := range frag {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}
	return frag, true
}

// Resolution is the outcome of scanning a collection for one identifier.
type Resolution struct {
	Kind    MatchKind
	Matches []*Stopwatch
}

// Resolve scans stopwatches from most to least recently accessed (the slice
// is ordered oldest access first). Name matches take precedence over id
// matches; the returned matches are in scan order.
func Resolve(ident *Identifier, stopwatches []*Stopwatch) Resolution {
	var byName, byID []*Stopwatch
	for i := len(stopwatches) - 1; i >= 0; i-- {
		sw := stopwatches[i]
		kind, ok := sw.MatchesIdentifier(ident)
		if !ok {
			continue
		}
		if kind == MatchName {
			byName = append(byName, sw)
		} else if len(byName) == 0 {
			byID = append(byID, sw)
		}
	}
	if len(byName) > 0 {
		return Resolution{Kind: MatchName, Matches: byName}
	}
	if len(byID) > 0 {
		return Resolution{Kind: MatchID, Matches: byID}
	}
	return Resolution{}
}
