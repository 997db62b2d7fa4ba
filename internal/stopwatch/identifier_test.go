package stopwatch

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withID returns a stopwatch carrying a fixed id so tests can control hex prefixes.
func withID(t *testing.T, clock clockwork.Clock, name, id string) *Stopwatch {
	t.Helper()
	sw := New(clock, name)
	sw.id = uuid.MustParse(id)
	return sw
}

func TestNodeHex(t *testing.T) {
	id := uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef")
	assert.Equal(t, "456789abcdef", NodeHex(id))
}

func TestIdentifier_HexFragment(t *testing.T) {
	cases := []struct {
		raw  string
		frag string
		ok   bool
	}{
		{"abc", "abc", true},
		{"AB-CD", "abcd", true},
		{"4567-89ab", "456789ab", true},
		{"", "", false},
		{"-", "", false},
		{"xyz", "", false},
		{"work", "", false},
		{strings.Repeat("a", 13), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			frag, ok := NewIdentifier(tc.raw).HexFragment()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.frag, frag)
		})
	}
}

func TestIdentifier_MatchByID(t *testing.T) {
	id := uuid.MustParse("00000000-0000-4000-8000-abcdef012345")

	kind, ok := NewIdentifier("ABC").Match(id, "")
	require.True(t, ok)
	assert.Equal(t, MatchID, kind)

	_, ok = NewIdentifier("bcd").Match(id, "")
	assert.False(t, ok, "fragment must be a prefix")

	kind, ok = NewIdentifier("").Match(id, "")
	require.True(t, ok)
	assert.Equal(t, MatchName, kind, "empty identifier matches an unnamed stopwatch by name")
}

func TestResolve_NameBeatsID(t *testing.T) {
	clock := clockwork.NewFakeClock()
	byID := withID(t, clock, "other", "00000000-0000-4000-8000-abc000000000")
	byName := withID(t, clock, "abc", "00000000-0000-4000-8000-111111111111")

	for _, order := range [][]*Stopwatch{{byID, byName}, {byName, byID}} {
		res := Resolve(NewIdentifier("abc"), order)
		require.Equal(t, MatchName, res.Kind)
		require.Len(t, res.Matches, 1)
		assert.Same(t, byName, res.Matches[0])
	}
}

func TestResolve_MultipleIDMatches(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := withID(t, clock, "", "00000000-0000-4000-8000-aa0000000001")
	b := withID(t, clock, "", "00000000-0000-4000-8000-aa0000000002")
	c := withID(t, clock, "", "00000000-0000-4000-8000-bb0000000003")

	res := Resolve(NewIdentifier("aa"), []*Stopwatch{a, b, c})

	require.Equal(t, MatchID, res.Kind)
	require.Len(t, res.Matches, 2)
	assert.Same(t, b, res.Matches[0], "most recently accessed scanned first")
	assert.Same(t, a, res.Matches[1])
}

func TestResolve_DuplicateNames(t *testing.T) {
	clock := clockwork.NewFakeClock()
	first := New(clock, "dup")
	second := New(clock, "dup")

	res := Resolve(NewIdentifier("dup"), []*Stopwatch{first, second})

	assert.Equal(t, MatchName, res.Kind)
	assert.Len(t, res.Matches, 2)
}

func TestResolve_NoMatch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	res := Resolve(NewIdentifier("missing"), []*Stopwatch{New(clock, "w")})

	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Kind)
}
