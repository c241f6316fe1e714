package chatid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var uuidShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-5[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestDeriveIsSymmetric(t *testing.T) {
	deriver := New()

	pairs := [][2]string{
		{"user-A", "user-B"},
		{"42", "24"},
		{"brand-7", "creator-9"},
		{"same", "same"},
	}

	for _, pair := range pairs {
		require.Equal(t, deriver.Derive(pair[0], pair[1]), deriver.Derive(pair[1], pair[0]))
	}
}

func TestDeriveIsDeterministicAcrossInstances(t *testing.T) {
	first := New()
	second := New()

	require.Equal(t, first.Derive("user-A", "user-B"), second.Derive("user-A", "user-B"))
}

func TestDeriveProducesUUIDShape(t *testing.T) {
	id := New().Derive("user-A", "user-B")
	require.Regexp(t, uuidShape, id)
}

func TestDeriveDistinguishesPairs(t *testing.T) {
	deriver := New()
	require.NotEqual(t, deriver.Derive("a", "b"), deriver.Derive("a", "c"))
}

func TestRandomDeriverDoesNotConverge(t *testing.T) {
	deriver := NewRandom()
	require.NotEqual(t, deriver.Derive("a", "b"), deriver.Derive("a", "b"))
}
