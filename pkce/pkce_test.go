package pkce_test

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/jrsteele09/loghealer-client/pkce"
	"github.com/stretchr/testify/require"
)

const (
	testCodeVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	testCodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

var base64URL = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestDeriveChallenge_RFC7636Vector(t *testing.T) {
	require.Equal(t, testCodeChallenge, pkce.DeriveChallenge(testCodeVerifier))
}

func TestDeriveChallenge_Deterministic(t *testing.T) {
	require.Equal(t, pkce.DeriveChallenge("abc"), pkce.DeriveChallenge("abc"))
	require.NotEqual(t, pkce.DeriveChallenge("abc"), pkce.DeriveChallenge("abd"))
	require.Len(t, pkce.DeriveChallenge(""), 43)
}

func TestGenerator_LengthsAndAlphabet(t *testing.T) {
	g := pkce.New(nil)

	verifier, err := g.GenerateVerifier()
	require.NoError(t, err)
	require.Len(t, verifier, 43)
	require.Regexp(t, base64URL, verifier)

	state, err := g.GenerateState()
	require.NoError(t, err)
	require.Len(t, state, 22)
	require.Regexp(t, base64URL, state)
}

func TestGenerator_Uniqueness(t *testing.T) {
	g := pkce.New(nil)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		v, err := g.GenerateVerifier()
		require.NoError(t, err)
		require.True(t, base64URL.MatchString(v))
		_, dup := seen[v]
		require.False(t, dup, "duplicate verifier %s", v)
		seen[v] = struct{}{}
	}
}

func TestGenerator_NewChallenge(t *testing.T) {
	c, err := pkce.New(nil).NewChallenge()
	require.NoError(t, err)
	require.Equal(t, pkce.MethodS256, c.Method)
	require.Equal(t, pkce.DeriveChallenge(c.Verifier), c.Challenge)
	require.NotEqual(t, c.Verifier, c.State)
}

func TestGenerator_DeterministicSource(t *testing.T) {
	g := pkce.New(bytes.NewReader(make([]byte, 64)))
	v, err := g.GenerateVerifier()
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("A", 43), v)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy pool empty") }

func TestGenerator_RandomSourceFailure(t *testing.T) {
	g := pkce.New(failingReader{})

	_, err := g.GenerateVerifier()
	require.ErrorIs(t, err, pkce.ErrRandomSourceUnavailable)

	_, err = g.NewChallenge()
	require.ErrorIs(t, err, pkce.ErrRandomSourceUnavailable)
}

func TestGenerator_ShortSource(t *testing.T) {
	g := pkce.New(bytes.NewReader(make([]byte, 10)))
	_, err := g.GenerateVerifier()
	require.ErrorIs(t, err, pkce.ErrRandomSourceUnavailable)
}
