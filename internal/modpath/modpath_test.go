package modpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromCanonical_RoundTrip(t *testing.T) {
	cases := []struct {
		canonical string
		path      string
	}{
		{"Foo", "Foo"},
		{"Foo::Bar", "Foo/Bar"},
		{"HTTP::Client::Retry", "HTTP/Client/Retry"},
		{"a1::b_2", "a1/b_2"},
	}

	for _, tc := range cases {
		id, err := FromCanonical(tc.canonical)
		require.NoError(t, err, tc.canonical)
		require.Equal(t, tc.path, id.Path())
		require.Equal(t, tc.canonical, id.Canonical())

		back, err := FromPath(id.Path())
		require.NoError(t, err)
		require.Equal(t, tc.canonical, back.Canonical())
	}
}

func TestFromPath_TrimsSlashes(t *testing.T) {
	id, err := FromPath("/Foo/Bar/")
	require.NoError(t, err)
	require.Equal(t, "Foo::Bar", id.Canonical())
}

func TestFrom_Invalid(t *testing.T) {
	for _, bad := range []string{"", "Foo::", "::Bar", "Foo::Ba r", "Foo..Bar", "Foo::Bar!"} {
		_, err := FromCanonical(bad)
		require.Error(t, err, "canonical %q", bad)
	}
	_, err := FromPath("")
	require.Error(t, err)
}

func TestSegments_Copy(t *testing.T) {
	id, err := FromCanonical("Foo::Bar")
	require.NoError(t, err)
	segs := id.Segments()
	segs[0] = "mutated"
	require.Equal(t, "Foo::Bar", id.Canonical())
}

func TestExtractAfterPrefix(t *testing.T) {
	const base = "https://metacpan.org/pod/"

	cases := []struct {
		name   string
		target string
		want   string
		ok     bool
	}{
		{"canonical form", base + "Foo::Bar", "Foo::Bar", true},
		{"slash form", base + "Foo/Bar", "Foo::Bar", true},
		{"single segment", base + "Foo", "Foo", true},
		{"trailing fragment", base + "Foo::Bar#SYNOPSIS", "Foo::Bar", true},
		{"trailing query", base + "Foo?x=1", "Foo", true},
		{"trailing slash", base + "Foo/Bar/", "Foo::Bar", true},
		{"no identifier", base, "", false},
		{"different host", "https://example.com/pod/Foo", "", false},
		{"stray colon", base + "Foo:Bar", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := ExtractAfterPrefix(tc.target, base)
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.want, id.Canonical())
			}
		})
	}
}
