// Package modpath models namespaced module identifiers and their two
// interchangeable textual forms: the canonical double-colon form used for
// lookup and display ("HTTP::Client::Retry") and the slash form used in URL
// paths ("HTTP/Client/Retry").
package modpath

import (
	"fmt"
	"strings"
)

// Identifier is a namespaced module name held as its ordered segments.
// The zero value is invalid; construct through FromCanonical or FromPath.
type Identifier struct {
	segments []string
}

// FromCanonical parses a double-colon joined name ("Foo::Bar").
func FromCanonical(name string) (Identifier, error) {
	return fromJoined(name, "::")
}

// FromPath parses a slash joined name ("Foo/Bar"). Leading and trailing
// slashes are tolerated since the form usually arrives as a URL path segment.
func FromPath(path string) (Identifier, error) {
	return fromJoined(strings.Trim(path, "/"), "/")
}

func fromJoined(s, sep string) (Identifier, error) {
	if s == "" {
		return Identifier{}, fmt.Errorf("empty module name")
	}
	parts := strings.Split(s, sep)
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return Identifier{}, fmt.Errorf("module name %q has an empty segment", s)
		}
		if !validSegment(p) {
			return Identifier{}, fmt.Errorf("module name %q has an invalid segment %q", s, p)
		}
		segs = append(segs, p)
	}
	return Identifier{segments: segs}, nil
}

// validSegment accepts word characters only, matching the identifier grammar
// used for extraction from link targets.
func validSegment(s string) bool {
	for _, r := range s {
		if !isWord(r) {
			return false
		}
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}

// Canonical returns the double-colon joined form.
func (id Identifier) Canonical() string { return strings.Join(id.segments, "::") }

// Path returns the slash joined form.
func (id Identifier) Path() string { return strings.Join(id.segments, "/") }

// Segments returns a copy of the ordered name segments.
func (id Identifier) Segments() []string {
	out := make([]string, len(id.segments))
	copy(out, id.segments)
	return out
}

// IsZero reports whether the identifier has no segments.
func (id Identifier) IsZero() bool { return len(id.segments) == 0 }

func (id Identifier) String() string { return id.Canonical() }

// ExtractAfterPrefix extracts a module identifier from a link target that
// begins with the given prefix (typically the external documentation base
// URL). The grammar after the prefix is one or more word-character segments
// joined by "::" or "/"; both joined forms are accepted because rendered
// documents mix them. Anything from the first character outside that grammar
// (query string, fragment, trailing slash) is ignored.
//
// The boolean result is false when the target does not start with the prefix
// or no identifier follows it.
func ExtractAfterPrefix(target, prefix string) (Identifier, bool) {
	if prefix == "" || !strings.HasPrefix(target, prefix) {
		return Identifier{}, false
	}
	rest := target[len(prefix):]
	end := 0
	for end < len(rest) {
		c := rest[end]
		if c == ':' || c == '/' || isWordByte(c) {
			end++
			continue
		}
		break
	}
	rest = rest[:end]
	if rest == "" {
		return Identifier{}, false
	}
	// Normalize to a single separator before splitting. A target can only use
	// one join style at a time, but normalizing both keeps the parser total.
	normalized := strings.ReplaceAll(rest, "::", "/")
	normalized = strings.Trim(normalized, "/")
	id, err := FromPath(normalized)
	if err != nil {
		return Identifier{}, false
	}
	return id, true
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
