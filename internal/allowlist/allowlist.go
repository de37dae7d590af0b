// Package allowlist gates which module identifiers are served locally. A
// module that fails the list is not an error condition; it is simply referred
// to the external documentation site instead.
package allowlist

import (
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/docbrowse/internal/modpath"
)

// List is an ordered set of pattern matchers over the canonical module form.
// A module is permitted iff at least one pattern matches.
type List struct {
	patterns []*regexp.Regexp
}

// Compile builds a List from regular expression sources, preserving order.
// An empty source list yields the default list permitting everything.
func Compile(sources []string) (*List, error) {
	if len(sources) == 0 {
		return Default(), nil
	}
	patterns := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist pattern %q: %w", src, err)
		}
		patterns = append(patterns, re)
	}
	return &List{patterns: patterns}, nil
}

// Default returns a list that permits every module.
func Default() *List {
	return &List{patterns: []*regexp.Regexp{regexp.MustCompile(``)}}
}

// Permits reports whether the identifier's canonical form matches any pattern.
func (l *List) Permits(id modpath.Identifier) bool {
	if l == nil {
		return false
	}
	name := id.Canonical()
	for _, re := range l.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.patterns)
}
