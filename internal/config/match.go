package config

import (
	"path"
	"path/filepath"
	"strings"
)

// Matcher selects source files by their slash-separated path relative to
// a source root.
type Matcher interface {
	Matches(rel string) bool
}

// IncludeSet matches a path when any pattern matches it.
// An empty set matches everything.
type IncludeSet []string

func (s IncludeSet) Matches(rel string) bool {
	if len(s) == 0 {
		return true
	}
	for _, p := range s {
		if Glob(p, rel) {
			return true
		}
	}
	return false
}

// ExcludeSet matches a path when no pattern matches it.
type ExcludeSet []string

func (s ExcludeSet) Matches(rel string) bool {
	for _, p := range s {
		if Glob(p, rel) {
			return false
		}
	}
	return true
}

// PatternSet combines includes and excludes; excludes win.
type PatternSet struct {
	Include IncludeSet
	Exclude ExcludeSet
}

func (s PatternSet) Matches(rel string) bool {
	return s.Include.Matches(rel) && s.Exclude.Matches(rel)
}

// Glob reports whether name matches pattern. Both use '/' separators.
// Each segment is matched with path.Match; a "**" segment matches zero
// or more whole segments. Malformed patterns match nothing.
func Glob(pattern, name string) bool {
	pattern = filepath.ToSlash(pattern)
	name = filepath.ToSlash(name)
	return globSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func globSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			// Collapse consecutive "**".
			for len(pat) > 1 && pat[1] == "**" {
				pat = pat[1:]
			}
			if len(pat) == 1 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if globSegments(pat[1:], name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], name[0])
		if err != nil || !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}
