package meta

import (
	"log/slog"
	"regexp"
	"strings"
)

// IgnoreFilter drops (class, instance name) pairs before they are
// registered. Dropped instances produce no header, no registry entry, and
// no subset tag, so filters applied early cascade into later class and
// subset selections.
type IgnoreFilter struct {
	rules map[string][]*regexp.Regexp
}

// ParseIgnoreRules compiles a list of CLASS[:REGEX] directives. A missing
// regex matches every instance name. Patterns are anchored at the start of
// the name, so "sample:ctl" drops "ctl_1" but not "my_ctl".
func ParseIgnoreRules(directives []string) (*IgnoreFilter, error) {
	f := &IgnoreFilter{rules: make(map[string][]*regexp.Regexp)}

	for _, directive := range directives {
		class, pattern, found := strings.Cut(directive, ":")
		if class == "" {
			return nil, ErrIgnorePattern.
				With(slog.String("directive", directive),
					slog.String("reason", "missing class name"))
		}

		if !found || pattern == "" {
			pattern = ".*"
		}

		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, ErrIgnorePattern.Wrap(err).
				With(slog.String("directive", directive))
		}

		f.rules[class] = append(f.rules[class], re)
	}

	return f, nil
}

// Match reports whether the (class, name) pair should be dropped.
func (f *IgnoreFilter) Match(class, name string) bool {
	if f == nil {
		return false
	}

	for _, re := range f.rules[class] {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}
