package vm

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// RegExpData is the payload of RegExp objects.
type RegExpData struct {
	Source string
	Flags  string
	Global bool
	Sticky bool
	re     *regexp2.Regexp
}

// CompileRegExp validates flags and compiles pattern with ECMAScript syntax.
// Errors are SyntaxErrors.
func (rt *Runtime) CompileRegExp(pattern, flags string) (*RegExpData, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	d := &RegExpData{Source: pattern, Flags: flags}
	seen := make(map[rune]bool)
	for _, f := range flags {
		if seen[f] {
			return nil, rt.RaiseError(SyntaxError, fmt.Sprintf("Invalid regular expression flags '%s'", flags))
		}
		seen[f] = true
		switch f {
		case 'g':
			d.Global = true
		case 'y':
			d.Sticky = true
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		default:
			return nil, rt.RaiseError(SyntaxError, fmt.Sprintf("Invalid regular expression flags '%s'", flags))
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, rt.RaiseError(SyntaxError, fmt.Sprintf("Invalid regular expression: /%s/: %v", pattern, err))
	}
	d.re = re
	return d, nil
}

// RegExpMatch is one successful match. Index and group positions count runes.
type RegExpMatch struct {
	Index  int
	End    int
	Groups []Value // group 0 is the whole match; unmatched groups are undefined
}

// Exec matches input starting at rune offset start. Sticky expressions only
// match at start.
func (d *RegExpData) Exec(input string, start int) (*RegExpMatch, error) {
	runes := []rune(input)
	if start > len(runes) {
		return nil, nil
	}
	m, err := d.re.FindRunesMatchStartingAt(runes, start)
	if err != nil || m == nil {
		return nil, err
	}
	if d.Sticky && m.Index != start {
		return nil, nil
	}
	res := &RegExpMatch{Index: m.Index, End: m.Index + m.Length}
	for _, g := range m.Groups() {
		if len(g.Captures) == 0 {
			res.Groups = append(res.Groups, Undefined)
			continue
		}
		res.Groups = append(res.Groups, NewString(g.String()))
	}
	return res, nil
}

// String renders the expression as a literal.
func (d *RegExpData) String() string {
	src := d.Source
	if src == "" {
		src = "(?:)"
	}
	return "/" + strings.ReplaceAll(src, "/", `\/`) + "/" + d.Flags
}

// RegExpDataOf returns the payload of o if it is a RegExp.
func RegExpDataOf(o *Object) (*RegExpData, bool) {
	d, ok := o.internal.(*RegExpData)
	return d, ok
}
