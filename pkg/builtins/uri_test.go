package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexmckenley/hermes/pkg/vm"
)

func TestURIFunctions(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		fn   string
		in   string
		want string
	}{
		{"encodeURIComponent", "a b&c/é", "a%20b%26c%2F%C3%A9"},
		{"encodeURI", "http://x.y/a b?q=1&r=é#f", "http://x.y/a%20b?q=1&r=%C3%A9#f"},
		{"encodeURIComponent", "😀", "%F0%9F%98%80"},
		{"decodeURIComponent", "a%20b%26c%2F%C3%A9", "a b&c/é"},
		{"decodeURI", "%3Fa%20b%2F", "%3Fa b%2F"},
		{"decodeURIComponent", "%F0%9F%98%80", "😀"},
		{"escape", "a b+é@*_-./", "a%20b+%E9@*_-./"},
		{"escape", "😀", "%uD83D%uDE00"},
		{"unescape", "%u0041%41%zz%", "AA%zz%"},
	}
	for _, tt := range tests {
		got := call(t, rt, global(t, rt, tt.fn), vm.Undefined, str(tt.in))
		assert.Equalf(t, tt.want, got.AsString(), "%s(%q)", tt.fn, tt.in)
	}
}

func TestURIMalformed(t *testing.T) {
	rt := newTestRuntime(t)
	for _, in := range []string{"%", "%E9", "%C3%28", "%zz", "%ED%A0%80", "%F8%80%80%80%80"} {
		_, err := rt.Call(global(t, rt, "decodeURIComponent"), vm.Undefined, []vm.Value{str(in)})
		assert.Equalf(t, "URIError", thrownError(t, rt, err), "decodeURIComponent(%q)", in)
	}
}
