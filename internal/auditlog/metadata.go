package auditlog

import (
	"context"
	"strings"
)

// Invocation identifies the CLI command a recorded operation came from.
type Invocation struct {
	Command string
	Args    []string
}

type invocationKey struct{}

// WithInvocation attaches the running command to ctx. Args are sanitized
// before being stored.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	inv.Args = SanitizeArgs(inv.Args)
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext returns the invocation stored in ctx, if any.
func InvocationFromContext(ctx context.Context) Invocation {
	if ctx == nil {
		return Invocation{}
	}
	inv, _ := ctx.Value(invocationKey{}).(Invocation)
	return inv
}

const redacted = "<redacted>"

// secretFlags take a value that must never reach the audit database.
var secretFlags = []string{"--token", "--api-key"}

func isSecretFlag(name string) bool {
	for _, f := range secretFlags {
		if name == f {
			return true
		}
	}
	return false
}

// SanitizeArgs returns a copy of args with secret flag values replaced,
// in both "--flag value" and "--flag=value" forms.
func SanitizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, ok := strings.Cut(arg, "="); ok && isSecretFlag(name) {
			out[i] = name + "=" + redacted
			continue
		}
		out[i] = arg
		if isSecretFlag(arg) && i+1 < len(args) {
			i++
			out[i] = redacted
		}
	}
	return out
}

func (i Invocation) joinedArgs() string {
	return strings.Join(i.Args, " ")
}
