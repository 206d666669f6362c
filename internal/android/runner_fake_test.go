package android

import (
	"context"
	"strings"

	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
)

// fakeRunner records every invocation and delegates behavior to a scripted
// handler. The zero value succeeds everything with empty output.
type fakeRunner struct {
	calls   []toolrun.Spec
	handler func(spec toolrun.Spec) (toolrun.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, spec toolrun.Spec) (toolrun.Result, error) {
	f.calls = append(f.calls, spec)
	if f.handler != nil {
		return f.handler(spec)
	}
	return toolrun.Result{}, nil
}

// callsMatching counts invocations whose name+args contain all needles.
func (f *fakeRunner) callsMatching(needles ...string) int {
	n := 0
	for _, c := range f.calls {
		joined := c.Name + " " + strings.Join(c.Args, " ")
		ok := true
		for _, needle := range needles {
			if !strings.Contains(joined, needle) {
				ok = false
				break
			}
		}
		if ok {
			n++
		}
	}
	return n
}

func gradleTask(spec toolrun.Spec) string {
	if !strings.Contains(spec.Name, "gradlew") || len(spec.Args) == 0 {
		return ""
	}
	return spec.Args[0]
}
