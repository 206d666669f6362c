//go:build !windows

package toolrun

import (
	"context"
	"testing"
	"time"
)

func TestRunCaptures(t *testing.T) {
	var lines []string
	res, err := ExecRunner{}.Run(context.Background(), Spec{
		Name:   "sh",
		Args:   []string{"-c", "echo out; echo err 1>&2"},
		OnLine: func(l string) { lines = append(lines, l) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 || res.TimedOut {
		t.Fatalf("result = %+v", res)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Fatalf("stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
	if len(lines) != 2 {
		t.Fatalf("OnLine saw %v", lines)
	}
}

func TestRunNonzeroExitIsNotError(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Spec{
		Name: "sh", Args: []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("nonzero exit surfaced as error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit = %d, want 3", res.ExitCode)
	}
}

func TestRunTimeoutKills(t *testing.T) {
	start := time.Now()
	res, err := ExecRunner{}.Run(context.Background(), Spec{
		Name:    "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout surfaced as error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("result = %+v, want TimedOut", res)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("process outlived timeout by %v", elapsed)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Spec{Name: "definitely-not-a-real-tool"})
	if err == nil {
		t.Fatal("missing binary did not error")
	}
}
