package cli

import (
	"strings"
	"testing"
)

func TestBuildCheckHookBlockRunsCheck(t *testing.T) {
	block := BuildCheckHookBlock("/repo/path")

	for _, expected := range []string{
		HookStart,
		`repo_root="/repo/path"`,
		"command -v serialid",
		`(cd "$repo_root" && serialid check)`,
		"exit 1",
		HookEnd,
	} {
		if !strings.Contains(block, expected) {
			t.Fatalf("expected hook block to contain %q, got:\n%s", expected, block)
		}
	}
}

func TestUpsertCheckHookReplacesExistingBlock(t *testing.T) {
	existing := "#!/bin/sh\n\necho before\n" + HookStart + "\nold block\n" + HookEnd + "\n\necho after\n"
	updated := UpsertCheckHook(existing, "/repo/path")

	if strings.Contains(updated, "old block") {
		t.Fatalf("expected old hook block to be replaced, got:\n%s", updated)
	}
	if strings.Count(updated, HookStart) != 1 || strings.Count(updated, HookEnd) != 1 {
		t.Fatalf("expected exactly one hook block after update, got:\n%s", updated)
	}
	if !strings.Contains(updated, "echo before") || !strings.Contains(updated, "echo after") {
		t.Fatalf("expected other hook content to be preserved, got:\n%s", updated)
	}
}

func TestUpsertCheckHookAddsShebang(t *testing.T) {
	if got := UpsertCheckHook("", "/r"); !strings.HasPrefix(got, "#!/bin/sh\n\n"+HookStart) {
		t.Fatalf("expected fresh hook with shebang, got:\n%s", got)
	}
	got := UpsertCheckHook("echo lint", "/r")
	if !strings.HasPrefix(got, "#!/bin/sh\necho lint\n\n"+HookStart) || !strings.HasSuffix(got, HookEnd+"\n") {
		t.Fatalf("expected block appended after existing commands, got:\n%s", got)
	}
}
