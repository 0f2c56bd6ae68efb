package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/morozRed/serialid/internal/state"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	javaPointSource = `public class Point implements java.io.Serializable {
    public int x;
    public int y;
}
`
	kotlinPointSource = `package com.acme

import java.io.Serializable

class Point(val x: Int, val y: Int) : Serializable
`
)

// writeMixedTree lays out one class in each field state.
func writeMixedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "Point.java"), `public class Point implements java.io.Serializable {
    private static final long serialVersionUID = -9130217029653031524L;
    public int x;
    public int y;
}
`)
	mustWriteFile(t, filepath.Join(root, "src", "com", "acme", "Point.java"), `package com.acme;

public class Point implements java.io.Serializable {
    private static final long serialVersionUID = 1L;
    public int x;
    public int y;
}
`)
	mustWriteFile(t, filepath.Join(root, "kt", "Point.kt"), kotlinPointSource)
	mustWriteFile(t, filepath.Join(root, "README.md"), "docs\n")
	return root
}

func TestComputeTextOutput(t *testing.T) {
	root := writeMixedTree(t)

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunCompute(newComputeCmdForTest(), []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunCompute failed: %v", runErr)
	}
	assertGolden(t, "compute", out)
}

func TestComputeJSONL(t *testing.T) {
	root := writeMixedTree(t)

	cmd := newComputeCmdForTest()
	mustSetFlag(t, cmd, "jsonl", "true")
	mustSetFlag(t, cmd, "lang", "kt")

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunCompute(cmd, []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunCompute failed: %v", runErr)
	}

	type record struct {
		File  string `json:"file"`
		Class string `json:"class"`
		ID    int64  `json:"id"`
		State string `json:"state"`
	}
	var records []record
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("failed to decode jsonl line %q: %v", scanner.Text(), err)
		}
		records = append(records, r)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the kotlin class, got %+v", records)
	}
	if records[0].Class != "com.acme.Point" || records[0].ID != -3209917606085093536 || records[0].State != "absent" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestComputeRejectsConflictingFormats(t *testing.T) {
	cmd := newComputeCmdForTest()
	mustSetFlag(t, cmd, "json", "true")
	mustSetFlag(t, cmd, "jsonl", "true")
	if err := RunCompute(cmd, []string{t.TempDir()}); err == nil {
		t.Fatalf("expected --json with --jsonl to fail")
	}
}

func TestCheckReportsInconsistentIDs(t *testing.T) {
	root := writeMixedTree(t)

	var runErr error
	out := captureStdout(t, func() {
		withWorkingDir(t, root, func() {
			runErr = RunCheck(newCheckCmdForTest(), nil)
		})
	})
	if !errors.Is(runErr, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", runErr)
	}
	assertGolden(t, "check", out)
}

func TestCheckStrictFailsOnMissingIDs(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "Point.java"), javaPointSource)

	var runErr error
	captureStdout(t, func() {
		runErr = RunCheck(newCheckCmdForTest(), []string{root})
	})
	if runErr != nil {
		t.Fatalf("expected missing ids to pass without --strict, got %v", runErr)
	}

	strict := newCheckCmdForTest()
	mustSetFlag(t, strict, "strict", "true")
	mustSetFlag(t, strict, "json", "true")
	out := captureStdout(t, func() {
		runErr = RunCheck(strict, []string{root})
	})
	if !errors.Is(runErr, ErrStale) {
		t.Fatalf("expected ErrStale with --strict, got %v", runErr)
	}

	var summary CheckSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode check json: %v\n%s", err, out)
	}
	if summary.Passed || summary.Missing != 1 || len(summary.Findings) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Findings[0].ID != -9130217029653031524 {
		t.Fatalf("unexpected finding %+v", summary.Findings[0])
	}
}

func TestFixDryRunPrintsDiffWithoutWriting(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "src", "Point.java")
	mustWriteFile(t, path, javaPointSource)

	cmd := newFixCmdForTest()
	mustSetFlag(t, cmd, "dry-run", "true")

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunFix(cmd, []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunFix failed: %v", runErr)
	}
	assertGolden(t, "fix_dry_run", out)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read source: %v", err)
	}
	if string(data) != javaPointSource {
		t.Fatalf("expected dry run to leave the file untouched, got:\n%s", data)
	}
}

func TestFixThenCheckPasses(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "Point.java"), javaPointSource)
	mustWriteFile(t, filepath.Join(root, "kt", "Point.kt"), kotlinPointSource)

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunFix(newFixCmdForTest(), []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunFix failed: %v", runErr)
	}
	if !strings.Contains(out, "fix: classes=2 files=2 skipped=0") {
		t.Fatalf("unexpected fix output:\n%s", out)
	}

	kotlin, err := os.ReadFile(filepath.Join(root, "kt", "Point.kt"))
	if err != nil {
		t.Fatalf("failed to read kotlin source: %v", err)
	}
	wantKotlin := `package com.acme

import java.io.Serializable

class Point(val x: Int, val y: Int) : Serializable {
    companion object {
        private const val serialVersionUID = -3209917606085093536L
    }
}
`
	if string(kotlin) != wantKotlin {
		t.Fatalf("unexpected kotlin rewrite:\n%s", kotlin)
	}

	strict := newCheckCmdForTest()
	mustSetFlag(t, strict, "strict", "true")
	out = captureStdout(t, func() {
		runErr = RunCheck(strict, []string{root})
	})
	if runErr != nil {
		t.Fatalf("expected check to pass after fix, got %v\n%s", runErr, out)
	}
	if !strings.Contains(out, "check: classes=2 consistent=2 inconsistent=0 missing=0") {
		t.Fatalf("unexpected check output:\n%s", out)
	}

	out = captureStdout(t, func() {
		runErr = RunFix(newFixCmdForTest(), []string{root})
	})
	if runErr != nil || !strings.Contains(out, "fix: classes=0 files=0") {
		t.Fatalf("expected second fix to be a no-op, got %v\n%s", runErr, out)
	}
}

func TestFixKeepExistingLeavesDeclaredValues(t *testing.T) {
	root := t.TempDir()
	legacy := `public class Legacy implements java.io.Serializable {
    private static final long serialVersionUID = 1L;
    public int x;
}
`
	mustWriteFile(t, filepath.Join(root, "Legacy.java"), legacy)
	mustWriteFile(t, filepath.Join(root, "Point.java"), javaPointSource)

	cmd := newFixCmdForTest()
	mustSetFlag(t, cmd, "keep-existing", "true")
	mustSetFlag(t, cmd, "json", "true")

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunFix(cmd, []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunFix failed: %v", runErr)
	}

	var summary FixSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode fix json: %v\n%s", err, out)
	}
	if summary.Classes != 1 || summary.Skipped != 1 || len(summary.ChangedFiles) != 1 || summary.ChangedFiles[0] != "Point.java" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	data, err := os.ReadFile(filepath.Join(root, "Legacy.java"))
	if err != nil {
		t.Fatalf("failed to read Legacy.java: %v", err)
	}
	if string(data) != legacy {
		t.Fatalf("expected declared id to be kept, got:\n%s", data)
	}
}

func TestSnapshotAndDiff(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "Point.java"), javaPointSource)
	mustWriteFile(t, filepath.Join(root, "Gone.java"), "class Gone implements java.io.Serializable {}\n")

	withWorkingDir(t, root, func() {
		var runErr error
		out := captureStdout(t, func() {
			runErr = RunSnapshot(newSnapshotCmdForTest(), nil)
		})
		if runErr != nil {
			t.Fatalf("RunSnapshot failed: %v", runErr)
		}
		if !strings.Contains(out, "snapshot: files=2 classes=2") {
			t.Fatalf("unexpected snapshot output:\n%s", out)
		}
		assertExists(t, filepath.Join(root, state.Dir, state.StateFile))

		out = captureStdout(t, func() {
			runErr = RunDiff(newDiffCmdForTest(), nil)
		})
		if runErr != nil || !strings.Contains(out, "diff: changes=0 changed_files=0 deleted_files=0") {
			t.Fatalf("expected clean diff, got %v\n%s", runErr, out)
		}

		mustWriteFile(t, filepath.Join(root, "Point.java"), `public class Point implements java.io.Serializable {
    public int x;
    public int y;
    public int z;
}
`)
		if err := os.Remove(filepath.Join(root, "Gone.java")); err != nil {
			t.Fatalf("failed to remove Gone.java: %v", err)
		}

		diffCmd := newDiffCmdForTest()
		mustSetFlag(t, diffCmd, "json", "true")
		mustSetFlag(t, diffCmd, "exit-code", "true")
		out = captureStdout(t, func() {
			runErr = RunDiff(diffCmd, nil)
		})
		if !errors.Is(runErr, ErrChanged) {
			t.Fatalf("expected ErrChanged, got %v", runErr)
		}

		var summary DiffSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode diff json: %v\n%s", err, out)
		}
		if len(summary.Changes) != 2 {
			t.Fatalf("expected 2 changes, got %+v", summary.Changes)
		}
		gone, point := summary.Changes[0], summary.Changes[1]
		if gone.Class != "Gone" || gone.Kind != "removed" {
			t.Fatalf("unexpected change %+v", gone)
		}
		if point.Class != "Point" || point.Kind != "changed" || point.Old != -9130217029653031524 || point.New == point.Old {
			t.Fatalf("unexpected change %+v", point)
		}
		if len(summary.ChangedFiles) != 1 || summary.ChangedFiles[0] != "Point.java" {
			t.Fatalf("unexpected changed files %v", summary.ChangedFiles)
		}
		if len(summary.DeletedFiles) != 1 || summary.DeletedFiles[0] != "Gone.java" {
			t.Fatalf("unexpected deleted files %v", summary.DeletedFiles)
		}
	})
}

func TestDiffTreatsCorruptSnapshotAsEmpty(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "Point.java"), javaPointSource)
	mustWriteFile(t, filepath.Join(root, state.Dir, state.StateFile), "{not json")

	var runErr error
	out := captureStdout(t, func() {
		runErr = RunDiff(newDiffCmdForTest(), []string{root})
	})
	if runErr != nil {
		t.Fatalf("RunDiff failed: %v", runErr)
	}
	if !strings.Contains(out, "added Point (Point.java): -9130217029653031524L") {
		t.Fatalf("expected class reported as added, got:\n%s", out)
	}
}

func TestLanguageFlagRejectsUnsupported(t *testing.T) {
	cmd := newComputeCmdForTest()
	mustSetFlag(t, cmd, "lang", "scala")
	err := RunCompute(cmd, []string{t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "unsupported language") {
		t.Fatalf("expected unsupported language error, got %v", err)
	}
}

func TestResolveRootPathRejectsFiles(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "Point.java")
	mustWriteFile(t, file, javaPointSource)

	if _, err := resolveRootPath([]string{file}); err == nil {
		t.Fatalf("expected a file argument to be rejected")
	}
	if _, err := resolveRootPath([]string{filepath.Join(root, "missing")}); err == nil {
		t.Fatalf("expected a missing path to be rejected")
	}
	got, err := resolveRootPath([]string{root})
	if err != nil || got != root {
		t.Fatalf("expected %s, got %s (%v)", root, got, err)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand("test")
	for _, name := range []string{"compute", "check", "fix", "snapshot", "diff", "install-hook", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("expected %s command: %v", name, err)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Fatalf("expected persistent --verbose flag")
	}
}

func assertGolden(t *testing.T, name, actual string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(actual))
}

func newComputeCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	addScanFlags(cmd)
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("jsonl", false, "")
	return cmd
}

func newCheckCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	addScanFlags(cmd)
	cmd.Flags().Bool("strict", false, "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newFixCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	addScanFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("keep-existing", false, "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newSnapshotCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	addScanFlags(cmd)
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newDiffCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	addScanFlags(cmd)
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("exit-code", false, "")
	return cmd
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func mustSetFlag(t *testing.T, cmd *cobra.Command, key, value string) {
	t.Helper()
	if err := cmd.Flags().Set(key, value); err != nil {
		t.Fatalf("failed to set --%s=%s: %v", key, value, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = writer.Close()
		_ = reader.Close()
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read captured stdout: %v", err)
	}
	return string(data)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
