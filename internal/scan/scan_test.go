package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/morozRed/serialid/internal/config"
	"github.com/morozRed/serialid/internal/suid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestRunFindsSerializableClasses(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/Point.java": `public class Point implements java.io.Serializable {
    public int x;
    public int y;
}
`,
		"src/Base.java": `package com.acme;

public class Base implements java.io.Serializable {
    private static final long serialVersionUID = 1L;
}
`,
		"src/Child.java": `package com.acme;

public class Child extends Base {
    interface Nope {}
}
`,
		"src/Plain.java": "class Plain {}\n",
		"kt/Point.kt": `package com.acme

import java.io.Serializable

class Point(val x: Int, val y: Int) : Serializable
`,
		"build/Generated.java": "class Generated implements java.io.Serializable {}\n",
		"README.md":            "not source\n",
	})

	report, err := Run(context.Background(), root, config.Default())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Files)
	assert.Empty(t, report.Issues)

	classes := make(map[string]Result)
	for _, res := range report.Results {
		classes[res.Class] = res
	}
	require.Len(t, classes, 4)

	point := classes["Point"]
	assert.Equal(t, "src/Point.java", point.File)
	assert.Equal(t, int64(-9130217029653031524), point.ID)
	assert.Equal(t, suid.Absent, point.State)

	assert.Equal(t, suid.PresentInconsistent, classes["com.acme.Base"].State)
	assert.Equal(t, "1L", classes["com.acme.Base"].Current)
	assert.Equal(t, suid.Absent, classes["com.acme.Child"].State, "serializable through its superclass")

	kotlin := classes["com.acme.Point"]
	assert.Equal(t, "kotlin", kotlin.Language)
	assert.Equal(t, int64(-3209917606085093536), kotlin.ID)

	assert.Len(t, report.Stale(), 4)
	assert.Equal(t, 3, report.Counts()[suid.Absent])
	assert.Contains(t, report.FileHashes, "kt/Point.kt")
}

func TestRunRespectsLanguageFilterAndIgnores(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/A.java": "class A implements java.io.Serializable {}\n",
		"b/B.java": "class B implements java.io.Serializable {}\n",
		"k/K.kt":   "class K : java.io.Serializable\n",
	})

	cfg := config.Default()
	cfg.Languages = []string{"java"}
	cfg.Ignore = []string{"b/"}

	report, err := Run(context.Background(), root, cfg)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "A", report.Results[0].Class)
}

func TestRunPadsShortKotlinIDs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"K.kt": "class K : java.io.Serializable\n",
	})

	padded, err := Run(context.Background(), root, config.Default())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Kotlin.PadShortIDs = false
	raw, err := Run(context.Background(), root, cfg)
	require.NoError(t, err)

	require.Len(t, padded.Results, 1)
	require.Len(t, raw.Results, 1)
	assert.Equal(t, suid.PadSmallID(raw.Results[0].ID), padded.Results[0].ID)
}

func TestRunHonorsExtraMarkers(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Wire.java": `package com.acme;

interface Wire {}

class Message implements Wire {}
`,
	})

	report, err := Run(context.Background(), root, config.Default())
	require.NoError(t, err)
	assert.Empty(t, report.Results)

	cfg := config.Default()
	cfg.Markers = []string{"com.acme.Wire"}
	report, err = Run(context.Background(), root, cfg)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "com.acme.Message", report.Results[0].Class)
}

func TestRunSkipsKotlinEnums(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Color.kt": `package p

enum class Color : java.io.Serializable { RED, GREEN }

class Palette : java.io.Serializable {
    enum class Shade : java.io.Serializable { LIGHT, DARK }
}
`,
	})

	report, err := Run(context.Background(), root, config.Default())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "p.Palette", report.Results[0].Class)
}
