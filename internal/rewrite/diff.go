package rewrite

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const contextLines = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// Preview renders a unified diff of before and after for path. It returns
// "" when nothing changed.
func Preview(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var all []diffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			all = append(all, diffLine{op: d.Type, text: line})
		}
	}

	// oldAt[i] and newAt[i] count the lines of each side before all[i].
	oldAt := make([]int, len(all)+1)
	newAt := make([]int, len(all)+1)
	for i, line := range all {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if line.op != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if line.op != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", path, path)
	for start := 0; start < len(all); {
		first := start
		for first < len(all) && all[first].op == diffmatchpatch.DiffEqual {
			first++
		}
		if first == len(all) {
			break
		}

		// Extend the hunk while changes are closer than twice the context.
		last := first
		for i := first; i < len(all); i++ {
			if all[i].op != diffmatchpatch.DiffEqual {
				last = i
				continue
			}
			if i-last > 2*contextLines {
				break
			}
		}
		from := max(first-contextLines, start)
		to := min(last+contextLines+1, len(all))

		fmt.Fprintf(&out, "@@ -%d,%d +%d,%d @@\n",
			oldAt[from]+1, oldAt[to]-oldAt[from], newAt[from]+1, newAt[to]-newAt[from])
		for _, line := range all[from:to] {
			switch line.op {
			case diffmatchpatch.DiffInsert:
				out.WriteString("+")
			case diffmatchpatch.DiffDelete:
				out.WriteString("-")
			default:
				out.WriteString(" ")
			}
			out.WriteString(line.text)
			out.WriteString("\n")
		}
		start = to
	}
	return out.String()
}
