package repo

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/yanizio/gitconf/internal/errs"
)

// headerPrefixes are the diff-metadata line prefixes stripped by
// CommitChanges, per spec.md §4.8. Hunk headers ("@@ ... @@") and content
// lines are always preserved.
//
// Known limitation (spec.md §9): this is a prefix match that does not track
// hunk boundaries, so a content line that looks like a header is stripped
// too: a removed line whose text begins with "-- " appears as "--- ..." and
// an added line whose text begins with "++ " appears as "+++ ...".
var headerPrefixes = []string{
	"diff --git",
	"index ",
	"--- ",
	"+++ ",
	"new file mode",
	"deleted file mode",
	"similarity index",
	"rename from",
	"rename to",
	"copy from",
	"copy to",
}

// CommitChanges computes the unified diff for commit against its first
// parent (or against an empty tree for a root commit), strips diff-header
// lines while preserving hunk headers and content, and returns the cleaned
// text alongside the commit's metadata (spec.md §4.8).
func (h *Handle) CommitChanges(commitID string) (CommitRecord, string, error) {
	commit, err := h.CommitByID(commitID)
	if err != nil {
		return CommitRecord{}, "", err
	}

	var raw string
	if commit.NumParents() == 0 {
		raw, err = rootCommitDiff(commit)
	} else {
		parent, perr := commit.Parent(0)
		if perr != nil {
			return CommitRecord{}, "", errs.Wrap(errs.CodeGitDiffFailed, 500, "failed to load parent commit", perr)
		}
		patch, derr := parent.Patch(commit)
		if derr != nil {
			return CommitRecord{}, "", errs.Wrap(errs.CodeGitDiffFailed, 500, "failed to compute patch", derr)
		}
		raw = patch.String()
	}
	if err != nil {
		return CommitRecord{}, "", err
	}

	return toRecord(commit), stripDiffHeaders(raw), nil
}

// rootCommitDiff synthesizes a unified diff showing every file in the root
// commit's tree as a full addition, since there is no parent tree to diff
// against.
func rootCommitDiff(commit *object.Commit) (string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return "", errs.Wrap(errs.CodeGitDiffFailed, 500, "failed to load commit tree", err)
	}

	var b strings.Builder
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	for {
		name, entry, err := walker.Next()
		if err != nil {
			break // io.EOF signals the walk is complete
		}
		if !entry.Mode.IsFile() {
			continue
		}
		content, cerr := fileContent(tree, name)
		if cerr != nil {
			continue
		}

		lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", name, name)
		b.WriteString("new file mode 100644\n")
		fmt.Fprintf(&b, "index 0000000..%s\n", entry.Hash.String()[:7])
		b.WriteString("--- /dev/null\n")
		fmt.Fprintf(&b, "+++ b/%s\n", name)
		fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
		for _, line := range lines {
			b.WriteString("+" + line + "\n")
		}
	}
	return b.String(), nil
}

func fileContent(tree *object.Tree, name string) (string, error) {
	f, err := tree.File(name)
	if err != nil {
		return "", err
	}
	return f.Contents()
}

// stripDiffHeaders removes lines beginning with any of headerPrefixes while
// preserving hunk headers and all other content lines (spec.md §4.8).
func stripDiffHeaders(raw string) string {
	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "@@") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		if hasAnyPrefix(line, headerPrefixes) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
