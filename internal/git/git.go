package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is a file touched by the working tree diff.
type ChangedFile struct {
	// Path is relative to the repository root.
	Path         string
	ChangedLines []int
}

// chunkHeader matches "@@ -oldStart,oldLen +newStart,newLen @@"; only the + part is kept.
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ChangedFiles runs git diff in dir against baseRef and returns the files still present in
// the working tree, with their changed line numbers.
func ChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "-U0", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseDiff(output)
}

// TopLevel returns the root of the repository containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ChangedPaths returns the absolute paths of changed files accepted by match.
func ChangedPaths(ctx context.Context, dir, baseRef string, match func(string) bool) ([]string, error) {
	top, err := TopLevel(ctx, dir)
	if err != nil {
		return nil, err
	}
	changes, err := ChangedFiles(ctx, top, baseRef)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, change := range changes {
		path := filepath.Join(top, filepath.FromSlash(change.Path))
		if match == nil || match(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile
	var currentFile *ChangedFile

	flush := func() {
		if currentFile != nil && currentFile.Path != "" {
			changes = append(changes, *currentFile)
		}
		currentFile = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			flush()
			// a/path/to/file b/path/to/file: the b/ path is the new version
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		// Deleted files have nothing left to check.
		if line == "+++ /dev/null" {
			currentFile.Path = ""
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) > 1 {
				startLine, _ := strconv.Atoi(matches[1])
				count := 1 // Default length is 1 if omitted
				if len(matches) > 2 && matches[2] != "" {
					count, _ = strconv.Atoi(matches[2])
				}
				// A zero count is a pure deletion: no line of the new file changed.
				for i := 0; i < count; i++ {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
				}
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read git diff: %w", err)
	}
	return changes, nil
}
