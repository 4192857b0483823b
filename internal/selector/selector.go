// Package selector implements the minimal interactive selection UI spec.md
// §1 lists only as an external collaborator interface. No fuzzy-match
// library exists anywhere in the retrieval pack (no bubbletea, promptui, or
// fzf binding), so rather than inventing a UI technology the pack never
// shows, Prompt satisfies the control.Channels contract end-to-end with the
// simplest real thing: candidates are numbered as they stream in, and a
// line of stdin names the chosen index.
package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ubuntu/snapview/internal/control"
	"github.com/ubuntu/snapview/internal/i18n"
	"github.com/ubuntu/snapview/internal/record"
)

// ErrNoSelection is returned when in closes (EOF, or the user enters
// nothing) before a valid index is read.
var ErrNoSelection = errors.New(i18n.G("no selection made"))

// Prompt numbers SelectionCandidates as they arrive on items, printing each
// to out, and reads one line from in naming the chosen index. It closes
// hangup as soon as it stops reading — whether because a selection was
// made, in hit EOF, or ctx was cancelled — so the producer feeding items
// stops promptly instead of enumerating a tree nobody is watching anymore.
func Prompt(ctx context.Context, items <-chan control.SelectionCandidate, hangup control.Hangup, in io.Reader, out io.Writer) (record.PathRecord, error) {
	defer close(hangup)

	var candidates []control.SelectionCandidate

	type lineResult struct {
		line string
		err  error
	}
	lineCh := make(chan lineResult, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			lineCh <- lineResult{line: scanner.Text()}
			return
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		lineCh <- lineResult{err: err}
	}()

	for {
		select {
		case <-ctx.Done():
			return record.PathRecord{}, ctx.Err()

		case res := <-lineCh:
			if res.err != nil {
				return record.PathRecord{}, fmt.Errorf("%w: %v", ErrNoSelection, res.err)
			}
			if strings.TrimSpace(res.line) == "" {
				return record.PathRecord{}, ErrNoSelection
			}
			return resolve(candidates, res.line)

		case cand, ok := <-items:
			if !ok {
				// Enumeration finished; keep waiting on stdin for the
				// user's choice among what already arrived.
				items = nil
				continue
			}
			candidates = append(candidates, cand)
			printCandidate(out, len(candidates)-1, cand)
		}
	}
}

func printCandidate(out io.Writer, idx int, cand control.SelectionCandidate) {
	marker := ""
	if cand.IsPhantom {
		marker = i18n.G(" (deleted)")
	}
	fmt.Fprintf(out, "%3d) %s%s\n", idx, cand.Path.Path, marker)
}

func resolve(candidates []control.SelectionCandidate, line string) (record.PathRecord, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 0 || idx >= len(candidates) {
		return record.PathRecord{}, fmt.Errorf(i18n.G("%q is not a valid selection"), line)
	}
	return candidates[idx].Path, nil
}
