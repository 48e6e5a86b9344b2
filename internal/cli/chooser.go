package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/domain/model"
	"golang.org/x/term"
)

const choicePrompt = "Choose action: [o]verwrite, [r]ename, [s]kip: "

// lineReader reads one answer after showing prompt.
type lineReader func(prompt string) (string, error)

// newConflictChooser asks on the terminal how to resolve a schema conflict.
// When interactive is false the load is skipped.
func newConflictChooser(out io.Writer, read lineReader, interactive bool) chatsheet.ConflictChooser {
	return func(_ context.Context, table string, report *model.ConflictReport) (model.ConflictAction, error) {
		_, _ = fmt.Fprintf(out, "Schema conflict detected for table %s:\n", table)
		for _, detail := range report.Conflicts {
			_, _ = fmt.Fprintf(out, "- %s\n", detail)
		}
		if !interactive {
			_, _ = fmt.Fprintln(out, "Not a terminal, skipping. Use --on-conflict to choose an action.")
			return model.ActionSkip, nil
		}

		answer, err := read(choicePrompt)
		if err != nil {
			return "", fmt.Errorf("reading conflict choice: %w", err)
		}
		return parseChoice(answer), nil
	}
}

// parseChoice maps an answer to an action; anything unrecognized skips.
func parseChoice(answer string) model.ConflictAction {
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.HasPrefix(answer, "o"):
		return model.ActionOverwrite
	case strings.HasPrefix(answer, "r"):
		return model.ActionRename
	default:
		return model.ActionSkip
	}
}

// stdinIsTerminal reports whether standard input is an interactive terminal.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readerLines reads answers line by line from in.
func readerLines(in io.Reader, out io.Writer) lineReader {
	scanner := bufio.NewScanner(in)
	return func(prompt string) (string, error) {
		_, _ = fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return scanner.Text(), nil
	}
}

// commandChooser builds the chooser for one-shot commands.
func commandChooser(in io.Reader, out io.Writer) chatsheet.ConflictChooser {
	return newConflictChooser(out, readerLines(in, out), stdinIsTerminal())
}
