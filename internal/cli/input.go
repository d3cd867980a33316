package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the document given by --data or --file. A file of "-"
// reads stdin.
func readInput(data, file string, stdin io.Reader) ([]byte, error) {
	switch {
	case data != "" && file != "":
		return nil, NewExitError(ExitCommandError, "--data and --file are mutually exclusive")
	case data != "":
		return []byte(data), nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read stdin", withCode(ErrCodeBadInput, err))
		}
		return b, nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			code := ErrCodeBadInput
			if os.IsNotExist(err) {
				code = ErrCodeNotFound
			}
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", file), withCode(code, err))
		}
		return b, nil
	default:
		return nil, NewExitError(ExitCommandError, "one of --data or --file is required")
	}
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
