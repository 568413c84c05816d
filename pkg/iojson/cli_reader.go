package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when nothing names a file and stdin is a terminal.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); pass a file or pipe JSON input")

// FileReader decodes one JSON document of type T. The source is, in order: a
// path argument, the --file flag, then stdin.
type FileReader[T any] struct {
	// Stdin replaces os.Stdin when set.
	Stdin io.Reader

	fileFlagValue string
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// Read decodes from the --file flag or stdin.
func (fr *FileReader[T]) Read() (T, error) {
	return fr.ReadPath("")
}

// ReadPath decodes from path, falling back to the --file flag and then stdin
// when path is empty. A path of "-" reads stdin.
func (fr *FileReader[T]) ReadPath(path string) (T, error) {
	var input T

	if path == "" {
		path = fr.fileFlagValue
	}

	var reader io.Reader
	switch path {
	case "", "-":
		r, err := fr.stdin(path == "-")
		if err != nil {
			return input, err
		}
		reader = r
	default:
		f, err := os.Open(path)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}
	return input, nil
}

func (fr *FileReader[T]) stdin(explicit bool) (io.Reader, error) {
	if fr.Stdin != nil {
		return fr.Stdin, nil
	}
	if !explicit && term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, ErrNoInput
	}
	return os.Stdin, nil
}
