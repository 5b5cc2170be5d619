// Package wordlist reads the line-oriented lists redisbrute consumes:
// target lists, username lists and password wordlists.
package wordlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Read loads a list file. Lines are trimmed and empty lines/comments are skipped.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return words, nil
}

// Scan streams r line by line into fn without trimming, so passwords keep
// leading and trailing whitespace. Line terminators (LF or CRLF) are removed.
// Lines that are not valid UTF-8 are skipped. Scan stops early when ctx is done.
func Scan(ctx context.Context, r io.Reader, fn func(line string)) error {
	br := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			// A final chunk without a terminator is still a line, but a
			// trailing newline does not produce an extra empty one.
			if utf8.ValidString(line) && !(errors.Is(err, io.EOF) && line == "") {
				fn(line)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
