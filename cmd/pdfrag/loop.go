package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// loop reads one question per line from in and writes each answer to out
// until in is exhausted or ctx is done. A failed question is reported on
// errOut and the loop carries on.
func loop(ctx context.Context, in io.Reader, out io.Writer, errOut io.Writer, ask func(ctx context.Context, query string) (string, error)) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "\n Your question: ")

		var line string
		var ok bool

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n Goodbye!")
			return nil
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(out, "\n Goodbye!")
				return nil
			}
		}

		query := strings.TrimSpace(line)
		if len(query) == 0 {
			continue
		}

		answer, err := ask(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "\n Goodbye!")
				return nil
			}
			fmt.Fprintf(errOut, "\n Error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n Answer: %s\n", answer)
	}
}
