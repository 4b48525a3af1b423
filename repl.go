package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/unison/script"
)

func repl(ctx context.Context, env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	// Readline blocks on stdin; closing it is the only way to interrupt.
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == io.EOF {
			return errQuit
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := env.eval(line)
		switch {
		case errors.Is(err, errQuit):
			return err
		case errors.Is(err, script.ErrEmpty):
		case err != nil:
			fmt.Fprintln(env.out, err)
		case result != "":
			fmt.Fprintln(env.out, result)
		}
	}
}

// runStdin executes commands piped to the process and keeps the engine
// playing afterwards until the session is cancelled.
func runStdin(ctx context.Context, env *env) error {
	type parsed struct {
		commands []script.Command
		err      error
	}
	done := make(chan parsed, 1)
	go func() {
		commands, err := script.ParseScript(os.Stdin)
		done <- parsed{commands, err}
	}()

	var p parsed
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p = <-done:
	}
	if p.err != nil {
		return fmt.Errorf("stdin: %w", p.err)
	}
	for _, cmd := range p.commands {
		result, err := env.exec(cmd)
		if err != nil {
			if errors.Is(err, errQuit) {
				return err
			}
			return fmt.Errorf("stdin line %d: %w", cmd.Line, err)
		}
		if result != "" {
			fmt.Fprintln(env.out, result)
		}
	}
	<-ctx.Done()
	return ctx.Err()
}
