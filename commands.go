package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mrdg/unison/audio"
	"github.com/mrdg/unison/script"
)

type env struct {
	ctx       context.Context
	engine    *audio.Engine
	params    *audio.Params
	out       io.Writer
	underruns func() uint64 // nil without a playback device
	stats     atomic.Pointer[audio.Stats]
}

// observe keeps the latest render stats for the status command.
func (e *env) observe(s audio.Stats) error {
	e.stats.Store(&s)
	return nil
}

func (e *env) eval(input string) (string, error) {
	command, err := script.Parse(input)
	if err != nil {
		return "", err
	}
	return e.exec(command)
}

func (e *env) exec(command script.Command) (string, error) {
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			if errors.Is(err, errQuit) {
				return "", err
			}
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

type command struct {
	name  string
	help  string
	run   func(*env, []script.Node) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"note", "note <0-127>: play a key, 49 is A4", noteCommand, 1},
		{"freq", "freq <hz>: set the base frequency", freqCommand, 1},
		{"amp", "amp <0-1>: set the amplitude", ampCommand, 1},
		{"wave", "wave <sine|square|tri|saw>: set the waveform", waveCommand, 1},
		{"set", "set <prop> <value>: set any property", setCommand, 2},
		{"get", "get <prop>: show a property", getCommand, 1},
		{"preset", "preset <name>: load a preset", presetCommand, 1},
		{"presets", "presets: list presets", presetsCommand, 0},
		{"start", "start: resume rendering", startCommand, 0},
		{"stop", "stop: pause rendering", stopCommand, 0},
		{"frame", "frame: show the playback position", frameCommand, 0},
		{"status", "status: show the engine state", statusCommand, 0},
		{"help", "help: list commands", helpCommand, 0},
		{"quit", "quit: stop the engine and exit", quitCommand, 0},
	}
}

func noteCommand(env *env, args []script.Node) (string, error) {
	var note int
	if err := readArgs(args, &note); err != nil {
		return "", err
	}
	if err := env.params.SetNote(note); err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2fHz", audio.NoteToFrequency(note)), nil
}

func freqCommand(env *env, args []script.Node) (string, error) {
	var hz float64
	if err := readArgs(args, &hz); err != nil {
		return "", err
	}
	return "", env.params.SetFrequency(float32(hz))
}

func ampCommand(env *env, args []script.Node) (string, error) {
	var amp float64
	if err := readArgs(args, &amp); err != nil {
		return "", err
	}
	return "", env.params.SetAmplitude(float32(amp))
}

func waveCommand(env *env, args []script.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	wave, err := audio.ParseWaveform(name)
	if err != nil {
		return "", err
	}
	return "", env.params.SetWaveform(wave)
}

func setCommand(env *env, args []script.Node) (string, error) {
	var prop string
	if err := readArgs(args[:1], &prop); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case script.Int:
		return "", env.params.Set(prop, int(v))
	case script.Float:
		return "", env.params.Set(prop, float64(v))
	case script.String:
		return "", env.params.Set(prop, string(v))
	case script.Identifier:
		return "", env.params.Set(prop, string(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []script.Node) (string, error) {
	var prop string
	if err := readArgs(args, &prop); err != nil {
		return "", err
	}
	v, err := env.params.Get(prop)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func presetsCommand(env *env, args []script.Node) (string, error) {
	return strings.Join(audio.Presets(), " "), nil
}

func presetCommand(env *env, args []script.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.params)
}

func startCommand(env *env, args []script.Node) (string, error) {
	return "", env.engine.Start(env.ctx)
}

func stopCommand(env *env, args []script.Node) (string, error) {
	env.engine.Stop()
	env.engine.Wait()
	return "", nil
}

func frameCommand(env *env, args []script.Node) (string, error) {
	return fmt.Sprintf("%d (%v)", env.engine.Frame(), env.engine.CurrentTime()), nil
}

func statusCommand(env *env, args []script.Node) (string, error) {
	var b strings.Builder
	renderStatus(env.status(), &b)
	return strings.TrimRight(b.String(), "\n"), nil
}

func helpCommand(env *env, args []script.Node) (string, error) {
	lines := make([]string, 0, len(commands))
	for _, cmd := range commands {
		lines = append(lines, cmd.help)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func quitCommand(env *env, args []script.Node) (string, error) {
	return "", errQuit
}

func readArgs(args []script.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case script.String:
				*p = string(s)
			case script.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case script.Float:
				*p = float64(v)
			case script.Int:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(script.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
