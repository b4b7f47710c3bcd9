package syncclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"partyrooms/internal/domain"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command - строка, введенная игроком в терминале
type Command struct {
	Action *domain.ActionInput
	Chat   string
	Quit   bool
}

// ParseCommand понимает "kill 2", "vote 0", "raise 120", "fold", "say текст", "quit"
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "quit", "exit", "q":
		return Command{Quit: true}, nil
	case "say", "chat":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return Command{}, fmt.Errorf("%w: say needs text", ErrUnknownCommand)
		}
		return Command{Chat: text}, nil
	case "check":
		// без цели это check в покере, с целью - проверка детектива
		if len(args) == 0 {
			return action(domain.ActionPass), nil
		}
		return targeted(domain.ActionCheck, args)
	case "kill", "heal", "vote":
		return targeted(domain.ActionKind(verb), args)
	case "fold", "pass", "call":
		return action(domain.ActionKind(verb)), nil
	case "allin", "all_in", "all-in":
		return action(domain.ActionAllIn), nil
	case "raise", "bet":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: raise needs an amount", ErrUnknownCommand)
		}
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("%w: bad amount %q", ErrUnknownCommand, args[0])
		}
		cmd := action(domain.ActionRaise)
		cmd.Action.Amount = amount
		return cmd, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, verb)
}

func action(kind domain.ActionKind) Command {
	return Command{Action: &domain.ActionInput{Kind: kind}}
}

func targeted(kind domain.ActionKind, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("%w: %s needs a seat", ErrUnknownCommand, kind)
	}
	seat, err := strconv.Atoi(args[0])
	if err != nil || seat < 0 {
		return Command{}, fmt.Errorf("%w: bad seat %q", ErrUnknownCommand, args[0])
	}
	cmd := action(kind)
	cmd.Action.Target = &seat
	return cmd, nil
}
