package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// CommandKind identifies a review command.
type CommandKind int

// Review commands.
const (
	CommandReclassify CommandKind = iota
	CommandFilter
	CommandList
	CommandHelp
	CommandDone
)

// Command is one parsed line of review input.
type Command struct {
	Argument string // category for reclassify, filter name for filter
	Kind     CommandKind
	Number   int
}

// ParseCommand parses a review line:
//
//	<n> <category>   reclassify record n
//	filter <name>    change the listing filter
//	list             show the listing again
//	help             show the commands
//	done             finish (also: q, quit, exit, empty line)
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CommandDone}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "done", "q", "quit", "exit":
		return Command{Kind: CommandDone}, nil
	case "list", "l", "ls":
		return Command{Kind: CommandList}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	case "filter", "f":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("filter needs a name")
		}
		return Command{Kind: CommandFilter, Argument: strings.Join(fields[1:], " ")}, nil
	}

	n, err := strconv.Atoi(strings.TrimPrefix(fields[0], "#"))
	if err != nil {
		return Command{}, fmt.Errorf("unrecognized command %q: type help for the list", fields[0])
	}
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("record %d needs a category", n)
	}
	return Command{Kind: CommandReclassify, Number: n, Argument: strings.Join(fields[1:], " ")}, nil
}

// Reviewer is the part of the engine the review loop drives.
type Reviewer interface {
	ClassificationsOf(ctx context.Context, identities []string) ([]model.Classification, error)
	Reclassify(ctx context.Context, identity string, raw string) (engine.Change, error)
}

// Prompter runs the interactive review loop.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
	filter Filter
}

// NewPrompter creates a review prompter. Nil reader and writer default to
// stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer, filter Filter) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	if filter == "" {
		filter = FilterAll
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
		filter: filter,
	}
}

// Review lists the records named by identities, numbered in that order, and
// applies corrections until the user is done. It returns the changes that
// moved a label, in the order made. Invalid input is reported and the loop
// continues.
func (p *Prompter) Review(ctx context.Context, r Reviewer, identities []string) ([]engine.Change, error) {
	list, err := r.ClassificationsOf(ctx, identities)
	if err != nil {
		return nil, err
	}
	if err := p.show(list); err != nil {
		return nil, err
	}
	p.printf("%s\n", p.help())

	var changes []engine.Change
	for {
		p.printf("%s", FormatPrompt("Reclassify"))

		line, err := p.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return changes, nil
		}
		if err != nil {
			return changes, err
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			p.printf("%s\n", FormatError(err.Error()))
			continue
		}

		switch cmd.Kind {
		case CommandDone:
			return changes, nil
		case CommandHelp:
			p.printf("%s\n", p.help())
		case CommandList:
			if list, err = r.ClassificationsOf(ctx, identities); err != nil {
				return changes, err
			}
			if err := p.show(list); err != nil {
				return changes, err
			}
		case CommandFilter:
			f, err := ParseFilter(cmd.Argument)
			if err != nil {
				p.printf("%s\n", FormatError(err.Error()))
				continue
			}
			p.filter = f
			if err := p.show(list); err != nil {
				return changes, err
			}
		case CommandReclassify:
			if cmd.Number < 1 || cmd.Number > len(list) {
				p.printf("%s\n", FormatError(fmt.Sprintf("no record #%d (1-%d)", cmd.Number, len(list))))
				continue
			}
			target := list[cmd.Number-1]

			change, err := r.Reclassify(ctx, target.Identity, cmd.Argument)
			if err != nil {
				p.printf("%s\n", FormatError(err.Error()))
				continue
			}
			if change.Changed() {
				changes = append(changes, change)
			}
			p.printf("%s\n", FormatSuccess(fmt.Sprintf("#%d is now %s", cmd.Number, DisplayFor(string(change.To)).Badge())))

			if list, err = r.ClassificationsOf(ctx, identities); err != nil {
				return changes, err
			}
			if err := p.show(list); err != nil {
				return changes, err
			}
		}
	}
}

func (p *Prompter) show(list []model.Classification) error {
	return RenderList(p.writer, Select(list, p.filter), p.filter)
}

func (p *Prompter) help() string {
	return SubtleStyle.Render("Type <n> <category> (urgent, readlater, ignore), filter <name>, list, or done.")
}

func (p *Prompter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, format, args...)
}
