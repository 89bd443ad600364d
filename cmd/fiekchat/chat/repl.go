package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fiekai/fiekchat/cmd/fiekchat/cmdutil"
	"github.com/fiekai/fiekchat/pkg/cliui"
	"github.com/fiekai/fiekchat/pkg/conversation"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/shell"
	"github.com/fiekai/fiekchat/pkg/stream"
)

const replHelp = `Commands:
  /suggest [n]      List suggested questions, or ask number n
  /retry            Ask the last question again
  /lang [en|sq]     Show or switch the interface language
  /clear            Start a new conversation
  /help             Show this help
  /exit             Quit`

// repl is the line-oriented chat loop.
type repl struct {
	shell  *shell.Shell
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	printer *cmdutil.DeltaPrinter

	// suggesting is set after /suggest so that a bare number picks one.
	suggesting bool
}

func newREPL(sh *shell.Shell, in io.Reader, out io.Writer, l *slog.Logger) *repl {
	return &repl{shell: sh, in: in, out: out, logger: logger.OrNop(l), printer: cmdutil.NewDeltaPrinter(out)}
}

func (r *repl) run(ctx context.Context) error {
	r.printWelcome()
	fmt.Fprintf(r.out, "%s\n\n", cliui.DimStyle.Render("Type /help for commands, /exit to quit."))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprintf(r.out, "%s ", cliui.UserPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			fmt.Fprintln(r.out)
			select {
			case err := <-scanErr:
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
			default:
			}
			return nil
		}

		if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	if r.suggesting {
		r.suggesting = false
		if n, err := strconv.Atoi(line); err == nil {
			r.askSuggestion(ctx, n)
			return false
		}
	}

	if !strings.HasPrefix(line, "/") {
		r.turn(ctx, func(onUpdate func(stream.Update)) (conversation.Message, error) {
			return r.shell.Submit(ctx, line, onUpdate)
		})
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/exit", "/quit":
		return true

	case "/help":
		fmt.Fprintf(r.out, "%s\n\n", replHelp)

	case "/clear":
		r.shell.Conversation().Clear()
		fmt.Fprintf(r.out, "%s\n\n", cliui.DimStyle.Render("Started a new conversation."))
		r.printWelcome()

	case "/retry":
		r.turn(ctx, func(onUpdate func(stream.Update)) (conversation.Message, error) {
			return r.shell.Retry(ctx, onUpdate)
		})

	case "/lang":
		r.setLanguage(arg)

	case "/suggest":
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil {
				r.printError(fmt.Sprintf("Not a suggestion number: %s", arg))
				return false
			}
			r.askSuggestion(ctx, n)
			return false
		}
		r.listSuggestions()

	default:
		r.printError(fmt.Sprintf("Unknown command %s. Type /help for commands.", command))
	}

	return false
}

// turn runs one exchange and prints its reply.
func (r *repl) turn(ctx context.Context, submit func(func(stream.Update)) (conversation.Message, error)) {
	streaming := r.shell.Streaming()
	printer := r.printer
	printer.Reset()

	fmt.Fprintf(r.out, "%s ", cliui.AssistantPrompt)

	var (
		onUpdate  func(stream.Update)
		truncated bool
	)
	if streaming {
		onUpdate = func(u stream.Update) {
			truncated = truncated || u.Truncated
			printer.Print(u)
		}
	}

	msg, err := submit(onUpdate)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput), errors.Is(err, shell.ErrNoQuestion), errors.Is(err, conversation.ErrBusy):
		fmt.Fprintln(r.out)
		r.printError(err.Error())
		return

	case err != nil:
		if printer.Printed() {
			fmt.Fprintln(r.out)
		}
		r.logger.Debug("turn failed", logger.Err(err))
		fmt.Fprintf(r.out, "%s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(conversation.ErrorText(err)))
		return
	}

	if !streaming {
		fmt.Fprint(r.out, r.render(msg.Content))
	}
	fmt.Fprintln(r.out)

	if truncated {
		fmt.Fprintln(r.out, cliui.DimStyle.Render("(the reply ended before the server finished it)"))
	}
	fmt.Fprintln(r.out)
}

func (r *repl) render(text string) string {
	if !cliui.IsTerminal(r.out) {
		return text
	}

	rendered, err := cliui.RenderMarkdown(text, 0)
	if err != nil {
		r.logger.Debug("markdown rendering failed", logger.Err(err))
		return text
	}
	return "\n" + strings.Trim(rendered, "\n")
}

func (r *repl) setLanguage(code string) {
	if code == "" {
		lang := r.shell.Language()
		fmt.Fprintf(r.out, "%s (available: %s)\n\n",
			cliui.KeyValue("Language", lang.Name),
			strings.Join(conversation.LanguageCodes(), ", "),
		)
		return
	}

	if err := r.shell.SetLanguage(code); err != nil {
		r.printError(err.Error())
		return
	}
	fmt.Fprintf(r.out, "%s\n\n", cliui.KeyValue("Language", r.shell.Language().Name))
}

func (r *repl) listSuggestions() {
	suggestions := r.shell.Language().Suggestions
	for i, s := range suggestions {
		fmt.Fprintf(r.out, "  %s %s\n", cliui.KeyStyle.Render(strconv.Itoa(i+1)+"."), s)
	}
	fmt.Fprintf(r.out, "\n%s\n\n", cliui.DimStyle.Render("Type a number to ask it."))
	r.suggesting = true
}

func (r *repl) askSuggestion(ctx context.Context, n int) {
	suggestions := r.shell.Language().Suggestions
	if n < 1 || n > len(suggestions) {
		r.printError(fmt.Sprintf("Pick a suggestion between 1 and %d.", len(suggestions)))
		return
	}

	question := suggestions[n-1]
	fmt.Fprintf(r.out, "%s %s\n", cliui.UserPrompt, question)
	r.turn(ctx, func(onUpdate func(stream.Update)) (conversation.Message, error) {
		return r.shell.Submit(ctx, question, onUpdate)
	})
}

func (r *repl) printWelcome() {
	msgs := r.shell.Conversation().Messages()
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", cliui.AssistantPrompt, msgs[0].Content)
}

func (r *repl) printError(text string) {
	fmt.Fprintf(r.out, "%s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(text))
}
