// Command hoppertalk is the interactive chat client. It binds a display
// name to the shared directory, replays the user's message history, tails
// live deliveries, and reads commands from stdin:
//
//	/add <name>       add a contact
//	/remove <name>    remove a contact
//	/contacts         list contacts
//	/send <name> <message...>
//	/quit
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	hoppertalk "github.com/hoppertalk/hoppertalk-go"
	"github.com/hoppertalk/hoppertalk-go/internal/config"
	"github.com/hoppertalk/hoppertalk-go/messaging"
)

func main() {
	var (
		name    string
		dataDir string
		queue   string
		verbose bool
	)

	pflag.StringVarP(&name, "name", "n", "", "display name to chat as (required)")
	pflag.StringVar(&dataDir, "data-dir", ".", "directory holding the users and messages files")
	pflag.StringVar(&queue, "queue", "", "listen on this queue instead of your own")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if name == "" {
		fmt.Fprintln(os.Stderr, "hoppertalk: --name is required")
		pflag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(name, dataDir, queue, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(name, dataDir, queue string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := hoppertalk.NewClient(
		hoppertalk.WithConfig(config.FromEnv()),
		hoppertalk.WithLogger(logger),
		hoppertalk.WithDataDir(dataDir),
		hoppertalk.WithRenderFunc(printMessage),
	)
	defer client.Close()

	if err := client.Initialize(ctx, name); err != nil {
		return err
	}
	user, err := client.User()
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s. Listening on %s.\n", user.Name, user.Queue)

	sub, err := client.Listen(ctx, queue)
	if err != nil {
		return err
	}

	go commandLoop(ctx, client, stop)

	select {
	case <-ctx.Done():
	case <-sub.Done():
	}
	return nil
}

func printMessage(r messaging.Rendered) {
	prefix := ""
	if r.FromHistory {
		prefix = "(history) "
	}
	fmt.Printf("%s[%s] %s: %s\n", prefix, r.SentAt.Local().Format("15:04:05"), r.Sender, r.Content)
}

func commandLoop(ctx context.Context, client *hoppertalk.Client, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			quit()
			return
		}
		if err := handleCommand(ctx, client, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	quit()
}

func handleCommand(ctx context.Context, client *hoppertalk.Client, line string) error {
	cmd := line
	rest := ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cmd, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch cmd {
	case "/add":
		if rest == "" {
			return fmt.Errorf("usage: /add <name>")
		}
		contact, added, err := client.AddContact(ctx, rest)
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("%s is already a contact\n", contact.Name)
			return nil
		}
		fmt.Printf("added %s\n", contact.Name)
		return nil

	case "/remove":
		if rest == "" {
			return fmt.Errorf("usage: /remove <name>")
		}
		if err := client.RemoveContact(ctx, rest); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", rest)
		return nil

	case "/contacts":
		contacts, err := client.Contacts(ctx)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			fmt.Println("no contacts yet")
			return nil
		}
		for _, c := range contacts {
			fmt.Printf("  %s\n", c.Name)
		}
		return nil

	case "/send":
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) < 2 {
			return fmt.Errorf("usage: /send <name> <message>")
		}
		return client.Send(ctx, parts[1], parts[0])

	default:
		return fmt.Errorf("unknown command %q (try /add, /remove, /contacts, /send, /quit)", cmd)
	}
}
