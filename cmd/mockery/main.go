package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mockery-backend/internal/client"
	"mockery-backend/internal/models"
)

const defaultServer = "http://localhost:8080"

type command struct {
	name  string
	usage string
	desc  string
	run   func(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error
	flags func(fs *flag.FlagSet)
}

var commands = []*command{
	{name: "list", usage: "mockery list", desc: "List stored pages, newest first.", run: runList},
	{name: "create", usage: "mockery create <name>", desc: "Create a page from the default template.", run: runCreate},
	{name: "delete", usage: "mockery delete <name>", desc: "Delete a page.", run: runDelete},
	{name: "edit", usage: "mockery edit -page <name> <message>", desc: "Stream one edit and print its events.", run: runEdit, flags: pageFlag},
	{name: "generate", usage: "mockery generate -page <name> <message>", desc: "Regenerate a page in one blocking call.", run: runGenerate, flags: pageFlag},
	{name: "watch", usage: "mockery watch -page <name>", desc: "Print every version change of a page.", run: runWatch, flags: watchFlags},
	{name: "chat", usage: "mockery chat -page <name>", desc: "Interactive editing session; reads one request per line.", run: runChat, flags: pageFlag},
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		printHelp(os.Stdout)
		return nil
	}

	var cmd *command
	for _, c := range commands {
		if c.name == os.Args[1] {
			cmd = c
		}
	}
	if cmd == nil {
		_, _ = fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		_, _ = fmt.Fprintln(os.Stderr, "Use 'mockery help' to see available commands.")
		return fmt.Errorf("unknown command %q", os.Args[1])
	}

	fs := flag.NewFlagSet(cmd.name, flag.ExitOnError)
	server := fs.String("server", envOr("MOCKERY_URL", defaultServer), "Mockery server URL")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s\n", cmd.usage)
		_, _ = fmt.Fprintf(os.Stderr, "\n%s\n\n", cmd.desc)
		_, _ = fmt.Fprintln(os.Stderr, "Options:")
		fs.PrintDefaults()
	}
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.run(ctx, client.New(*server, nil), fs, fs.Args())
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "mockery - edit HTML pages by describing changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.desc)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pageFlag(fs *flag.FlagSet) {
	fs.String("page", "", "page name")
}

func watchFlags(fs *flag.FlagSet) {
	pageFlag(fs)
	fs.Duration("interval", client.DefaultPollInterval, "poll interval")
}

func page(fs *flag.FlagSet) (string, error) {
	name := fs.Lookup("page").Value.String()
	if name == "" {
		return "", errors.New("-page is required")
	}
	return name, nil
}

func runList(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	pages, err := c.ListPages(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Println("No pages.")
		return nil
	}
	for _, p := range pages {
		fmt.Printf("%-30s %s\n", p.Name, time.Unix(p.Modified, 0).Format(time.DateTime))
	}
	return nil
}

func runCreate(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		fs.Usage()
		return errors.New("expected one page name")
	}
	name, err := c.CreatePage(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("✓ Created %s\n", name)
	return nil
}

func runDelete(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		fs.Usage()
		return errors.New("expected one page name")
	}
	if err := c.DeletePage(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %s\n", args[0])
	return nil
}

func runGenerate(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	name, err := page(fs)
	if err != nil {
		return err
	}
	resp, err := c.Generate(ctx, models.EditRequest{Page: name, Message: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s (version %s)\n", resp.Message, resp.Version)
	return nil
}

func runEdit(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	name, err := page(fs)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fs.Usage()
		return errors.New("expected a message")
	}
	_, err = client.NewSession(name).Send(ctx, c, strings.Join(args, " "), printEvent)
	return err
}

func runWatch(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	name, err := page(fs)
	if err != nil {
		return err
	}
	interval := fs.Lookup("interval").Value.(flag.Getter).Get().(time.Duration)

	p := client.NewPoller(c, client.NewSession(name), interval, func(v models.VersionInfo) {
		fmt.Printf("%s version %s\n", time.Now().Format(time.TimeOnly), v.Version)
	})
	err = p.Run(ctx, func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "poll: %v\n", err)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runChat shares one session between the input loop and a poller, so
// external changes are reported between requests but never during one.
func runChat(ctx context.Context, c *client.Client, fs *flag.FlagSet, args []string) error {
	name, err := page(fs)
	if err != nil {
		return err
	}
	session := client.NewSession(name)

	poller := client.NewPoller(c, session, client.DefaultPollInterval, func(v models.VersionInfo) {
		fmt.Printf("\n[page changed: %s]\n> ", v.Version)
	})
	if _, err := poller.Tick(ctx); err != nil {
		return err
	}
	go poller.Run(ctx, nil)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Printf("Editing %s. Empty line or Ctrl-D to quit.\n> ", name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "" {
				return nil
			}
			if _, err := session.Send(ctx, c, line, printEvent); err != nil {
				fmt.Printf("✗ %v\n", err)
			}
			fmt.Print("> ")
		}
	}
}

func printEvent(ev models.StreamEvent) {
	switch ev.Type {
	case models.EventStatus:
		fmt.Printf("… %s\n", ev.Message)
	case models.EventProgress:
		fmt.Print(".")
	case models.EventPatches:
		applied, skipped, failed := 0, 0, 0
		for _, r := range ev.Results {
			switch r.Status {
			case models.OpApplied:
				applied++
			case models.OpSkipped:
				skipped++
			default:
				failed++
			}
		}
		fmt.Printf("\n✓ %s (%d applied, %d skipped, %d failed)\n", ev.Summary, applied, skipped, failed)
	case models.EventFull:
		fmt.Printf("\n✓ Page regenerated (%d bytes, version %s)\n", len(ev.HTML), ev.Version)
	case models.EventError:
		fmt.Printf("\n✗ %s\n", ev.Error)
	}
}
