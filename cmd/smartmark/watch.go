package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartmark/smartmark/live"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch and edit your bookmark collection live",
	Long: "Keeps a live view of the collection: the list reprints whenever a bookmark is added or removed, from this machine or any other session.\n" +
		"Commands: add <title> <url>, rm <id>, retry, signin [provider], signout, quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		engine := live.New(c, c, c, nil)
		engine.OnChange = func(snap live.Snapshot) {
			if !snap.Initialized {
				return
			}
			if snap.Identity == nil {
				fmt.Println("-- not signed in --")
				return
			}
			fmt.Printf("-- %s, %d bookmarks --\n", snap.Identity.Email, len(snap.Bookmarks))
			for _, b := range snap.Bookmarks {
				fmt.Printf("%s  %s  %s\n", b.ID, b.Title, b.URL)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- engine.Run(ctx)
		}()

		err := runConsole(ctx, engine, os.Stdin, os.Stdout)
		cancel()

		if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		return err
	},
}

// watchEngine is the slice of live.Engine the console drives.
type watchEngine interface {
	Add(ctx context.Context, title string, url string) error
	Remove(ctx context.Context, id string) error
	SignIn(ctx context.Context, provider string) error
	SignOut(ctx context.Context) error
}

// runConsole reads edit commands until quit or EOF. A failed add keeps
// its title/url pending so `retry` can resubmit without re-typing; the
// pending input is cleared only when the add succeeds.
func runConsole(ctx context.Context, engine watchEngine, in io.Reader, out io.Writer) error {
	var pendingTitle, pendingURL string

	submit := func(title string, url string) {
		if err := engine.Add(ctx, title, url); err != nil {
			pendingTitle, pendingURL = title, url
			fmt.Fprintf(out, "add failed: %v (input kept, 'retry' to resubmit)\n", err)
			return
		}
		pendingTitle, pendingURL = "", ""
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit":
			return nil
		case "add":
			if len(fields) < 3 {
				fmt.Fprintln(out, "usage: add <title> <url>")
				continue
			}
			// the url is the last field; everything between is the title
			title := strings.Join(fields[1:len(fields)-1], " ")
			submit(title, fields[len(fields)-1])
		case "retry":
			if pendingTitle == "" && pendingURL == "" {
				fmt.Fprintln(out, "nothing to retry")
				continue
			}
			submit(pendingTitle, pendingURL)
		case "rm":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: rm <id>")
				continue
			}
			if err := engine.Remove(ctx, fields[1]); err != nil {
				fmt.Fprintf(out, "rm failed: %v\n", err)
			}
		case "signin":
			provider := "google"
			if len(fields) == 2 {
				provider = fields[1]
			}
			// the browser flow cannot run in-process; the engine reports
			// what the user has to do
			if err := engine.SignIn(ctx, provider); err != nil {
				fmt.Fprintln(out, err)
			}
		case "signout":
			if err := engine.SignOut(ctx); err != nil {
				fmt.Fprintf(out, "signout failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "signed out ('smartmark logout' discards the stored token)")
		default:
			fmt.Fprintf(out, "unknown command %q (add, rm, retry, signin, signout, quit)\n", fields[0])
		}
	}
	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
