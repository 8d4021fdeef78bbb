// Package main is the command-line entry point for VibeMusic.
//
// VibeMusic keeps a per-user music library (songs, playlists, recently played,
// search history) in a local store that survives restarts.
//
// Build:
//
//	go build -o build/vibemusic ./cmd
//
// Run:
//
//	./build/vibemusic [flags] [run|import|songs|search|login|logout|version] [args]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/tejashwikalptaru/vibemusic/internal/app"
	"github.com/tejashwikalptaru/vibemusic/internal/domain"
	"github.com/tejashwikalptaru/vibemusic/internal/service"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "vibemusic: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: vibemusic [flags] <command> [args]

Commands:
  run                     boot, autosave and watch the inbox until interrupted (default)
  import <file>...        add audio files to the library
  songs [-offline]        list the library
  search [-genre G] [-year Y] [-global] <query>
  login <email> [name]    switch to a user
  logout                  switch back to the guest
  version                 print version and exit

Flags:
`)
	flag.PrintDefaults()
}

func mainImpl() error {
	configPath := flag.String("config", "", "YAML config file (VIBEMUSIC_* environment variables override it)")
	store := flag.String("store", "", "Storage driver override: pebble or preferences")
	dataDir := flag.String("data", "", "Data directory override")
	link := flag.String("link", "", "Song id to open on boot, as from a shared link")
	flag.Usage = usage
	flag.Parse()

	command, args := "run", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "version" {
		fmt.Println(app.GetVersionInfo())
		return nil
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *store != "" {
		config.Store = *store
	}
	if *dataDir != "" {
		config.DataDir = *dataDir
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	// Ensure a graceful shutdown; this also saves state
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		}
	}()

	if err := application.Boot(ctx, *link); err != nil {
		return err
	}

	switch command {
	case "run":
		return run(ctx, application)
	case "import":
		return importFiles(ctx, application, args)
	case "songs":
		return listSongs(application, args)
	case "search":
		return search(ctx, application, args)
	case "login":
		return login(ctx, application, args)
	case "logout":
		application.Logout(ctx)
		fmt.Println("signed out; now", application.Session().Email())
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func run(ctx context.Context, application *app.Application) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	application.Logger().Info("running; press Ctrl+C to stop",
		slog.String("user", application.Session().Email()),
		slog.String("version", app.GetVersionInfo().String()))
	<-ctx.Done()

	if saved, ok := application.LastSave(); ok {
		application.Logger().Info("last autosave",
			slog.Time("at", saved.Timestamp()),
			slog.Bool("ok", saved.OK))
	}
	return nil
}

func importFiles(ctx context.Context, application *app.Application, paths []string) error {
	if len(paths) == 0 {
		return errors.New("import: no files given")
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var failed []string
	for _, path := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bar.Describe(shorten(path, 32))
		if _, err := application.Library().ImportFile(ctx, path); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", path, err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Printf("imported %d of %d files for %s\n", len(paths)-len(failed), len(paths), application.Session().Email())
	if len(failed) > 0 {
		return fmt.Errorf("import failed:\n  %s", strings.Join(failed, "\n  "))
	}
	return nil
}

func listSongs(application *app.Application, args []string) error {
	fs := flag.NewFlagSet("songs", flag.ContinueOnError)
	offline := fs.Bool("offline", false, "Only songs available offline")
	if err := fs.Parse(args); err != nil {
		return err
	}
	printSongs(application.Library().Songs(*offline))
	return nil
}

func search(ctx context.Context, application *app.Application, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	genre := fs.String("genre", domain.AllFilter, "Genre filter")
	year := fs.String("year", domain.AllFilter, "Release year filter")
	global := fs.Bool("global", false, "Also ask the metadata service")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")

	library := application.Library()
	printSongs(library.Search(service.Query{Text: text, Genre: *genre, Year: *year}))
	library.RecordSearch(ctx, text)

	if !*global {
		return nil
	}
	results, err := library.GlobalSearch(ctx, text)
	if err != nil {
		return fmt.Errorf("global search: %w", err)
	}
	fmt.Printf("\n%d global results\n", len(results))
	for _, r := range results {
		fmt.Printf("  %s - %s (%d)\n", r.Title, r.Artist, r.ReleaseYear)
	}
	return nil
}

func login(ctx context.Context, application *app.Application, args []string) error {
	if len(args) == 0 {
		return errors.New("login: email required")
	}
	profile := domain.UserProfile{Email: args[0], Name: strings.Join(args[1:], " ")}
	if err := application.Login(ctx, profile); err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%d songs)\n", application.Session().Email(), len(application.Library().Songs(false)))
	return nil
}

func printSongs(songs []domain.Song) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tGENRE\tYEAR\tOFFLINE\tFIXED")
	for _, s := range songs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%t\n", s.ID, s.Title, s.Artist, s.Genre, s.ReleaseYear, s.IsDownloaded, s.IsFixed)
	}
	_ = w.Flush()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}
