package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/lequel/pkg/catalog"
	"github.com/umputun/lequel/pkg/config"
	"github.com/umputun/lequel/pkg/csvstore"
	"github.com/umputun/lequel/pkg/langid"
	"github.com/umputun/lequel/pkg/repository"
	"github.com/umputun/lequel/pkg/text"
	"github.com/umputun/lequel/pkg/trigram"
	"github.com/umputun/lequel/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"lequel.yml" description:"configuration file"`

	Identify IdentifyCmd `command:"identify" description:"identify the language of text files"`
	Add      AddCmd      `command:"add" description:"build a language profile from corpus files"`
	Import   struct{}    `command:"import" description:"copy CSV profiles of configured languages into the database"`
	List     ListCmd     `command:"list" description:"list catalog languages"`
	Delete   DeleteCmd   `command:"delete" description:"remove a language profile from the database"`
	Server   struct{}    `command:"server" description:"run HTTP API"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// IdentifyCmd options
type IdentifyCmd struct {
	Workers int  `short:"w" long:"workers" description:"files identified concurrently, overrides config"`
	Verbose bool `short:"v" long:"verbose" description:"print similarity for every language"`
	Args    struct {
		Files []string `positional-arg-name:"FILE" required:"1" description:"text files, - for stdin"`
	} `positional-args:"yes" required:"yes"`
}

// AddCmd options
type AddCmd struct {
	Code  string `long:"code" required:"true" description:"language code"`
	Name  string `long:"name" description:"language name"`
	Out   string `short:"o" long:"out" description:"output CSV file, defaults to <catalog dir>/<code>.csv"`
	DB    bool   `long:"db" description:"store the profile in the database"`
	Merge bool   `long:"merge" description:"add counts to the stored profile instead of replacing it"`
	Args  struct {
		Files []string `positional-arg-name:"CORPUS" required:"1" description:"corpus text files"`
	} `positional-args:"yes" required:"yes"`
}

// ListCmd options
type ListCmd struct {
	DB bool `long:"db" description:"list languages stored in the database instead of the catalog"`
}

// DeleteCmd options
type DeleteCmd struct {
	Code string `long:"code" required:"true" description:"language code"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	log.Printf("[DEBUG] starting lequel version %s, command %s", revision, parser.Active.Name)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts, parser.Active.Name, os.Stdout)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %s failed: %v", parser.Active.Name, err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the command with loaded configuration, output goes to out
func run(ctx context.Context, opts Opts, command string, out io.Writer) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "identify":
		return runIdentify(ctx, cfg, opts.Identify, out)
	case "add":
		return runAdd(ctx, cfg, opts.Add, out)
	case "import":
		return runImport(ctx, cfg, out)
	case "list":
		if opts.List.DB {
			return runListDB(ctx, cfg, out)
		}
		return runList(ctx, cfg, out)
	case "delete":
		return runDelete(ctx, cfg, opts.Delete, out)
	case "server":
		return runServer(ctx, cfg, opts.Debug)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIdentify(ctx context.Context, cfg *config.Config, cmd IdentifyCmd, out io.Writer) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	reader := text.NewReader(text.Options{Encoding: cfg.Text.Encoding, MaxLineSize: cfg.Text.MaxLineSize})

	workers := cfg.Identify.Workers
	if cmd.Workers > 0 {
		workers = cmd.Workers
	}

	type fileResult struct {
		result langid.Result
		scores []langid.Score
	}
	results := make([]fileResult, len(cmd.Args.Files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range cmd.Args.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			txt, err := reader.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read text: %w", err)
			}
			res, scores, err := langid.Analyze(txt, cat)
			if err != nil {
				return fmt.Errorf("identify %s: %w", file, err)
			}
			lgr.Printf("[DEBUG] %s identified as %s", file, res)
			results[i].result = res
			if cmd.Verbose {
				results[i].scores = scores
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	codeColor := color.New(color.FgGreen)
	for i, file := range cmd.Args.Files {
		res := results[i].result
		if res.Matched() {
			fmt.Fprintf(out, "%s: %s (%f)\n", file, codeColor.Sprint(res.Code), res.Score)
		} else {
			fmt.Fprintf(out, "%s: %s\n", file, res.Code)
		}
		for _, s := range results[i].scores {
			fmt.Fprintf(out, "  similarity with %s = %f\n", s.Code, s.Similarity)
		}
	}
	return nil
}

func runAdd(ctx context.Context, cfg *config.Config, cmd AddCmd, out io.Writer) error {
	reader := text.NewReader(text.Options{Encoding: cfg.Text.Encoding, MaxLineSize: cfg.Text.MaxLineSize})

	profile := trigram.Profile{}
	for _, file := range cmd.Args.Files {
		corpus, err := reader.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}
		p, err := langid.BuildLanguageProfile(corpus)
		if err != nil {
			return fmt.Errorf("build profile from %s: %w", file, err)
		}
		lgr.Printf("[DEBUG] %s: %d distinct trigrams", file, len(p))
		profile.Add(p)
	}
	if len(profile) == 0 {
		return fmt.Errorf("corpus of %s: %w", cmd.Code, trigram.ErrEmptyProfile)
	}

	if cmd.DB {
		repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer repos.Close()

		lang := repository.Language{Code: cmd.Code, Name: cmd.Name}
		if cmd.Merge {
			err = repos.Profile.MergeProfile(ctx, lang, profile)
		} else {
			err = repos.Profile.SaveProfile(ctx, lang, profile)
		}
		if err != nil {
			return fmt.Errorf("store profile: %w", err)
		}
		fmt.Fprintf(out, "%s: %d trigrams stored in database\n", cmd.Code, len(profile))
	}

	if cmd.Out != "" || !cmd.DB {
		path := cmd.Out
		if path == "" {
			path = catalog.NewCSVSource(cfg.Catalog.Dir, cfg.Catalog.Languages).Path(cmd.Code)
		}
		if err := csvstore.WriteProfile(path, profile); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
		fmt.Fprintf(out, "%s: %d trigrams written to %s\n", cmd.Code, len(profile), path)
	}
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, out io.Writer) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	src := catalog.NewCSVSource(cfg.Catalog.Dir, cfg.Catalog.Languages)
	for _, l := range cfg.Catalog.Languages {
		profile, err := src.LoadProfile(ctx, l.Code)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", l.Code, err)
		}
		if err := repos.Profile.SaveProfile(ctx, repository.Language{Code: l.Code, Name: l.Name}, profile); err != nil {
			return fmt.Errorf("store profile %s: %w", l.Code, err)
		}
		fmt.Fprintf(out, "%s: %d trigrams imported from %s\n", l.Code, len(profile), src.Path(l.Code))
	}
	return nil
}

func runList(ctx context.Context, cfg *config.Config, out io.Writer) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	for i, lp := range cat {
		fmt.Fprintf(out, "%s\t%s\t%d\n", lp.Code(), cfg.Catalog.Languages[i].Name, lp.Trigrams())
	}
	return nil
}

func runListDB(ctx context.Context, cfg *config.Config, out io.Writer) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	langs, err := repos.Profile.Languages(ctx)
	if err != nil {
		return fmt.Errorf("list languages: %w", err)
	}
	for _, l := range langs {
		fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", l.Code, l.Name, l.Trigrams, l.UpdatedAt.Format(time.DateTime))
	}
	return nil
}

func runDelete(ctx context.Context, cfg *config.Config, cmd DeleteCmd, out io.Writer) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := repos.Profile.DeleteLanguage(ctx, cmd.Code); err != nil {
		return fmt.Errorf("delete language: %w", err)
	}
	fmt.Fprintf(out, "%s: deleted from database\n", cmd.Code)
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, debug bool) error {
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	lgr.Printf("[INFO] catalog loaded, %d languages", len(cat))

	srv := server.New(cfg, NewCatalogIdentifier(cat), revision, debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Print("[INFO] shutdown complete")
	return nil
}

// loadCatalog builds the catalog from the configured source
func loadCatalog(ctx context.Context, cfg *config.Config) (langid.Catalog, error) {
	var src catalog.Source = catalog.NewCSVSource(cfg.Catalog.Dir, cfg.Catalog.Languages)
	if cfg.Catalog.Source == config.SourceSQLite {
		repos, err := openRepositories(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer repos.Close()
		src = repos.Profile
	}

	cat, err := catalog.Load(ctx, src, cfg.Catalog.Languages)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, error) {
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repos, nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
