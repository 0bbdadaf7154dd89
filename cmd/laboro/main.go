package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/app"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	crawlPages      = flag.Int("pages", 0, "Listing pages to scan (crawl)")
	reindexRecreate = flag.Bool("recreate", false, "Delete and recreate the search index (reindex)")
	resetPost       = flag.String("post", "", "Post number to reset (reset)")
	resetTo         = flag.String("to", "pending", "Reset target status: pending or downloaded (reset)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: laboro [command] [flags]

Commands:
  serve     Run workers and the discovery scheduler (default)
  crawl     Run one discovery scan and exit
  reindex   Rebuild the search index from stored advertisements
  reset     Reset a record's status and re-enqueue its stage
  version   Print version information

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

// splitCommand peels the leading subcommand off the argument list; everything
// after it is parsed as flags. An empty or flag-like first argument selects
// the default serve command.
func splitCommand(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}
	return "serve", args
}

// run holds the real entrypoint so deferred cleanup survives the exit code
func run() int {
	command, args := splitCommand(os.Args[1:])

	flag.Usage = usage
	flag.CommandLine.Parse(args)

	if command == "version" || *showVersion || *showVersionV {
		fmt.Printf("Laboro version %s\n", common.GetFullVersion())
		return 0
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Auto-discover a config file next to the working directory
	if len(configFiles) == 0 {
		if _, err := os.Stat("laboro.toml"); err == nil {
			configFiles = append(configFiles, "laboro.toml")
		} else if _, err := os.Stat("deployments/local/laboro.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/laboro.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)
	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("command", command).
		Str("environment", config.Environment).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	switch command {
	case "serve":
		err = runServe(application)
	case "crawl":
		err = runCrawl(application)
	case "reindex":
		err = runReindex(application)
	case "reset":
		err = runReset(application)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage()
		return 2
	}

	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("Command failed")
		return 1
	}
	return 0
}

// runServe starts the queue workers and the discovery scheduler, then blocks
// until an interrupt arrives.
func runServe(application *app.App) error {
	if err := application.Indexer.EnsureIndex(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Search index unavailable at startup, documents will be pushed once it recovers")
	}

	if err := application.StartWorkers(); err != nil {
		return err
	}

	logger.Info().Msg("Workers running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
	return nil
}

// runCrawl performs one discovery scan; fetch and extract tasks queue up for
// the next serve run unless workers are started separately.
func runCrawl(application *app.App) error {
	pages := *crawlPages
	if pages <= 0 {
		pages = application.Config.Crawler.DefaultPages
	}

	result, err := application.Discovery.Scan(context.Background(), pages)
	if err != nil {
		return err
	}

	logger.Info().
		Int("pages_scanned", result.PagesScanned).
		Int("new_records", result.NewRecords).
		Msg("Discovery scan finished")
	fmt.Printf("Scanned %d pages, %d new postings queued\n", result.PagesScanned, result.NewRecords)
	return nil
}

// runReindex rebuilds the search index from stored advertisements
func runReindex(application *app.App) error {
	indexed, err := application.Indexer.Rebuild(
		context.Background(),
		application.Storage.Advertisements(),
		application.Storage.Organizations(),
		*reindexRecreate,
	)
	if err != nil {
		return err
	}

	fmt.Printf("Reindexed %d advertisements\n", indexed)
	return nil
}

// runReset forces a record back through the pipeline. The post number comes
// from -post or the remaining positional argument.
func runReset(application *app.App) error {
	postNumber := *resetPost
	if postNumber == "" {
		postNumber = flag.CommandLine.Arg(0)
	}
	if postNumber == "" {
		return fmt.Errorf("reset requires a post number (-post or positional argument)")
	}

	var target models.RawJobStatus
	switch *resetTo {
	case "pending":
		target = models.RawJobStatusPending
	case "downloaded":
		target = models.RawJobStatusDownloaded
	default:
		return fmt.Errorf("invalid reset target %q, use pending or downloaded", *resetTo)
	}

	if err := application.Processor.Reset(context.Background(), postNumber, target); err != nil {
		return err
	}

	fmt.Printf("Reset %s to %s\n", postNumber, target)
	return nil
}
