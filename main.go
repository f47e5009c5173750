package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tree-browser/scan"
	"tree-browser/tree"
	"tree-browser/workspace"
)

var (
	// Version information - these will be set at build time
	version   = "0.1.0"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type config struct {
	port       string
	relocation string
	seed       string
	leftDir    string
	rightDir   string
	journal    string
	static     string
	ids        string
	dragTTL    time.Duration
}

var cfg config

var rootCmd = &cobra.Command{
	Use:   "tree-browser",
	Short: "Serve a dual-pane file/folder tree browser",
	Long: `tree-browser keeps two independent file/folder trees in memory and serves them to
an embedding page over HTTP and WebSocket. Nodes can be renamed, deleted, created and
dragged within or across panes. Nothing is written to disk except the optional journal.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cfg)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the initial left and right trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		left, right, err := loadForests(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Left:")
		if err := tree.Fprint(out, left); err != nil {
			return err
		}
		fmt.Fprintln(out, "Right:")
		return tree.Fprint(out, right)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tree-browser version %s\n", version)
		fmt.Fprintf(out, "Build date: %s\n", buildDate)
		fmt.Fprintf(out, "Git commit: %s\n", gitCommit)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.port, "port", "8080", "Port to listen on")
	flags.StringVar(&cfg.relocation, "relocation", string(workspace.ModeCopy), "What a drop does: copy (source untouched, new ids) or move")
	flags.StringVar(&cfg.seed, "seed", "", "JSON file with the initial left and right trees (default: built-in sample trees)")
	flags.StringVar(&cfg.leftDir, "left-dir", "", "Import this directory's structure (names only) into the left pane")
	flags.StringVar(&cfg.rightDir, "right-dir", "", "Import this directory's structure (names only) into the right pane")
	flags.StringVar(&cfg.journal, "journal", "", "Append every operation to this JSONL file")
	flags.StringVar(&cfg.static, "static", "", "Directory of the embedding page's static assets, served under /static")
	flags.StringVar(&cfg.ids, "ids", "uuid", "Node id scheme: uuid or counter")
	flags.DurationVar(&cfg.dragTTL, "drag-ttl", workspace.DefaultDragTTL, "Abandon drag gestures that are not dropped within this time")

	rootCmd.AddCommand(serveCmd, dumpCmd, versionCmd)
}

// loadForests returns the initial trees: the seed file if any, otherwise the
// sample trees, with either side replaced by a scanned directory.
func loadForests(c config, progress io.Writer) (tree.Forest, tree.Forest, error) {
	left, right := tree.SampleLeft(), tree.SampleRight()
	if c.seed != "" {
		var err error
		if left, right, err = tree.LoadSeed(c.seed); err != nil {
			return nil, nil, err
		}
	}

	var err error
	if c.leftDir != "" {
		if left, err = scanForest(c.leftDir, "left", progress); err != nil {
			return nil, nil, err
		}
	}
	if c.rightDir != "" {
		if right, err = scanForest(c.rightDir, "right", progress); err != nil {
			return nil, nil, err
		}
	}
	return left, right, nil
}

func scanForest(dir, side string, progress io.Writer) (tree.Forest, error) {
	spinner := scan.NewProgressSpinner(progress, side)
	forest, err := scan.Forest(dir, side+":", 0, spinner)
	// Stop spinner regardless of error
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return forest, nil
}

func idGenerator(scheme string) (tree.IDGenerator, error) {
	switch scheme {
	case "uuid":
		return tree.UUIDGenerator{}, nil
	case "counter":
		return tree.NewCounterGenerator(1), nil
	}
	return nil, fmt.Errorf("unknown id scheme %q (must be uuid or counter)", scheme)
}

// newStore builds the workspace described by c. The journal is nil when
// c.journal is empty.
func newStore(c config) (*workspace.Store, *workspace.Journal, error) {
	mode, err := workspace.ParseMode(c.relocation)
	if err != nil {
		return nil, nil, err
	}
	ids, err := idGenerator(c.ids)
	if err != nil {
		return nil, nil, err
	}
	left, right, err := loadForests(c, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	store, err := workspace.New(workspace.Config{
		Left:    left,
		Right:   right,
		Mode:    mode,
		IDs:     ids,
		DragTTL: c.dragTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	var journal *workspace.Journal
	if c.journal != "" {
		journal, err = workspace.OpenJournal(c.journal)
		if err != nil {
			return nil, nil, err
		}
		store.Subscribe(journal.Record)
	}
	return store, journal, nil
}

func serve(c config) error {
	store, journal, err := newStore(c)
	if err != nil {
		return err
	}
	if journal != nil {
		log.Printf("Journal: %s", journal.Path())
	}
	if c.seed != "" {
		log.Printf("Seeded trees from: %s", c.seed)
	}
	for side, dir := range map[string]string{"left": c.leftDir, "right": c.rightDir} {
		if dir != "" {
			log.Printf("Imported %s pane from: %s", side, dir)
		}
	}
	log.Printf("Relocation mode: %s", store.Mode())

	srv := newServer(store, c.static)

	// Setup signal handler for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on :%s\n", c.port)
		if c.static != "" {
			log.Printf("Static files served from: %s", c.static)
		}
		if err := srv.app.Listen(":" + c.port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	<-sigChan
	log.Println("Received interrupt signal, waiting for in-progress operations...")

	srv.opsInProgress.Wait()
	log.Println("All operations completed")

	log.Println("Shutting down...")
	return srv.app.ShutdownWithTimeout(5 * time.Second)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
