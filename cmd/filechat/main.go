package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/addness-teambase/ai-file-search/internal/config"
	"github.com/addness-teambase/ai-file-search/internal/executor"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/intent"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
	"github.com/addness-teambase/ai-file-search/internal/router"
	"github.com/addness-teambase/ai-file-search/internal/search"
)

const version = "1.1.0"

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "filechat",
	Short: "filechat - conversational search and organization for your documents",
	Long: `filechat watches your Desktop, Documents and Downloads folders and lets
you talk to them: search by meaning, list recent files, reorganize a
folder, or gather search results into one place.

Every AI feature degrades gracefully: with no API key or no network the
tool falls back to local keyword search and fixed prompts.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if apiKey != "" {
			cfg.LLM.APIKey = apiKey
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Init(level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// searchCmd runs a single search and exits
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the watched folders once and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		r, _ := buildRouter(ctx)
		reply := r.Handle(ctx, "find "+strings.Join(args, " "))
		printReply(reply)
		return nil
	},
}

// scanCmd walks the watched folders and reports what is indexed
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the watched folders and report the indexed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix := index.New(cfg.Index)
		files := ix.Scan()
		fmt.Printf("%d file(s) indexed under %s\n", len(files), strings.Join(ix.Roots(), ", "))
		for i, f := range files {
			if i == 20 {
				fmt.Printf("... and %d more\n", len(files)-20)
				break
			}
			fmt.Printf("  %s  (%s, %d bytes)\n", f.Path, f.ModTime.Format("2006-01-02 15:04"), f.Size)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the filechat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filechat %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// offlineClient stands in when no API key is configured; every call fails
// so each feature runs on its local fallback.
type offlineClient struct{}

func (offlineClient) Generate(context.Context, llm.Request) (string, error) {
	return "", fmt.Errorf("%w: no API key configured", llm.ErrTransport)
}

func buildRouter(ctx context.Context) (*router.Router, *index.Index) {
	logger := logging.Named("main")

	var client llm.Client
	if cfg.LLM.APIKey == "" {
		logger.Warn("no API key configured, AI features run on local fallbacks")
		client = offlineClient{}
	} else {
		gem, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
		})
		if err != nil {
			logger.Warn("language service unavailable, running on local fallbacks")
			client = offlineClient{}
		} else {
			client = llm.NewRetrying(gem, cfg.LLM.MaxAttempts)
		}
	}

	ix := index.New(cfg.Index)
	pipeline := search.NewPipeline(ix, client, cfg.Search)
	classifier := intent.NewClassifier(client)
	return router.New(ix, pipeline, classifier, client, executor.New(ix)), ix
}

func runChat() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, ix := buildRouter(ctx)

	watcher, err := index.NewWatcher(ix)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Printf("filechat %s. Watching: %s\n", version, strings.Join(ix.Roots(), ", "))
	fmt.Println(`Ask me anything about your files. Built-ins: "cd <folder>", "ls", "exit".`)

	scanner := bufio.NewScanner(os.Stdin)
	activeFolder := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		switch {
		case line == "exit" || line == "quit":
			fmt.Println("Bye.")
			return nil
		case line == "ls":
			printListing(ix, activeFolder)
			continue
		case strings.HasPrefix(line, "cd "):
			target := strings.TrimSpace(strings.TrimPrefix(line, "cd "))
			activeFolder = changeFolder(ix, activeFolder, target)
			r.SetActiveFolder(activeFolder)
			continue
		}

		printReply(r.Handle(ctx, line))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("stdin: %w", err)
	}
	return nil
}

func printReply(reply router.Reply) {
	fmt.Println(reply.Text)
	for i, res := range reply.Results {
		kind := strings.ToUpper(res.Extension)
		if res.IsFolder {
			kind = "folder"
		}
		fmt.Printf("%d. %s [%s]\n   %s\n   %s\n", i+1, res.Name, kind, res.Path, res.Summary)
	}
	if reply.Mode != "" {
		fmt.Printf("(search mode: %s)\n", reply.Mode)
	}
}

func printListing(ix *index.Index, folder string) {
	if folder == "" {
		for _, node := range ix.Tree() {
			fmt.Printf("%s/\n", node.Path)
			for _, child := range node.Children {
				fmt.Printf("  %s/\n", child.Name)
			}
		}
		return
	}
	listing := ix.ListChildren(folder)
	for _, f := range listing.Folders {
		fmt.Printf("  %s/\n", f.Name)
	}
	for _, f := range listing.Files {
		fmt.Printf("  %s\n", f.Name)
	}
}

// changeFolder resolves target against the watched roots and the current
// folder's children. Returns the previous folder when nothing matches.
func changeFolder(ix *index.Index, current, target string) string {
	if target == ".." || target == "/" || target == "~" {
		fmt.Println("Back at the top.")
		return ""
	}
	for _, root := range ix.Roots() {
		if strings.EqualFold(target, root) || strings.EqualFold(target, filepath.Base(root)) {
			fmt.Printf("Now in %s\n", root)
			return root
		}
	}
	if current != "" {
		for _, f := range ix.ListChildren(current).Folders {
			if strings.EqualFold(f.Name, target) {
				fmt.Printf("Now in %s\n", f.Path)
				return f.Path
			}
		}
	}
	for _, f := range ix.ScanFolders() {
		if strings.EqualFold(f.Name, target) {
			fmt.Printf("Now in %s\n", f.Path)
			return f.Path
		}
	}
	fmt.Printf("No folder called %q here.\n", target)
	return current
}
