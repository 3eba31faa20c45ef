// llmkit is a command line client for OpenAI-compatible LLM APIs:
// chat completions, image generation, and file management.
//
// Usage:
//
//	llmkit chat "why is the sky blue?"        # one-shot chat
//	llmkit imagine -n 4 "a cat in space"      # generate and save images
//	llmkit files upload notes.txt             # upload a file
//	llmkit files ask --file file-abc "what is this about?"
//	llmkit version
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/config"
	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/client"
)

// Version info, injected at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(os.Args[2:])
	case "imagine":
		runImagine(os.Args[2:])
	case "files":
		runFiles(os.Args[2:])
	case "version":
		fmt.Printf("llmkit %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and the API client.
// Called by every subcommand after flag parsing.
func setup(configPath string) (*config.Config, *zap.Logger, *client.Client) {
	loader := config.NewLoader().WithValidator(config.Validate)
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fatal("Failed to load config: %v", err)
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		fatal("Failed to build logger: %v", err)
	}

	creds, err := llm.ResolveCredentials(cfg.API.APIKey)
	if err != nil {
		fatal("%v", err)
	}

	return cfg, logger, client.New(creds, cfg.ClientConfig(logger))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`llmkit - LLM API command line client

Usage:
  llmkit <command> [options] [arguments]

Commands:
  chat      Send a chat completion request
  imagine   Generate images from a prompt
  files     Upload and manage files
  version   Show version information
  help      Show this help message

Common options:
  --config <path>   Path to configuration file (YAML)

Environment:
  LLMKIT_API_KEY    API key (or XAI_API_KEY, or a .env file)
  LLMKIT_BASE_URL   Override the API endpoint

Run 'llmkit <command> -h' for command-specific options.`)
}
