package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/llmkit-go/llmkit/llm"
)

func runFiles(args []string) {
	if len(args) < 1 {
		printFilesUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "upload":
		runFilesUpload(args[1:])
	case "upload-dir":
		runFilesUploadDir(args[1:])
	case "list":
		runFilesList(args[1:])
	case "get":
		runFilesGet(args[1:])
	case "delete":
		runFilesDelete(args[1:])
	case "content":
		runFilesContent(args[1:])
	case "ask":
		runFilesAsk(args[1:])
	case "help", "-h", "--help":
		printFilesUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown files subcommand: %s\n", args[0])
		printFilesUsage()
		os.Exit(1)
	}
}

func runFilesUpload(args []string) {
	fs := flag.NewFlagSet("files upload", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	purpose := fs.String("purpose", "", "Upload purpose tag")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal("Usage: llmkit files upload [options] <path>")
	}

	cfg, logger, c := setup(*configPath)
	defer logger.Sync()
	if *purpose == "" {
		*purpose = cfg.Files.Purpose
	}

	info, err := c.UploadFile(context.Background(), fs.Arg(0), *purpose)
	if err != nil {
		fatal("%v", err)
	}
	printFileInfo(info)
}

func runFilesUploadDir(args []string) {
	fs := flag.NewFlagSet("files upload-dir", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	purpose := fs.String("purpose", "", "Upload purpose tag")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal("Usage: llmkit files upload-dir [options] <directory>")
	}

	cfg, logger, c := setup(*configPath)
	defer logger.Sync()
	if *purpose == "" {
		*purpose = cfg.Files.Purpose
	}

	outcomes, err := c.UploadDir(context.Background(), fs.Arg(0), *purpose)
	if err != nil {
		fatal("%v", err)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", o.Path, o.Err)
			continue
		}
		fmt.Printf("%s  %s\n", o.Info.ID, o.Path)
	}
	if failed > 0 {
		fatal("%d of %d file(s) failed to upload", failed, len(outcomes))
	}
}

func runFilesList(args []string) {
	fs := flag.NewFlagSet("files list", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	list, err := c.ListFiles(context.Background())
	if err != nil {
		fatal("%v", err)
	}
	if len(list.Data) == 0 {
		fmt.Println("No files uploaded.")
		return
	}
	for _, info := range list.Data {
		fmt.Printf("%-30s  %10d bytes  %-12s  %s\n",
			info.ID, info.Bytes, info.Purpose, info.Filename)
	}
}

func runFilesGet(args []string) {
	fs := flag.NewFlagSet("files get", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal("Usage: llmkit files get [options] <file-id>")
	}

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	info, err := c.GetFile(context.Background(), fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	printFileInfo(info)
}

func runFilesDelete(args []string) {
	fs := flag.NewFlagSet("files delete", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal("Usage: llmkit files delete [options] <file-id>")
	}

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	res, err := c.DeleteFile(context.Background(), fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	if !res.Deleted {
		fatal("Provider did not confirm deletion of %s", res.ID)
	}
	fmt.Printf("Deleted %s\n", res.ID)
}

func runFilesContent(args []string) {
	fs := flag.NewFlagSet("files content", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	var output string
	fs.StringVar(&output, "output", "", "Write content to this path instead of stdout")
	fs.StringVar(&output, "o", "", "Shorthand for --output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal("Usage: llmkit files content [options] <file-id>")
	}

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	data, err := c.DownloadFileContent(context.Background(), fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}
	if output == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		fatal("Failed to write %s: %v", output, err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), output)
}

// stringList collects repeated --file flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runFilesAsk(args []string) {
	fs := flag.NewFlagSet("files ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	var fileIDs stringList
	fs.Var(&fileIDs, "file", "File ID to ask about (repeatable)")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" || len(fileIDs) == 0 {
		fatal("Usage: llmkit files ask --file <file-id> [--file <file-id>...] <question>")
	}

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	result, err := c.AskAboutFiles(context.Background(), fileIDs, question)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(result.Content)
}

func printFileInfo(info *llm.FileInfo) {
	fmt.Printf("ID:       %s\n", info.ID)
	fmt.Printf("Filename: %s\n", info.Filename)
	fmt.Printf("Bytes:    %d\n", info.Bytes)
	fmt.Printf("Purpose:  %s\n", info.Purpose)
	if info.CreatedAt > 0 {
		fmt.Printf("Created:  %s\n", time.Unix(info.CreatedAt, 0).Format(time.RFC3339))
	}
}

func printFilesUsage() {
	fmt.Println(`Usage: llmkit files <subcommand> [options] [arguments]

Subcommands:
  upload <path>          Upload one file
  upload-dir <dir>       Upload every file in a directory
  list                   List uploaded files
  get <file-id>          Show file metadata
  delete <file-id>       Delete a file
  content <file-id>      Print or save file content
  ask <question>         Ask a question about uploaded files (--file)`)
}
