package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/llmkit-go/llmkit/download"
	"github.com/llmkit-go/llmkit/llm"
)

func runImagine(args []string) {
	fs := flag.NewFlagSet("imagine", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	model := fs.String("model", "", "Image model (default from config)")

	var count int
	fs.IntVar(&count, "count", 0, "Number of images to generate (1-10)")
	fs.IntVar(&count, "n", 0, "Shorthand for --count")

	var output string
	fs.StringVar(&output, "output", "", "Output directory")
	fs.StringVar(&output, "o", "", "Shorthand for --output")

	var size string
	fs.StringVar(&size, "size", "", "Image size as WIDTHxHEIGHT, e.g. 1024x768")
	fs.StringVar(&size, "s", "", "Shorthand for --size")

	format := fs.String("format", "", "Response format: url or b64_json")
	fs.Parse(args)

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		fatal("No prompt given. Usage: llmkit imagine [options] <prompt>")
	}

	cfg, logger, c := setup(*configPath)
	defer logger.Sync()

	// Flags beat config file values. Only an absent count flag falls
	// back to the config default; an explicit bad value must fail
	// validation, not be rewritten.
	countSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "count" || f.Name == "n" {
			countSet = true
		}
	})
	if !countSet {
		count = cfg.Images.Count
	}
	if output == "" {
		output = cfg.Images.OutputDir
	}
	if size == "" {
		size = cfg.Images.Size
	}
	if *format == "" {
		*format = cfg.Images.ResponseFormat
	}

	result, err := c.GenerateImages(context.Background(), &llm.ImageRequest{
		Model:          *model,
		Prompt:         prompt,
		N:              count,
		Size:           size,
		ResponseFormat: *format,
	})
	if err != nil {
		fatal("%v", err)
	}

	saver, err := download.NewSaver(download.Config{
		Dir:         output,
		Concurrency: cfg.Images.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		fatal("%v", err)
	}

	outcomes := saver.SaveAll(context.Background(), result.Images, prompt)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "image %d: %v\n", o.Index+1, o.Err)
			continue
		}
		fmt.Println(o.Path)
	}
	if failed > 0 {
		fatal("%d of %d image(s) could not be saved", failed, len(outcomes))
	}
}
