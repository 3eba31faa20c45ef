package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/llm"
)

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	model := fs.String("model", "", "Chat model (default from config)")
	system := fs.String("system", "", "System prompt")
	stream := fs.Bool("stream", false, "Stream the response as it is generated")
	temperature := fs.Float64("temperature", 0, "Sampling temperature (0 uses the provider default)")
	maxTokens := fs.Int("max-tokens", 0, "Completion token limit (0 for provider default)")
	fs.Parse(args)

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		// No prompt argument: read it from stdin so the command pipes.
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			fatal("Failed to read prompt from stdin: %v", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		fatal("No prompt given. Usage: llmkit chat [options] <prompt>")
	}

	_, logger, c := setup(*configPath)
	defer logger.Sync()

	var messages []llm.Message
	if *system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: *system})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	req := &llm.ChatRequest{
		Model:       *model,
		Messages:    messages,
		Temperature: float32(*temperature),
		MaxTokens:   *maxTokens,
	}

	ctx := context.Background()
	if *stream {
		streamChat(ctx, c, req)
		return
	}

	result, err := c.ChatCompletion(ctx, req)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(result.Content)
	logger.Debug("chat done",
		zap.String("finish_reason", result.FinishReason),
		zap.Int("total_tokens", result.Usage.TotalTokens))
}

func streamChat(ctx context.Context, c chatStreamer, req *llm.ChatRequest) {
	ch, err := c.ChatStream(ctx, req)
	if err != nil {
		fatal("%v", err)
	}
	for chunk := range ch {
		if chunk.Err != nil {
			fmt.Fprintln(os.Stderr)
			fatal("%v", chunk.Err)
		}
		fmt.Print(chunk.Content)
	}
	fmt.Println()
}

type chatStreamer interface {
	ChatStream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error)
}
