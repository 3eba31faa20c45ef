// Package client composes the request builder, transport and decoder
// into the caller-facing API. Control flow is strictly linear per call:
// build, send, decode. The only state shared between calls is the
// transport's credential and connection configuration.
package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/decode"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/transport"
)

// Default models match the xAI endpoints the defaults target; callers
// against other OpenAI-compatible providers set their own.
const (
	DefaultChatModel  = "grok-4"
	DefaultImageModel = "grok-2-image"
)

// DefaultMaxConcurrency bounds batch operations (directory uploads,
// multi-image downloads).
const DefaultMaxConcurrency = 4

// Config tunes the client. Zero values fall back to defaults.
type Config struct {
	Transport      transport.Config
	ChatModel      string
	ImageModel     string
	MaxConcurrency int
	Logger         *zap.Logger
}

// Client is the composed LLM API client.
type Client struct {
	tr     transport.Doer
	cfg    Config
	logger *zap.Logger
}

// New builds a client with the production HTTP transport around the
// given credentials.
func New(creds llm.Credentials, cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Transport.Logger == nil {
		cfg.Transport.Logger = cfg.Logger
	}
	return newWith(transport.New(creds, cfg.Transport), cfg)
}

// NewWithTransport builds a client around an externally supplied
// transport. Tests use this to inject spies.
func NewWithTransport(tr transport.Doer, cfg Config) *Client {
	return newWith(tr, cfg)
}

func newWith(tr transport.Doer, cfg Config) *Client {
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		tr:     tr,
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("component", "client")),
	}
}

// ChatCompletion performs a synchronous chat completion.
func (c *Client) ChatCompletion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResult, error) {
	if req == nil {
		return nil, llm.Validationf("chat request is nil")
	}
	r := *req
	if r.Model == "" {
		r.Model = c.cfg.ChatModel
	}
	r.Stream = false

	enc, err := request.Chat(&r)
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	result, err := decode.Chat(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("chat completion",
		zap.String("model", r.Model),
		zap.Int("total_tokens", result.Usage.TotalTokens))
	return result, nil
}

// GenerateImages performs an image generation call. It returns the
// decoded URLs or base64 payloads; persisting them to disk is the
// download package's job.
func (c *Client) GenerateImages(ctx context.Context, req *llm.ImageRequest) (*llm.ImageResult, error) {
	if req == nil {
		return nil, llm.Validationf("image request is nil")
	}
	r := *req
	if r.Model == "" {
		r.Model = c.cfg.ImageModel
	}

	enc, err := request.Image(&r)
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	result, err := decode.Images(resp)
	if err != nil {
		return nil, err
	}
	if result.Model == "" {
		result.Model = r.Model
	}
	c.logger.Debug("images generated",
		zap.String("model", r.Model),
		zap.Int("count", len(result.Images)))
	return result, nil
}

// UploadFile uploads one local file with the given purpose tag.
func (c *Client) UploadFile(ctx context.Context, path, purpose string) (*llm.FileInfo, error) {
	enc, err := request.FileUpload(&llm.FileUploadRequest{Path: path, Purpose: purpose})
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	return decode.File(resp)
}

// ListFiles returns all uploaded files.
func (c *Client) ListFiles(ctx context.Context) (*llm.FileList, error) {
	resp, err := c.tr.Do(ctx, request.FileList())
	if err != nil {
		return nil, err
	}
	return decode.FileList(resp)
}

// GetFile returns metadata for one file.
func (c *Client) GetFile(ctx context.Context, id string) (*llm.FileInfo, error) {
	enc, err := request.FileGet(id)
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	return decode.File(resp)
}

// DeleteFile deletes one file.
func (c *Client) DeleteFile(ctx context.Context, id string) (*llm.FileDeleteResult, error) {
	enc, err := request.FileDelete(id)
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	return decode.FileDeleted(resp)
}

// DownloadFileContent returns the raw bytes of an uploaded file.
func (c *Client) DownloadFileContent(ctx context.Context, id string) ([]byte, error) {
	enc, err := request.FileContent(id)
	if err != nil {
		return nil, err
	}
	resp, err := c.tr.Do(ctx, enc)
	if err != nil {
		return nil, err
	}
	return decode.FileContent(resp)
}
