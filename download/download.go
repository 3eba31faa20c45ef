// Package download persists generated images to local files. Items
// arrive either as provider-hosted URLs or as inline base64 payloads;
// both paths end in an atomic temp-file-then-rename write so a failed
// item never leaves a partial file behind.
package download

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llmkit-go/llmkit/internal/tlsutil"
	"github.com/llmkit-go/llmkit/llm"
)

// maxImageBytes caps a single fetched image. Generated images are a few
// megabytes at most; anything larger is a misbehaving endpoint.
const maxImageBytes = 64 << 20

// DefaultFetchTimeout bounds one image fetch.
const DefaultFetchTimeout = 60 * time.Second

// DefaultConcurrency bounds parallel fetches in SaveAll.
const DefaultConcurrency = 4

// Config tunes a Saver. Zero values fall back to defaults.
type Config struct {
	// Dir is the output directory. It is created if missing.
	Dir         string
	Concurrency int
	Logger      *zap.Logger
	// HTTPClient overrides the hardened default, mainly for tests.
	HTTPClient *http.Client
}

// Saver writes image items into a single output directory.
type Saver struct {
	dir    string
	client *http.Client
	conc   int
	logger *zap.Logger
}

// Outcome is the per-item result of SaveAll. Exactly one of Path and
// Err is set.
type Outcome struct {
	Index int
	Path  string
	Err   error
}

// NewSaver prepares the output directory and returns a Saver for it.
func NewSaver(cfg Config) (*Saver, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, llm.Validationf("cannot create output directory %q: %v", cfg.Dir, err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = tlsutil.SecureHTTPClient(DefaultFetchTimeout)
	}
	return &Saver{
		dir:    cfg.Dir,
		client: client,
		conc:   cfg.Concurrency,
		logger: cfg.Logger.With(zap.String("component", "download")),
	}, nil
}

// SaveAll persists every item of an image result with a bounded worker
// pool. One failed item never aborts the rest; its outcome carries the
// failure and no file is written for it.
func (s *Saver) SaveAll(ctx context.Context, images []llm.ImageData, prompt string) []Outcome {
	outcomes := make([]Outcome, len(images))
	stem := fmt.Sprintf("%s-%s", Slug(prompt), time.Now().Format("20060102-150405"))

	g := new(errgroup.Group)
	g.SetLimit(s.conc)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			name := stem
			if len(images) > 1 {
				name = fmt.Sprintf("%s-%d", stem, i+1)
			}
			path, err := s.Save(ctx, img, name)
			outcomes[i] = Outcome{Index: i, Path: path, Err: err}
			if err != nil {
				s.logger.Warn("image not saved", zap.Int("index", i), zap.Error(err))
			} else {
				s.logger.Info("image saved", zap.String("path", path))
			}
			return nil
		})
	}
	_ = g.Wait() // outcomes carry the per-item errors

	return outcomes
}

// Save persists one image item under the given name stem (extension is
// derived from the payload) and returns the final path.
func (s *Saver) Save(ctx context.Context, img llm.ImageData, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case img.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return "", llm.Decodef(err, "image payload is not valid base64")
		}
	case img.URL != "":
		data, err = s.fetch(ctx, img.URL)
		if err != nil {
			return "", err
		}
	default:
		return "", llm.Validationf("image item has neither url nor base64 payload")
	}

	path := s.uniquePath(name + extensionFor(data))
	if err := writeAtomic(path, data); err != nil {
		return "", llm.Transportf(err, "cannot write %q: %v", path, err)
	}
	return path, nil
}

func (s *Saver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, llm.Validationf("bad image url %q: %v", url, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, llm.Transportf(err, "image fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, llm.APIError(resp.StatusCode, fmt.Sprintf("image host returned status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, llm.Transportf(err, "image fetch interrupted: %v", err)
	}
	return data, nil
}

// uniquePath avoids clobbering an existing file by falling back to a
// uuid-suffixed name.
func (s *Saver) uniquePath(filename string) string {
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// extensionFor sniffs the payload's content type. Generated images are
// almost always JPEG, which doubles as the fallback.
func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Slug reduces a prompt to a short filesystem-safe name stem.
func Slug(prompt string) string {
	const maxLen = 40

	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(prompt) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteByte('-')
			lastDash = true
		}
		if sb.Len() >= maxLen {
			break
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}
