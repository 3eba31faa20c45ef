package client

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llmkit-go/llmkit/llm"
)

// UploadOutcome is the per-item result of a batch upload. Exactly one of
// Info and Err is set.
type UploadOutcome struct {
	Path string
	Info *llm.FileInfo
	Err  error
}

// UploadDir uploads every regular file in dir (non-recursive, dotfiles
// skipped) with a bounded worker pool. A failed item never aborts the
// rest: each outcome carries its own result or failure, so callers see
// partial success as exactly that, never as an aggregate boolean.
//
// Cancellation stops new uploads from being issued; in-flight ones
// surface their own context errors in their outcome slots.
func (c *Client) UploadDir(ctx context.Context, dir, purpose string) ([]UploadOutcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, llm.Validationf("cannot read directory %q: %v", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, llm.Validationf("no files found in %q", dir)
	}

	// Each goroutine owns exactly one outcome slot; no slot is shared.
	outcomes := make([]UploadOutcome, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(c.cfg.MaxConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				outcomes[i] = UploadOutcome{
					Path: path,
					Err:  llm.Transportf(ctxErr, "upload canceled: %v", ctxErr),
				}
				return nil
			}
			info, uploadErr := c.UploadFile(ctx, path, purpose)
			outcomes[i] = UploadOutcome{Path: path, Info: info, Err: uploadErr}
			if uploadErr != nil {
				c.logger.Warn("upload failed",
					zap.String("path", path),
					zap.Error(uploadErr))
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; outcomes carry them

	return outcomes, nil
}
