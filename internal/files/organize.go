package files

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"qc-analytics/internal/logging"
	"qc-analytics/internal/workers"
)

// maxCopyWorkers caps the organize copy pool.
const maxCopyWorkers = 16

// Organize categories.
const (
	CategoryRetouch = "retouch"
	CategoryRetake  = "retake"
	CategoryWrong   = "wrong"
)

// OrganizeRequest lists the files to gather into one output folder.
type OrganizeRequest struct {
	Directory    string
	OutputFolder string
	RetouchFiles []string
	RetakeFiles  []string
	WrongFiles   []string
}

// OrganizeResult summarizes an Organize run. The per-category counts are
// the number of files requested, not the number copied.
type OrganizeResult struct {
	OutputPath string
	Copied     int
	Retouch    int
	Retake     int
	Wrong      int
	Errors     []string
}

// Summary renders the result the way the review UI displays it.
func (r OrganizeResult) Summary() string {
	return fmt.Sprintf("Files organized successfully: %d files copied (%d Retouch, %d Retake, %d Wrong)",
		r.Copied, r.Retouch, r.Retake, r.Wrong)
}

type copyJob struct {
	category string
	source   string
}

// Organize copies every listed file flat into <Directory>/<OutputFolder>.
// Only a failure to create the output folder or a cancelled context is
// returned as an error; individual copy failures are logged and collected
// in the result.
func Organize(ctx context.Context, req OrganizeRequest) (OrganizeResult, error) {
	result := OrganizeResult{
		OutputPath: filepath.Join(req.Directory, req.OutputFolder),
		Retouch:    len(req.RetouchFiles),
		Retake:     len(req.RetakeFiles),
		Wrong:      len(req.WrongFiles),
	}

	if err := CreateDirectory(result.OutputPath); err != nil {
		return result, fmt.Errorf("failed to create output folder: %w", err)
	}

	// Jobs sharing a file name write the same destination. Each name is
	// handled by one worker in request order, so the last listed copy wins
	// (wrong over retake over retouch).
	var order []string
	byName := make(map[string][]copyJob)
	for _, list := range []struct {
		category string
		paths    []string
	}{
		{CategoryRetouch, req.RetouchFiles},
		{CategoryRetake, req.RetakeFiles},
		{CategoryWrong, req.WrongFiles},
	} {
		for _, p := range list.paths {
			name := filepath.Base(p)
			if _, seen := byName[name]; !seen {
				order = append(order, name)
			}
			byName[name] = append(byName[name], copyJob{category: list.category, source: p})
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForIO(maxCopyWorkers))

	for _, name := range order {
		if gctx.Err() != nil {
			break
		}
		jobs := byName[name]
		g.Go(func() error {
			destination := filepath.Join(result.OutputPath, name)
			for _, job := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}

				err := copyContents(job.source, destination)
				observe().ObserveCopy(job.category, err)

				mu.Lock()
				if err != nil {
					msg := fmt.Sprintf("Failed to copy %s: %v", name, err)
					logging.Warn("%s", msg)
					result.Errors = append(result.Errors, msg)
				} else {
					logging.Debug("Copied: %s -> %s", job.source, destination)
					result.Copied++
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if len(result.Errors) > 0 {
		logging.Warn("Organize finished with %d errors in %s", len(result.Errors), result.OutputPath)
	}
	logging.Info("%s", result.Summary())

	return result, nil
}
