package pipeline

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nebulascloud/jaci/internal/models"
)

// QualityOptions configures the code quality stage.
type QualityOptions struct {
	Sequential bool
}

// RunQuality runs formatting, vet, static analysis, and security checks
// against the target project. Checks run in parallel unless Sequential
// is set; results are merged after all checks complete.
func (e *Engine) RunQuality(ctx context.Context, opts QualityOptions) (*models.QualityResult, error) {
	start := time.Now()

	checks := []struct {
		tool string
		fn   func(context.Context) models.CheckResult
	}{
		{"gofmt", e.checkFormat},
		{"go vet", e.checkVet},
		{"staticcheck", e.checkStaticcheck},
		{"gosec", e.checkSecurity},
	}

	results := make([]models.CheckResult, len(checks))
	if opts.Sequential {
		for i, c := range checks {
			results[i] = c.fn(ctx)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range checks {
			g.Go(func() error {
				results[i] = c.fn(gctx)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := &models.QualityResult{
		Success:  true,
		Checks:   results,
		Duration: time.Since(start),
	}
	for _, c := range results {
		if c.Status == models.CheckFail || c.Status == models.CheckError {
			res.Success = false
		}
	}
	return res, nil
}

// checkFormat runs gofmt in list mode. gofmt exits zero even when files
// need formatting, so any listed file is a failure.
func (e *Engine) checkFormat(ctx context.Context) models.CheckResult {
	start := time.Now()
	out, err := e.base().WithExec([]string{"gofmt", "-l", "."}).Stdout(ctx)
	res := models.CheckResult{Tool: "gofmt", Duration: time.Since(start)}
	if err != nil {
		res.Status = models.CheckError
		res.Output = err.Error()
		return res
	}
	if strings.TrimSpace(out) != "" {
		res.Status = models.CheckFail
		res.Output = "files need formatting:\n" + out
		return res
	}
	res.Status = models.CheckPass
	return res
}

func (e *Engine) checkVet(ctx context.Context) models.CheckResult {
	return runCheck(ctx, e.base(), "go vet", []string{"go", "vet", "./..."})
}

func (e *Engine) checkStaticcheck(ctx context.Context) models.CheckResult {
	ctr := e.base().
		WithExec([]string{"go", "install", "honnef.co/go/tools/cmd/staticcheck@latest"})
	return runCheck(ctx, ctr, "staticcheck", []string{"staticcheck", "./..."})
}

// checkSecurity runs gosec. Findings are reported as warnings rather
// than failures so advisory scan results do not block the stage.
func (e *Engine) checkSecurity(ctx context.Context) models.CheckResult {
	ctr := e.base().
		WithExec([]string{"go", "install", "github.com/securego/gosec/v2/cmd/gosec@latest"})
	res := runCheck(ctx, ctr, "gosec", []string{"gosec", "-quiet", "./..."})
	if res.Status == models.CheckFail {
		res.Status = models.CheckWarning
	}
	return res
}
