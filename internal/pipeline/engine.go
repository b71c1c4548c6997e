package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"dagger.io/dagger"

	"github.com/nebulascloud/jaci/internal/golang"
	"github.com/nebulascloud/jaci/internal/models"
)

// sourceExcludes keeps build output and VCS metadata out of the
// containers so cache keys stay stable.
var sourceExcludes = []string{".git/", "dist/", "coverage/", "*.out"}

// Engine wraps a Dagger session and provides the shared container
// plumbing used by all pipeline stages.
type Engine struct {
	client *dagger.Client
	source string
}

// NewEngine connects to the Dagger engine and prepares a pipeline for
// the target project at sourcePath. Callers must Close it.
func NewEngine(ctx context.Context, sourcePath string, logOutput io.Writer) (*Engine, error) {
	client, err := dagger.Connect(ctx, dagger.WithLogOutput(logOutput))
	if err != nil {
		return nil, fmt.Errorf("connect to dagger engine: %w", err)
	}
	return &Engine{client: client, source: sourcePath}, nil
}

// Close shuts down the Dagger session.
func (e *Engine) Close() error {
	return e.client.Close()
}

// SourcePath returns the host path of the target project.
func (e *Engine) SourcePath() string {
	return e.source
}

// sourceDir loads the target project from the host.
func (e *Engine) sourceDir() *dagger.Directory {
	return e.client.Host().Directory(e.source, dagger.HostDirectoryOpts{
		Exclude: sourceExcludes,
	})
}

// base returns a toolchain container with the source mounted and the Go
// module and build caches attached. The image tag follows the target's
// go.mod directive.
func (e *Engine) base() *dagger.Container {
	return e.client.Container().
		From(golang.ToolchainImage(e.source)).
		WithMountedCache("/go/pkg/mod", e.client.CacheVolume("jaci-go-mod")).
		WithMountedCache("/root/.cache/go-build", e.client.CacheVolume("jaci-go-build")).
		WithDirectory("/src", e.sourceDir()).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// binaryName derives the target's binary name from its module path.
func (e *Engine) binaryName() string {
	a := golang.NewAnalyzer()
	mod, err := a.ModulePath(e.source)
	if err != nil || mod == "" {
		return "app"
	}
	return path.Base(mod)
}

// runCheck executes cmd in ctr and classifies the outcome. A nonzero
// exit becomes a failed check with the tool output attached; transport
// or engine failures become errors.
func runCheck(ctx context.Context, ctr *dagger.Container, tool string, cmd []string) models.CheckResult {
	start := time.Now()
	out, err := ctr.WithExec(cmd).Stdout(ctx)
	res := models.CheckResult{Tool: tool, Duration: time.Since(start)}
	if err != nil {
		var execErr *dagger.ExecError
		if errors.As(err, &execErr) {
			res.Status = models.CheckFail
			res.Output = execErr.Stdout + execErr.Stderr
		} else {
			res.Status = models.CheckError
			res.Output = err.Error()
		}
		return res
	}
	res.Status = models.CheckPass
	res.Output = out
	return res
}
