package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"dagger.io/dagger"
	"golang.org/x/sync/errgroup"

	"github.com/nebulascloud/jaci/internal/models"
)

// BuildOptions configures the build stage.
type BuildOptions struct {
	Environment   string // production, staging, development
	Registry      string
	Publish       bool   // push the production image to the registry
	OutputDir     string // host directory for build artifacts
	SkipImage     bool
	SkipPackages  bool
	SkipManifests bool
	SkipDocs      bool
}

// packagePlatforms is the release archive matrix.
var packagePlatforms = []struct {
	goos, goarch string
}{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
}

// RunBuild produces the production image, release packages, deployment
// manifests, documentation, and environment configs for the target
// project. Independent artifact builds run concurrently.
func (e *Engine) RunBuild(ctx context.Context, opts BuildOptions) (*models.BuildResult, error) {
	start := time.Now()
	if opts.Environment == "" {
		opts.Environment = "production"
	}

	res := &models.BuildResult{
		Success:     true,
		Environment: opts.Environment,
	}

	g, gctx := errgroup.WithContext(ctx)

	if !opts.SkipImage {
		g.Go(func() error {
			ref, err := e.buildImage(gctx, opts)
			if err != nil {
				return fmt.Errorf("build production image: %w", err)
			}
			res.ImageBuilt = true
			res.ImageRef = ref
			return nil
		})
	}
	if !opts.SkipPackages {
		g.Go(func() error {
			pkg, err := e.BuildPackages(gctx, filepath.Join(opts.OutputDir, "packages"))
			if err != nil {
				return fmt.Errorf("build release packages: %w", err)
			}
			res.PackagesGenerated = true
			res.ArtifactCount += pkg.ArchivesBuilt
			return nil
		})
	}
	if !opts.SkipManifests {
		g.Go(func() error {
			m, err := e.GenerateManifests(gctx, opts.Registry, filepath.Join(opts.OutputDir, "manifests"))
			if err != nil {
				return fmt.Errorf("generate manifests: %w", err)
			}
			res.ManifestsCreated = true
			res.ArtifactCount += m.ManifestCount
			return nil
		})
	}
	if !opts.SkipDocs {
		g.Go(func() error {
			d, err := e.GenerateDocs(gctx, filepath.Join(opts.OutputDir, "docs"))
			if err != nil {
				return fmt.Errorf("generate documentation: %w", err)
			}
			res.DocsGenerated = d.APIDocsGenerated
			res.ArtifactCount++
			return nil
		})
	}
	g.Go(func() error {
		if err := e.ExportConfigs(gctx, filepath.Join(opts.OutputDir, "configs")); err != nil {
			return fmt.Errorf("export environment configs: %w", err)
		}
		res.ArtifactCount += len(environments)
		return nil
	})

	if err := g.Wait(); err != nil {
		res.Success = false
		res.Duration = time.Since(start)
		return res, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// ProductionImage builds the hardened runtime image: static binary on a
// minimal base, running as a non-root user.
func (e *Engine) ProductionImage() *dagger.Container {
	bin := e.binaryName()
	builder := e.base().
		WithExec([]string{"go", "build", "-trimpath", "-ldflags", "-s -w", "-o", "/out/" + bin, "."})

	return e.client.Container().
		From("alpine:3.21").
		WithExec([]string{"addgroup", "-S", "app"}).
		WithExec([]string{"adduser", "-S", "-G", "app", "-h", "/app", "-s", "/sbin/nologin", "app"}).
		WithFile("/usr/local/bin/"+bin, builder.File("/out/"+bin)).
		WithWorkdir("/app").
		WithUser("app").
		WithLabel("org.opencontainers.image.title", bin).
		WithLabel("org.opencontainers.image.source", "https://github.com/nebulascloud/"+bin).
		WithExposedPort(8080).
		WithEntrypoint([]string{"/usr/local/bin/" + bin})
}

// buildImage forces evaluation of the production image and optionally
// publishes it.
func (e *Engine) buildImage(ctx context.Context, opts BuildOptions) (string, error) {
	img := e.ProductionImage()
	if opts.Publish {
		ref := fmt.Sprintf("%s/%s:latest", opts.Registry, e.binaryName())
		return img.Publish(ctx, ref)
	}
	if _, err := img.Sync(ctx); err != nil {
		return "", err
	}
	return "", nil
}

// BuildPackages cross-compiles the target for the release platform
// matrix and exports the archives to outputDir.
func (e *Engine) BuildPackages(ctx context.Context, outputDir string) (*models.PackageResult, error) {
	bin := e.binaryName()
	ctr := e.base().WithExec([]string{"mkdir", "-p", "/dist"})

	platforms := make([]string, 0, len(packagePlatforms))
	for _, p := range packagePlatforms {
		name := fmt.Sprintf("%s_%s_%s", bin, p.goos, p.goarch)
		ctr = ctr.
			WithEnvVariable("GOOS", p.goos).
			WithEnvVariable("GOARCH", p.goarch).
			WithExec([]string{"go", "build", "-trimpath", "-o", "/build/" + name + "/" + bin, "."}).
			WithExec([]string{"tar", "-czf", "/dist/" + name + ".tar.gz", "-C", "/build/" + name, bin})
		platforms = append(platforms, p.goos+"/"+p.goarch)
	}

	if _, err := ctr.Directory("/dist").Export(ctx, outputDir); err != nil {
		return nil, fmt.Errorf("export packages: %w", err)
	}
	return &models.PackageResult{
		ArchivesBuilt: len(packagePlatforms),
		Platforms:     platforms,
		OutputDir:     outputDir,
	}, nil
}
