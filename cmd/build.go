package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
)

var (
	buildEnv           string
	buildRegistry      string
	buildPublish       bool
	buildOutputDir     string
	buildSkipImage     bool
	buildSkipPackages  bool
	buildSkipManifests bool
	buildSkipDocs      bool
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build production artifacts in containers",
	Long: `Run the build stage: hardened production image, cross-platform
release packages, compose and Kubernetes manifests, documentation,
and environment configuration files. Independent artifacts build
concurrently.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildRun(cmd.Context(), args)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildEnv, "env", "", "Target environment: production, staging, development (default from config)")
	buildCmd.Flags().StringVar(&buildRegistry, "registry", "", "Container registry for image references (default from config)")
	buildCmd.Flags().BoolVar(&buildPublish, "publish", false, "Push the production image to the registry")
	buildCmd.Flags().StringVar(&buildOutputDir, "output", "", "Host directory for artifacts (default from config)")
	buildCmd.Flags().BoolVar(&buildSkipImage, "skip-image", false, "Skip the production image")
	buildCmd.Flags().BoolVar(&buildSkipPackages, "skip-packages", false, "Skip release packages")
	buildCmd.Flags().BoolVar(&buildSkipManifests, "skip-manifests", false, "Skip deployment manifests")
	buildCmd.Flags().BoolVar(&buildSkipDocs, "skip-docs", false, "Skip documentation")
	rootCmd.AddCommand(buildCmd)
}

func buildRun(ctx context.Context, args []string) error {
	eng, err := newEngine(ctx, args...)
	if err != nil {
		return err
	}
	defer eng.Close()

	opts := buildOptions()
	if dryRun {
		ui.DryRunMsg("Would build %s artifacts to %s (registry %s)", opts.Environment, opts.OutputDir, opts.Registry)
		return nil
	}

	res, err := eng.RunBuild(ctx, opts)
	if err != nil {
		return fmt.Errorf("build stage: %w", err)
	}

	printBuildResult(res)
	recordStageRun(ctx, models.StageBuild, res.Success, 0, res.Duration, res.Summary(), res, eng.SourcePath())

	if !res.Success {
		return fmt.Errorf("build failed")
	}
	return nil
}

func buildOptions() pipeline.BuildOptions {
	env := buildEnv
	if env == "" {
		env = viper.GetString("environment")
	}
	registry := buildRegistry
	if registry == "" {
		registry = viper.GetString("registry")
	}
	outputDir := buildOutputDir
	if outputDir == "" {
		outputDir = viper.GetString("artifacts_dir")
	}
	return pipeline.BuildOptions{
		Environment:   env,
		Registry:      registry,
		Publish:       buildPublish,
		OutputDir:     outputDir,
		SkipImage:     buildSkipImage,
		SkipPackages:  buildSkipPackages,
		SkipManifests: buildSkipManifests,
		SkipDocs:      buildSkipDocs,
	}
}
