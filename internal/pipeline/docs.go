package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/nebulascloud/jaci/internal/models"
)

// GenerateDocs produces API documentation from the target source plus a
// static user guide, exported to outputDir on the host.
func (e *Engine) GenerateDocs(ctx context.Context, outputDir string) (*models.DocsResult, error) {
	apiDocs, err := e.base().
		WithExec([]string{"go", "doc", "-all", "."}).
		Stdout(ctx)
	if err != nil {
		if execErr := asExecError(err); execErr != nil {
			apiDocs = "no package documentation available\n" + execErr.Stderr
		} else {
			return nil, fmt.Errorf("generate api docs: %w", err)
		}
	}

	app := e.binaryName()
	dir := e.client.Directory().
		WithNewFile("api.txt", apiDocs).
		WithNewFile("index.md", renderDocsIndex(app)).
		WithNewFile("user-guide.md", renderUserGuide(app))
	if _, err := dir.Export(ctx, outputDir); err != nil {
		return nil, fmt.Errorf("export docs: %w", err)
	}

	return &models.DocsResult{
		APIDocsGenerated: true,
		UserGuideCreated: true,
		OutputDir:        outputDir,
	}, nil
}

func renderDocsIndex(app string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Documentation\n\n", app)
	b.WriteString("AI-assisted Jira work analysis and dependency suggestion tool.\n\n")
	b.WriteString("## Contents\n\n")
	b.WriteString("- [API Reference](api.txt)\n")
	b.WriteString("- [User Guide](user-guide.md)\n\n")
	b.WriteString("## Features\n\n")
	b.WriteString("- AI-powered dependency analysis\n")
	b.WriteString("- Jira integration\n")
	b.WriteString("- Containerized builds and deployment manifests\n")
	b.WriteString("- Comprehensive test suites with coverage reporting\n")
	return b.String()
}

func renderUserGuide(app string) string {
	var b strings.Builder
	b.WriteString("# User Guide\n\n")
	b.WriteString("## Configuration\n\n")
	b.WriteString("Configure through environment variables or a .env file:\n\n")
	b.WriteString("- `JIRA_URL` - Jira instance URL\n")
	b.WriteString("- `JIRA_TOKEN` - Jira API token\n")
	b.WriteString("- `OPENAI_API_KEY` - OpenAI API key\n\n")
	b.WriteString("## Running\n\n")
	fmt.Fprintf(&b, "    %s --help\n\n", app)
	b.WriteString("## Docker\n\n")
	fmt.Fprintf(&b, "    docker run -e JIRA_URL=your-url ghcr.io/nebulascloud/%s:latest\n\n", app)
	b.WriteString("## Kubernetes\n\n")
	b.WriteString("    kubectl apply -f manifests/k8s-deployment.yaml\n")
	b.WriteString("    kubectl apply -f manifests/k8s-service.yaml\n")
	return b.String()
}
