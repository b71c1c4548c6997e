package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// environments is the set of config templates shipped with every build.
var environments = []string{"production", "staging", "development"}

type envSettings struct {
	logLevel      string
	debug         bool
	jiraURL       string
	maxConcurrent int
	timeoutSec    int
	cacheTTLSec   int
	secureHeaders bool
	corsEnabled   bool
}

var envDefaults = map[string]envSettings{
	"production": {
		logLevel:      "INFO",
		jiraURL:       "https://your-company.atlassian.net",
		maxConcurrent: 5,
		timeoutSec:    30,
		cacheTTLSec:   3600,
		secureHeaders: true,
	},
	"staging": {
		logLevel:      "DEBUG",
		debug:         true,
		jiraURL:       "https://your-company-staging.atlassian.net",
		maxConcurrent: 3,
		timeoutSec:    45,
		cacheTTLSec:   1800,
		secureHeaders: true,
		corsEnabled:   true,
	},
	"development": {
		logLevel:      "DEBUG",
		debug:         true,
		jiraURL:       "http://localhost:8080",
		maxConcurrent: 2,
		timeoutSec:    60,
		cacheTTLSec:   300,
		corsEnabled:   true,
	},
}

// RenderEnvConfig renders the .env template for one environment.
func RenderEnvConfig(environment string) (string, error) {
	s, ok := envDefaults[environment]
	if !ok {
		return "", fmt.Errorf("unknown environment %q", environment)
	}

	title := strings.ToUpper(environment[:1]) + environment[1:]

	var b strings.Builder
	fmt.Fprintf(&b, "# %s environment configuration\n", title)
	fmt.Fprintf(&b, "ENVIRONMENT=%s\n", environment)
	fmt.Fprintf(&b, "LOG_LEVEL=%s\n", s.logLevel)
	fmt.Fprintf(&b, "DEBUG=%t\n\n", s.debug)

	b.WriteString("# Jira\n")
	fmt.Fprintf(&b, "JIRA_URL=%s\n", s.jiraURL)
	b.WriteString("JIRA_EMAIL=your-email@company.com\n")
	b.WriteString("JIRA_TOKEN=your-jira-token\n\n")

	b.WriteString("# OpenAI\n")
	b.WriteString("OPENAI_API_KEY=your-openai-api-key\n")
	b.WriteString("OPENAI_MODEL=gpt-4o-mini\n\n")

	b.WriteString("# Performance\n")
	fmt.Fprintf(&b, "MAX_CONCURRENT_REQUESTS=%d\n", s.maxConcurrent)
	fmt.Fprintf(&b, "REQUEST_TIMEOUT=%d\n", s.timeoutSec)
	fmt.Fprintf(&b, "CACHE_TTL=%d\n\n", s.cacheTTLSec)

	b.WriteString("# Security\n")
	fmt.Fprintf(&b, "SECURE_HEADERS=%t\n", s.secureHeaders)
	fmt.Fprintf(&b, "CORS_ENABLED=%t\n", s.corsEnabled)
	return b.String(), nil
}

// ExportConfigs writes all environment config templates to outputDir.
func (e *Engine) ExportConfigs(ctx context.Context, outputDir string) error {
	dir := e.client.Directory()
	for _, env := range environments {
		content, err := RenderEnvConfig(env)
		if err != nil {
			return err
		}
		dir = dir.WithNewFile(env+".env", content)
	}
	if _, err := dir.Export(ctx, outputDir); err != nil {
		return fmt.Errorf("export configs: %w", err)
	}
	return nil
}
