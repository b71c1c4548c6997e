package pipeline

import (
	"context"
	"fmt"
	"time"

	"dagger.io/dagger"

	"github.com/nebulascloud/jaci/internal/golang"
	"github.com/nebulascloud/jaci/internal/models"
)

// jiraMockSource is the mock Jira REST server compiled into the
// jira-mock service. Endpoints mirror the subset of the Jira v2 API the
// target application calls.
const jiraMockSource = `package main

import (
	"encoding/json"
	"log"
	"net/http"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/project", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"projects": []map[string]any{
				{"id": "10001", "key": "MCP", "name": "MCP Development"},
			},
		})
	})
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]any{
				{"id": "10100", "key": "MCP-377", "fields": map[string]any{
					"summary": "Testing Stage Implementation",
					"status":  map[string]any{"name": "In Progress"},
				}},
			},
		})
	})
	log.Fatal(http.ListenAndServe(":8080", mux))
}
`

// openaiMockSource is the mock OpenAI server compiled into the
// openai-mock service.
const openaiMockSource = `package main

import (
	"encoding/json"
	"log"
	"net/http"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": "Mock OpenAI response for testing",
				}},
			},
		})
	})
	log.Fatal(http.ListenAndServe(":8081", mux))
}
`

// mockService builds an inline Go HTTP server and exposes it as a
// Dagger service on the given port.
func (e *Engine) mockService(name, source string, port int) *dagger.Service {
	return e.client.Container().
		From(golang.DefaultToolchainImage).
		WithMountedCache("/go/pkg/mod", e.client.CacheVolume("jaci-go-mod")).
		WithMountedCache("/root/.cache/go-build", e.client.CacheVolume("jaci-go-build")).
		WithEnvVariable("CGO_ENABLED", "0").
		WithWorkdir("/app").
		WithNewFile("/app/main.go", source).
		WithExec([]string{"go", "mod", "init", name}).
		WithExec([]string{"go", "build", "-o", "/bin/" + name, "."}).
		WithExposedPort(port).
		AsService(dagger.ContainerAsServiceOpts{Args: []string{"/bin/" + name}})
}

func (e *Engine) mockJiraService() *dagger.Service {
	return e.mockService("jira-mock", jiraMockSource, 8080)
}

func (e *Engine) mockOpenAIService() *dagger.Service {
	return e.mockService("openai-mock", openaiMockSource, 8081)
}

// VerifyMockServices spins up both mock services and probes their
// endpoints from a client container.
func (e *Engine) VerifyMockServices(ctx context.Context) (*models.MockServiceResult, error) {
	probe := e.client.Container().
		From("alpine:3.21").
		WithServiceBinding("jira-mock", e.mockJiraService()).
		WithServiceBinding("openai-mock", e.mockOpenAIService()).
		WithEnvVariable("CACHEBUST", time.Now().String()).
		WithExec([]string{"wget", "-qO-", "http://jira-mock:8080/rest/api/2/project"}).
		WithExec([]string{"wget", "-qO-", "http://jira-mock:8080/rest/api/2/search"}).
		WithExec([]string{"wget", "-qO-", "--post-data={}", "http://openai-mock:8081/v1/chat/completions"})

	if _, err := probe.Stdout(ctx); err != nil {
		if execErr := asExecError(err); execErr != nil {
			return &models.MockServiceResult{ServicesCreated: 2, Passed: false}, nil
		}
		return nil, fmt.Errorf("probe mock services: %w", err)
	}
	return &models.MockServiceResult{
		ServicesCreated: 2,
		Passed:          true,
		JiraCalls:       2,
		OpenAICalls:     1,
	}, nil
}
