package jiramock

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewJiraHandler returns an http.Handler serving the mock Jira v2 API
// subset the analyzer calls.
func NewJiraHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/project", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Projects())
	})
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Issues())
	})
	mux.HandleFunc("/rest/api/2/issueLinkType", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, LinkTypes())
	})
	mux.HandleFunc("/rest/api/2/issueLink", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
				"errorMessages": []string{"method not allowed"},
			})
			return
		}
		writeJSON(w, http.StatusCreated, CreateLinkSuccess())
	})
	return mux
}

// NewOpenAIHandler returns an http.Handler serving the mock chat
// completions endpoint. The canned completion is chosen by sniffing the
// request for dependency or link keywords.
func NewOpenAIHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
				"error": map[string]string{"type": "invalid_request", "message": "method not allowed"},
			})
			return
		}

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		prompt := ""
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}
		writeJSON(w, http.StatusOK, responseFor(prompt))
	})
	return mux
}

func responseFor(prompt string) ChatCompletionResponse {
	switch {
	case containsAny(prompt, "dependency", "dependencies", "depend"):
		return AnalysisResponse()
	case containsAny(prompt, "link", "create"):
		return LinkCreationResponse()
	default:
		return DefaultChatResponse()
	}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
