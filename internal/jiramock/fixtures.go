// Package jiramock provides mock Jira and OpenAI fixtures and HTTP
// handlers for testing the dependency analyzer without live services.
package jiramock

// Project is a Jira project fixture.
type Project struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ProjectTypeKey string `json:"projectTypeKey"`
}

// ProjectsResponse is the /rest/api/2/project payload.
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
}

// IssueFields holds the subset of Jira issue fields the analyzer reads.
type IssueFields struct {
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Status      map[string]string `json:"status"`
	Priority    map[string]string `json:"priority"`
	IssueType   map[string]string `json:"issuetype"`
	Assignee    map[string]string `json:"assignee"`
	Created     string            `json:"created"`
	Updated     string            `json:"updated"`
}

// Issue is a Jira issue fixture.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// SearchResponse is the /rest/api/2/search payload.
type SearchResponse struct {
	Issues []Issue `json:"issues"`
}

// LinkType is a Jira issue link type fixture.
type LinkType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// LinkTypesResponse is the /rest/api/2/issueLinkType payload.
type LinkTypesResponse struct {
	IssueLinkTypes []LinkType `json:"issueLinkTypes"`
}

// IssueRef identifies one side of an issue link.
type IssueRef struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// LinkCreated is the successful issue link creation payload.
type LinkCreated struct {
	ID           string   `json:"id"`
	Type         LinkType `json:"type"`
	InwardIssue  IssueRef `json:"inwardIssue"`
	OutwardIssue IssueRef `json:"outwardIssue"`
}

// Projects returns the project list fixture.
func Projects() ProjectsResponse {
	return ProjectsResponse{Projects: []Project{
		{ID: "10001", Key: "MCP", Name: "MCP Development", Description: "Model Context Protocol development project", ProjectTypeKey: "software"},
		{ID: "10002", Key: "DEMO", Name: "Demo Applications", Description: "Demonstration applications and examples", ProjectTypeKey: "software"},
		{ID: "10003", Key: "TEST", Name: "Testing Infrastructure", Description: "Testing and quality assurance project", ProjectTypeKey: "software"},
	}}
}

// Issues returns the MCP project issue fixture set.
func Issues() SearchResponse {
	return SearchResponse{Issues: []Issue{
		{ID: "10100", Key: "MCP-374", Fields: IssueFields{
			Summary:     "Implement Dagger Multistage CI Pipeline for MCP Applications",
			Description: "Epic for implementing comprehensive CI/CD pipeline using Dagger",
			Status:      map[string]string{"name": "In Progress"},
			Priority:    map[string]string{"name": "High"},
			IssueType:   map[string]string{"name": "Epic"},
			Assignee:    map[string]string{"displayName": "Development Team"},
			Created:     "2024-01-01T10:00:00.000Z",
			Updated:     "2024-01-15T14:30:00.000Z",
		}},
		{ID: "10101", Key: "MCP-376", Fields: IssueFields{
			Summary:     "Implement Code Quality Stage",
			Description: "Add linting, formatting, and static analysis to Dagger pipeline",
			Status:      map[string]string{"name": "Done"},
			Priority:    map[string]string{"name": "High"},
			IssueType:   map[string]string{"name": "Story"},
			Assignee:    map[string]string{"displayName": "QA Team"},
			Created:     "2024-01-02T09:00:00.000Z",
			Updated:     "2024-01-10T16:45:00.000Z",
		}},
		{ID: "10102", Key: "MCP-377", Fields: IssueFields{
			Summary:     "Implement Testing Stage - Unit Tests, Integration Tests, and Coverage",
			Description: "Comprehensive testing infrastructure with Dagger-native optimization",
			Status:      map[string]string{"name": "In Progress"},
			Priority:    map[string]string{"name": "High"},
			IssueType:   map[string]string{"name": "Story"},
			Assignee:    map[string]string{"displayName": "Test Engineer"},
			Created:     "2024-01-03T11:15:00.000Z",
			Updated:     "2024-01-16T13:20:00.000Z",
		}},
		{ID: "10103", Key: "MCP-378", Fields: IssueFields{
			Summary:     "Implement Deployment Stage",
			Description: "Add deployment automation and environment management",
			Status:      map[string]string{"name": "To Do"},
			Priority:    map[string]string{"name": "Medium"},
			IssueType:   map[string]string{"name": "Story"},
			Assignee:    map[string]string{"displayName": "DevOps Team"},
			Created:     "2024-01-04T08:30:00.000Z",
			Updated:     "2024-01-04T08:30:00.000Z",
		}},
		{ID: "10104", Key: "MCP-379", Fields: IssueFields{
			Summary:     "Setup Monitoring and Alerting",
			Description: "Implement comprehensive monitoring for the CI/CD pipeline",
			Status:      map[string]string{"name": "To Do"},
			Priority:    map[string]string{"name": "Low"},
			IssueType:   map[string]string{"name": "Task"},
			Assignee:    map[string]string{"displayName": "SRE Team"},
			Created:     "2024-01-05T12:45:00.000Z",
			Updated:     "2024-01-05T12:45:00.000Z",
		}},
	}}
}

// LinkTypes returns the issue link type fixtures.
func LinkTypes() LinkTypesResponse {
	return LinkTypesResponse{IssueLinkTypes: []LinkType{
		{ID: "10000", Name: "Blocks", Inward: "is blocked by", Outward: "blocks"},
		{ID: "10001", Name: "Depends on", Inward: "depends on", Outward: "is dependency of"},
		{ID: "10002", Name: "Relates", Inward: "relates to", Outward: "relates to"},
		{ID: "10003", Name: "Duplicates", Inward: "is duplicated by", Outward: "duplicates"},
	}}
}

// CreateLinkSuccess returns the successful link creation fixture:
// MCP-377 depends on MCP-376.
func CreateLinkSuccess() LinkCreated {
	return LinkCreated{
		ID: "20001",
		Type: LinkType{
			ID: "10001", Name: "Depends on",
			Inward: "depends on", Outward: "is dependency of",
		},
		InwardIssue:  IssueRef{ID: "10102", Key: "MCP-377"},
		OutwardIssue: IssueRef{ID: "10101", Key: "MCP-376"},
	}
}

// ChatChoice is one choice in a mock chat completion payload.
type ChatChoice struct {
	Message map[string]string `json:"message"`
}

// ChatCompletionResponse is the mock /v1/chat/completions payload.
type ChatCompletionResponse struct {
	Choices []ChatChoice `json:"choices"`
}

func chatResponse(content string) ChatCompletionResponse {
	return ChatCompletionResponse{Choices: []ChatChoice{
		{Message: map[string]string{"role": "assistant", "content": content}},
	}}
}

// AnalysisResponse returns the mock dependency analysis completion.
func AnalysisResponse() ChatCompletionResponse {
	return chatResponse(`Based on the analysis of the MCP project issues, here are the recommended dependencies:

**Critical Dependencies:**
1. **MCP-377 (Testing Stage)** should depend on **MCP-376 (Code Quality Stage)**
   - Rationale: Testing infrastructure needs code quality tools to be in place first
   - Link Type: "Depends on"

2. **MCP-378 (Deployment Stage)** should depend on **MCP-377 (Testing Stage)**
   - Rationale: Deployment should only happen after comprehensive testing is available
   - Link Type: "Depends on"

**Sequential Implementation Order:**
MCP-376 -> MCP-377 -> MCP-378 -> MCP-379

All of these should relate back to the epic MCP-374.`)
}

// LinkCreationResponse returns the mock link creation completion.
func LinkCreationResponse() ChatCompletionResponse {
	return chatResponse(`Dependency link created successfully.

Link details:
- From: MCP-377 (Testing Stage Implementation)
- To: MCP-376 (Code Quality Stage)
- Link Type: "Depends on"
- Direction: MCP-377 depends on MCP-376`)
}

// DefaultChatResponse returns a generic mock completion.
func DefaultChatResponse() ChatCompletionResponse {
	return chatResponse("Mock OpenAI response for testing")
}
