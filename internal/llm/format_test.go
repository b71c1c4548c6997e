package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIssueList(t *testing.T) {
	response := `Here are the open issues in the MCP project:
1. **[MCP-374]** - Implement Quality Stage - Status: Done - Priority: High
2. **[MCP-377]** - Implement Testing Stage - Status: In Progress - Priority: High`

	out := FormatIssueList(response)

	assert.Contains(t, out, "MCP-374: Implement Quality Stage")
	assert.Contains(t, out, "MCP-377: Implement Testing Stage")
	assert.Contains(t, out, "Status: In Progress")
	assert.Contains(t, out, "Priority: High")
}

func TestFormatDependencySuggestions(t *testing.T) {
	response := `Based on the issue analysis, here's a suggested dependency order:
MCP-374 should be completed before MCP-377 because testing depends on quality tooling.
MCP-377 -> MCP-378`

	out := FormatDependencySuggestions(response)

	assert.Contains(t, out, "Based on the issue analysis")
	assert.Contains(t, out, "-> MCP-374 should be completed before MCP-377")
	assert.Contains(t, out, "-> MCP-377 -> MCP-378")
}

func TestFormatLinkConfirmation_Success(t *testing.T) {
	response := `The dependency link has been created successfully.
MCP-377 now depends on MCP-374 with link type "Blocks".`

	out := FormatLinkConfirmation(response)

	assert.Contains(t, out, "DEPENDENCY LINK CREATED")
	assert.Contains(t, out, "MCP-377 depends on MCP-374")
}

func TestFormatLinkConfirmation_Failure(t *testing.T) {
	out := FormatLinkConfirmation("An error occurred while talking to Jira.")

	assert.Contains(t, out, "LINK CREATION RESPONSE")
	assert.Contains(t, out, "Issue encountered:")
	assert.Contains(t, out, "An error occurred")
}

func TestFormatDefault_WrapsParagraphs(t *testing.T) {
	long := strings.Repeat("word ", 40)
	out := FormatDefault(long + "\n\n" + "short paragraph")

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 75)
	}
	assert.Contains(t, out, "short paragraph")
}

func TestFormatResponse_Routing(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expect   string
	}{
		{
			name:     "link confirmation",
			response: "Link created successfully between MCP-1 and MCP-2",
			expect:   "DEPENDENCY LINK CREATED",
		},
		{
			name:     "dependency suggestion",
			response: "MCP-374 must be finished before work can depend on MCP-377",
			expect:   "->",
		},
		{
			name:     "plain answer",
			response: "The project currently has no blockers.",
			expect:   "no blockers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatResponse(tt.response)
			assert.Contains(t, out, tt.expect)
		})
	}
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "", wrapText("", 10))
	assert.Equal(t, "one two", wrapText("one two", 10))
	assert.Equal(t, "one\ntwo", wrapText("one two", 3))
}
