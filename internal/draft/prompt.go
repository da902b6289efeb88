package draft

import (
	"fmt"
	"strings"
)

// instruction frames every request. The user's text is quoted into it.
const instruction = `User Request: Create a document draft for: %q.

Role: You are an expert technical writer and legal compliance analyst.

Objective:
1. Search for real-world examples, regulatory templates, official government forms, and similar legal documents relevant to the request.
2. Analyze the structure, required sections, and legal intent of the search results.
3. Generate a BRAND NEW, legally unique document. It must NOT be a direct copy of any single source.
4. The document must be structurally rigorous, containing standard sections found in professional environmental, legal, or planning documents (e.g., Executive Summary, Project Description, Mitigation Measures, Conclusions, Signatures).

Style Guidelines:
- Tone: Professional, authoritative, enterprise-grade, and neutral.
- Format: Clean layout with clear headings. Use standard placeholders like [Date], [Project Name], [Lead Agency] where variable data is needed.
- Specificity: If the user asks for an "Environmental Impact Report" or similar, ensure it follows standard CEQA/NEPA outlining conventions if applicable.

Output:
- Provide ONLY the document content. Do not include conversational text like "Here is your draft". Start immediately with the Title/Header of the document.`

// UseCases are the document types offered as one-key requests.
var UseCases = []string{
	"Environmental Impact Report (EIR)",
	"Environmental Assessment (EA)",
	"Initial Study (IS)",
	"Regulatory Compliance Permit",
	"Mitigation Monitoring Plan",
	"Air Quality Report",
	"Land Use & Zoning Document",
}

// UseCase returns the n-th use case, counting from 1.
func UseCase(n int) (string, bool) {
	if n < 1 || n > len(UseCases) {
		return "", false
	}
	return UseCases[n-1], true
}

// BuildPrompt wraps a user request in the drafting instruction.
func BuildPrompt(request string) string {
	return fmt.Sprintf(instruction, strings.TrimSpace(request))
}
