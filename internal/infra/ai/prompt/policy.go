package prompt

import (
	"fmt"

	"github.com/bryanwahyu/policylens/internal/domain/analysis"
)

const (
	privacySubject = "privacy policy"
	termsSubject   = "terms of service"
)

// GetSystemPrompt asks for five sections separated by blank lines, in the order
// analysis.ParseAnalysis reads them back.
func GetSystemPrompt(docType analysis.DocType) string {
	return fmt.Sprintf(`Analyze this %s document and provide:
1. A clear, concise summary (2-3 sentences)
2. Key points (bullet points of important information)
3. Important user implications (what this means for users)
4. Potential privacy/security concerns
5. User-friendliness score (1-10) with brief explanation

Format the response with clear section breaks using double newlines.`, Subject(docType))
}

// Subject is the human wording used for a document type.
func Subject(docType analysis.DocType) string {
	if docType.IsPrivacy() {
		return privacySubject
	}
	return termsSubject
}
