package recommend

import (
	"fmt"
	"strings"
)

const promptInstructions = "Format them as a detailed list that can be used to search for relevant assessments.\n" +
	"Focus on technical skills, personality traits, competencies, and cognitive abilities."

// enhancementPrompt asks for the skills, competencies and requirements behind a query.
// A non-empty sourceURL is named as the origin of the job description.
func enhancementPrompt(query, sourceURL string) string {
	var b strings.Builder
	if sourceURL != "" {
		fmt.Fprintf(&b, "I have a job description available at %s.\n", sourceURL)
		fmt.Fprintf(&b, "Job description:\n%q\n\n", query)
		b.WriteString("Based on this job description, extract the key skills, competencies, and requirements.\n")
	} else {
		fmt.Fprintf(&b, "Extract the key skills, competencies, and requirements from this job description or query:\n%q\n\n", query)
	}
	b.WriteString(promptInstructions)
	return b.String()
}
