package tailor

import (
	"strings"

	"resume-tailor/internal/llm"
)

// SystemPrompt fixes the assistant's role for every tailoring call.
const SystemPrompt = "You are an expert resume tailoring assistant helping job seekers match their resumes to job descriptions."

const bulletInstruction = `Please output at least three bullet points (each starting with "-") tailoring the resume to the JD.`

// BuildUserPrompt embeds both texts verbatim. Any non-empty refinement is
// appended as an extra instruction block.
func BuildUserPrompt(resumeText, jobText, refinePrompt string) string {
	var b strings.Builder
	b.WriteString("Here is the resume:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nHere is the job description:\n")
	b.WriteString(jobText)
	b.WriteString("\n\n")
	b.WriteString(bulletInstruction)
	b.WriteString("\n")
	if refinePrompt != "" {
		b.WriteString("\nAdditional instructions:\n")
		b.WriteString(refinePrompt)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// BuildMessages returns the system + user exchange sent upstream.
func BuildMessages(resumeText, jobText, refinePrompt string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildUserPrompt(resumeText, jobText, refinePrompt)},
	}
}
