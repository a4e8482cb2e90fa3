package coach

import (
	"fmt"
	"strings"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

const resumeSnippetChars = 300

func classifyPrompt(question string) string {
	return fmt.Sprintf(`Classify this interview question into ONE category.

Question: "%s"

Categories:
- behavioral: Questions about past experiences, "Tell me about a time...", STAR-format expected
- technical: Questions about technical skills, coding, system design, algorithms
- situational: Hypothetical scenarios, "What would you do if..."
- competency: Questions about specific skills or abilities
- motivation: Questions about career goals, why this role/company
- unknown: Cannot determine

Respond with ONLY the category name, nothing else.`, question)
}

func doneOrNot(b bool) string {
	if b {
		return "DONE"
	}
	return "NOT YET"
}

func starPrompt(response string, p domain.STARProgress) string {
	return fmt.Sprintf(`Analyze this interview response for STAR framework components.

Response: "%s"

Current progress:
- Situation: %s
- Task: %s
- Action: %s
- Result: %s

Which NEW components does this response contain? Only list components that are clearly present.
Respond in JSON format: {"situation": true/false, "task": true/false, "action": true/false, "result": true/false}
Only set true for components that are NEWLY covered in this response.`,
		response, doneOrNot(p.Situation), doneOrNot(p.Task), doneOrNot(p.Action), doneOrNot(p.Result))
}

func mark(b bool) string {
	if b {
		return "✓"
	}
	return "○"
}

// starStatus is the compact progress line shown to the insight model.
func starStatus(p domain.STARProgress) string {
	return fmt.Sprintf("STAR Progress: S:%s T:%s A:%s R:%s", mark(p.Situation), mark(p.Task), mark(p.Action), mark(p.Result))
}

type insightInput struct {
	QuestionType domain.QuestionType
	Question     string
	Response     string
	Progress     domain.STARProgress
	Resume       string
}

func insightPrompt(in insightInput, maxWords int) string {
	var b strings.Builder
	b.WriteString("You are a real-time interview coach. Generate ONE concise, actionable coaching tip.\n\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Question type: %s\n", in.QuestionType)
	fmt.Fprintf(&b, "- Interviewer asked: \"%s\"\n", in.Question)
	fmt.Fprintf(&b, "- Candidate responded: \"%s\"\n", in.Response)
	if in.QuestionType == domain.QuestionBehavioral {
		fmt.Fprintf(&b, "- %s\n", starStatus(in.Progress))
	}
	if resume := truncateRunes(strings.TrimSpace(in.Resume), resumeSnippetChars); resume != "" {
		fmt.Fprintf(&b, "- Relevant from resume: %s\n", resume)
	}
	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "1. Max %d words\n", maxWords)
	b.WriteString(`2. Be specific and actionable
3. If behavioral Q and STAR incomplete, guide to next component
4. Reference resume specifics if helpful
5. If response is strong, give brief positive reinforcement
6. If candidate seems stuck, offer a pivot suggestion

Respond with JSON:
{
  "type": "framework" | "resume_highlight" | "question_guidance" | "recovery" | "positive",
  "priority": "high" | "medium" | "low",
`)
	fmt.Fprintf(&b, "  \"message\": \"Your %d-word max tip here\"\n}\n\n", maxWords)
	b.WriteString(`If no insight is needed, respond: {"skip": true}`)
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
