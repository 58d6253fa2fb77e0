package generation

import (
	"fmt"
	"strings"
)

// componentRoles maps each component to the role description embedded
// in its prompt.
var componentRoles = map[Component]string{
	ComponentBackend:  "a senior backend engineer. Generate the server-side application code: API routes, business logic, data access and application entry point",
	ComponentFrontend: "a senior frontend engineer. Generate the client-side code: pages, components, styling and any client-side state handling",
	ComponentDatabase: "a database engineer. Generate the schema definitions, migrations and seed data the application needs",
	ComponentDevOps:   "a DevOps engineer. Generate the build and deployment files: Dockerfile, docker-compose, CI configuration and environment templates",
	ComponentDocs:     "a technical writer. Generate the project documentation: README with setup and usage instructions, and any API documentation",
}

// BuildComponentPrompt constructs the user prompt for one pipeline
// component. The requirements string is the business description of the
// project; similar holds summaries of related past generations used to
// enrich the prompt, and may be empty.
func BuildComponentPrompt(component Component, projectName, requirements string, similar []string) string {
	role, ok := componentRoles[component]
	if !ok {
		role = componentRoles[ComponentBackend]
	}

	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(role)
	b.WriteString(fmt.Sprintf(" for the project %q.\n\n", projectName))

	b.WriteString("## Requirements\n\n")
	b.WriteString(strings.TrimSpace(requirements))
	b.WriteString("\n")

	if len(similar) > 0 {
		b.WriteString("\n## Related Past Work\n\n")
		b.WriteString("Summaries of similar projects generated before. Use them for consistency, not as a source of requirements:\n\n")
		for _, s := range similar {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(s))
			b.WriteString("\n")
		}
	}

	b.WriteString(outputFormatInstructions)
	return b.String()
}

// SystemPrompt is the system message shared by all pipeline components
const SystemPrompt = `You are part of an automated codebase generation pipeline. You produce complete, working source files. Your entire output is parsed by a machine: any file not declared in the required format is lost.`

const outputFormatInstructions = `

## Output Format

Produce ONLY files, one after another, each declared with a FILE marker followed by a fenced code block:

### FILE: path/relative/to/project/root.ext
` + "```" + `
<complete file content>
` + "```" + `

Rules:
- Every file starts with its own "### FILE:" line. Paths are relative, forward slashes, no leading "/" and no "..".
- File contents go inside the fenced block, complete and ready to run. No placeholders, no "rest of the code here".
- No explanation or text outside the FILE blocks.`

// RetryFeedback is appended to the prompt when a previous attempt for
// the same component failed to parse.
const RetryFeedback = `

IMPORTANT: Your previous attempt could not be parsed: %v

Try again. Output ONLY "### FILE:" markers each followed by a fenced code block. Nothing else.`
