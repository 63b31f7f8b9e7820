package prompt

import "fmt"

// GetSystemPrompt returns the system prompt for result interpretation.
func GetSystemPrompt() string {
	return "You are a data analyst. You are given the JSON output of a " +
		"spreadsheet analysis run. Explain in plain language what the " +
		"analysis found: notable figures, trends and anomalies. Be concise " +
		"and do not invent numbers that are not in the document."
}

// GetUserPrompt wraps one archived analysis result for the model.
func GetUserPrompt(name, resultJSON string) string {
	return fmt.Sprintf("Analysis snapshot %q:\n\n%s", name, resultJSON)
}
