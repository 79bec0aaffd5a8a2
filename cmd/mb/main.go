// Modelbridge CLI entry point
//
// Modelbridge (mb) is a provider-agnostic LLM invocation tool.
// It exposes a uniform completion and streaming interface over
// OpenAI, Cohere and Ollama, with exact local token counting and
// an invocation ledger.
package main

import "github.com/jbctechsolutions/modelbridge/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
