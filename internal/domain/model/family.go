// Package model contains the model-family enumeration and the immutable
// invocation argument types consumed by prompt adapters and provider bindings.
package model

import (
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
)

// Family groups LLM variants that share one chat-templating and
// tokenization scheme. The set is closed and versioned: adding a binding
// that needs tokenization means adding an entry here plus its artifact
// directory.
type Family string

const (
	FamilyGPT      Family = "gpt"
	FamilyLlama    Family = "llama"
	FamilyMixtral  Family = "mixtral"
	FamilyCommandA Family = "command-a"
	FamilyCommandR Family = "command-r"

	// FamilyNone marks a binding that declines tokenizer support. Prompt
	// construction and token counting are unavailable for such bindings.
	FamilyNone Family = ""
)

// Families returns the enumerated families in a stable order. Longer
// identifiers come before their prefixes so substring inference is
// unambiguous.
func Families() []Family {
	return []Family{FamilyCommandA, FamilyCommandR, FamilyMixtral, FamilyLlama, FamilyGPT}
}

// Known reports whether f is one of the enumerated families.
func (f Family) Known() bool {
	for _, family := range Families() {
		if f == family {
			return true
		}
	}
	return false
}

// InferFamily derives the tokenizer family from a model name by substring
// match, e.g. "gpt-4o-mini" -> FamilyGPT, "command-r-plus" -> FamilyCommandR.
func InferFamily(modelName string) (Family, error) {
	name := strings.ToLower(modelName)
	for _, family := range Families() {
		if strings.Contains(name, string(family)) {
			return family, nil
		}
	}
	return FamilyNone, errors.NewError(errors.CodeFamily,
		"could not infer family from model name "+modelName, errors.ErrUnknownFamily)
}

// EnvName normalizes the family for environment variable lookups,
// e.g. "command-r" -> "COMMAND_R".
func (f Family) EnvName() string {
	return strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(string(f)))
}
