package provider

import (
	"os"
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/adapters/provider/cohere"
	"github.com/jbctechsolutions/modelbridge/internal/adapters/provider/ollama"
	"github.com/jbctechsolutions/modelbridge/internal/adapters/provider/openai"
	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Factory builds the binding appropriate for a model name. Command models
// route to the Cohere binding and everything else to the OpenAI-compatible
// binding; an explicit provider name overrides the routing.
type Factory struct {
	lookupEnv func(string) string
}

// FactoryOption configures the Factory.
type FactoryOption func(*Factory)

// WithEnvLookup overrides environment variable resolution, for tests.
func WithEnvLookup(lookup func(string) string) FactoryOption {
	return func(f *Factory) {
		f.lookupEnv = lookup
	}
}

// NewFactory creates a Factory reading credentials from the environment.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{lookupEnv: os.Getenv}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForModel returns the binding for a model name, inferring both the
// provider and the tokenizer family from the name.
func (f *Factory) ForModel(modelName string) (ports.Model, error) {
	family, err := model.InferFamily(modelName)
	if err != nil {
		// Unknown families still route to the OpenAI-compatible binding;
		// counting degrades for them.
		family = model.FamilyNone
	}

	switch family {
	case model.FamilyCommandA, model.FamilyCommandR:
		return f.newCohere(family)
	default:
		return f.newOpenAI(family)
	}
}

// ForProvider returns the binding for an explicit provider name.
func (f *Factory) ForProvider(name string, family model.Family) (ports.Model, error) {
	switch strings.ToLower(name) {
	case "openai":
		return f.newOpenAI(family)
	case "cohere":
		if family != model.FamilyCommandA && family != model.FamilyCommandR {
			family = model.FamilyCommandR
		}
		return f.newCohere(family)
	case "ollama":
		return f.newOllama(), nil
	default:
		return nil, errors.NewError(errors.CodeConfig, "unknown provider "+name, nil)
	}
}

func (f *Factory) newOpenAI(family model.Family) (ports.Model, error) {
	apiKey := f.apiKey(family, "OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.NewError(errors.CodeConfig, "no API key configured for openai", nil)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := f.baseURL(family, "OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return openai.NewProviderForFamily(config, family), nil
}

func (f *Factory) newCohere(family model.Family) (ports.Model, error) {
	apiKey := f.apiKey(family, "COHERE_API_KEY")
	if apiKey == "" {
		return nil, errors.NewError(errors.CodeConfig, "no API key configured for cohere", nil)
	}

	config := cohere.DefaultConfig(apiKey)
	if baseURL := f.baseURL(family, "COHERE_BASE_URL"); baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return cohere.NewProvider(config, family), nil
}

func (f *Factory) newOllama() ports.Model {
	var opts []ollama.ClientOption
	if baseURL := f.lookupEnv("OLLAMA_BASE_URL"); baseURL != "" {
		opts = append(opts, ollama.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}
	return ollama.NewProvider(opts...)
}

// apiKey resolves the credential for a family, preferring the
// family-specific variable, e.g. COMMAND_R_API_KEY over COHERE_API_KEY.
func (f *Factory) apiKey(family model.Family, fallback string) string {
	if family != model.FamilyNone {
		if key := f.lookupEnv(family.EnvName() + "_API_KEY"); key != "" {
			return key
		}
	}
	return f.lookupEnv(fallback)
}

func (f *Factory) baseURL(family model.Family, fallback string) string {
	if family != model.FamilyNone {
		if url := f.lookupEnv(family.EnvName() + "_BASE_URL"); url != "" {
			return url
		}
	}
	return f.lookupEnv(fallback)
}
