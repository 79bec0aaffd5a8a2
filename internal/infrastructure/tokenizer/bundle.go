// Package tokenizer provides the model-family tokenizer registry and the
// token counter built on top of it. Each enumerated family maps to a
// directory of three artifacts; bundles are loaded lazily, once, and kept
// for the process lifetime.
package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Artifact file names every family directory must contain.
const (
	DefinitionFile    = "tokenizer.json"
	ConfigFile        = "tokenizer_config.json"
	SpecialTokensFile = "special_tokens_map.json"
)

// Encoding is the minimal BPE surface the counter needs. *tiktoken.Tiktoken
// satisfies it; tests inject a deterministic stub.
type Encoding interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// EncodingLoader instantiates the BPE encoding named in a tokenizer
// definition.
type EncodingLoader func(name string) (Encoding, error)

// TiktokenLoader is the default EncodingLoader, backed by tiktoken-go.
func TiktokenLoader(name string) (Encoding, error) {
	return tiktoken.GetEncoding(name)
}

// Definition is the serialized tokenizer definition (tokenizer.json).
type Definition struct {
	Version string `json:"version"`
	Model   struct {
		Type     string `json:"type"`
		Encoding string `json:"encoding"`
	} `json:"model"`
}

// Config is the tokenizer configuration (tokenizer_config.json).
type Config struct {
	BOSToken    string `json:"bos_token,omitempty"`
	EOSToken    string `json:"eos_token,omitempty"`
	AddBOSToken bool   `json:"add_bos_token,omitempty"`
	ChatStyle   string `json:"chat_style,omitempty"`
}

// Bundle owns the three artifacts of one family plus the instantiated
// encoding. Immutable once loaded.
type Bundle struct {
	family     model.Family
	definition Definition
	config     Config
	specials   map[string]int
	encoding   Encoding
}

// Family returns the family this bundle belongs to.
func (b *Bundle) Family() model.Family { return b.family }

// Config returns the tokenizer configuration.
func (b *Bundle) Config() Config { return b.config }

// SpecialToken returns the token id for a special marker, if declared.
func (b *Bundle) SpecialToken(marker string) (int, bool) {
	id, ok := b.specials[marker]
	return id, ok
}

// CountSegments counts the exact token total for an adapted segment
// sequence. Text segments are encoded with the bundle's BPE vocabulary;
// special segments count as one token each after validation against the
// special-token table. An unknown marker fails with ErrMalformedPrompt so
// a silent undercount can never corrupt usage accounting.
func (b *Bundle) CountSegments(segments []model.Segment) (int, error) {
	total := 0
	for _, segment := range segments {
		switch segment.Kind {
		case model.SegmentSpecial:
			if _, ok := b.specials[segment.Text]; !ok {
				return 0, errors.WithContext(errors.NewError(errors.CodePrompt,
					fmt.Sprintf("unknown special marker %q for family %s", segment.Text, b.family),
					errors.ErrMalformedPrompt), "marker", segment.Text)
			}
			total++
		case model.SegmentText:
			if segment.Text == "" {
				continue
			}
			total += len(b.encoding.Encode(segment.Text, nil, nil))
		default:
			return 0, errors.NewError(errors.CodePrompt,
				fmt.Sprintf("unknown segment kind %d", segment.Kind), errors.ErrMalformedPrompt)
		}
	}
	return total, nil
}

// CountText counts tokens in plain text without template structure, used
// for completion-side accounting.
func (b *Bundle) CountText(text string) int {
	if text == "" {
		return 0
	}
	return len(b.encoding.Encode(text, nil, nil))
}

// loadBundle reads and validates the three artifacts of one family
// directory and instantiates the encoding.
func loadBundle(dir string, family model.Family, loader EncodingLoader) (*Bundle, error) {
	definitionPath := filepath.Join(dir, DefinitionFile)
	configPath := filepath.Join(dir, ConfigFile)
	specialsPath := filepath.Join(dir, SpecialTokensFile)

	var definition Definition
	if err := readArtifact(definitionPath, &definition); err != nil {
		return nil, err
	}

	var config Config
	if err := readArtifact(configPath, &config); err != nil {
		return nil, err
	}

	var specials map[string]int
	if err := readArtifact(specialsPath, &specials); err != nil {
		return nil, err
	}

	if definition.Model.Encoding == "" {
		return nil, errors.NewError(errors.CodeArtifact,
			fmt.Sprintf("tokenizer definition for %s names no encoding", family),
			errors.ErrMissingArtifact)
	}

	encoding, err := loader(definition.Model.Encoding)
	if err != nil {
		return nil, errors.NewError(errors.CodeArtifact,
			fmt.Sprintf("could not load encoding %q for family %s", definition.Model.Encoding, family),
			errors.ErrMissingArtifact)
	}

	return &Bundle{
		family:     family,
		definition: definition,
		config:     config,
		specials:   specials,
		encoding:   encoding,
	}, nil
}

// readArtifact decodes one artifact file, mapping any I/O or parse failure
// to ErrMissingArtifact rather than a generic error.
func readArtifact(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithContext(errors.NewError(errors.CodeArtifact,
			fmt.Sprintf("cannot read %s", filepath.Base(path)),
			errors.ErrMissingArtifact), "path", path)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.WithContext(errors.NewError(errors.CodeArtifact,
			fmt.Sprintf("cannot parse %s", filepath.Base(path)),
			errors.ErrMissingArtifact), "path", path)
	}
	return nil
}
