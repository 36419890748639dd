// Package corpusfile reads corpora from JSON or YAML files.
//
// Accepted shapes:
//
//	["passage", ...]                               plain passages
//	{"question?": "answer", ...}                   question -> answer mapping, file order kept
//	[{"question": "...", "answer": "..."}, ...]    question/answer pairs
//	{"passages": [...], "pairs": [...]}            explicit corpus
package corpusfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
)

// Load reads and parses the corpus file at path.
func Load(path string) (model.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Corpus{}, fmt.Errorf("reading corpus file %s: %w", path, err)
	}
	corpus, err := Parse(data)
	if err != nil {
		return model.Corpus{}, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}
	return corpus, nil
}

// Parse decodes a corpus document. JSON input is parsed as YAML.
func Parse(data []byte) (model.Corpus, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Corpus{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return model.Corpus{}, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return parseSequence(root)
	case yaml.MappingNode:
		if isExplicitCorpus(root) {
			var corpus model.Corpus
			if err := root.Decode(&corpus); err != nil {
				return model.Corpus{}, err
			}
			return corpus, nil
		}
		return parseMapping(root)
	default:
		return model.Corpus{}, invalidShape(root)
	}
}

func parseSequence(node *yaml.Node) (model.Corpus, error) {
	if len(node.Content) == 0 {
		return model.Corpus{}, nil
	}

	switch node.Content[0].Kind {
	case yaml.ScalarNode:
		var passages []string
		if err := node.Decode(&passages); err != nil {
			return model.Corpus{}, err
		}
		return model.Corpus{Passages: passages}, nil
	case yaml.MappingNode:
		var pairs []model.QAPair
		if err := node.Decode(&pairs); err != nil {
			return model.Corpus{}, err
		}
		for i, pair := range pairs {
			if pair.Question == "" {
				return model.Corpus{}, internalErrors.NewValidationError("pairs", fmt.Sprintf("entry %d has no question", i))
			}
		}
		return model.Corpus{Pairs: pairs}, nil
	default:
		return model.Corpus{}, invalidShape(node.Content[0])
	}
}

// parseMapping reads a question -> answer mapping in document order.
func parseMapping(node *yaml.Node) (model.Corpus, error) {
	pairs := make([]model.QAPair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return model.Corpus{}, internalErrors.NewValidationError("pairs",
				fmt.Sprintf("line %d: question and answer must both be strings", key.Line))
		}
		pairs = append(pairs, model.QAPair{Question: key.Value, Answer: value.Value})
	}
	return model.Corpus{Pairs: pairs}, nil
}

func isExplicitCorpus(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if (key.Value == "passages" || key.Value == "pairs") && value.Kind == yaml.SequenceNode {
			return true
		}
	}
	return false
}

func invalidShape(node *yaml.Node) error {
	return internalErrors.NewValidationError("corpus",
		fmt.Sprintf("line %d: expected a list of passages, a list of pairs or a question -> answer mapping", node.Line))
}
