package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// FileProvider loads a corpus from a JSON file on disk.
//
// Expected format:
//
//	{
//	  "synonyms": [{"pos": "verb", "lemmas": ["create", "add"]}],
//	  "antonyms": [{"pos": "verb", "a": "create", "b": "delete"}]
//	}
type FileProvider struct {
	path   string
	logger *zap.Logger
}

// NewFileProvider creates a provider reading the corpus file at path.
func NewFileProvider(path string, logger *zap.Logger) *FileProvider {
	return &FileProvider{path: path, logger: logger}
}

func (p *FileProvider) Name() string { return "file:" + p.path }

// Load reads and parses the corpus file.
func (p *FileProvider) Load(_ context.Context) (*Corpus, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", p.path, err)
	}

	var doc struct {
		Synonyms []SynonymGroup `json:"synonyms"`
		Antonyms []AntonymPair  `json:"antonyms"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", p.path, err)
	}
	if len(doc.Synonyms) == 0 && len(doc.Antonyms) == 0 {
		return nil, fmt.Errorf("corpus %s is empty", p.path)
	}

	p.logger.Debug("corpus file parsed",
		zap.String("path", p.path),
		zap.Int("synonym_groups", len(doc.Synonyms)),
		zap.Int("antonym_pairs", len(doc.Antonyms)))

	return NewCorpus(doc.Synonyms, doc.Antonyms), nil
}
