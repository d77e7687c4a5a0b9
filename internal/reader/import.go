package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/metcalfc/storyreader/internal/novel"
)

// importWorkers bounds how many files are parsed at once.
const importWorkers = 4

// IsSeedFile reports whether filename holds novel records rather than prose.
func IsSeedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Import reads every file into novels. Seed files may contribute several
// novels; any other file contributes one. Results keep argument order, and
// the first failure cancels the rest.
func Import(ctx context.Context, filenames ...string) ([]*novel.Novel, error) {
	results := make([][]*novel.Novel, len(filenames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(importWorkers)
	for i, name := range filenames {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if IsSeedFile(name) {
				novels, err := LoadSeed(name)
				if err != nil {
					return err
				}
				results[i] = novels
				return nil
			}
			n, err := ExtractNovel(name)
			if err != nil {
				return err
			}
			results[i] = []*novel.Novel{n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*novel.Novel
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// LoadSeed reads novels from a YAML or JSON file holding either a single
// novel or a list of them. Chapters without a number are numbered by
// position.
func LoadSeed(filename string) ([]*novel.Novel, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var novels []*novel.Novel
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		novels, err = decodeJSONSeed(data)
	default:
		novels, err = decodeYAMLSeed(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	for pos, n := range novels {
		if n == nil {
			return nil, fmt.Errorf("%s: %w: record %d is empty", filename, novel.ErrInvalid, pos+1)
		}
		for i := range n.Chapters {
			if n.Chapters[i].ChapterNumber == 0 {
				n.Chapters[i].ChapterNumber = i + 1
			}
		}
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return novels, nil
}

// decodeJSONSeed accepts an object or an array of objects.
func decodeJSONSeed(data []byte) ([]*novel.Novel, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var novels []*novel.Novel
		if err := json.Unmarshal(trimmed, &novels); err != nil {
			return nil, err
		}
		return novels, nil
	}
	var n novel.Novel
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil, err
	}
	return []*novel.Novel{&n}, nil
}

// decodeYAMLSeed accepts a mapping or a sequence of mappings. Comments and
// document markers are allowed around either.
func decodeYAMLSeed(data []byte) ([]*novel.Novel, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var novels []*novel.Novel
		if err := root.Decode(&novels); err != nil {
			return nil, err
		}
		return novels, nil
	case yaml.MappingNode:
		var n novel.Novel
		if err := root.Decode(&n); err != nil {
			return nil, err
		}
		return []*novel.Novel{&n}, nil
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: line %d: want a novel or a list of novels", novel.ErrInvalid, root.Line)
}
