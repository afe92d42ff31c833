// internal/words/catalog.go
//
// Catalog loading.
//
// A catalog is a TOML document with one [[words]] table per entry:
//
//	[[words]]
//	word = "sunshine"
//	first = "sun"
//	second = "shine"
//	difficulty = "easy"
//	definition = "Direct light from the sun"
//
// Load reads a catalog file when a path is given and falls back to the
// catalog embedded in the assets package otherwise.

package words

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jvanhorsen/Twixie/assets"
)

type catalogFile struct {
	Words []CompoundWord `toml:"words"`
}

// ParseCatalog decodes a TOML catalog. Words and segments are lowercased and
// trimmed; difficulty names are normalized through ParseDifficulty.
func ParseCatalog(data []byte) ([]CompoundWord, error) {
	var f catalogFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]CompoundWord, 0, len(f.Words))
	for _, w := range f.Words {
		d, err := ParseDifficulty(string(w.Difficulty))
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", w.Word, err)
		}
		out = append(out, CompoundWord{
			Word:          normalize(w.Word),
			FirstSegment:  normalize(w.FirstSegment),
			SecondSegment: normalize(w.SecondSegment),
			Difficulty:    d,
			Definition:    strings.TrimSpace(w.Definition),
		})
	}
	return out, nil
}

// Load builds a Bank from the catalog at path, or from the embedded catalog
// when path is empty.
func Load(path string, opts ...Option) (*Bank, error) {
	data := assets.Catalog()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = b
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("catalog is empty: %w", ErrNoWordsAvailable)
	}
	return NewBank(catalog, opts...)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
