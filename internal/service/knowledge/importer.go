package knowledge

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/internal/service/memory"
	"github.com/sandevgo/vitalbot/pkg/log"
	"gopkg.in/yaml.v3"
)

const (
	maxContentLength = 2000
	derivedKeywords  = 6
)

//go:embed seeds/*.yaml
var seedFS embed.FS

type Store interface {
	UpsertKnowledge(ctx context.Context, entry core.KnowledgeEntry) error
}

type document struct {
	Entries []core.KnowledgeEntry `yaml:"entries"`
}

var topicCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTopic turns a free-form name into a snake_case topic key.
func NormalizeTopic(s string) string {
	return strings.Trim(topicCleaner.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// ParseYAML reads a document with a top-level entries list.
func ParseYAML(r io.Reader) ([]core.KnowledgeEntry, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode knowledge yaml: %w", err)
	}

	out := make([]core.KnowledgeEntry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		e, err := normalize(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseHTML converts an article into a single entry filed under topic.
func ParseHTML(r io.Reader, topic, source string) (core.KnowledgeEntry, error) {
	text, err := html2text.FromReader(r, html2text.Options{OmitLinks: true})
	if err != nil {
		return core.KnowledgeEntry{}, fmt.Errorf("convert html: %w", err)
	}
	return normalize(core.KnowledgeEntry{Topic: topic, Content: text, Source: source})
}

// ParseText files plain text or markdown under topic.
func ParseText(r io.Reader, topic, source string) (core.KnowledgeEntry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return core.KnowledgeEntry{}, fmt.Errorf("read text: %w", err)
	}
	return normalize(core.KnowledgeEntry{Topic: topic, Content: string(b), Source: source})
}

func normalize(e core.KnowledgeEntry) (core.KnowledgeEntry, error) {
	e.Topic = NormalizeTopic(e.Topic)
	if e.Topic == "" {
		return e, errors.New("topic is required")
	}

	e.Content = strings.Join(strings.Fields(e.Content), " ")
	if e.Content == "" {
		return e, fmt.Errorf("topic %s: content is empty", e.Topic)
	}
	if r := []rune(e.Content); len(r) > maxContentLength {
		e.Content = strings.TrimSpace(string(r[:maxContentLength])) + "..."
	}

	if e.Title == "" {
		e.Title = memory.HumanizeKey(e.Topic)
	}
	e.Title = strings.TrimSpace(e.Title)
	e.Source = strings.TrimSpace(e.Source)

	kws := make([]string, 0, len(e.Keywords))
	for _, k := range e.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		kws = memory.Keywords(e.Title+" "+e.Content, derivedKeywords)
	}
	e.Keywords = kws
	return e, nil
}

type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// ImportFile loads a knowledge file. The format follows the extension:
// yaml for entry lists, html for articles, anything else as plain text.
func (i *Importer) ImportFile(ctx context.Context, path, source string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	topic := strings.TrimSuffix(base, filepath.Ext(base))

	var entries []core.KnowledgeEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = ParseYAML(f)
	case ".html", ".htm":
		var e core.KnowledgeEntry
		e, err = ParseHTML(f, topic, source)
		entries = []core.KnowledgeEntry{e}
	default:
		var e core.KnowledgeEntry
		e, err = ParseText(f, topic, source)
		entries = []core.KnowledgeEntry{e}
	}
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", base, err)
	}
	return i.save(ctx, entries)
}

// ImportSeeds loads the built-in reference entries.
func (i *Importer) ImportSeeds(ctx context.Context) (int, error) {
	files, err := seedFS.ReadDir("seeds")
	if err != nil {
		return 0, fmt.Errorf("read seeds: %w", err)
	}

	total := 0
	for _, f := range files {
		b, err := seedFS.ReadFile("seeds/" + f.Name())
		if err != nil {
			return total, fmt.Errorf("read seed %s: %w", f.Name(), err)
		}
		entries, err := ParseYAML(bytes.NewReader(b))
		if err != nil {
			return total, fmt.Errorf("parse seed %s: %w", f.Name(), err)
		}
		n, err := i.save(ctx, entries)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (i *Importer) save(ctx context.Context, entries []core.KnowledgeEntry) (int, error) {
	logger := log.FromCtx(ctx)
	for n, e := range entries {
		if err := i.store.UpsertKnowledge(ctx, e); err != nil {
			return n, fmt.Errorf("store topic %s: %w", e.Topic, err)
		}
		logger.Debug().Str("topic", e.Topic).Int("keywords", len(e.Keywords)).Msg("knowledge entry stored")
	}
	return len(entries), nil
}
