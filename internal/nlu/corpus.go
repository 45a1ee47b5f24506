package nlu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Example is one labelled utterance from the training corpus.
type Example struct {
	Text     string
	Intent   string
	Response string
}

// Corpus is the labelled dataset the classifier is trained on and the source
// of canned replies for predicted labels.
type Corpus struct {
	examples []Example
	byIntent map[string][]int
}

// NewCorpus indexes examples by intent. Rows without text or intent are skipped.
func NewCorpus(examples []Example) *Corpus {
	c := &Corpus{byIntent: make(map[string][]int)}
	for _, ex := range examples {
		ex.Text = strings.TrimSpace(ex.Text)
		ex.Intent = strings.TrimSpace(ex.Intent)
		ex.Response = strings.TrimSpace(ex.Response)
		if ex.Text == "" || ex.Intent == "" {
			continue
		}
		c.byIntent[ex.Intent] = append(c.byIntent[ex.Intent], len(c.examples))
		c.examples = append(c.examples, ex)
	}
	return c
}

// LoadCorpus reads a CSV file with text, intent and response columns.
// encoding is "utf-8" (default) or "latin1".
func LoadCorpus(path, encoding string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
	case "latin1", "latin-1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(f)
	default:
		return nil, fmt.Errorf("unsupported corpus encoding %q", encoding)
	}
	return ReadCorpus(r)
}

// ReadCorpus parses CSV rows. A header row naming text/intent/response columns
// is honoured; without one the first three columns are used in that order.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	cols := map[string]int{"text": 0, "intent": 1, "response": 2}
	var examples []Example
	first := true
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		if first {
			first = false
			if header, ok := parseHeader(rec); ok {
				cols = header
				continue
			}
		}
		examples = append(examples, Example{
			Text:     field(rec, cols["text"]),
			Intent:   field(rec, cols["intent"]),
			Response: field(rec, cols["response"]),
		})
	}
	c := NewCorpus(examples)
	if c.Len() == 0 {
		return nil, errors.New("corpus has no usable rows")
	}
	return c, nil
}

func parseHeader(rec []string) (map[string]int, bool) {
	cols := map[string]int{"text": -1, "intent": -1, "response": -1}
	for i, name := range rec {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	if cols["text"] < 0 || cols["intent"] < 0 {
		return nil, false
	}
	return cols, true
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// Len returns the number of usable examples.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.examples)
}

// Examples returns the indexed examples.
func (c *Corpus) Examples() []Example {
	return c.examples
}

// Labels returns the sorted set of intents present in the corpus.
func (c *Corpus) Labels() []string {
	if c == nil {
		return nil
	}
	labels := make([]string, 0, len(c.byIntent))
	for label := range c.byIntent {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Response returns a stored reply for label, preferring the example whose text
// matches the utterance.
func (c *Corpus) Response(label, text string) (string, bool) {
	if c == nil {
		return "", false
	}
	idxs := c.byIntent[label]
	text = strings.TrimSpace(text)
	for _, i := range idxs {
		if ex := c.examples[i]; ex.Response != "" && strings.EqualFold(ex.Text, text) {
			return ex.Response, true
		}
	}
	for _, i := range idxs {
		if ex := c.examples[i]; ex.Response != "" {
			return ex.Response, true
		}
	}
	return "", false
}
