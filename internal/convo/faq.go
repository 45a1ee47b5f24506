package convo

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FAQEntry is one keyword-triggered canned answer.
type FAQEntry struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

type faqFile struct {
	Entries []FAQEntry `yaml:"entries"`
}

// FAQ matches free text against keyword lists in declaration order.
type FAQ struct {
	entries  []FAQEntry
	patterns []*regexp.Regexp
}

// NewFAQ compiles entries. Entries without keywords or an answer are rejected.
func NewFAQ(entries []FAQEntry) (*FAQ, error) {
	f := &FAQ{}
	for i, entry := range entries {
		if len(entry.Keywords) == 0 || strings.TrimSpace(entry.Answer) == "" {
			return nil, fmt.Errorf("faq entry %d: keywords and answer are required", i)
		}
		if entry.Label == "" {
			entry.Label = LabelFAQ
		}
		quoted := make([]string, 0, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(normalise(kw)))
		}
		f.entries = append(f.entries, entry)
		f.patterns = append(f.patterns, regexp.MustCompile(`\b(`+strings.Join(quoted, "|")+`)\b`))
	}
	return f, nil
}

// LoadFAQ reads a YAML document holding either a top-level "entries" list or
// a bare list of entries.
func LoadFAQ(path string) (*FAQ, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq: %w", err)
	}
	var doc faqFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		if lerr := yaml.Unmarshal(raw, &doc.Entries); lerr != nil {
			return nil, fmt.Errorf("parse faq %s: %w", path, err)
		}
	}
	return NewFAQ(doc.Entries)
}

// Match returns the first entry with a keyword in text.
func (f *FAQ) Match(text string) (FAQEntry, bool) {
	if f == nil {
		return FAQEntry{}, false
	}
	for i, re := range f.patterns {
		if re.MatchString(text) {
			return f.entries[i], true
		}
	}
	return FAQEntry{}, false
}

// Merge returns a table holding f's entries followed by other's, so f wins
// where keywords overlap.
func (f *FAQ) Merge(other *FAQ) *FAQ {
	out := &FAQ{}
	for _, src := range []*FAQ{f, other} {
		if src == nil {
			continue
		}
		out.entries = append(out.entries, src.entries...)
		out.patterns = append(out.patterns, src.patterns...)
	}
	return out
}

func (f *FAQ) Len() int {
	if f == nil {
		return 0
	}
	return len(f.entries)
}

var (
	creditScoreTopicRegex = regexp.MustCompile(`^(cibil|cibil score|credit score)$`)
	docsAskRegex          = regexp.MustCompile(`\b(what|which)\b.*\b(documents?|docs)\b|^(documents?|docs)( required| needed)?$`)
)

// faqAnswer covers the fixed explainers and the configurable keyword table.
func (e *Engine) faqAnswer(t *turn) (Result, bool) {
	switch {
	case creditScoreQueryRegex.MatchString(t.text), creditScoreTopicRegex.MatchString(t.text):
		return e.reply(t, LabelCreditScoreInfo, creditScoreInfo), true
	case docsAskRegex.MatchString(t.text):
		return e.reply(t, LabelLoanDocuments, documentsNoCategory), true
	}
	if entry, ok := e.faq.Match(t.text); ok {
		return e.reply(t, entry.Label, entry.Answer), true
	}
	return Result{}, false
}

// DefaultFAQ is used when no FAQ file is configured.
func DefaultFAQ() *FAQ {
	f, err := NewFAQ(defaultFAQEntries)
	if err != nil {
		panic(err)
	}
	return f
}

var defaultFAQEntries = []FAQEntry{
	{
		Keywords: []string{"working hours", "bank timings", "branch timings", "opening hours", "bank open"},
		Answer:   "Our branches are open Monday to Saturday, 10:00 AM to 4:00 PM, except on the 2nd and 4th Saturdays and public holidays.",
	},
	{
		Keywords: []string{"customer care", "helpline", "contact number", "toll free", "call centre", "call center"},
		Answer:   "You can reach our 24x7 customer care at 1800-123-4567 (toll free).",
	},
	{
		Keywords: []string{"ifsc", "ifsc code", "branch code"},
		Answer:   "The IFSC code is printed on your cheque book and passbook. You can also find it in net banking under Account Details.",
	},
	{
		Keywords: []string{"net banking", "internet banking", "online banking"},
		Answer:   "You can register for net banking with your debit card and registered mobile number on our website under 'New User Registration'.",
	},
	{
		Keywords: []string{"cheque book", "checkbook", "cheque"},
		Answer:   "You can request a new cheque book through net banking, the mobile app, or at your home branch. It is delivered within 5-7 working days.",
	},
	{
		Keywords: []string{"kyc", "update kyc", "re-kyc"},
		Answer:   "To update your KYC, visit your branch with your Aadhaar and PAN, or complete video KYC in the mobile app.",
	},
	{
		Keywords: []string{"savings interest", "interest rate on savings", "savings account interest", "fd rate", "fd interest", "fixed deposit rate"},
		Answer:   "Savings accounts earn 3.0% p.a. Fixed deposit rates range from 6.5% to 7.25% p.a. depending on tenure.",
	},
	{
		Keywords: []string{"passbook", "update passbook", "statement of account"},
		Answer:   "Passbooks can be updated at any branch kiosk. E-statements are emailed monthly and can be downloaded from net banking.",
	},
	{
		Label:    LabelGeneralBankingInfo,
		Keywords: []string{"bank", "banking"},
		Answer:   "I can help with cards, ATMs, loans, account opening, balances and transfers. What would you like to do?",
	},
}
