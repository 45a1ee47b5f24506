package nlu

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/jbrukh/bayesian"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "am": {}, "i": {}, "me": {}, "my": {},
	"you": {}, "your": {}, "to": {}, "of": {}, "for": {}, "in": {}, "on": {}, "and": {},
	"or": {}, "it": {}, "this": {}, "that": {}, "be": {}, "do": {}, "can": {}, "please": {},
	"with": {}, "at": {}, "by": {}, "from": {}, "we": {}, "our": {},
}

// NaiveBayes adapts a bayesian.Classifier trained on unigrams and bigrams to
// the Classifier interface. It is immutable once trained.
type NaiveBayes struct {
	model *bayesian.Classifier
	vocab map[string]struct{}
}

// TrainNaiveBayes fits a model on every example in the corpus. The corpus
// needs at least two intents.
func TrainNaiveBayes(corpus *Corpus) (*NaiveBayes, error) {
	if corpus.Len() == 0 {
		return nil, errors.New("nlu: empty corpus")
	}
	labels := corpus.Labels()
	if len(labels) < 2 {
		return nil, errors.New("nlu: corpus needs at least two intents")
	}
	classes := make([]bayesian.Class, len(labels))
	for i, l := range labels {
		classes[i] = bayesian.Class(l)
	}

	nb := &NaiveBayes{model: bayesian.NewClassifier(classes...), vocab: make(map[string]struct{})}
	for _, ex := range corpus.Examples() {
		toks := features(ex.Text)
		nb.model.Learn(toks, bayesian.Class(ex.Intent))
		for _, tok := range toks {
			nb.vocab[tok] = struct{}{}
		}
	}
	return nb, nil
}

// Predict returns a probability distribution over the trained labels. Text
// with no known features yields a uniform distribution.
func (nb *NaiveBayes) Predict(_ context.Context, text string) (Prediction, error) {
	var known []string
	for _, tok := range features(text) {
		if _, ok := nb.vocab[tok]; ok {
			known = append(known, tok)
		}
	}

	classes := nb.model.Classes
	probs := make(map[string]float64, len(classes))
	if len(known) == 0 {
		for _, c := range classes {
			probs[string(c)] = 1 / float64(len(classes))
		}
		return best(classes, probs), nil
	}

	// Log scores are normalised here rather than through ProbScores, which
	// multiplies raw probabilities and underflows on longer messages.
	scores, _, _ := nb.model.LogScores(known)
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	var sum float64
	for i, s := range scores {
		p := math.Exp(s - maxScore)
		probs[string(classes[i])] = p
		sum += p
	}
	for label := range probs {
		probs[label] /= sum
	}
	return best(classes, probs), nil
}

func best(classes []bayesian.Class, probs map[string]float64) Prediction {
	pred := Prediction{Probabilities: probs}
	for _, c := range classes {
		if p := probs[string(c)]; p > pred.Confidence {
			pred.Label = string(c)
			pred.Confidence = p
		}
	}
	return pred
}

func features(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	out := make([]string, 0, len(kept)*2)
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}
