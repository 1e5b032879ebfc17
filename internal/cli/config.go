package cli

import (
	"log/slog"

	"github.com/happyhackingspace/senti"
	"github.com/happyhackingspace/senti/preprocess"
	"github.com/spf13/cobra"
)

// modelFlags are the classifier graph flags shared by train and evaluate.
// Flags given on the command line override the config file.
type modelFlags struct {
	configPath string
	algorithm  string
	ngrams     []int
	weighting  string
	selector   string
	top        float64
	alpha      float64
	positive   string
	negative   string
	pre        preprocess.Options
}

func (f *modelFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.algorithm, "algorithm", senti.NaiveBayes, "Classifier: naive_bayes, max_ent, dictionary, hierarchical")
	fs.IntSliceVar(&f.ngrams, "ngrams", []int{1}, "N-gram sizes")
	fs.StringVar(&f.weighting, "weighting", "count", "Feature weighting: boolean, count, delta_tfidf")
	fs.StringVar(&f.selector, "selector", senti.SelectNone, "Feature selection: none, mutual_information, delta_idf")
	fs.Float64Var(&f.top, "top", 0, "Features kept by the selector (fraction when <= 1)")
	fs.Float64Var(&f.alpha, "alpha", 1, "Naive Bayes smoothing")
	fs.StringVar(&f.positive, "positive-words", "", "Positive lexicon for the dictionary classifier")
	fs.StringVar(&f.negative, "negative-words", "", "Negative lexicon for the dictionary classifier")

	fs.BoolVar(&f.pre.All, "all-preprocessors", false, "Enable all standard preprocessors")
	fs.BoolVar(&f.pre.HTMLStrip, "html-strip", false, "Strip HTML markup and entities")
	fs.BoolVar(&f.pre.Lowercase, "lowercase", false, "Lowercase text")
	fs.BoolVar(&f.pre.EncodeURLs, "encode-urls", false, "Replace URLs with a placeholder")
	fs.BoolVar(&f.pre.URLDomains, "url-domains", false, "Keep the domain in URL placeholders")
	fs.BoolVar(&f.pre.EncodeMentions, "encode-mentions", false, "Replace @mentions with a placeholder")
	fs.BoolVar(&f.pre.EncodeEmoticons, "encode-emoticons", false, "Replace emoticons with placeholders")
	fs.BoolVar(&f.pre.RemoveHashtags, "remove-hashtags", false, "Drop the # of hashtags")
	fs.BoolVar(&f.pre.RemoveLengthening, "remove-lengthening", false, "Shorten letter runs")
	fs.BoolVar(&f.pre.RemovePunctuation, "remove-punctuation", false, "Remove punctuation")
	fs.BoolVar(&f.pre.RemoveStopwords, "remove-stopwords", false, "Remove English stopwords")
	fs.BoolVar(&f.pre.Stem, "stem", false, "Stem tokens")
	fs.BoolVar(&f.pre.RemoveWhitespace, "remove-whitespace", false, "Collapse whitespace")
}

var preprocessFlags = []string{
	"all-preprocessors", "html-strip", "lowercase", "encode-urls", "url-domains",
	"encode-mentions", "encode-emoticons", "remove-hashtags", "remove-lengthening",
	"remove-punctuation", "remove-stopwords", "stem", "remove-whitespace",
}

// config loads the config file, if any, and applies the flags that were set.
func (f *modelFlags) config(cmd *cobra.Command) (senti.Config, error) {
	cfg := senti.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = senti.LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
		slog.Debug("Config loaded", "path", f.configPath)
	}

	fs := cmd.Flags()
	if fs.Changed("algorithm") {
		cfg.Algorithm = f.algorithm
	}
	if fs.Changed("ngrams") {
		cfg.Ngrams = f.ngrams
	}
	if fs.Changed("weighting") {
		cfg.Weighting = f.weighting
	}
	if fs.Changed("selector") {
		cfg.Selector.Strategy = f.selector
	}
	if fs.Changed("top") {
		cfg.Selector.Top = f.top
	}
	if fs.Changed("alpha") {
		cfg.NaiveBayes.Alpha = f.alpha
	}
	if fs.Changed("positive-words") {
		cfg.Dictionary.Positive = f.positive
	}
	if fs.Changed("negative-words") {
		cfg.Dictionary.Negative = f.negative
	}
	for _, name := range preprocessFlags {
		if fs.Changed(name) {
			cfg.Preprocess = f.pre
			break
		}
	}
	return cfg, cfg.Validate()
}
