package cmd

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/etnz/folio/polygon"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// nothing predicts no value.
var nothing = complete.PredictFunc(func(string) []string { return nil })

// dirs predicts the directories starting with prefix.
var dirs = complete.PredictFunc(func(prefix string) []string {
	matches, _ := filepath.Glob(prefix + "*")
	var res []string
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.IsDir() {
			res = append(res, m+string(filepath.Separator))
		}
	}
	return res
})

// flagPredictors are the predictors of flag values by flag name.
var flagPredictors = map[string]complete.Predictor{
	"db-driver": predict.Set{"sqlite", "postgres"},
	"period":    predict.Set{"day", "week", "month", "quarter", "year"},
	"s":         predict.Set{"0d", "-1d", "-1w", "-1m", "-1q", "-1y"},
	"d":         predict.Set{"0d", "-1d", "-1w", "-1m", "-1q", "-1y"},
	"t":         predict.Set(polygon.Fortune500),
	"market":    dirs,
}

// Completion returns the shell completion of the commands registered in commander.
//
// Call its Complete method before parsing the flags: it is a no-op unless the
// shell is asking for completions.
func Completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
		Args:  nothing,
	}
	commander.VisitAll(func(f *flag.Flag) { root.Flags[f.Name] = predictor(f) })
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		sub := &complete.Command{
			Flags: make(map[string]complete.Predictor),
			Args:  nothing,
		}
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		fs.VisitAll(func(f *flag.Flag) { sub.Flags[f.Name] = predictor(f) })
		if c.Name() == "populate" {
			sub.Args = predict.Set(polygon.Fortune500)
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

// predictor returns the predictor of the values of f.
func predictor(f *flag.Flag) complete.Predictor {
	if p, ok := flagPredictors[f.Name]; ok {
		return p
	}
	return nothing
}
