package shell

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

var (
	successText = color.New(color.FgGreen)
	warnText    = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
)

// strengthText colors a generator.Strength by its Color name.
var strengthText = map[string]*color.Color{
	"red":    color.New(color.FgRed),
	"orange": color.New(color.FgHiRed),
	"yellow": color.New(color.FgYellow),
	"green":  color.New(color.FgGreen),
}

func init() {
	// https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
}

// progress shows a spinner on interactive terminals until the returned
// function is called.
func (s *Shell) progress(message string) func() {
	if s.readPassword == nil {
		return func() {}
	}
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.out))
	sp.Suffix = " " + message
	sp.Start()
	return sp.Stop
}
