package main

import (
	"context"
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"
)

var (
	errAborted      = errors.New("prompt aborted")
	errNoTemplate   = errors.New("template name is required")
	errNotATerminal = errors.New("template name is required when stdin is not a terminal")
)

type surveyPrompter struct {
	interactive bool
}

func newSurveyPrompter() *surveyPrompter {
	return &surveyPrompter{interactive: term.IsTerminal(int(os.Stdin.Fd()))}
}

// chooseTemplate asks for a template name, offering names when known.
func (p *surveyPrompter) chooseTemplate(ctx context.Context, names []string) (string, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if !p.interactive {
		return "", errNotATerminal
	}

	var out string
	var prompt survey.Prompt
	if len(names) > 0 {
		prompt = &survey.Select{
			Message:  "Template to render:",
			Options:  names,
			PageSize: 15,
		}
	} else {
		prompt = &survey.Input{
			Message: "Template to render:",
			Help:    "Name passed to the resolver chain, for example home or mail/welcome",
		}
	}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required)); err != nil {
		return "", translateSurveyErr(err)
	}
	if out == "" {
		return "", errNoTemplate
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
