package setup

import (
	"errors"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks the user for answers.
type Prompter interface {
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Number(message string, def float64) (float64, error)
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string) (string, error)
}

var _ Prompter = SurveyPrompter{}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct {
	Opts []survey.AskOpt
}

func (p SurveyPrompter) Input(message, def string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, p.Opts...)
	return strings.TrimSpace(out), err
}

func (p SurveyPrompter) Password(message string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Password{Message: message}, &out, p.Opts...)
	return out, err
}

func (p SurveyPrompter) Number(message string, def float64) (float64, error) {
	var out string
	opts := append([]survey.AskOpt{survey.WithValidator(validNumber)}, p.Opts...)
	err := survey.AskOne(&survey.Input{
		Message: message,
		Default: strconv.FormatFloat(def, 'f', -1, 64),
	}, &out, opts...)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out), 64)
}

func (p SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out, p.Opts...)
	return out, err
}

func (p SurveyPrompter) Select(message string, options []string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &out, p.Opts...)
	return out, err
}

func validNumber(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return errors.New("expected text input")
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return errors.New("please enter a number")
	}
	return nil
}
