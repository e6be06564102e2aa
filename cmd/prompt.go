package cmd

import (
	"github.com/charmbracelet/huh"
)

// runForm shows fields as one group with key help at the bottom.
func runForm(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeCharm()).
		WithShowHelp(true).
		Run()
}

// promptString asks for one line of text. The current value is shown as the
// placeholder and returned when the answer is left empty.
func promptString(title, description, current string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if current != "" {
		inp = inp.Placeholder(current)
	}

	if err := runForm(inp); err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// promptPassword asks for a secret without echoing it.
func promptPassword(title, description string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}

	if err := runForm(inp); err != nil {
		return "", err
	}
	return value, nil
}

// promptSelect shows a single-choice list and returns the chosen value.
func promptSelect[T comparable](title string, options []SelectOption[T], defaultIdx int) (T, error) {
	var value T
	sel := huh.NewSelect[T]().
		Title(title).
		Options(toHuhOptions(options, func(i int, _ T) bool { return i == defaultIdx })...).
		Value(&value)

	if err := runForm(sel); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// promptMultiSelect shows a checklist with preselected values ticked.
func promptMultiSelect[T comparable](title, description string, options []SelectOption[T], preselected []T) ([]T, error) {
	pre := make(map[T]bool, len(preselected))
	for _, v := range preselected {
		pre[v] = true
	}

	var values []T
	ms := huh.NewMultiSelect[T]().
		Title(title).
		Options(toHuhOptions(options, func(_ int, v T) bool { return pre[v] })...).
		Value(&values)
	if description != "" {
		ms = ms.Description(description)
	}

	if err := runForm(ms); err != nil {
		return nil, err
	}
	return values, nil
}

// promptConfirm asks a yes/no question.
func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	c := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&value)

	if err := runForm(c); err != nil {
		return false, err
	}
	return value, nil
}

// SelectOption is one choice in a select prompt.
type SelectOption[T any] struct {
	Label string
	Value T
}

func toHuhOptions[T comparable](options []SelectOption[T], selected func(int, T) bool) []huh.Option[T] {
	out := make([]huh.Option[T], len(options))
	for i, opt := range options {
		o := huh.NewOption(opt.Label, opt.Value)
		if selected(i, opt.Value) {
			o = o.Selected(true)
		}
		out[i] = o
	}
	return out
}
