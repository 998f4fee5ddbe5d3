package menu

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/manifoldco/promptui"
	runewidth "github.com/mattn/go-runewidth"
)

var errEmptyInput = errors.New("value is required")

// PromptUI implements Prompter on top of promptui.
type PromptUI struct{}

// Select shows an arrow-key driven list.
func (PromptUI) Select(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label:             label,
		Items:             items,
		Size:              10,
		HideHelp:          false,
		StartInSearchMode: false,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}:",
			Active:   "▶ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✅ {{ . | green }}",
			Help:     "{{ \"Navigate:\" | faint }} {{ .NextKey }} {{ .PrevKey }} {{ .PageDownKey }} {{ .PageUpKey }} {{ \"|\" | faint }} {{ \"Exit:\" | faint }} Ctrl + C",
		},
	}

	index, _, err := prompt.Run()
	return index, err
}

// Input reads a single line of text.
func (PromptUI) Input(label, defaultValue string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
	}
	if validate != nil {
		prompt.Validate = validate
	}
	value, err := prompt.Run()
	return strings.TrimSpace(value), err
}

// Confirm asks a yes/no question. A refusal is not an error.
func (PromptUI) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Menu) promptUserSelection(options []MenuOption) (int, error) {
	items, indexes := formatMenuItems(options)

	index, err := m.prompter.Select("Please select an operation", items)
	if err != nil {
		return -1, err
	}

	if index >= 0 && index < len(indexes) {
		return indexes[index], nil
	}

	return -1, errors.New("invalid selection")
}

func formatMenuItems(options []MenuOption) ([]string, []int) {
	entries := buildMenuEntries(options)
	if len(entries) == 0 {
		return nil, nil
	}

	maxPrefixWidth := 0
	maxNumberWidth := 0
	for _, entry := range entries {
		if width := runewidth.StringWidth(entry.prefix); width > maxPrefixWidth {
			maxPrefixWidth = width
		}
		if len(entry.numberPart) > maxNumberWidth {
			maxNumberWidth = len(entry.numberPart)
		}
	}

	items := make([]string, 0, len(entries))
	indexes := make([]int, 0, len(entries))

	for _, entry := range entries {
		prefix := entry.prefix + strings.Repeat(" ", maxPrefixWidth-runewidth.StringWidth(entry.prefix))

		numberColumn := ""
		if entry.numberPart != "" {
			numberColumn = fmt.Sprintf("%*s. ", maxNumberWidth, entry.numberPart)
		} else if maxNumberWidth > 0 {
			numberColumn = strings.Repeat(" ", maxNumberWidth+2)
		}

		items = append(items, fmt.Sprintf("%s %s%s", prefix, numberColumn, entry.textPart))
		indexes = append(indexes, entry.originalIndex)
	}

	return items, indexes
}

type menuEntry struct {
	prefix        string
	numberPart    string
	textPart      string
	originalIndex int
}

var numberPattern = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)

func buildMenuEntries(options []MenuOption) []menuEntry {
	entries := make([]menuEntry, 0, len(options))

	for idx, option := range options {
		if !option.Enabled {
			continue
		}

		numberPart := ""
		textPart := option.Label
		if matches := numberPattern.FindStringSubmatch(option.Label); len(matches) == 3 {
			numberPart = matches[1]
			textPart = matches[2]
		}
		if option.Description != "" {
			textPart += " - " + option.Description
		}

		entries = append(entries, menuEntry{
			prefix:        statusPrefix(option.Color),
			numberPart:    numberPart,
			textPart:      textPart,
			originalIndex: idx,
		})
	}

	return entries
}

func statusPrefix(color string) string {
	switch color {
	case "red":
		return "🔴"
	case "green":
		return "🟢"
	case "yellow":
		return "🟡"
	case "cyan":
		return "🔵"
	default:
		return "⚪"
	}
}

func validateRequired(input string) error {
	if strings.TrimSpace(input) == "" {
		return errEmptyInput
	}
	return nil
}

func validateCSVPath(input string) error {
	if err := validateRequired(input); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(input)), ".csv") {
		return errors.New("please enter a .csv file path")
	}
	return nil
}
