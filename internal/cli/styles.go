// Package cli provides styled terminal output and the interactive review
// loop for the triage command.
package cli

import (
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#2196F3")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFA500") // Orange
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF4D4D") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#808080") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered record cards.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#DDDDDD")).
			Padding(0, 2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	InboxIcon   = "📬"
	EditIcon    = "✏️"
	ExportIcon  = "📤"
)

// Display is how a label is presented in the terminal.
type Display struct {
	Style lipgloss.Style
	Icon  string
	Name  string
}

// Badge renders the icon and name in the label's style.
func (d Display) Badge() string {
	return d.Style.Render(d.Icon + " " + d.Name)
}

var displays = map[string]Display{
	string(model.CategoryUrgent): {
		Icon:  "🔴",
		Name:  model.CategoryUrgent.DisplayName(),
		Style: lipgloss.NewStyle().Bold(true).Foreground(ErrorColor),
	},
	string(model.CategoryReadLater): {
		Icon:  "🟡",
		Name:  model.CategoryReadLater.DisplayName(),
		Style: lipgloss.NewStyle().Bold(true).Foreground(WarningColor),
	},
	string(model.CategoryIgnore): {
		Icon:  "🚫",
		Name:  model.CategoryIgnore.DisplayName(),
		Style: lipgloss.NewStyle().Italic(true).Foreground(SubtleColor),
	},
	model.FailedLabel: {
		Icon:  WarningIcon,
		Name:  "Classification failed",
		Style: lipgloss.NewStyle().Bold(true).Foreground(ErrorColor).Underline(true),
	},
}

// DisplayFor looks up the presentation of an exported label. Unknown labels
// are shown as is.
func DisplayFor(label string) Display {
	if d, ok := displays[label]; ok {
		return d
	}
	return Display{Icon: "•", Name: label, Style: lipgloss.NewStyle()}
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the inbox icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(InboxIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}
