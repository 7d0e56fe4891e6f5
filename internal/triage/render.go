package triage

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"promosweep/internal/model"
)

var (
	batchStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	senderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func batchHeader(first, last, total int) string {
	return batchStyle.Render(fmt.Sprintf("Senders %d-%d of %d", first, last, total))
}

// senderLines renders one sender of a batch. pos is 1-based within the batch
// so it lines up with the decision string.
func senderLines(pos int, b model.SenderBucket, s model.MessageSummary) []string {
	lines := []string{
		senderStyle.Render(fmt.Sprintf("%d. %s (%d emails)", pos, b.Sender, b.Count)),
		detailStyle.Render("   Subject: " + s.Subject),
		detailStyle.Render("   Snippet: " + s.Snippet),
	}
	if s.Unsubscribe != "" {
		lines = append(lines, detailStyle.Render("   Unsubscribe: "+s.Unsubscribe))
	}
	return lines
}

func decisionPrompt(n int) string {
	return fmt.Sprintf("Enter %d decisions (y=ignore, n=delete all, s=skip, q=quit): ", n)
}
