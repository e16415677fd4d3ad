package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/mstolarz/council"
	"github.com/mstolarz/council/goldmark"
)

var _ MessageBlock = (*StagedBlock)(nil)

// StagedBlock renders a completed council turn. The synthesis is always
// shown; the stage 1 responses and stage 2 rankings sit behind a collapsible
// toggle because they carry every expert's full text.
type StagedBlock struct {
	msg       council.AssistantStaged
	collapsed bool
	theme     council.Theme
	styles    Styles
}

// NewStagedBlock creates a StagedBlock that starts collapsed.
func NewStagedBlock(msg council.AssistantStaged, theme council.Theme, styles Styles) *StagedBlock {
	return &StagedBlock{msg: msg, collapsed: true, theme: theme, styles: styles}
}

func (b *StagedBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *StagedBlock) View(width int) string {
	var sections []string

	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	header := b.styles.Stage.Render(fmt.Sprintf("%s council · %d responses · %d rankings",
		indicator, len(b.msg.Stage1), len(b.msg.Stage2)))
	sections = append(sections, header)

	if !b.collapsed {
		sections = append(sections, b.stage1View(width))
		if len(b.msg.Stage2) > 0 {
			sections = append(sections, b.stage2View(width))
		}
	}

	if b.msg.Stage3 != nil {
		var final strings.Builder
		if b.msg.Stage3.DisplayName != "" {
			final.WriteString(b.styles.Accent.Render(b.msg.Stage3.DisplayName))
			final.WriteString("\n")
		}
		final.WriteString(goldmark.Render(b.msg.Stage3.Text, width, b.theme))
		sections = append(sections, final.String())
	}

	return lipgloss.NewStyle().Width(width).Render(strings.Join(sections, "\n"))
}

func (b *StagedBlock) stage1View(width int) string {
	var s strings.Builder
	for i, r := range b.msg.Stage1 {
		if i > 0 {
			s.WriteString("\n")
		}
		name := r.DisplayName
		if r.IsFailover && r.OriginalDisplayName != "" {
			name += b.styles.Muted.Render(" (failover for " + r.OriginalDisplayName + ")")
		}
		s.WriteString(b.styles.Accent.Render(name))
		s.WriteString("\n")
		s.WriteString(goldmark.Render(r.Text, width, b.theme))
		s.WriteString("\n")
	}
	return s.String()
}

// stage2View renders the aggregate ranking table, one row per model, with
// names padded to a common display width.
func (b *StagedBlock) stage2View(width int) string {
	var s strings.Builder
	s.WriteString(b.styles.Stage.Render("peer rankings"))
	s.WriteString("\n")

	agg := b.msg.Metadata.AggregateRankings
	nameWidth := 0
	for _, a := range agg {
		if w := runewidth.StringWidth(a.Model); w > nameWidth {
			nameWidth = w
		}
	}
	for i, a := range agg {
		pad := strings.Repeat(" ", nameWidth-runewidth.StringWidth(a.Model))
		s.WriteString(fmt.Sprintf("  %s%s  avg %.2f (%d votes)", a.Model, pad, a.AverageRank, a.RankingsCount))
		if i < len(agg)-1 {
			s.WriteString("\n")
		}
	}
	if len(agg) == 0 {
		for i, r := range b.msg.Stage2 {
			s.WriteString("  " + b.styles.Muted.Render(r.DisplayName+": "+strings.Join(r.ParsedOrder, " > ")))
			if i < len(b.msg.Stage2)-1 {
				s.WriteString("\n")
			}
		}
	}
	return s.String()
}
