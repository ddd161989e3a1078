package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/schemconv/pkg/render"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

// View styles
var (
	viewGridStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	viewAirStyle    = lipgloss.NewStyle().Foreground(colorDim)
	viewBlockStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	viewLegendStyle = lipgloss.NewStyle().Foreground(colorGray)
	viewDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayerModel - Interactive layer browser
// =============================================================================

// regionLayers is one region pre-sliced into layers.
type regionLayers struct {
	Name   string
	Size   schematic.Position
	Layers []render.Layer
}

// LayerModel is the bubbletea model for browsing a schematic layer by layer.
type LayerModel struct {
	Title   string
	Regions []regionLayers
	Region  int
	Layer   int
	Height  int // visible grid rows
	Offset  int // first visible grid row
}

// NewLayerModel slices every region of s. Regions are in name order.
func NewLayerModel(s *schematic.Schematic) LayerModel {
	m := LayerModel{Title: s.Metadata.Name, Height: 30}
	if m.Title == "" {
		m.Title = render.UnnamedLabel
	}
	for _, r := range s.SortedRegions() {
		m.Regions = append(m.Regions, regionLayers{Name: r.Name, Size: r.Size, Layers: render.Layers(r)})
	}
	return m
}

func (m LayerModel) Init() tea.Cmd {
	return nil
}

func (m LayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "pgup":
			if m.Layer < m.layerCount()-1 {
				m.Layer++
			}
		case "down", "j", "pgdown":
			if m.Layer > 0 {
				m.Layer--
			}
		case "home", "g":
			m.Layer = 0
		case "end", "G":
			m.Layer = max(m.layerCount()-1, 0)
		case "tab", "right", "l":
			if len(m.Regions) > 0 {
				m.Region = (m.Region + 1) % len(m.Regions)
				m.Layer, m.Offset = 0, 0
			}
		case "shift+tab", "left", "h":
			if len(m.Regions) > 0 {
				m.Region = (m.Region + len(m.Regions) - 1) % len(m.Regions)
				m.Layer, m.Offset = 0, 0
			}
		case "J":
			if m.Offset+m.Height < m.rowCount() {
				m.Offset++
			}
		case "K":
			if m.Offset > 0 {
				m.Offset--
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m LayerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("↑/↓ layer  ←/→ region  J/K scroll  q quit"))
	b.WriteString("\n\n")

	if len(m.Regions) == 0 {
		b.WriteString(viewDimStyle.Render("(no regions)"))
		b.WriteString("\n")
		return b.String()
	}

	r := m.Regions[m.Region]
	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		StyleValue.Render(r.Name),
		viewDimStyle.Render(fmt.Sprintf("[%d/%d]", m.Region+1, len(m.Regions))),
		viewDimStyle.Render(fmt.Sprintf("%dx%dx%d", r.Size.X, r.Size.Y, r.Size.Z))))

	if len(r.Layers) == 0 {
		b.WriteString(viewDimStyle.Render("(empty region)"))
		b.WriteString("\n")
		return b.String()
	}

	l := r.Layers[m.Layer]
	b.WriteString(viewLegendStyle.Render(fmt.Sprintf("y=%d  layer %d/%d", l.Y, m.Layer+1, len(r.Layers))))
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(l.Rows))
	rows := make([]string, 0, end-m.Offset)
	for _, row := range l.Rows[m.Offset:end] {
		rows = append(rows, colorRow(row))
	}
	grid := viewGridStyle.Render(strings.Join(rows, "\n"))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", legend(l.Legend)))
	b.WriteString("\n")
	return b.String()
}

func (m LayerModel) layerCount() int {
	if len(m.Regions) == 0 {
		return 0
	}
	return len(m.Regions[m.Region].Layers)
}

func (m LayerModel) rowCount() int {
	if m.layerCount() == 0 {
		return 0
	}
	return len(m.Regions[m.Region].Layers[m.Layer].Rows)
}

// colorRow dims air so structure stands out.
func colorRow(row string) string {
	var b strings.Builder
	for _, r := range row {
		if r == '.' {
			b.WriteString(viewAirStyle.Render("."))
		} else {
			b.WriteString(viewBlockStyle.Render(string(r)))
		}
	}
	return b.String()
}

func legend(entries []render.Legend) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, viewBlockStyle.Render(string(e.Glyph))+" "+viewLegendStyle.Render(e.State.String()))
	}
	return strings.Join(lines, "\n")
}
