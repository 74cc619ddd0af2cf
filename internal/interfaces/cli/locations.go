package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/client"
	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

// NewLocationsCommand creates the locations command
func NewLocationsCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Browse the city, zone, and area directory",
		Long: `Launch an interactive browser over the courier's location hierarchy.

Drill from cities into their zones and areas to find the exact names
that 'stores create' expects. Each level is downloaded once and then
served from the local cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocations(container)
		},
	}
}

// runLocations starts the terminal browser
func runLocations(container *di.Container) error {
	apiClient, err := container.Client()
	if err != nil {
		return err
	}

	model := newLocationsModel(apiClient)

	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("locations browser failed: %w", err)
	}

	return nil
}

// browseLevel identifies which tier of the hierarchy is on screen
type browseLevel int

const (
	browseCities browseLevel = iota
	browseZones
	browseAreas
)

// locationRow is one selectable entry in the browser table
type locationRow struct {
	ID   int
	Name string
}

// locationsModel holds the state for the Bubble Tea browser
type locationsModel struct {
	client *client.Client

	level        browseLevel
	cities       []locationRow
	zones        []locationRow
	areas        []locationRow
	cityRow      int
	zoneRow      int
	areaRow      int
	parentCity   locationRow
	parentZone   locationRow
	loading      bool
	windowWidth  int
	windowHeight int
	err          error
}

// newLocationsModel creates a new browser model
func newLocationsModel(apiClient *client.Client) locationsModel {
	return locationsModel{
		client:  apiClient,
		level:   browseCities,
		loading: true,
	}
}

// Init implements the Bubble Tea init method
func (m locationsModel) Init() tea.Cmd {
	return m.loadCitiesCmd()
}

// Update implements the Bubble Tea update method
func (m locationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			m.moveCursor(-1)
			return m, nil

		case "down", "j":
			m.moveCursor(1)
			return m, nil

		case "enter", "right", "l":
			return m.descend()

		case "esc", "left", "h":
			m.ascend()
			return m, nil

		case "r":
			return m.reload()
		}

	case citiesLoadedMsg:
		m.cities = msg.rows
		m.loading = false
		if m.cityRow >= len(m.cities) {
			m.cityRow = 0
		}
		return m, nil

	case zonesLoadedMsg:
		m.zones = msg.rows
		m.loading = false
		if m.zoneRow >= len(m.zones) {
			m.zoneRow = 0
		}
		return m, nil

	case areasLoadedMsg:
		m.areas = msg.rows
		m.loading = false
		if m.areaRow >= len(m.areas) {
			m.areaRow = 0
		}
		return m, nil

	case locationsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil
	}

	return m, nil
}

// moveCursor shifts the selection on the current level, clamped to the list
func (m *locationsModel) moveCursor(delta int) {
	rows := m.currentRows()
	cursor := m.currentCursor() + delta
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(rows)-1 {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.setCurrentCursor(cursor)
}

// descend drills into the selected entry, loading its children
func (m locationsModel) descend() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	switch m.level {
	case browseCities:
		if m.cityRow >= len(m.cities) {
			return m, nil
		}
		m.parentCity = m.cities[m.cityRow]
		m.level = browseZones
		m.zoneRow = 0
		m.zones = nil
		m.loading = true
		return m, m.loadZonesCmd(m.parentCity.ID)

	case browseZones:
		if m.zoneRow >= len(m.zones) {
			return m, nil
		}
		m.parentZone = m.zones[m.zoneRow]
		m.level = browseAreas
		m.areaRow = 0
		m.areas = nil
		m.loading = true
		return m, m.loadAreasCmd(m.parentZone.ID)
	}

	return m, nil
}

// ascend moves back up one level, keeping the previous selection
func (m *locationsModel) ascend() {
	switch m.level {
	case browseZones:
		m.level = browseCities
		m.loading = false
		m.err = nil
	case browseAreas:
		m.level = browseZones
		m.loading = false
		m.err = nil
	}
}

// reload refetches the level currently on screen
func (m locationsModel) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	switch m.level {
	case browseZones:
		return m, m.loadZonesCmd(m.parentCity.ID)
	case browseAreas:
		return m, m.loadAreasCmd(m.parentZone.ID)
	default:
		return m, m.loadCitiesCmd()
	}
}

func (m locationsModel) currentRows() []locationRow {
	switch m.level {
	case browseZones:
		return m.zones
	case browseAreas:
		return m.areas
	default:
		return m.cities
	}
}

func (m locationsModel) currentCursor() int {
	switch m.level {
	case browseZones:
		return m.zoneRow
	case browseAreas:
		return m.areaRow
	default:
		return m.cityRow
	}
}

func (m *locationsModel) setCurrentCursor(cursor int) {
	switch m.level {
	case browseZones:
		m.zoneRow = cursor
	case browseAreas:
		m.areaRow = cursor
	default:
		m.cityRow = cursor
	}
}

// View implements the Bubble Tea view method
func (m locationsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'r' to retry, 'esc' to go back, or 'q' to quit", m.err)
	}

	header := m.renderHeader()
	table := m.renderTable()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, table, footer)
}

// renderHeader renders the title and breadcrumb
func (m locationsModel) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("📍 Pathao Locations")

	breadcrumb := "Cities"
	switch m.level {
	case browseZones:
		breadcrumb = fmt.Sprintf("%s > Zones", m.parentCity.Name)
	case browseAreas:
		breadcrumb = fmt.Sprintf("%s > %s > Areas", m.parentCity.Name, m.parentZone.Name)
	}

	count := fmt.Sprintf("%d entries", len(m.currentRows()))
	if m.loading {
		count = "loading..."
	}

	line := lipgloss.JoinHorizontal(lipgloss.Left,
		title,
		"  ",
		breadcrumb,
		"  │  ",
		count,
	)

	return lipgloss.JoinVertical(lipgloss.Left, line, m.renderDivider())
}

// renderTable renders the entries of the current level
func (m locationsModel) renderTable() string {
	if m.loading {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("\n  Fetching from the courier API...\n")
	}

	rows := m.currentRows()
	if len(rows) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Render("\n  Nothing here. The courier lists no entries at this level.\n")
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render(fmt.Sprintf("  %6s │ %s", "ID", "NAME"))

	lines := []string{header}

	cursor := m.currentCursor()
	start, end := visibleWindow(len(rows), cursor, m.maxVisibleRows())

	for i := start; i < end; i++ {
		rowStyle := lipgloss.NewStyle()
		marker := "  "
		if i == cursor {
			rowStyle = rowStyle.Background(lipgloss.Color("240"))
			marker = "▸ "
		}

		line := fmt.Sprintf("%s%6d │ %s", marker, rows[i].ID, truncateName(rows[i].Name, 48))
		lines = append(lines, rowStyle.Render(line))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderFooter renders the control instructions footer
func (m locationsModel) renderFooter() string {
	controls := "Controls: [↑↓] Navigate | [Enter] Open | [Esc] Back | [r] Refresh | [q] Quit"
	if m.level == browseAreas {
		controls = "Controls: [↑↓] Navigate | [Esc] Back | [r] Refresh | [q] Quit"
	}

	styled := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render(controls)

	return lipgloss.JoinVertical(lipgloss.Left, m.renderDivider(), styled)
}

func (m locationsModel) renderDivider() string {
	width := m.windowWidth
	if width <= 0 || width > 120 {
		width = 80
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(strings.Repeat("─", width))
}

// maxVisibleRows is the number of table rows that fit between header and footer
func (m locationsModel) maxVisibleRows() int {
	visible := m.windowHeight - 6
	if visible < 5 {
		visible = 5
	}
	return visible
}

// visibleWindow picks the slice of rows to draw so the cursor stays on screen
func visibleWindow(total, cursor, max int) (start, end int) {
	if total <= max {
		return 0, total
	}
	start = cursor - max/2
	if start < 0 {
		start = 0
	}
	end = start + max
	if end > total {
		end = total
		start = end - max
	}
	return start, end
}

// truncateName truncates a name to the specified length
func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// citiesLoadedMsg is sent when the city list is loaded
type citiesLoadedMsg struct {
	rows []locationRow
}

// zonesLoadedMsg is sent when a city's zones are loaded
type zonesLoadedMsg struct {
	rows []locationRow
}

// areasLoadedMsg is sent when a zone's areas are loaded
type areasLoadedMsg struct {
	rows []locationRow
}

// locationsErrMsg is sent when a fetch fails
type locationsErrMsg struct {
	err error
}

// loadCitiesCmd loads the city list through the cache
func (m locationsModel) loadCitiesCmd() tea.Cmd {
	return func() tea.Msg {
		cities, err := m.client.Cities(context.Background())
		if err != nil {
			return locationsErrMsg{err: fmt.Errorf("failed to load cities: %w", err)}
		}
		return citiesLoadedMsg{rows: cityRows(cities)}
	}
}

// loadZonesCmd loads one city's zones through the cache
func (m locationsModel) loadZonesCmd(cityID int) tea.Cmd {
	return func() tea.Msg {
		zones, err := m.client.Zones(context.Background(), cityID)
		if err != nil {
			return locationsErrMsg{err: fmt.Errorf("failed to load zones: %w", err)}
		}
		return zonesLoadedMsg{rows: zoneRows(zones)}
	}
}

// loadAreasCmd loads one zone's areas through the cache
func (m locationsModel) loadAreasCmd(zoneID int) tea.Cmd {
	return func() tea.Msg {
		areas, err := m.client.Areas(context.Background(), zoneID)
		if err != nil {
			return locationsErrMsg{err: fmt.Errorf("failed to load areas: %w", err)}
		}
		return areasLoadedMsg{rows: areaRows(areas)}
	}
}

func cityRows(cities []domain.City) []locationRow {
	rows := make([]locationRow, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, locationRow{ID: c.ID, Name: c.Name})
	}
	return rows
}

func zoneRows(zones []domain.Zone) []locationRow {
	rows := make([]locationRow, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, locationRow{ID: z.ID, Name: z.Name})
	}
	return rows
}

func areaRows(areas []domain.Area) []locationRow {
	rows := make([]locationRow, 0, len(areas))
	for _, a := range areas {
		rows = append(rows, locationRow{ID: a.ID, Name: a.Name})
	}
	return rows
}
