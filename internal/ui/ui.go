package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	"github.com/earlybird-mp3/onthespot-scdl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResultsView ViewState = iota
	DetailView
	ExportView
	DoneView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	svc          *services.SoundCloudService
	resolver     *services.MetadataResolver
	engine       *tasks.ExportEngine
	query        string
	preferHQ     bool
	width        int
	height       int
	resultList   list.Model
	results      []models.SearchResult
	selected     *models.SearchResult
	track        *services.TrackRecord
	meta         *models.TrackMetadata
	stream       *models.SelectedStream
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	exportResult *tasks.SetExportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc *services.SoundCloudService, engine *tasks.ExportEngine, query string, preferHQ bool) *Model {
	return &Model{
		ctx:      ctx,
		view:     ResultsView,
		svc:      svc,
		resolver: services.NewMetadataResolver(svc),
		engine:   engine,
		query:    query,
		preferHQ: preferHQ,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by running the search.
func (m *Model) Init() tea.Cmd {
	return m.fetchResults()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case DoneView:
			return m.handleDoneKeys(msg)
		}

	case resultsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.results = msg.results
		items := make([]list.Item, len(msg.results))
		for i, res := range msg.results {
			items[i] = resultItem{result: res}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Results for %q", m.query)
		m.resultList.SetSize(m.width-4, m.height-8)
		return m, nil

	case trackResolvedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultsView
			return m, nil
		}
		m.track = msg.track
		m.meta = msg.meta
		m.stream = msg.stream
		m.view = DetailView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportCompleteMsg:
		m.exportResult = msg.result
		m.err = msg.err
		m.view = DoneView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != DoneView && m.view != ResultsView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ResultsView:
		return m.renderResults()
	case DetailView:
		return m.renderDetail()
	case ExportView:
		return m.renderExport()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.resultList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(resultItem); ok {
				m.selected = &item.result
				if item.result.ItemType == "playlist" {
					m.view = ExportView
					return m, m.startExport(item.result.ItemURL)
				}
				return m, m.resolveTrack(item.result.ItemID)
			}
		}
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultsView
		m.track = nil
		m.meta = nil
		m.stream = nil
		return m, nil
	case "h":
		m.preferHQ = !m.preferHQ
		if m.track != nil {
			m.stream, _ = services.SelectStream(m.track, m.preferHQ, "")
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = ResultsView
		m.selected = nil
		m.exportResult = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == ResultsView {
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchResults() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.svc.SearchTracks(m.ctx, m.query)
		if err != nil {
			return resultsFetchedMsg{err: err}
		}
		sets, err := m.svc.SearchPlaylists(m.ctx, m.query)
		if err != nil {
			return resultsFetchedMsg{err: err}
		}
		return resultsFetchedMsg{results: append(tracks, sets...)}
	}
}

func (m *Model) resolveTrack(itemID int64) tea.Cmd {
	return func() tea.Msg {
		track, err := m.svc.Track(m.ctx, itemID)
		if err != nil {
			return trackResolvedMsg{err: err}
		}
		meta := m.resolver.Resolve(m.ctx, track)
		// Stream selection can fail on encrypted-only tracks; the detail
		// view still shows metadata in that case.
		stream, _ := services.SelectStream(track, m.preferHQ, "")
		return trackResolvedMsg{track: track, meta: meta, stream: stream}
	}
}

func (m *Model) startExport(setURL string) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.ExportSet(m.ctx, m.progressChan, setURL, tasks.ExportOpts{})
		m.exportResult = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return exportCompleteMsg{result: m.exportResult, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			m.progressChan = nil
			return exportCompleteMsg{result: m.exportResult, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	body := m.resultList.View()
	if m.err != nil {
		body = fmt.Sprintf("%s\n%s", styles.warn.Render(fmt.Sprintf("Last action failed: %v", m.err)), body)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderDetail() string {
	title := styles.title.Render(fmt.Sprintf("%s - %s", m.meta.Artists, m.meta.Title))

	info := fmt.Sprintf(
		"\nAlbum: %s (%s, track %s/%s)\nYear: %s\nGenre: %s\nCopyright: %s\n",
		m.meta.AlbumName,
		m.meta.AlbumType,
		m.meta.TrackNumber,
		m.meta.TotalTracks,
		m.meta.ReleaseYear,
		m.meta.Genre,
		m.meta.Copyright,
	)

	var stream string
	if m.stream != nil {
		stream = fmt.Sprintf(
			"\nStream: %s (%s, %s) → %s\n",
			m.stream.Preset,
			m.stream.Quality,
			m.stream.Protocol,
			m.stream.OutputPath,
		)
	} else {
		stream = "\n" + styles.warn.Render("No usable stream") + "\n"
	}
	if m.preferHQ {
		stream += styles.help.Render("preferring hq renditions") + "\n"
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.hq, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, info, stream, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Set")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSet:
		phase = "Fetching set..."
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteExport:
		phase = "Writing export files..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderDone() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.exportResult == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	resolve := m.exportResult.Resolve
	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf(
		"\nSet: %s\nResolved: %d/%d tracks\nFiles: %d\nManifest: %s",
		resolve.Set.Title,
		resolve.ResolvedTracks,
		resolve.TotalTracks,
		len(m.exportResult.Files),
		m.exportResult.ManifestPath,
	)

	var failed string
	if resolve.FailedTracks > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to resolve %d tracks:", resolve.FailedTracks)))
		for _, res := range resolve.Results {
			if res.Error != nil {
				failed += fmt.Sprintf("\n  • %s (%d)", res.Title, res.ItemID)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
