package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mertwole/bencode-cli/bencode/value"
)

type DecodeFile func(path string) (value.Value, error)

type Options struct {
	// Root is shown right away. When nil the file picker opens first.
	Root       value.Value
	Title      string
	DecodeFile DecodeFile
	Log        *zap.SugaredLogger
}

func StartUI(options Options) error {
	screen := newInspectorScreen(options)

	_, err := tea.NewProgram(screen, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("failed to run inspector: %w", err)
	}

	return nil
}

func newInspectorScreen(options Options) inspectorScreen {
	keyMap := defaultKeyMap()

	newList := list.New(make([]list.Item, 0), nodeItemDelegate{}, 20, 20)
	newList.SetShowTitle(false)
	newList.SetFilteringEnabled(false)
	newList.SetShowStatusBar(false)
	newList.SetShowHelp(false)

	newList.KeyMap = list.KeyMap{
		CursorUp:   keyMap.moveUp,
		CursorDown: keyMap.moveDown,
		NextPage:   keyMap.nextPage,
		PrevPage:   keyMap.previousPage,
	}

	filePicker := filepicker.New()
	filePicker.CurrentDirectory, _ = os.Getwd()
	filePicker.AutoHeight = true

	log := options.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	screen := inspectorScreen{
		itemList:    &newList,
		filePicker:  &filePicker,
		keyMap:      keyMap,
		help:        help.New(),
		decodeFile:  options.DecodeFile,
		log:         log,
		pickingFile: options.Root == nil,
	}

	if options.Root != nil {
		screen.open(options.Title, options.Root)
	}

	return screen
}

type frame struct {
	label     string
	container value.Value
	cursor    int
}

type inspectorScreen struct {
	Width  int
	Height int

	itemList   *list.Model
	filePicker *filepicker.Model

	keyMap keyMap
	help   help.Model

	// path[0] is the root, the last frame is the container on screen.
	path []frame

	pickingFile bool
	decodeFile  DecodeFile
	status      string

	log *zap.SugaredLogger
}

func (screen inspectorScreen) Init() tea.Cmd {
	if screen.pickingFile {
		return screen.filePicker.Init()
	}

	return nil
}

func (screen inspectorScreen) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	command := tea.Batch()

	if screen.pickingFile {
		var filePickerCmd tea.Cmd
		*screen.filePicker, filePickerCmd = screen.filePicker.Update(message)
		command = tea.Batch(command, filePickerCmd)

		if message, ok := message.(tea.KeyMsg); ok && key.Matches(message, screen.keyMap.quit) {
			return screen, tea.Batch(command, tea.Quit)
		}

		didSelect, filePath := screen.filePicker.DidSelectFile(message)
		if didSelect {
			screen.loadFile(filePath)
		}
	} else {
		var itemListCmd tea.Cmd
		*screen.itemList, itemListCmd = screen.itemList.Update(message)
		command = tea.Batch(command, itemListCmd)

		if message, ok := message.(tea.KeyMsg); ok {
			switch {
			case key.Matches(message, screen.keyMap.quit):
				command = tea.Batch(command, tea.Quit)
			case key.Matches(message, screen.keyMap.toggleHelp):
				screen.help.ShowAll = !screen.help.ShowAll
			case key.Matches(message, screen.keyMap.enter):
				screen.descend()
			case key.Matches(message, screen.keyMap.back):
				screen.ascend()
			case key.Matches(message, screen.keyMap.openFile) && screen.decodeFile != nil:
				screen.pickingFile = true
				command = tea.Batch(command, screen.filePicker.Init())
			}
		}
	}

	if message, ok := message.(tea.WindowSizeMsg); ok {
		screen.Width = message.Width
		screen.Height = message.Height
	}

	return screen, command
}

func (screen inspectorScreen) View() string {
	if screen.pickingFile {
		header := headerStyle.Render("Select a bencoded file")
		if screen.status != "" {
			header += "\n" + errorStyle.Render(screen.status)
		}
		return header + "\n" + screen.filePicker.View()
	}

	screen.help.Width = screen.Width

	header := headerStyle.Render(screen.breadcrumb())
	if screen.status != "" {
		header += "\n" + errorStyle.Render(screen.status)
	}
	help := screen.help.View(screen.keyMap)

	screen.itemList.SetSize(screen.Width, screen.Height-lipgloss.Height(header)-lipgloss.Height(help))

	return header + "\n" + screen.itemList.View() + "\n" + help
}

func (screen *inspectorScreen) loadFile(filePath string) {
	if screen.decodeFile == nil {
		return
	}

	root, err := screen.decodeFile(filePath)
	if err != nil {
		screen.log.Warnw("failed to decode file", "path", filePath, "error", err)
		screen.status = err.Error()
		return
	}

	screen.log.Infow("opened file", "path", filePath)
	screen.pickingFile = false
	screen.open(filePath, root)
}

func (screen *inspectorScreen) open(title string, root value.Value) {
	screen.status = ""
	screen.path = []frame{{label: title, container: root}}
	screen.showChildren(root, 0)
}

func (screen *inspectorScreen) descend() {
	selected, ok := screen.itemList.SelectedItem().(nodeItem)
	if !ok || !selected.isContainer() {
		return
	}

	screen.path[len(screen.path)-1].cursor = screen.itemList.Index()
	screen.path = append(screen.path, frame{label: selected.label, container: selected.node})
	screen.showChildren(selected.node, 0)
}

func (screen *inspectorScreen) ascend() {
	if len(screen.path) < 2 {
		return
	}

	screen.path = screen.path[:len(screen.path)-1]
	parent := screen.path[len(screen.path)-1]
	screen.showChildren(parent.container, parent.cursor)
}

func (screen *inspectorScreen) showChildren(container value.Value, cursor int) {
	children := childItems(container)

	items := make([]list.Item, 0, len(children))
	for _, child := range children {
		items = append(items, child)
	}

	screen.itemList.SetItems(items)
	screen.itemList.Select(cursor)
}

func (screen inspectorScreen) breadcrumb() string {
	labels := make([]string, 0, len(screen.path))
	for _, entry := range screen.path {
		labels = append(labels, entry.label)
	}

	return strings.Join(labels, " › ")
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#4D756F", Dark: "#A5FAEC"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#A33A3A", Dark: "#F27D7D"})

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#4D756F", Dark: "#A5FAEC"})

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#2E6B38", Dark: "#66F27D"})
)

type nodeItemDelegate struct{}

func (d nodeItemDelegate) Height() int {
	return 2
}

func (d nodeItemDelegate) Spacing() int {
	return 1
}

func (d nodeItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d nodeItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(nodeItem)
	if !ok {
		return
	}

	totalWidth := m.Width()
	if index == m.Index() {
		totalWidth -= 2
	}

	kind := kindLabel(item.node)
	if item.isContainer() {
		kind += " ▸"
	}

	paddingLength := max(totalWidth-lipgloss.Width(item.label), 0)
	statusLabel := fmt.Sprintf("%s%*s", item.label, paddingLength, kind)
	summary := summarize(item.node)

	if index == m.Index() {
		statusLabel = "┆ " + statusLabel
		summary = "┆ " + summary
	}

	fmt.Fprintf(w, "%s\n%s", labelStyle.Render(statusLabel), summaryStyle.Render(summary))
}
