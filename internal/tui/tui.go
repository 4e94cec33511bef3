package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Joseda-hg/riel/internal/app"
	"github.com/Joseda-hg/riel/internal/export"
	"github.com/Joseda-hg/riel/internal/model"
	"github.com/Joseda-hg/riel/internal/view"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"
)

const (
	viewHeader   = "header"
	viewFooter   = "footer"
	viewTasks    = "tasks"
	viewDetail   = "detail"
	viewSearch   = "search"
	viewForm     = "form"
	viewConfirm  = "confirm"
	viewHelp     = "help"
	viewConfetti = "confetti"

	confettiDuration = 2 * time.Second
)

type UI struct {
	app       *app.App
	gui       *gocui.Gui
	exportDir string
	now       func() time.Time

	list     view.List
	stats    view.Stats
	filter   model.FilterMode
	query    string
	selected int

	form         *formState
	formEditor   *formEditor
	searchActive bool
	searchEditor *searchEditor
	confirmID    string
	helpActive   bool
	submitting   bool
	fileLabel    string
	status       string

	confetti      []confettiPiece
	confettiUntil time.Time
}

type formState struct {
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

type searchEditor struct {
	ui *UI
}

func New(a *app.App, exportDir string) *UI {
	ui := &UI{
		app:       a,
		exportDir: exportDir,
		now:       time.Now,
		filter:    model.FilterAll,
		fileLabel: app.DefaultFileLabel,
	}
	ui.formEditor = &formEditor{ui: ui}
	ui.searchEditor = &searchEditor{ui: ui}
	return ui
}

func Run(a *app.App, exportDir string) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := New(a, exportDir)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	a.Attach(ui)
	a.SetEffects(ui, ui)

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

// apply runs f on the UI goroutine. App callbacks may arrive from the
// submission goroutine or the celebration timer.
func (u *UI) apply(f func()) {
	if u.gui == nil {
		f()
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		f()
		return nil
	})
}

func (u *UI) RenderList(list view.List) {
	u.apply(func() {
		u.list = list
		u.filter = model.ParseFilterMode(string(list.Filter))
		u.query = list.Query
		u.selected = clampIndex(u.selected, len(list.Rows))
	})
}

func (u *UI) RenderStats(stats view.Stats) {
	u.apply(func() { u.stats = stats })
}

func (u *UI) Warn(message string) {
	u.apply(func() { u.status = message })
}

func (u *UI) ResetForm() {
	u.apply(func() {
		u.submitting = false
		u.status = "Task added"
	})
}

func (u *UI) SetFileLabel(label string) {
	u.apply(func() { u.fileLabel = label })
}

func (u *UI) Play(cue string) {
	u.apply(func() {
		switch cue {
		case app.CueComplete:
			u.status = "✔ Task completed"
		case app.CueCongratulations:
			u.status = "🎉 Congratulations! Every task is done."
		}
	})
}

func (u *UI) Burst(count int) {
	u.apply(func() {
		u.confetti = scatterConfetti(count, confettiWidth, confettiHeight)
		u.confettiUntil = u.now().Add(confettiDuration)
	})
	if u.gui != nil {
		time.AfterFunc(confettiDuration, func() {
			u.apply(func() { u.confetti = nil })
		})
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'x', gocui.ModNone, u.toggleSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeySpace, gocui.ModNone, u.toggleSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.deleteSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '1', gocui.ModNone, u.filterAll); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '2', gocui.ModNone, u.filterActive); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '3', gocui.ModNone, u.filterCompleted); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '/', gocui.ModNone, u.startSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	for key, format := range exportKeys {
		format := format
		if err := gui.SetKeybinding("", key, gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
			return u.exportTasks(format)
		}); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEnter, gocui.ModNone, u.submitSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEsc, gocui.ModNone, u.cancelSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyCtrlJ, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'y', gocui.ModNone, u.confirmDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEnter, gocui.ModNone, u.confirmDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'n', gocui.ModNone, u.declineDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEsc, gocui.ModNone, u.declineDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}}); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.MouseWheelUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.MouseWheelDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView, maxX)

	footerY1 := max(maxY-1, 4)
	footerY0 := max(footerY1-3, 3)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 3
	bodyBottom := footerY0 - 1
	if bodyBottom <= bodyTop {
		return nil
	}

	listX1 := max(maxX*3/5, 30)
	if listX1 >= maxX-1 {
		listX1 = maxX - 1
	}

	tasksView, err := gui.SetView(viewTasks, 0, bodyTop, listX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.TitleColor = gocui.ColorCyan
	}
	tasksView.Title = fmt.Sprintf("Tasks (%s)", u.filter)
	applyViewStyle(tasksView, !u.inputActive(), true)
	u.renderTaskList(tasksView)

	if listX1+1 < maxX-1 {
		detailView, err := gui.SetView(viewDetail, listX1+1, bodyTop, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			detailView.Title = "Details"
		}
		detailView.Wrap = true
		applyViewStyle(detailView, false, false)
		u.renderDetail(detailView)
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	current := viewTasks

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
		current = viewSearch
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
		current = viewForm
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.confirmID != "" {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
		current = viewConfirm
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
		current = viewHelp
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if len(u.confetti) > 0 && u.now().Before(u.confettiUntil) {
		if err := u.showConfetti(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfetti)
	}

	if currentView := gui.CurrentView(); currentView == nil || currentView.Name() != current {
		_, _ = gui.SetCurrentView(current)
	}
	gui.Cursor = u.searchActive || u.form != nil

	return nil
}

func (u *UI) renderHeader(v *gocui.View, width int) {
	v.Clear()
	barWidth := min(max(width/4, 10), 30)
	fmt.Fprintf(v, "Riel  Total %d | Done %d | Pending %d  %s\n",
		u.stats.Total, u.stats.Completed, u.stats.Pending, progressBar(u.stats.Percent, barWidth))

	tags := make([]string, 0, len(model.FilterModes))
	for i, mode := range model.FilterModes {
		label := fmt.Sprintf("%d %s", i+1, mode)
		if mode == u.filter {
			label = "[" + label + "]"
		}
		tags = append(tags, label)
	}
	query := u.query
	if query == "" {
		query = "type / to search"
	}
	fmt.Fprintf(v, "Filter: %s | Search: %s", strings.Join(tags, " "), query)
}

func (u *UI) renderFooter(v *gocui.View) {
	v.Clear()
	v.SetOrigin(0, 0)
	v.SetCursor(0, 0)

	fmt.Fprintln(v, "a add | x/space toggle | d delete | 1/2/3 all/active/completed | / search | j/k move")
	fmt.Fprintln(v, "P pdf | E excel | T text | J json | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(v, u.status)
	}
}

func (u *UI) renderTaskList(v *gocui.View) {
	v.Clear()
	if u.list.Empty || len(u.list.Rows) == 0 {
		fmt.Fprint(v, view.EmptyPlaceholder)
		return
	}
	for i, row := range u.list.Rows {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(v, "%s %s\n", prefix, formatRow(row))
	}
	v.SetCursor(0, clampIndex(u.selected, len(u.list.Rows)))
}

func (u *UI) renderDetail(v *gocui.View) {
	v.Clear()
	row, ok := u.selectedRow()
	if !ok {
		fmt.Fprint(v, "No task selected")
		return
	}
	fmt.Fprint(v, strings.Join(detailLines(row, u.photoSize(row)), "\n"))
}

func (u *UI) photoSize(row view.Row) int {
	if !row.HasPhoto {
		return 0
	}
	task, ok := u.app.Store().Get(row.ID)
	if !ok {
		return 0
	}
	return len(task.Photo)
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	v, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}
	_, y0, _, _ := v.Dimensions()
	_, oy := v.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selected = clampIndex(row, len(u.list.Rows))
	return nil
}

func (u *UI) selectedRow() (view.Row, bool) {
	if u.selected >= 0 && u.selected < len(u.list.Rows) {
		return u.list.Rows[u.selected], true
	}
	return view.Row{}, false
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.selected = clampIndex(u.selected+1, len(u.list.Rows))
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.selected = clampIndex(u.selected-1, len(u.list.Rows))
	return nil
}

func (u *UI) dispatch(event any) {
	if err := u.app.Dispatch(context.Background(), event); err != nil {
		zap.L().Error("dispatch", zap.String("event", fmt.Sprintf("%T", event)), zap.Error(err))
		u.status = err.Error()
	}
}

func (u *UI) toggleSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row, ok := u.selectedRow()
	if !ok {
		return nil
	}
	u.status = ""
	u.dispatch(app.ToggleEvent{ID: row.ID})
	return nil
}

func (u *UI) deleteSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row, ok := u.selectedRow()
	if !ok {
		return nil
	}
	u.confirmID = row.ID
	return nil
}

func (u *UI) confirmDelete(_ *gocui.Gui, _ *gocui.View) error {
	return u.resolveDelete(true)
}

func (u *UI) declineDelete(_ *gocui.Gui, _ *gocui.View) error {
	return u.resolveDelete(false)
}

func (u *UI) resolveDelete(answer bool) error {
	id := u.confirmID
	if id == "" {
		return nil
	}
	u.confirmID = ""
	u.dispatch(app.DeleteEvent{
		ID:      id,
		Confirm: app.ConfirmFunc(func(string) bool { return answer }),
	})
	if answer {
		u.status = "Task deleted"
	}
	return nil
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/3)
	height := 4
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "Confirm"
		v.Wrap = true
		v.FrameColor = gocui.ColorRed
	}
	v.Clear()
	title := ""
	if task, ok := u.app.Store().Get(u.confirmID); ok {
		title = task.Title
	}
	fmt.Fprintf(v, "%s\n%s\n[y] yes  [n] no", app.DeletePrompt, title)
	return nil
}

func (u *UI) setFilter(mode model.FilterMode) error {
	if u.inputActive() {
		return nil
	}
	u.selected = 0
	u.dispatch(app.FilterEvent{Mode: mode})
	return nil
}

func (u *UI) filterAll(_ *gocui.Gui, _ *gocui.View) error {
	return u.setFilter(model.FilterAll)
}

func (u *UI) filterActive(_ *gocui.Gui, _ *gocui.View) error {
	return u.setFilter(model.FilterActive)
}

func (u *UI) filterCompleted(_ *gocui.Gui, _ *gocui.View) error {
	return u.setFilter(model.FilterCompleted)
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) onSearchChanged(query string) {
	u.selected = 0
	u.dispatch(app.SearchEvent{Query: query})
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "Search title or location"
		v.Wrap = true
		v.Clear()
		fmt.Fprint(v, u.query)
		v.SetCursor(len([]rune(u.query)), 0)
	}
	v.Editable = true
	v.Editor = u.searchEditor
	return nil
}

func (u *UI) submitSearch(_ *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	return nil
}

func (u *UI) cancelSearch(_ *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	u.onSearchChanged("")
	return nil
}

func (e *searchEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	matched := gocui.DefaultEditor.Edit(v, key, ch, mod)
	if matched && e.ui != nil {
		e.ui.onSearchChanged(v.Buffer())
	}
	return matched
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(_ *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "Help"
		v.Wrap = true
	}
	v.Clear()
	fmt.Fprint(v, helpText())
	return nil
}

func (u *UI) showConfetti(gui *gocui.Gui) error {
	maxX, _ := gui.Size()
	x0 := max((maxX-confettiWidth)/2, 0)
	y0 := 3

	v, err := gui.SetView(viewConfetti, x0, y0, x0+confettiWidth+1, y0+confettiHeight+1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Title = "🎉"
		v.FrameColor = gocui.ColorYellow
	}
	v.Clear()
	fmt.Fprint(v, renderConfetti(u.confetti, confettiWidth, confettiHeight))
	_, _ = gui.SetViewOnTop(viewConfetti)
	return nil
}

func (u *UI) exportTasks(format export.Format) error {
	if u.inputActive() {
		return nil
	}
	path, err := u.writeExport(format)
	if err != nil {
		zap.L().Error("export", zap.String("format", string(format)), zap.Error(err))
		u.status = fmt.Sprintf("export failed: %v", err)
		return nil
	}
	u.status = "Exported " + path
	return nil
}

func (u *UI) writeExport(format export.Format) (string, error) {
	dir := u.exportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, export.Filename(format))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.Write(file, format, u.app.Store().Tasks(), u.now()); err != nil {
		_ = file.Close()
		return "", err
	}
	return path, file.Close()
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive || u.confirmID != ""
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

var exportKeys = map[rune]export.Format{
	'P': export.FormatPDF,
	'E': export.FormatXLSX,
	'T': export.FormatText,
	'J': export.FormatJSON,
}

func helpText() string {
	return strings.Join([]string{
		"Tasks:",
		"  a add task | x/space toggle done | d delete (y/n to confirm)",
		"  j/k or arrows move selection | mouse click selects",
		"",
		"Filter/Search:",
		"  1 all | 2 active | 3 completed",
		"  / search title or location (live), enter keep, esc clear",
		"",
		"Form:",
		"  tab/arrows next field | space/←→ cycle category | enter save | esc cancel",
		"",
		"Export (to the export directory):",
		"  P pdf | E excel | T text | J json",
		"",
		"Other:",
		"  ? help | esc close help | q quit",
	}, "\n")
}

func applyViewStyle(v *gocui.View, focused bool, highlight bool) {
	v.Frame = true
	v.Highlight = focused && highlight
	v.SelBgColor = gocui.ColorBlue
	v.SelFgColor = gocui.ColorBlack
	if focused {
		v.FrameColor = gocui.ColorCyan
	} else {
		v.FrameColor = gocui.ColorDefault
	}
}

func clampIndex(index, length int) int {
	if length <= 0 {
		return 0
	}
	return min(max(index, 0), length-1)
}
