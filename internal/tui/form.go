package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Joseda-hg/riel/internal/app"
	"github.com/Joseda-hg/riel/internal/model"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDesc
	fieldCategory
	fieldTime
	fieldLocation
	fieldPhoto
)

func buildFormFields() []formField {
	return []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Category (space/←→)", Value: model.Categories[0]},
		{Label: "Time (HH:MM)"},
		{Label: "Location"},
		{Label: "Photo path"},
	}
}

// formFromFields builds the submission. An unreadable photo is logged and the
// task is submitted without it.
func formFromFields(fields []formField) app.Form {
	form := app.Form{
		Title:    fields[fieldTitle].Value,
		Desc:     fields[fieldDesc].Value,
		Category: fields[fieldCategory].Value,
		Time:     fields[fieldTime].Value,
		Location: fields[fieldLocation].Value,
	}
	if path := expandPath(fields[fieldPhoto].Value); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("read photo", zap.String("path", path), zap.Error(err))
		} else {
			form.Photo = data
		}
	}
	return form
}

func expandPath(value string) string {
	path := strings.TrimSpace(value)
	if path == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}
	return path
}

func cycleCategory(current string, delta int) string {
	options := model.Categories
	index := 0
	for i, option := range options {
		if option == current {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}

func isCategoryField(index int) bool {
	return index == fieldCategory
}

func (u *UI) addTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.submitting {
		u.status = app.CompressingLabel
		return nil
	}
	u.form = &formState{fields: buildFormFields()}
	u.dispatch(app.FileEvent{})
	return nil
}

// selectPhoto reports the chosen file so the label and size warning follow
// the photo path field.
func (u *UI) selectPhoto() {
	if u.form == nil {
		return
	}
	path := expandPath(u.form.fields[fieldPhoto].Value)
	if path == "" {
		u.dispatch(app.FileEvent{})
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		u.status = fmt.Sprintf("photo: %v", err)
		u.dispatch(app.FileEvent{})
		return
	}
	u.dispatch(app.FileEvent{Name: filepath.Base(path), Size: info.Size()})
}

func (u *UI) submitForm(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if strings.TrimSpace(u.form.fields[fieldTitle].Value) == "" {
		u.status = "title is required"
		return nil
	}

	u.selectPhoto()
	form := formFromFields(u.form.fields)
	u.form = nil
	u.status = ""

	if u.gui == nil {
		u.dispatch(app.SubmitEvent{Form: form})
		return nil
	}

	u.submitting = true
	go func() {
		if err := u.app.Dispatch(context.Background(), app.SubmitEvent{Form: form}); err != nil {
			zap.L().Error("submit task", zap.Error(err))
			u.apply(func() {
				u.submitting = false
				u.status = err.Error()
			})
		}
	}()
	return nil
}

func (u *UI) cancelForm(_ *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.dispatch(app.FileEvent{})
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index == fieldPhoto {
		u.selectPhoto()
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(v)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, v *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index == fieldPhoto {
		u.selectPhoto()
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(v)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(10, max(8, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	v, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		v.Wrap = true
	}
	v.Title = "New Task"
	v.Editable = true
	v.KeybindOnEdit = true
	v.Editor = u.formEditor
	u.renderForm(v)
	return nil
}

func (u *UI) renderForm(v *gocui.View) {
	if u.form == nil || v == nil {
		return
	}
	v.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(v, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	fmt.Fprintf(v, "\n  %s", u.fileLabel)

	field := u.form.fields[u.form.index]
	cursorX := len([]rune(field.Label)) + len([]rune(field.Value)) + 4
	v.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || v == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isCategoryField(ui.form.index) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleCategory(field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleCategory(field.Value, -1)
		}
		ui.renderForm(v)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(v)
	return true
}
