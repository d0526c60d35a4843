//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"storyboarder/internal/assets"
	"storyboarder/internal/autosave"
	"storyboarder/internal/config"
	"storyboarder/internal/domain"
	"storyboarder/internal/export"
	"storyboarder/internal/library"
	applog "storyboarder/internal/log"
	"storyboarder/internal/script"
	"storyboarder/internal/storage"
	"storyboarder/internal/telemetry"
)

// appState holds everything the desktop windows operate on.
type appState struct {
	win    fyne.Window
	store  *storage.Store
	log    *slog.Logger
	saver  *autosave.Debouncer
	thumbs *library.Thumbnailer

	// derived view state, rebuilt by refresh()
	scenes []domain.Scene
	links  map[string]bool

	list     *widget.List
	status   *widget.Label
	preview  *canvas.Image
	selected int
}

// Run starts the desktop UI, optionally opening the project at dir.
func Run(dir string) error {
	l := applog.WithComponent("ui")
	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	a := app.NewWithID("storyboarder")
	w := a.NewWindow("Storyboarder")
	w.Resize(fyne.NewSize(1100, 700))

	tn, err := library.NewThumbnailer(320, 240, 256)
	if err != nil {
		return err
	}
	s := &appState{win: w, log: l, thumbs: tn, selected: -1}
	s.saver = autosave.New(time.Duration(cfg.General.AutosaveDelayMs)*time.Millisecond, func() {
		if s.store == nil {
			return
		}
		if err := s.store.Save(); err != nil {
			l.Error("autosave failed", slog.Any("err", err))
		}
	})

	if dir != "" {
		st, err := storage.Open(dir)
		if err != nil {
			return fmt.Errorf("open project: %w", err)
		}
		s.store = st
	}

	s.status = widget.NewLabel("No project open")
	s.preview = &canvas.Image{FillMode: canvas.ImageFillContain}
	s.preview.SetMinSize(fyne.NewSize(320, 240))

	s.list = widget.NewList(
		func() int { return len(s.scenes) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewLabel("code"), widget.NewLabel("text"), widget.NewLabel(""))
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			row := o.(*fyne.Container)
			sc := s.scenes[i]
			row.Objects[0].(*widget.Label).SetText(sc.Code)
			row.Objects[1].(*widget.Label).SetText(truncate(sc.EnText, 60))
			mark := ""
			if s.links[sc.ID] {
				mark = "⚠ broken link"
			} else if sc.HasImage() {
				mark = "img"
			}
			if sc.HasCharacterImage {
				mark += " [char]"
			}
			row.Objects[2].(*widget.Label).SetText(mark)
		},
	)
	s.list.OnSelected = func(i widget.ListItemID) {
		s.selected = int(i)
		s.updatePreview()
	}

	toolbar := container.NewHBox(
		widget.NewButton("Import…", s.showImportDialog),
		widget.NewButton("Attach image…", s.showAttachDialog),
		widget.NewButton("Toggle character", s.toggleCharacterFlag),
		widget.NewButton("Export zip…", s.showExportDialog),
		widget.NewButton("Contact sheet…", s.showSheetDialog),
	)

	w.SetContent(container.NewBorder(
		toolbar, s.status, nil, container.NewVBox(s.preview),
		s.list,
	))
	w.SetOnClosed(func() {
		s.saver.Flush()
		s.saver.Stop()
	})

	s.refresh()
	w.ShowAndRun()
	return nil
}

// refresh rebuilds the sorted scene view and the broken-link snapshot.
func (s *appState) refresh() {
	if s.store == nil {
		s.scenes = nil
		s.links = nil
		s.status.SetText("No project open")
		return
	}
	s.scenes = s.store.SortedScenes()
	s.links = assets.CheckLinks(context.Background(), s.scenes)
	broken := assets.BrokenCount(s.links)
	s.status.SetText(fmt.Sprintf("%d scenes, %d broken links", len(s.scenes), broken))
	s.list.Refresh()
}

func (s *appState) updatePreview() {
	s.preview.Resource = nil
	s.preview.Refresh()
	if s.selected < 0 || s.selected >= len(s.scenes) {
		return
	}
	sc := s.scenes[s.selected]
	if !sc.HasImage() || s.links[sc.ID] {
		return
	}
	b, err := s.thumbs.Thumbnail(sc.ImagePath())
	if err != nil {
		s.log.Debug("thumbnail failed", slog.String("path", sc.ImagePath()), slog.Any("err", err))
		return
	}
	s.preview.Resource = fyne.NewStaticResource(sc.ID+".png", b)
	s.preview.Refresh()
}

// markEdited triggers the debounced autosave and recomputes the view.
func (s *appState) markEdited() {
	s.saver.Trigger()
	s.refresh()
}

func (s *appState) showImportDialog() {
	if s.store == nil {
		dialog.ShowInformation("Import", "Open a project first", s.win)
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("Paste pipe- or tab-delimited scene rows here")
	entry.SetMinRowsVisible(12)
	dialog.ShowCustomConfirm("Import scenes", "Import", "Cancel", entry, func(ok bool) {
		if !ok {
			return
		}
		scenes := script.ConvertText(entry.Text)
		if len(scenes) == 0 {
			dialog.ShowInformation("Import", "No eligible rows found", s.win)
			return
		}
		// Import replaces the whole collection.
		s.store.ReplaceScenes(scenes)
		telemetry.Event("import", map[string]any{"scenes": len(scenes)})
		s.markEdited()
	}, s.win)
}

func (s *appState) showAttachDialog() {
	sc, ok := s.selectedScene()
	if !ok {
		dialog.ShowInformation("Attach image", "Select a scene first", s.win)
		return
	}
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		if library.KindOf(path) != library.KindImage {
			dialog.ShowInformation("Attach image", "Not an image file", s.win)
			return
		}
		if err := s.store.AttachImage(sc.ID, path); err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		s.markEdited()
	}, s.win)
}

func (s *appState) toggleCharacterFlag() {
	sc, ok := s.selectedScene()
	if !ok {
		return
	}
	if err := s.store.SetCharacterFlag(sc.ID, !sc.HasCharacterImage); err != nil {
		dialog.ShowError(err, s.win)
		return
	}
	s.markEdited()
}

func (s *appState) showExportDialog() {
	if s.store == nil {
		return
	}
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		scenes := s.store.SortedScenes()
		path, missing, err := export.WriteBundle(context.Background(), scenes, uri.Path())
		if err != nil {
			// Destination failure is the one hard error of an export.
			dialog.ShowError(err, s.win)
			return
		}
		telemetry.Event("export", map[string]any{"scenes": len(scenes), "missing": len(missing)})
		msg := fmt.Sprintf("Exported %d scenes to %s", len(scenes), path)
		if len(missing) > 0 {
			msg += fmt.Sprintf("\n%d image(s) were missing:\n%s", len(missing), joinLines(missing, 8))
		}
		dialog.ShowInformation("Export", msg, s.win)
	}, s.win)
}

func (s *appState) showSheetDialog() {
	if s.store == nil {
		return
	}
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		out := uri.Path() + "/contact_sheet.pdf"
		if err := export.WriteContactSheet(s.store.SortedScenes(), out); err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		dialog.ShowInformation("Contact sheet", "Written to "+out, s.win)
	}, s.win)
}

func (s *appState) selectedScene() (domain.Scene, bool) {
	if s.selected < 0 || s.selected >= len(s.scenes) {
		return domain.Scene{}, false
	}
	return s.scenes[s.selected], true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func joinLines(lines []string, max int) string {
	out := ""
	for i, l := range lines {
		if i == max {
			out += fmt.Sprintf("… and %d more", len(lines)-max)
			break
		}
		out += l + "\n"
	}
	return out
}
