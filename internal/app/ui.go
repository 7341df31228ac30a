package app

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/glyphocr/recognizer"
)

const (
	logDebounceInterval = 150 * time.Millisecond
	logLineLimit        = 300
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

type uiState struct {
	cfg     recognizer.Config
	fileCfg recognizer.Config
	cfgPath string
	logger  *log.Logger

	w           fyne.Window
	preview     *canvas.Image
	text        *widget.Entry
	accuracy    *widget.Label
	statusBind  binding.String
	logBind     binding.String
	logBuf      *logBuffer
	logUpdateCh chan struct{}

	openBtn     *widget.Button
	rerunBtn    *widget.Button
	saveBtn     *widget.Button
	settingsBtn *widget.Button

	// Owned by the main thread.
	classifier recognizer.Classifier
	runner     *recognizer.Runner
	current    image.Image
}

// buildUI takes the configuration as read from cfgPath and the effective one
// with environment overrides applied.
func buildUI(a fyne.App, fileCfg, cfg recognizer.Config, cfgPath string) *uiState {
	u := &uiState{cfg: cfg, fileCfg: fileCfg, cfgPath: cfgPath}
	u.w = a.NewWindow("Glyph OCR")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Loading recognizer...")
	u.logBind = binding.NewString()
	u.logUpdateCh = make(chan struct{}, 1)
	u.logBuf = newLogBuffer(logLineLimit, u.requestLogFlush)
	u.logger = log.New(io.MultiWriter(os.Stdout, u.logBuf), "", log.LstdFlags)
	go u.logUpdateLoop()

	u.preview = canvas.NewImageFromImage(nil)
	u.preview.FillMode = canvas.ImageFillContain
	u.preview.SetMinSize(fyne.NewSize(480, 360))

	u.text = widget.NewMultiLineEntry()
	u.text.Wrapping = fyne.TextWrapWord
	u.text.SetPlaceHolder("Recognized text")
	u.accuracy = widget.NewLabel("")

	logEntry := widget.NewEntryWithData(u.logBind)
	logEntry.MultiLine = true
	logEntry.Wrapping = fyne.TextWrapWord
	logEntry.Disable()

	u.openBtn = widget.NewButtonWithIcon("Open Image", theme.FolderOpenIcon(), func() { u.onOpenImage() })
	u.rerunBtn = widget.NewButtonWithIcon("Recognize Again", theme.ViewRefreshIcon(), func() {
		if u.current != nil {
			u.recognize(u.current)
		}
	})
	u.saveBtn = widget.NewButtonWithIcon("Save Text", theme.DocumentSaveIcon(), func() { u.onSaveText() })
	u.settingsBtn = widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), func() { u.openSettings() })
	u.openBtn.Disable()
	u.rerunBtn.Disable()
	u.settingsBtn.Disable()

	left := container.NewBorder(
		container.NewGridWithColumns(4, u.openBtn, u.rerunBtn, u.saveBtn, u.settingsBtn),
		widget.NewLabelWithData(u.statusBind),
		nil, nil,
		u.preview,
	)
	right := container.NewVSplit(
		container.NewBorder(u.accuracy, nil, nil, nil, u.text),
		container.NewBorder(widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), nil, nil, nil, logEntry),
	)
	right.Offset = 0.65
	split := container.NewHSplit(left, right)
	split.Offset = 0.5

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1100, 720))
	return u
}

// startLoading constructs the classifier off the main thread.
func (u *uiState) startLoading() {
	u.logger.Printf("loading %s classifier: model=%s labels=%s", u.cfg.Classifier.Engine, u.cfg.Classifier.ModelPath, u.cfg.Classifier.LabelPath)
	ch := recognizer.LoadClassifierAsync(u.cfg.Classifier, u.logger)
	go func() {
		res := <-ch
		fyne.Do(func() { u.onClassifierLoaded(res) })
	}()
}

func (u *uiState) onClassifierLoaded(res recognizer.LoadResult) {
	if res.Err != nil {
		u.logger.Printf("[ERROR] %v", res.Err)
		u.setStatus("Recognizer unavailable; restart after fixing the configuration")
		u.openBtn.Enable()
		dialog.ShowInformation("Init Error", initErrorMessage(res.Err), u.w)
		return
	}
	u.classifier = res.Classifier
	u.rebuildRunner()
	u.setStatus(fmt.Sprintf("Ready (%d labels)", res.Classifier.Labels().Len()))
	u.openBtn.Enable()
	u.settingsBtn.Enable()
}

func (u *uiState) rebuildRunner() {
	if u.classifier == nil {
		return
	}
	p, err := recognizer.NewPipeline(recognizer.NewComponentSegmenter(u.cfg.Segmenter), u.classifier, u.logger)
	if err != nil {
		dialog.ShowError(err, u.w)
		return
	}
	old := u.runner
	u.runner = recognizer.NewRunner(p, fyne.Do, u.logger)
	if old != nil {
		go old.Close()
	}
}

func (u *uiState) close() {
	if u.runner != nil {
		u.runner.Close()
	}
	if u.classifier != nil {
		if err := u.classifier.Close(); err != nil {
			u.logger.Printf("close classifier: %v", err)
		}
	}
}

func (u *uiState) setBusy(b bool) {
	for _, btn := range []*widget.Button{u.openBtn, u.rerunBtn, u.saveBtn, u.settingsBtn} {
		if b {
			btn.Disable()
		} else {
			btn.Enable()
		}
	}
	if !b && u.current == nil {
		u.rerunBtn.Disable()
	}
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) requestLogFlush() {
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			_ = u.logBind.Set(u.logBuf.String())
		}
	}
}

func (u *uiState) onOpenImage() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		img, err := recognizer.DecodeImage(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		b := img.Bounds()
		u.logger.Printf("opened %s (%dx%d)", filepath.Base(rc.URI().Path()), b.Dx(), b.Dy())
		u.current = img
		u.preview.Image = img
		u.preview.Refresh()
		u.recognize(img)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	fd.Show()
}

// recognize submits img to the runner behind a modal progress dialog. The
// dialog's Cancel button cancels the run; a cancelled run delivers nothing,
// so the dialog is closed here.
func (u *uiState) recognize(img image.Image) {
	if u.runner == nil {
		dialog.ShowInformation("Recognition Failed", notInitializedMessage, u.w)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	finished := false
	start := time.Now()

	progress := widget.NewProgressBarInfinite()
	var dlg *dialog.CustomDialog
	finish := func() bool {
		if finished {
			return false
		}
		finished = true
		cancel()
		progress.Stop()
		dlg.Hide()
		u.setBusy(false)
		return true
	}
	cancelBtn := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		if finish() {
			u.text.SetText(canceledMessage)
			u.accuracy.SetText("")
			u.setStatus("Cancelled")
		}
	})
	cancelBtn.Importance = widget.DangerImportance
	dlg = dialog.NewCustomWithoutButtons("Processing...", container.NewVBox(progress, cancelBtn), u.w)

	u.setBusy(true)
	u.setStatus("Recognizing...")
	dlg.Show()
	err := u.runner.Submit(ctx, img,
		func(res recognizer.Result) {
			if !finish() {
				return
			}
			u.text.SetText(res.Text)
			u.accuracy.SetText(accuracyText(res))
			u.setStatus(fmt.Sprintf("Done: %d glyphs in %.1fs", res.Classified, time.Since(start).Seconds()))
		},
		func(err error) {
			if !finish() {
				return
			}
			u.setStatus("Recognition failed")
			title, msg := recognitionErrorMessage(err)
			dialog.ShowInformation(title, msg, u.w)
		},
	)
	if err != nil {
		finish()
		dialog.ShowError(err, u.w)
	}
}

func (u *uiState) onSaveText() {
	if strings.TrimSpace(u.text.Text) == "" {
		dialog.ShowInformation("Save Text", "There is no text to save.", u.w)
		return
	}
	text := u.text.Text
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if _, err := io.WriteString(uc, text); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Printf("saved text to %s", uc.URI().Path())
	}, u.w)
	fd.SetFileName("result.txt")
	fd.Show()
}

// openSettings edits the segmenter settings. They apply to the next run and
// are saved to config.json. Classifier settings need a restart.
func (u *uiState) openSettings() {
	seg := u.cfg.Segmenter
	intEntry := func(v int) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(v))
		return e
	}
	thresholdEntry := intEntry(seg.Threshold)
	dilateEntry := intEntry(seg.DilateRadius)
	minAreaEntry := intEntry(seg.MinArea)
	paddingEntry := intEntry(seg.Padding)
	engineLabel := widget.NewLabel(fmt.Sprintf("%s (%s)", u.cfg.Classifier.Engine, strings.Join(u.cfg.Classifier.Backends, ", ")))

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "Threshold (0 = auto)", Widget: thresholdEntry},
		{Text: "Dilation radius", Widget: dilateEntry},
		{Text: "Minimum area", Widget: minAreaEntry},
		{Text: "Crop padding", Widget: paddingEntry},
		{Text: "Classifier", Widget: engineLabel},
	}}

	dialog.NewCustomConfirm("Settings", "OK", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		parse := func(e *widget.Entry, dst *int) {
			if v, err := strconv.Atoi(strings.TrimSpace(e.Text)); err == nil {
				*dst = v
			}
		}
		parse(thresholdEntry, &seg.Threshold)
		parse(dilateEntry, &seg.DilateRadius)
		parse(minAreaEntry, &seg.MinArea)
		parse(paddingEntry, &seg.Padding)

		save, run := segmenterUpdate(u.fileCfg, u.cfg, seg)
		if err := recognizer.SaveConfig(u.cfgPath, save); err != nil {
			u.logger.Printf("save config: %v", err)
		}
		u.fileCfg = save
		u.cfg = run
		u.rebuildRunner()
		u.logger.Printf("segmenter settings updated: %+v", run.Segmenter)
	}, u.w).Show()
}
