package app

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/glyphocr/recognizer"
)

const fyneAppID = "studio.yashubu.glyphocr"

// Run loads configuration, starts classifier construction in the background
// and runs the desktop UI until the window is closed.
func Run() error {
	if err := recognizer.LoadEnv(); err != nil {
		return err
	}
	fileCfg, err := recognizer.LoadConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := fileCfg.Clone()
	recognizer.ApplyEnv(&cfg)

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, fileCfg, cfg, "")
	defer u.close()
	u.startLoading()
	u.w.ShowAndRun()
	return nil
}
