package app

import "yashubustudio/glyphocr/recognizer"

// segmenterUpdate applies seg to both configurations. fileCfg is what was read
// from config.json and is the one to persist; runCfg carries the environment
// overrides and drives the running recognizer.
func segmenterUpdate(fileCfg, runCfg recognizer.Config, seg recognizer.SegmenterConfig) (save, run recognizer.Config) {
	seg.ApplyDefaults()
	save = fileCfg.Clone()
	save.Segmenter = seg
	run = runCfg.Clone()
	run.Segmenter = seg
	return save, run
}
