package scholar

import (
	"errors"

	"github.com/alnah/go-scholar/internal/settings"
	"github.com/alnah/go-scholar/internal/stage"
)

// Sentinel errors for library operations.
var (
	ErrInvalidInput = errors.New("invalid input file")
	ErrFrontMatter  = errors.New("invalid front matter")
	ErrInvalidMode  = errors.New("invalid conversion mode")
	ErrWriteOutput  = errors.New("failed to write output")

	// Settings resolution errors.
	ErrInvalidSettings = settings.ErrInvalidSettings
	ErrConfigNotFound  = settings.ErrConfigNotFound
	ErrConfigLoad      = settings.ErrConfigLoad

	// Stage errors.
	ErrContentGeneration = stage.ErrContentGeneration
	ErrRender            = stage.ErrRender
	ErrBibliography      = stage.ErrBibliography
	ErrUnsafeLaTeXPath   = stage.ErrUnsafeLaTeXPath
	ErrFilter            = stage.ErrFilter
	ErrTypeset           = stage.ErrTypeset
	ErrPrepare           = stage.ErrPrepare
)

// StageError is a typed stage failure carrying the process result.
type StageError = stage.Error

// SettingsError is a failed settings resolution carrying the source records.
type SettingsError = settings.SettingsError
