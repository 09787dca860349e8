package tui

import (
	"github.com/Veraticus/flowqa/internal/export"
	"github.com/Veraticus/flowqa/internal/model"
)

// fileLoadedMsg carries the outcome of a Load Data action.
type fileLoadedMsg struct {
	err  error
	data *model.FlowImport
	path string
}

// reportExportedMsg carries the outcome of an Export Report action.
type reportExportedMsg struct {
	err    error
	result *export.Result
}
