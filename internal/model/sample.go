package model

// FlowSample is one row of the reference flowmeter's exported log.
type FlowSample struct {
	Volume    string // Cell text in liters, parsed at evaluation time
	Timestamp string // Device timestamp, kept opaque
	DeviceID  string
	Row       int // 1-based spreadsheet row
}

// FlowImport is the result of loading one flowmeter export.
type FlowImport struct {
	SourcePath  string
	DeviceID    string
	Samples     []FlowSample
	DroppedRows int
}
