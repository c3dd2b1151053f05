package tui

import (
	"ledger/internal/api"
	"ledger/internal/core"
	"ledger/internal/tui/viewmodel"
)

// Replies of the asynchronous requests.
type recordsLoadedMsg struct {
	err   error
	reply api.RecordsReply
	month core.Month
}

type recordAddedMsg struct {
	err    error
	record api.Record
}

type recordEditedMsg struct {
	err error
	row viewmodel.Row
}

type recordDeletedMsg struct {
	err error
	key viewmodel.RowKey
}

type chartDataMsg struct {
	err   error
	reply api.ChartReply
}

type exportDoneMsg struct {
	err  error
	path string
}

type themeSavedMsg struct {
	err  error
	name string
}

// Notice timers carry the notice's sequence number.
type noticeFadeMsg struct {
	placeholder viewmodel.Placeholder
	seq         uint64
}

type noticeRemoveMsg struct {
	placeholder viewmodel.Placeholder
	seq         uint64
}
