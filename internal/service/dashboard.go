package service

import (
	"glucose-dashboard/internal/forecast"
	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/series"
)

// Dashboard statuses.
const (
	StatusOK          = "ok"
	StatusPending     = "pending"
	StatusEmpty       = "empty"
	StatusUnavailable = "unavailable"
)

const (
	waitingAdvice     = "Waiting for the first readings."
	unavailableAdvice = "No data is available for this source."
)

// Dashboard is the read model served to the UI.
type Dashboard struct {
	Points     []glucose.Sample    `json:"points"`
	Window     *series.Window      `json:"window,omitempty"`
	Current    *glucose.Sample     `json:"current"`
	Preds      *forecast.Forecast  `json:"preds"`
	Status     string              `json:"status"`
	Risk       string              `json:"risk,omitempty"`
	Range      glucose.RangeStatus `json:"range,omitempty"`
	Advice     string              `json:"advice"`
	State      State               `json:"state"`
	Source     string              `json:"source"`
	ViewOffset int                 `json:"viewOffset"`
	Retained   int                 `json:"retained"`
}

func unavailableDashboard() Dashboard {
	return Dashboard{
		Points: []glucose.Sample{},
		Status: StatusUnavailable,
		Advice: unavailableAdvice,
	}
}
