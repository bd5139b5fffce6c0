package models

// Requests for the snapshot HTTP endpoints.

type CountdownRequest struct {
	Window string `query:"window" json:"window" default:"15m" validate:"required"`
}

type SnapshotRequest struct {
	Window string `query:"window" json:"window" default:"15m" validate:"required"`
	Fresh  bool   `query:"fresh" json:"fresh"`
	At     string `query:"at" json:"at" validate:"omitempty,max=40"`
}
