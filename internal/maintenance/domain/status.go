package domain

import (
	"errors"
	"time"
)

// ErrMaintenanceModeActive is returned when a non-admin request arrives while maintenance mode is on.
var ErrMaintenanceModeActive = errors.New("the system is under maintenance, please try again later")

// Status is the maintenance flag and who last changed it.
type Status struct {
	Enabled   bool      `json:"enabled"`
	Since     time.Time `json:"since"`
	UpdatedBy string    `json:"updatedBy"`
}
