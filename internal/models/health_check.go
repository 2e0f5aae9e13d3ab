package models

import "time"

type HealthCheck struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	ImageLoaded bool              `json:"image_loaded"`
	Presets     int               `json:"presets"`
	Services    map[string]string `json:"services"`
}
