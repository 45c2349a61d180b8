package models

import "time"

type HealthCheck struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Sessions  int                    `json:"sessions"`
	Services  map[string]string      `json:"services"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
