package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/tracematch/internal/location"
)

// ScanAction is the action a plugin must declare to act as a WiFi scanner.
const ScanAction = "scan"

// ScanData is the payload of a successful scan response.
type ScanData struct {
	Readings []location.Reading `json:"readings"`
}

// ScanPlugin runs a scanner plugin and implements location.Scanner.
type ScanPlugin struct {
	plugin   *Plugin
	executor *Executor
	config   json.RawMessage
}

// NewScanPlugin adapts plugin to location.Scanner. config is passed through on every request.
func NewScanPlugin(plugin *Plugin, executor *Executor, config json.RawMessage) *ScanPlugin {
	return &ScanPlugin{plugin: plugin, executor: executor, config: config}
}

// Name returns the plugin name.
func (s *ScanPlugin) Name() string {
	return s.plugin.Manifest.Name
}

// Scan asks the plugin for the access points currently visible.
func (s *ScanPlugin) Scan(ctx context.Context) ([]location.Reading, error) {
	resp, err := s.executor.Execute(ctx, s.plugin, &Request{Action: ScanAction, Config: s.config})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Error == "" {
			return nil, errors.New("scan failed")
		}
		return nil, errors.New(resp.Error)
	}

	var data ScanData
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to parse scan data: %w", err)
		}
	}
	return data.Readings, nil
}
