// Package main provides a WiFi scanner plugin for Linux.
// It lists visible access points through NetworkManager's nmcli.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config selects the wireless interface to scan. Empty means all.
type Config struct {
	Interface string `json:"interface"`
	Rescan    bool   `json:"rescan"`
}

// Reading is one access point and its level in dBm.
type Reading struct {
	BSSID string `json:"bssid"`
	Level int    `json:"level"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "scan":
		readings, err := handleScan(req.Config)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
		data, _ := json.Marshal(map[string][]Reading{"readings": readings})
		writeSuccessResponse(data)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// handleScan runs nmcli and parses its terse output.
func handleScan(raw json.RawMessage) ([]Reading, error) {
	var cfg Config
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	args := []string{"-t", "-f", "BSSID,SIGNAL", "device", "wifi", "list"}
	if cfg.Interface != "" {
		args = append(args, "ifname", cfg.Interface)
	}
	if cfg.Rescan {
		args = append(args, "--rescan", "yes")
	}

	out, err := exec.Command("nmcli", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("nmcli failed: %w", err)
	}

	return parseNmcli(string(out))
}

// parseNmcli parses lines of "BSSID:SIGNAL" where colons inside the BSSID are escaped as "\:".
// Signal quality 0-100 is mapped to dBm as quality/2 - 100.
func parseNmcli(out string) ([]Reading, error) {
	readings := []Reading{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		i := strings.LastIndex(line, ":")
		if i <= 0 {
			return nil, fmt.Errorf("malformed line %q", line)
		}
		bssid := strings.ToLower(strings.ReplaceAll(line[:i], `\:`, ":"))
		quality, err := strconv.Atoi(line[i+1:])
		if err != nil {
			return nil, fmt.Errorf("malformed signal in line %q: %w", line, err)
		}

		if seen[bssid] {
			continue
		}
		seen[bssid] = true
		readings = append(readings, Reading{BSSID: bssid, Level: quality/2 - 100})
	}

	return readings, scanner.Err()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response with data to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
