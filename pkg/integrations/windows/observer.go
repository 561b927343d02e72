// Package windows observes and activates applications on Windows through
// PowerShell and the user32 foreground-window APIs.
package windows

import (
	"encoding/json"
	"os/exec"
	"runtime"
	"strings"

	"github.com/moview/moview/pkg/window"
)

const foregroundScript = `
Add-Type @"
using System;
using System.Runtime.InteropServices;
public class User32 {
  [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
  [DllImport("user32.dll")] public static extern int GetWindowText(IntPtr hWnd, System.Text.StringBuilder text, int count);
  [DllImport("user32.dll")] public static extern int GetWindowThreadProcessId(IntPtr hWnd, out int processId);
}
"@
$hwnd = [User32]::GetForegroundWindow()
if ($hwnd -eq [IntPtr]::Zero) { return }
$buffer = New-Object System.Text.StringBuilder 512
[User32]::GetWindowText($hwnd, $buffer, $buffer.Capacity) | Out-Null
$title = $buffer.ToString()
$procId = 0
[User32]::GetWindowThreadProcessId($hwnd, [ref]$procId) | Out-Null
if ($procId -eq 0) { return }
$process = Get-Process -Id $procId -ErrorAction SilentlyContinue
if (-not $process) { return }
[pscustomobject]@{
  name = $process.ProcessName
  title = $title
  processPath = $process.Path
} | ConvertTo-Json -Compress
`

// Observer implements window.Observer for Windows
type Observer struct{}

func NewObserver() *Observer {
	return &Observer{}
}

func (o *Observer) IsAvailable() bool {
	return runtime.GOOS == "windows"
}

func (o *Observer) Platform() string {
	return "windows"
}

func (o *Observer) Close() error {
	return nil
}

// Poll queries the foreground window via PowerShell. An empty result (no
// foreground window, e.g. the lock screen) yields nil without error.
func (o *Observer) Poll() (*window.Observation, error) {
	output, err := exec.Command("powershell", "-NoProfile", "-Command", foregroundScript).Output()
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return nil, nil
	}

	var parsed struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		ProcessPath string `json:"processPath"`
	}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, err
	}

	return &window.Observation{
		Name:        parsed.Name,
		Title:       parsed.Title,
		ProcessPath: parsed.ProcessPath,
	}, nil
}
