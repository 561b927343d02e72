package windows

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/moview/moview/pkg/activation"
)

// Activator implements activation.Backend for Windows
type Activator struct{}

func NewActivator() *Activator {
	return &Activator{}
}

func (a *Activator) Platform() string {
	return "windows"
}

// Activate raises an existing window of the target process, or starts the
// target command when no window is found.
func (a *Activator) Activate(target activation.Target) error {
	if runtime.GOOS != "windows" {
		return activation.ErrUnsupportedPlatform
	}

	script := composeActivateScript(target)
	if output, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput(); err != nil {
		return errors.Wrapf(activation.ErrUnreachable, "powershell failed for %s: %v (%s)",
			target.Name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func composeActivateScript(target activation.Target) string {
	names := processNameCandidates(target)
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, "'"+escapePowerShell(name)+"'")
	}

	return fmt.Sprintf(`
$names = @(%s)
$process = $null
foreach ($name in $names) {
  $process = Get-Process -Name $name -ErrorAction SilentlyContinue |
    Where-Object { $_.MainWindowHandle -ne 0 } |
    Select-Object -First 1
  if ($process) { break }
}
if ($process) {
  $sig = @"
using System;
using System.Runtime.InteropServices;
public static class Win32 {
  [DllImport("user32.dll")] public static extern bool ShowWindowAsync(IntPtr hWnd, int nCmdShow);
  [DllImport("user32.dll")] public static extern bool SetForegroundWindow(IntPtr hWnd);
}
"@
  Add-Type $sig -ErrorAction SilentlyContinue | Out-Null
  [Win32]::ShowWindowAsync($process.MainWindowHandle, 3) | Out-Null
  [Win32]::SetForegroundWindow($process.MainWindowHandle) | Out-Null
} else {
  %s
}
`, strings.Join(quoted, ", "), composeStartProcess(target))
}

// processNameCandidates lists the process names that may already own a
// window, most specific first, deduplicated.
func processNameCandidates(target activation.Target) []string {
	candidates := []string{
		target.WinProcessName,
		extractProcessName(target.WinCommand),
		extractProcessName(target.Name),
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

func extractProcessName(command string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(command, `"`, ""))
	if cleaned == "" {
		return ""
	}
	if idx := strings.LastIndexAny(cleaned, `/\`); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	if len(cleaned) >= 4 && strings.EqualFold(cleaned[len(cleaned)-4:], ".exe") {
		cleaned = cleaned[:len(cleaned)-4]
	}
	return cleaned
}

func composeStartProcess(target activation.Target) string {
	command := target.WinCommand
	if command == "" {
		command = target.Name
	}

	args := ""
	if len(target.Args) > 0 {
		escaped := make([]string, 0, len(target.Args))
		for _, arg := range target.Args {
			escaped = append(escaped, "'"+escapePowerShell(arg)+"'")
		}
		args = " -ArgumentList " + strings.Join(escaped, ", ")
	}

	return fmt.Sprintf("Start-Process -FilePath '%s'%s", escapePowerShell(command), args)
}

func escapePowerShell(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
