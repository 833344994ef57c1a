package ui

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"mediafetch/pkg/config"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends a balloon tip through PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms
$n = New-Object System.Windows.Forms.NotifyIcon
$n.Icon = [System.Drawing.SystemIcons]::Information
$n.Visible = $true
$n.ShowBalloonTip(5000, %s, %s, 'Info')
Start-Sleep -Seconds 5
$n.Dispose()`, quote(title), quote(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier sends desktop notifications; unsupported platforms are a no-op
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform
func NewNotifier() *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}
	return &Notifier{sender: sender}
}

// NewNotifierWithSender uses an explicit sender.
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// Send delivers a notification. Failures are returned, never fatal.
func (n *Notifier) Send(title, message string) error {
	if n.sender == nil {
		return nil
	}
	return n.sender.Send(title, message)
}

// RunNotifier notifies when a run ends.
type RunNotifier struct {
	fetcher.NopReporter
	notifier *Notifier
	cfg      config.NotificationConfig
}

// NewRunNotifier reports run completion through n according to cfg.
func NewRunNotifier(n *Notifier, cfg config.NotificationConfig) *RunNotifier {
	return &RunNotifier{notifier: n, cfg: cfg}
}

// RunFinished sends the completion or error notification.
func (r *RunNotifier) RunFinished(stats models.RunStats, err error) {
	if !r.cfg.Enabled {
		return
	}

	switch {
	case err == nil || errors.Is(err, fetcher.ErrInterrupted):
		if r.cfg.OnComplete {
			_ = r.notifier.Send("mediafetch finished", fmt.Sprintf("%d downloaded, %d failed, %d skipped in %s",
				stats.Downloaded, stats.Failed, stats.Skipped, FormatClock(stats.Elapsed)))
		}
	default:
		if r.cfg.OnError {
			_ = r.notifier.Send("mediafetch stopped", err.Error())
		}
	}
}
