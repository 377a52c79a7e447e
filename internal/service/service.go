// Package service installs bloom as a per-user background service: a launchd
// agent on macOS and a systemd user unit on Linux.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"github.com/chris/bloom/config"
	"github.com/joho/godotenv"
)

const (
	label    = "com.bloom.bot"
	unitName = "bloom.service"
)

// manager is the platform service manager.
type manager interface {
	unitPath() string
	render(u unit) (string, error)
	load() error
	unload() error
	start() error
	stop() error
	status() error
	logs() error
}

// unit describes what the rendered service definition runs.
type unit struct {
	Label     string
	BinPath   string
	WorkDir   string
	StdoutLog string
	StderrLog string
}

func current() (manager, error) {
	switch runtime.GOOS {
	case "darwin":
		return launchd{}, nil
	case "linux":
		return systemd{}, nil
	default:
		return nil, fmt.Errorf("service management is not supported on %s", runtime.GOOS)
	}
}

func binDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "bin")
}

func binDest() string { return filepath.Join(binDir(), "bloom") }

func logDir() string { return filepath.Join(config.ConfigDir(), "logs") }

func stdoutLogPath() string { return filepath.Join(logDir(), "bloom-stdout.log") }
func stderrLogPath() string { return filepath.Join(logDir(), "bloom-stderr.log") }

// Install copies the running binary to ~/.local/bin, seeds ~/.bloom/config
// from ./.env when no config exists yet, writes the service definition and
// loads it.
func Install() error {
	m, err := current()
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}
	if err := copyBinary(exe, binDest()); err != nil {
		return err
	}
	fmt.Printf("installed binary to %s\n", binDest())

	seeded, err := seedConfig(".env", config.ConfigFile())
	if err != nil {
		return err
	}
	if seeded {
		fmt.Printf("seeded config from .env -> %s\n", config.ConfigFile())
	} else {
		fmt.Printf("using config at %s\n", config.ConfigFile())
	}

	if err := os.MkdirAll(logDir(), 0755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	def, err := m.render(unit{
		Label:     label,
		BinPath:   binDest(),
		WorkDir:   resolveWorkDir(config.ConfigFile()),
		StdoutLog: stdoutLogPath(),
		StderrLog: stderrLogPath(),
	})
	if err != nil {
		return fmt.Errorf("rendering service definition: %w", err)
	}

	if _, err := os.Stat(m.unitPath()); err == nil {
		_ = m.unload()
	}
	if err := os.MkdirAll(filepath.Dir(m.unitPath()), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(m.unitPath()), err)
	}
	if err := os.WriteFile(m.unitPath(), []byte(def), 0644); err != nil {
		return fmt.Errorf("writing service definition: %w", err)
	}
	fmt.Printf("wrote %s\n", m.unitPath())

	if err := m.load(); err != nil {
		return fmt.Errorf("loading service: %w", err)
	}
	fmt.Println("service loaded and will start on login")
	return nil
}

// Uninstall unloads and removes the service definition and the binary. The
// config and the profile store are left in place.
func Uninstall() error {
	m, err := current()
	if err != nil {
		return err
	}

	if _, err := os.Stat(m.unitPath()); err == nil {
		if err := m.unload(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: unload failed: %v\n", err)
		}
		if err := os.Remove(m.unitPath()); err != nil {
			return fmt.Errorf("removing service definition: %w", err)
		}
		fmt.Printf("removed %s\n", m.unitPath())
	} else {
		fmt.Println("service definition not found, skipping")
	}

	if _, err := os.Stat(binDest()); err == nil {
		if err := os.Remove(binDest()); err != nil {
			return fmt.Errorf("removing binary: %w", err)
		}
		fmt.Printf("removed %s\n", binDest())
	} else {
		fmt.Printf("binary not found at %s, skipping\n", binDest())
	}

	fmt.Println("uninstalled")
	return nil
}

func Start() error {
	m, err := current()
	if err != nil {
		return err
	}
	return m.start()
}

func Stop() error {
	m, err := current()
	if err != nil {
		return err
	}
	return m.stop()
}

func Restart() error {
	_ = Stop()
	return Start()
}

func Status() error {
	m, err := current()
	if err != nil {
		return err
	}
	return m.status()
}

// Logs follows the service output until interrupted.
func Logs() error {
	m, err := current()
	if err != nil {
		return err
	}
	return m.logs()
}

func copyBinary(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, 0755); err != nil {
		return fmt.Errorf("copying binary to %s: %w", dst, err)
	}
	return nil
}

// seedConfig copies envFile to configFile unless configFile already exists.
// It reports whether a copy was made.
func seedConfig(envFile, configFile string) (bool, error) {
	if _, err := os.Stat(configFile); err == nil {
		return false, nil
	}
	data, err := os.ReadFile(envFile)
	if err != nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0700); err != nil {
		return false, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

// resolveWorkDir picks the service's working directory. A relative
// PROFILE_STORE_PATH in the installed config is resolved against the
// directory install was run from; anything else runs from ~/.bloom.
func resolveWorkDir(configFile string) string {
	vars, _ := godotenv.Read(configFile)
	if p := vars["PROFILE_STORE_PATH"]; p == "" || !filepath.IsAbs(p) {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return config.ConfigDir()
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

func attached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// --- launchd ---

type launchd struct{}

func (launchd) unitPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", label+".plist")
}

func (launchd) render(u unit) (string, error) { return execute(plistTemplate, u) }

func (l launchd) load() error   { return run("launchctl", "load", l.unitPath()) }
func (l launchd) unload() error { return run("launchctl", "unload", l.unitPath()) }
func (launchd) start() error    { return run("launchctl", "start", label) }
func (launchd) stop() error     { return run("launchctl", "stop", label) }

func (launchd) status() error {
	if err := attached("launchctl", "list", label); err != nil {
		fmt.Println("service is not loaded")
	}
	return nil
}

func (launchd) logs() error {
	return attached("tail", "-f", stdoutLogPath(), stderrLogPath())
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.BinPath}}</string>
		<string>run</string>
	</array>
	<key>WorkingDirectory</key>
	<string>{{.WorkDir}}</string>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.StdoutLog}}</string>
	<key>StandardErrorPath</key>
	<string>{{.StderrLog}}</string>
</dict>
</plist>
`))

// --- systemd ---

type systemd struct{}

func (systemd) unitPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "systemd", "user", unitName)
}

func (systemd) render(u unit) (string, error) { return execute(unitTemplate, u) }

func (systemd) load() error {
	if err := run("systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	return run("systemctl", "--user", "enable", "--now", unitName)
}

func (systemd) unload() error { return run("systemctl", "--user", "disable", "--now", unitName) }
func (systemd) start() error  { return run("systemctl", "--user", "start", unitName) }
func (systemd) stop() error   { return run("systemctl", "--user", "stop", unitName) }

func (systemd) status() error {
	// systemctl exits non-zero for inactive units; the printed state is enough.
	_ = attached("systemctl", "--user", "status", "--no-pager", unitName)
	return nil
}

func (systemd) logs() error {
	return attached("tail", "-f", stdoutLogPath(), stderrLogPath())
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=bloom parenting assistant bot ({{.Label}})
After=network-online.target

[Service]
ExecStart={{.BinPath}} run
WorkingDirectory={{.WorkDir}}
Restart=always
RestartSec=5
StandardOutput=append:{{.StdoutLog}}
StandardError=append:{{.StderrLog}}

[Install]
WantedBy=default.target
`))

func execute(t *template.Template, u unit) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, u); err != nil {
		return "", err
	}
	return buf.String(), nil
}
