// Package preflight inspects the runtime environment before the daemon starts.
// Results are advisory; nothing in the login path depends on them.
package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// Check is the result of one environment probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the ordered list of checks.
type Report struct {
	Checks []Check
}

// Warnings returns the checks that did not pass.
func (r Report) Warnings() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return len(r.Warnings()) == 0
}

// Options describes what to inspect.
type Options struct {
	ConfigPath string
	DataDir    string
	// NotifyCommand defaults to "termux-notification".
	NotifyCommand string
}

// env abstracts the process environment for tests.
type env struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	stat     func(string) (fs.FileInfo, error)
}

var osEnv = env{getenv: os.Getenv, lookPath: exec.LookPath, stat: os.Stat}

// Run performs all checks.
func Run(opts Options) Report {
	return run(opts, osEnv)
}

func run(opts Options, e env) Report {
	if opts.NotifyCommand == "" {
		opts.NotifyCommand = "termux-notification"
	}
	return Report{Checks: []Check{
		checkTermux(e),
		checkConfig(e, opts.ConfigPath),
		checkDataDir(opts.DataDir),
		checkNotifier(e, opts.NotifyCommand),
	}}
}

func checkTermux(e env) Check {
	c := Check{Name: "termux"}
	if e.getenv("TERMUX_VERSION") != "" || strings.Contains(e.getenv("PREFIX"), "com.termux") {
		c.OK = true
		c.Detail = "running inside Termux"
		return c
	}
	c.Detail = "not running inside Termux; Android notifications are unavailable"
	return c
}

func checkConfig(e env, path string) Check {
	c := Check{Name: "config"}
	info, err := e.stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.Detail = fmt.Sprintf("%s does not exist; run setup first", path)
	case err != nil:
		c.Detail = fmt.Sprintf("cannot stat %s: %v", path, err)
	case info.IsDir():
		c.Detail = fmt.Sprintf("%s is a directory", path)
	default:
		c.OK = true
		c.Detail = path
	}
	return c
}

func checkDataDir(dir string) Check {
	c := Check{Name: "data_dir"}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		c.Detail = fmt.Sprintf("cannot create %s: %v", dir, err)
		return c
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		c.Detail = fmt.Sprintf("%s is not writable: %v", dir, err)
		return c
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	c.OK = true
	c.Detail = dir
	return c
}

func checkNotifier(e env, command string) Check {
	c := Check{Name: "notifications"}
	path, err := e.lookPath(command)
	if err != nil {
		c.Detail = fmt.Sprintf("%s not found; install the termux-api package", command)
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}
