// Package terminal is the toy shell behind the IDE's terminal panel. Every
// command is a pure function of its arguments and the caller's environment;
// nothing is ever executed on the host.
package terminal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
	"github.com/quantumcode/quantumcode-backend/internal/projects/service"
)

// Env is what a command may look at.
type Env struct {
	User    string
	Project *domain.Project
	Now     time.Time
}

// Result is the text to print. Clear asks the client to wipe the screen first.
type Result struct {
	Output string `json:"output"`
	Clear  bool   `json:"clear"`
}

type command struct {
	usage string
	help  string
	run   func(args []string, env Env) Result
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {usage: "help", help: "list available commands", run: runHelp},
		"date":   {usage: "date", help: "print the current date and time", run: runDate},
		"echo":   {usage: "echo <text>", help: "print text", run: runEcho},
		"ls":     {usage: "ls [glob]", help: "list project files", run: runLs},
		"cat":    {usage: "cat <path>", help: "print a project file", run: runCat},
		"pwd":    {usage: "pwd", help: "print the working directory", run: runPwd},
		"whoami": {usage: "whoami", help: "print the signed-in user", run: runWhoami},
		"clear":  {usage: "clear", help: "clear the screen", run: runClear},
	}
}

// Exec runs one input line.
func Exec(line string, env Env) Result {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{}
	}
	if env.Now.IsZero() {
		env.Now = time.Now()
	}

	name := fields[0]
	cmd, ok := commands[name]
	if !ok {
		return Result{Output: "command not found: " + name}
	}
	return cmd.run(fields[1:], env)
}

func runHelp(_ []string, _ Env) Result {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "  %-12s %s\n", c.usage, c.help)
	}
	return Result{Output: strings.TrimRight(b.String(), "\n")}
}

func runDate(_ []string, env Env) Result {
	return Result{Output: env.Now.Format(time.RFC1123)}
}

func runEcho(args []string, _ Env) Result {
	return Result{Output: strings.Join(args, " ")}
}

func runLs(args []string, env Env) Result {
	if env.Project == nil {
		return Result{}
	}
	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
	}
	files, err := service.MatchFiles(env.Project.Files, pattern)
	if err != nil {
		return Result{Output: "ls: invalid pattern: " + pattern}
	}
	if len(files) == 0 && pattern != "" {
		return Result{Output: "ls: no match: " + pattern}
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return Result{Output: strings.Join(paths, "\n")}
}

func runCat(args []string, env Env) Result {
	if len(args) == 0 {
		return Result{Output: "usage: cat <path>"}
	}
	if env.Project == nil {
		return Result{Output: "cat: no project open"}
	}
	f := env.Project.FileByPath(domain.NormalizePath(args[0]))
	if f == nil {
		return Result{Output: "cat: " + args[0] + ": no such file"}
	}
	return Result{Output: f.Content}
}

func runPwd(_ []string, env Env) Result {
	if env.Project == nil {
		return Result{Output: "/"}
	}
	return Result{Output: "/" + env.Project.Name}
}

func runWhoami(_ []string, env Env) Result {
	if env.User == "" {
		return Result{Output: "anonymous"}
	}
	return Result{Output: env.User}
}

func runClear(_ []string, _ Env) Result {
	return Result{Clear: true}
}
