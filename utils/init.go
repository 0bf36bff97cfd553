package utils

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

type options struct {
	workers      uint
	timeout      time.Duration
	function     string
	outputFormat string
	gopath       string
	modulePath   string
	models       string
	facts        string
	task         string
	noColorize   bool
	verbose      bool
	includeTests bool
}

const (
	_TAINT = iota
	_FACTS
	_RULES
	_COVERAGE
	_CFG_TO_DOT
)

// CanColorize returns col if colorized output is enabled and stdout is a
// terminal, and a plain formatter otherwise.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize || !isatty.IsTerminal(os.Stdout.Fd()) {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%v", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"taint",
	"Run the container taint analysis on every function of the loaded packages and report sink findings",
}, {
	"facts",
	"Evaluate a YAML file of pre-extracted operation facts (see -facts) without loading Go code",
}, {
	"rules",
	"Print the propagation rule table",
}, {
	"coverage",
	"List the operations that fell back to the unmodeled join-all rule",
}, {
	"cfg-to-dot",
	"Render the container operations of the function given by -fun, and their taints, as a graph",
}}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) Models() string {
	return opts.models
}
func (optInterface) Facts() string {
	return opts.facts
}
func (optInterface) Workers() int {
	if opts.workers == 0 {
		return 1
	}
	return int(opts.workers)
}
func (optInterface) Timeout() time.Duration {
	return opts.timeout
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsTaint() bool {
	return opts.task == task[_TAINT].flag
}
func (taskInterface) IsFacts() bool {
	return opts.task == task[_FACTS].flag
}
func (taskInterface) IsRules() bool {
	return opts.task == task[_RULES].flag
}
func (taskInterface) IsCoverage() bool {
	return opts.task == task[_COVERAGE].flag
}
func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.StringVar(&(opts.function), "fun", ".", "target a specific function w. r. t. the given task.\n"+
		"- Function names need not be fully qualified w.r.t. package name.\n"+
		"- Use '.' to analyze every function in the loaded packages.\n")
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | dot]")
	flag.StringVar(&(opts.gopath), "gopath", "examples", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.models), "models", "", "YAML file with source, sink and container operation models, merged over the built-in defaults")
	flag.StringVar(&(opts.facts), "facts", "", "YAML file of operation facts, used by the 'facts' task")
	flag.StringVar(&(opts.task), "task", task[_TAINT].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include test files in the analysis.")
	flag.UintVar(&(opts.workers), "workers", 4, "number of functions analyzed in parallel")
	flag.DurationVar(&(opts.timeout), "timeout", 2*time.Minute, "abandon the analysis of the remaining functions after this long (0 disables)")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	if Opts().Task().IsCfgToDot() {
		opts.noColorize = true
	}
	if Opts().Task().IsFacts() && opts.facts == "" {
		log.Fatalln("The 'facts' task requires -facts")
	}
	if Opts().Task().IsCfgToDot() && Opts().AnalyzeAllFuncs() {
		log.Fatalln("The 'cfg-to-dot' task requires a single function given by -fun")
	}
}

func (optInterface) AnalyzeAllFuncs() bool {
	return opts.function == "."
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
