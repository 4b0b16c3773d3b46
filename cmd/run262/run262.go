package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"runtime/pprof"

	"com.github.sebastianobarrera.modeledjs/aotvm"
	tsparser "com.github.sebastianobarrera.modeledjs/aotvm/ts-parser"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

var (
	test262Root = flag.String("test262", "", "Path to the test262 respository (default: $TEST262_ROOT)")
	testCase    = flag.String("single", "", "Run this specific testcase (path relative to the test262 root)")
	configPath  = flag.String("config", "testConfig.yaml", "YAML file listing the test cases to run")
	showAST     = flag.Bool("showAST", false, "Show the AST of the main script")
	parseOnly   = flag.Bool("parseOnly", false, "Stop at parsing; test is successful if it parses as expected")
	cpuProfile  = flag.String("cpuProfile", "", "Write CPU profile to this file")
	logFile     = flag.String("logFile", "", "Also write JSON logs to this file")
	logLevel    = flag.String("logLevel", "info", "Log level: debug, info, warn or error")

	textSta    string
	textAssert string

	logger *slog.Logger

	ErrCaseDisabledInMetadata = errors.New("testcase disabled in metadata")
)

func main() {
	flag.Parse()

	var closeLog func()
	logger, closeLog = newLogger(*logLevel, *logFile)
	defer closeLog()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env", "error", err)
	}
	if *test262Root == "" {
		*test262Root = os.Getenv("TEST262_ROOT")
	}
	if *test262Root == "" {
		fatal("command line argument is required: -test262 (or TEST262_ROOT, see -help)")
	}

	if *cpuProfile != "" {
		cpuf, err := os.Create(*cpuProfile)
		if err != nil {
			fatal("can't create cpu profile file", "path", *cpuProfile, "error", err)
		}
		pprof.StartCPUProfile(cpuf)
		defer pprof.StopCPUProfile()
	}

	var raw []byte
	raw, err := os.ReadFile(path.Join(*test262Root, "harness/sta.js"))
	if err != nil {
		fatal("while reading preamble (harness/sta.js)", "error", err)
	}
	textSta = string(raw)
	raw, err = os.ReadFile(path.Join(*test262Root, "harness/assert.js"))
	if err != nil {
		fatal("while reading preamble (harness/assert.js)", "error", err)
	}
	textAssert = string(raw)

	if *testCase != "" {
		logger.Info("running single test case", "path", *testCase)
		errStrict, errSloppy := runTestCase(*test262Root, *testCase)
		logger.Info("outcome", "mode", "strict", "error", errStrict)
		logger.Info("outcome", "mode", "sloppy", "error", errSloppy)
		return
	}

	testConfig, err := readTestConfig(*configPath)
	if err != nil {
		fatal("while parsing test config", "path", *configPath, "error", err)
	}

	result := runMany(*test262Root, testConfig.TestCases)

	var successes, failures, unimplemented []CaseOutcome
	for _, co := range result.Cases {
		switch {
		case co.Success:
			successes = append(successes, co)
		case errors.Is(co.Error, aotvm.ErrNotImplemented):
			unimplemented = append(unimplemented, co)
		default:
			failures = append(failures, co)
		}
	}

	printGroup("SUCCESSES", successes, false)
	printGroup("NOT IMPLEMENTED", unimplemented, true)
	printGroup("FAILURES", failures, true)
	fmt.Printf("summary\ttotal: %d; %d successes; %d not implemented; %d failures\n",
		len(result.Cases), len(successes), len(unimplemented), len(failures))
}

func fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

func printGroup(title string, cases []CaseOutcome, withErrors bool) {
	fmt.Printf("group %s %d\n", title, len(cases))
	for _, co := range cases {
		strictMode := "sloppy"
		if co.StrictMode {
			strictMode = "strict"
		}
		fmt.Printf("case\t%s\t%s\n", co.Path, strictMode)

		if !withErrors || co.Error == nil {
			continue
		}
		for ndx, line := range strings.Split(co.Error.Error(), "\n") {
			if ndx == 0 {
				fmt.Printf("error\t\t%s\n", line)
			} else {
				fmt.Printf("ectx\t\t%s\n", line)
			}
		}
	}
}

type TestConfig struct {
	TestCases []string `yaml:"testCases"`
}

func readTestConfig(filename string) (cfg TestConfig, err error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return
	}

	err = yaml.Unmarshal(buf, &cfg)
	return
}

type RunManyResult struct {
	Cases []CaseOutcome
}

type CaseOutcome struct {
	Path       string
	StrictMode bool

	Success bool
	Error   error
}

func runMany(test262Root string, testCases []string) (result RunManyResult) {
	result.Cases = make([]CaseOutcome, 0, len(testCases)*2)

	sink := make(chan CaseOutcome)

	for _, relPath := range testCases {
		go func() {
			errStrict, errSloppy := runTestCase(test262Root, relPath)

			sink <- CaseOutcome{
				Path:       relPath,
				StrictMode: true,
				Success:    (errStrict == nil || errStrict == ErrCaseDisabledInMetadata),
				Error:      errStrict,
			}
			sink <- CaseOutcome{
				Path:       relPath,
				StrictMode: false,
				Success:    (errSloppy == nil || errSloppy == ErrCaseDisabledInMetadata),
				Error:      errSloppy,
			}
		}()
	}

	// two outcomes per test case
	for i := 0; i < 2*len(testCases); i++ {
		co := <-sink
		result.Cases = append(result.Cases, co)
	}
	return
}

func runTestCase(test262Root, testCase string) (errStrict, errSloppy error) {
	testCaseAbs := testCase
	if !path.IsAbs(testCase) {
		testCaseAbs = path.Join(test262Root, testCase)
	}

	textBytes, err := os.ReadFile(testCaseAbs)
	if err != nil {
		errStrict = fmt.Errorf("reading testcase %s: %w", testCaseAbs, err)
		errSloppy = errStrict
		return
	}

	if *showAST {
		if err := aotvm.PrintAST(os.Stdout, testCaseAbs, textBytes); err != nil {
			logger.Warn("parsing and printing AST", "path", testCaseAbs, "error", err)
		}
	}

	mt, err := parseMetadata(textBytes)
	if err != nil {
		errStrict = fmt.Errorf("while parsing metadata: %w", err)
		errSloppy = errStrict
		return
	}
	if mt.Module {
		return ErrCaseDisabledInMetadata, ErrCaseDisabledInMetadata
	}

	runInMode := func(forceStrict bool) error {
		logger.Debug("running test case", "path", testCase, "strict", forceStrict)
		err := runScripts(test262Root, testCaseAbs, textBytes, mt, forceStrict)
		return checkOutcome(mt, err)
	}

	if mt.NoStrict || mt.Raw {
		errStrict = ErrCaseDisabledInMetadata
	} else {
		errStrict = runInMode(true)
	}
	if mt.OnlyStrict {
		errSloppy = ErrCaseDisabledInMetadata
	} else {
		errSloppy = runInMode(false)
	}

	return
}

type script struct {
	path string
	text []byte
}

func runScripts(test262Root, testCaseAbs string, textBytes []byte, mt Metadata, forceStrict bool) error {
	var scripts []script
	if !mt.Raw {
		scripts = append(scripts,
			script{path.Join(test262Root, "harness/sta.js"), []byte(textSta)},
			script{path.Join(test262Root, "harness/assert.js"), []byte(textAssert)},
		)
	}
	for _, include := range mt.Includes {
		includePath := path.Join(test262Root, "harness", include)
		text, err := os.ReadFile(includePath)
		if err != nil {
			return err
		}
		scripts = append(scripts, script{includePath, text})
	}
	mainText := textBytes
	if forceStrict {
		mainText = append([]byte("\"use strict\";\n"), textBytes...)
	}
	scripts = append(scripts, script{testCaseAbs, mainText})

	if *parseOnly {
		for _, s := range scripts {
			if err := tsparser.ParseBytes(s.path, s.text); err != nil {
				return fmt.Errorf("%w: %w", aotvm.ErrSyntax, err)
			}
		}
		return nil
	}

	vm := aotvm.NewVM(aotvm.WithLogger(logger))
	installPrint(vm)
	for _, s := range scripts {
		if _, err := vm.RunScriptReader(s.path, bytes.NewReader(s.text)); err != nil {
			return err
		}
	}
	return vm.RunJobs()
}

// checkOutcome turns the result of a run into the test verdict: negative
// tests pass only when they fail in the expected phase with the expected
// error type.
func checkOutcome(mt Metadata, err error) error {
	if mt.NegativePhase == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected %s error in phase %s, but none were raised", mt.NegativeType, mt.NegativePhase)
	}

	switch mt.NegativePhase {
	case "parse", "early":
		if errors.Is(err, aotvm.ErrSyntax) && mt.NegativeType == "SyntaxError" {
			return nil
		}
	case "runtime", "resolution":
		if tc, isThrow := aotvm.AsThrow(err); isThrow && tc.ErrorName() == mt.NegativeType {
			return nil
		}
	}
	if errors.Is(err, aotvm.ErrNotImplemented) {
		return err
	}
	return fmt.Errorf("expected %s error in phase %s, got: %w", mt.NegativeType, mt.NegativePhase, err)
}

func installPrint(vm *aotvm.VM) {
	realm := vm.Realm()
	printFn := aotvm.CreateBuiltinFunction(realm, func(vm *aotvm.VM, this aotvm.JSValue, args []aotvm.JSValue, flags aotvm.CallFlags) (aotvm.JSValue, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			s, err := vm.ToString(arg)
			if err != nil {
				return nil, err
			}
			parts[i] = string(s)
		}
		fmt.Println(strings.Join(parts, " "))
		return aotvm.JSUndefined{}, nil
	}, 1, aotvm.NameStr("print"), nil)

	desc := aotvm.DataProperty(printFn, true, false, true)
	if err := vm.DefinePropertyOrThrow(vm.GlobalObject(), aotvm.NameStr("print"), desc); err != nil {
		panic(err)
	}
}

type Metadata struct {
	OnlyStrict    bool
	NoStrict      bool
	Raw           bool
	Module        bool
	Includes      []string
	NegativePhase string
	NegativeType  string
}

func parseMetadata(text []byte) (mt Metadata, err error) {
	startNdx := bytes.Index(text, []byte("/*---"))
	if startNdx == -1 {
		return
	}

	endOffset := bytes.Index(text[startNdx:], []byte("---*/"))
	if endOffset == -1 {
		err = fmt.Errorf("invalid source code: unterminated metadata comment (started with /*--- at offset %d)", startNdx)
		return
	}
	endNdx := startNdx + endOffset

	metadataYaml := text[startNdx+5 : endNdx]

	var metadataRaw struct {
		Flags    []string
		Includes []string
		Negative *struct {
			Phase string
			Type  string
		}
	}

	err = yaml.Unmarshal(metadataYaml, &metadataRaw)
	if err != nil {
		return
	}

	for _, flag := range metadataRaw.Flags {
		switch flag {
		case "noStrict":
			mt.NoStrict = true
		case "onlyStrict":
			mt.OnlyStrict = true
		case "raw":
			mt.Raw = true
		case "module":
			mt.Module = true
		}
	}

	mt.Includes = metadataRaw.Includes
	if metadataRaw.Negative != nil {
		mt.NegativePhase = metadataRaw.Negative.Phase
		mt.NegativeType = metadataRaw.Negative.Type
	}

	return
}
