// Command staticlint bundles the analyzers the project is checked with into
// a single multichecker binary.
//
// Always enabled:
//   - go vet passes for locks, loop closures, lost cancels, printf, struct tags,
//     unmarshal targets and unreachable code;
//   - ineffassign and nilerr;
//   - noosexit, which forbids os.Exit in main.main;
//   - nosecretliteral, which forbids literal token signing keys.
//
// The staticcheck, simple and stylecheck checks to add are listed in
// config.json next to the binary, for example {"Staticcheck": ["SA1000", "ST1005"]}.
// Without that file every SA check is enabled.
package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/patric-chuzhbe/jobvocab/cmd/staticlint/noosexit"
	"github.com/patric-chuzhbe/jobvocab/cmd/staticlint/nosecretliteral"
)

const configFileName = `config.json`

// ConfigData lists the enabled staticcheck-family analyzers by name.
type ConfigData struct {
	Staticcheck []string
}

func loadConfig() (*ConfigData, error) {
	appfile, err := os.Executable()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), configFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func selectAnalyzers(cfg *ConfigData, groups ...[]*lint.Analyzer) []*analysis.Analyzer {
	enabled := make(map[string]bool)
	if cfg != nil {
		for _, name := range cfg.Staticcheck {
			enabled[name] = true
		}
	}

	var result []*analysis.Analyzer
	for _, group := range groups {
		for _, v := range group {
			if enabled[v.Analyzer.Name] {
				result = append(result, v.Analyzer)
			}
		}
	}

	if cfg == nil {
		for _, v := range staticcheck.Analyzers {
			result = append(result, v.Analyzer)
		}
	}

	return result
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
		nosecretliteral.Analyzer,
	}
	checks = append(checks, selectAnalyzers(cfg, staticcheck.Analyzers, simple.Analyzers, stylecheck.Analyzers)...)

	multichecker.Main(checks...)
}
