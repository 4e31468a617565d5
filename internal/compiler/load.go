package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// Load error codes.
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeNoFiles     = "NO_FILES"
	ErrCodeLoadFailed  = "LOAD_FAILED"
	ErrCodeBuildFailed = "BUILD_FAILED"
	ErrCodeNoWorkcells = "NO_WORKCELLS"
)

// LoadError represents a failure to read the definitions directory.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDefinitions compiles every workcell declared under `workcell:` in the
// CUE package in dir and validates the resulting set.
//
// Returns a *LoadError when the directory cannot be loaded, a
// *CompileError for malformed workcells and a *DefinitionError for
// invariant violations (duplicate id, more than one choice, sheet name
// collisions).
func LoadDefinitions(dir string) (model.Definitions, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	wcs, err := CompileWorkcells(value)
	if err != nil {
		return nil, err
	}
	if len(wcs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoWorkcells, Message: fmt.Sprintf("no workcells declared in %s", dir)}
	}

	defs, err := NewDefinitions(wcs...)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded workcell definitions", "dir", dir, "files", len(cueFiles), "workcells", len(defs))
	return defs, nil
}

// CompileWorkcells compiles every field of the top-level `workcell` struct
// of v in declaration order. Stops at the first error.
func CompileWorkcells(v cue.Value) ([]*model.Workcell, error) {
	wcVal := v.LookupPath(cue.ParsePath("workcell"))
	if !wcVal.Exists() {
		return nil, nil
	}

	iter, err := wcVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var wcs []*model.Workcell
	for iter.Next() {
		wc, err := CompileWorkcell(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("workcell %s: %w", selectorName(iter.Selector()), err)
		}
		wcs = append(wcs, wc)
	}
	return wcs, nil
}

// FindCUEFiles returns the .cue files directly in dir. Subdirectories are
// not loaded, so they are not listed.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
