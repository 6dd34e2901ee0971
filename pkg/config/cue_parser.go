package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
)

// Parser parses and validates CUE manifest sources.
type Parser struct {
	ctx      *cue.Context
	validate *validator.Validate
}

// NewParser creates a manifest parser.
func NewParser() *Parser {
	return &Parser{
		ctx:      cuecontext.New(),
		validate: validator.New(),
	}
}

// ParseManifest loads the given files or directories, unifies them into one
// CUE value, and decodes the manifest. All validation problems are collected
// and reported together.
func (p *Parser) ParseManifest(ctx context.Context, sources []string) (*Manifest, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no manifest sources provided")
	}

	var unified cue.Value
	var problems []ValidationError

	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		var files []string
		if info.IsDir() {
			files, err = cueFilesIn(source)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				problems = append(problems, ValidationError{
					File:    source,
					Message: "no CUE files found",
				})
				continue
			}
		} else {
			files = []string{source}
		}

		for _, file := range files {
			val, errs := p.compileFile(file)
			if len(errs) > 0 {
				problems = append(problems, errs...)
				continue
			}
			if unified.Exists() {
				unified = unified.Unify(val)
			} else {
				unified = val
			}
		}
	}

	if len(problems) > 0 {
		return nil, combineProblems(problems)
	}

	if err := unified.Err(); err != nil {
		return nil, combineProblems(convertCUEErrors(err))
	}

	var manifest Manifest
	if err := unified.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if errs := p.validateManifest(&manifest); len(errs) > 0 {
		return nil, combineProblems(errs)
	}

	return &manifest, nil
}

// ParseInline parses inline CUE content, mainly for tests.
func (p *Parser) ParseInline(ctx context.Context, content string) (*Manifest, error) {
	val := p.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return nil, combineProblems(convertCUEErrors(err))
	}

	var manifest Manifest
	if err := val.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if errs := p.validateManifest(&manifest); len(errs) > 0 {
		return nil, combineProblems(errs)
	}

	return &manifest, nil
}

// compileFile compiles a single CUE file.
func (p *Parser) compileFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
		}}
	}

	val := p.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, convertCUEErrors(err)
	}

	return val, nil
}

// validateManifest checks every declaration against its struct tags.
func (p *Parser) validateManifest(m *Manifest) []ValidationError {
	var problems []ValidationError

	check := func(path string, decl any) {
		if err := p.validate.Struct(decl); err != nil {
			problems = append(problems, ValidationError{
				Path:    path,
				Message: err.Error(),
			})
		}
	}

	for i, d := range m.Links {
		check(fmt.Sprintf("links[%d]", i), d)
	}
	for i, d := range m.Packages {
		check(fmt.Sprintf("packages[%d]", i), d)
	}
	for i, d := range m.Permissions {
		check(fmt.Sprintf("permissions[%d]", i), d)
	}
	for i, d := range m.Services {
		check(fmt.Sprintf("services[%d]", i), d)
	}
	for i, d := range m.Extensions {
		check(fmt.Sprintf("extensions[%d]", i), d)
	}

	return problems
}

// ExpandSources resolves a mix of files and directories into the concrete,
// absolute list of manifest files. The file-level watcher needs this shape.
func ExpandSources(paths []string) ([]string, error) {
	var sources []string
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source %s: %w", path, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", path, err)
		}
		if !info.IsDir() {
			sources = append(sources, abs)
			continue
		}

		files, err := cueFilesIn(abs)
		if err != nil {
			return nil, err
		}
		sources = append(sources, files...)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no manifest files found")
	}
	return sources, nil
}

// cueFilesIn lists the .cue files under a directory.
func cueFilesIn(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	return files, nil
}

// convertCUEErrors converts CUE errors to a ValidationError slice.
func convertCUEErrors(err error) []ValidationError {
	var problems []ValidationError
	for _, e := range cueerrors.Errors(err) {
		pos := cueerrors.Positions(e)
		var file string
		var line, column int
		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}
		problems = append(problems, ValidationError{
			File:    file,
			Line:    line,
			Column:  column,
			Message: cueerrors.Details(e, nil),
		})
	}
	return problems
}

// combineProblems folds validation problems into one error.
func combineProblems(problems []ValidationError) error {
	if len(problems) == 1 {
		return problems[0]
	}
	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		lines = append(lines, p.Error())
	}
	return fmt.Errorf("%d manifest problems:\n%s", len(problems), strings.Join(lines, "\n"))
}
