// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

const (
	// DefaultShebang is the interpreter line written at the top of a script.
	DefaultShebang = "#!/bin/sh"
	// DefaultSuffix is the default script extension.
	DefaultSuffix = ".sh"

	sevenFiveFive = 0o755
	shebangPrefix = "#!"
)

var (
	// ErrScriptWrite is returned when a script cannot be written.
	ErrScriptWrite = errors.New("failed to write script")
	// ErrScriptRead is returned when a script cannot be read.
	ErrScriptRead = errors.New("failed to read script")
)

// Script is an executable text file.
type Script struct {
	Shebang   string   // Interpreter line, e.g. "#!/bin/sh". Empty writes no interpreter line.
	Lines     []string // Body lines, in order.
	Directory string   // Directory the script is written to.
	Prefix    string   // File name prefix.
	Stem      string   // File name stem, a ULID unless set.
	Suffix    string   // File name extension, including the dot.
}

// Option configures a Script.
type Option func(*Script)

// WithDirectory sets the directory the script is written to.
func WithDirectory(dir string) Option {
	return func(s *Script) { s.Directory = dir }
}

// WithPrefix sets the file name prefix.
func WithPrefix(prefix string) Option {
	return func(s *Script) { s.Prefix = prefix }
}

// WithStem sets the file name stem.
func WithStem(stem string) Option {
	return func(s *Script) { s.Stem = stem }
}

// WithSuffix sets the file name extension.
func WithSuffix(suffix string) Option {
	return func(s *Script) { s.Suffix = suffix }
}

// WithShebang sets the interpreter line.
func WithShebang(shebang string) Option {
	return func(s *Script) { s.Shebang = shebang }
}

// New returns an empty script in the current directory with a unique stem.
func New(opts ...Option) *Script {
	s := &Script{
		Shebang:   DefaultShebang,
		Directory: ".",
		Stem:      ulid.Make().String(),
		Suffix:    DefaultSuffix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Path is the file the script is written to.
func (s *Script) Path() string {
	return filepath.Join(s.Directory, s.Prefix+s.Stem+s.Suffix)
}

// LogPath is LogPath(s.Path()).
func (s *Script) LogPath() string {
	return LogPath(s.Path())
}

// Append adds lines to the end of the script.
func (s *Script) Append(lines ...string) {
	s.Lines = append(s.Lines, lines...)
}

// String renders the script content, terminated by a newline.
func (s *Script) String() string {
	var sb strings.Builder

	if s.Shebang != "" {
		sb.WriteString(s.Shebang)
		sb.WriteString("\n")
	}

	for _, l := range s.Lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Write writes the script to fs as an executable file, creating its directory if needed.
func (s *Script) Write(fs afero.Fs) error {
	if err := fs.MkdirAll(s.Directory, sevenFiveFive); err != nil {
		return errors.Join(ErrScriptWrite, err)
	}

	if err := afero.WriteFile(fs, s.Path(), []byte(s.String()), sevenFiveFive); err != nil {
		return errors.Join(ErrScriptWrite, err)
	}

	// afero.WriteFile applies the mode only on create; an existing file keeps its bits.
	if err := fs.Chmod(s.Path(), sevenFiveFive); err != nil {
		return errors.Join(ErrScriptWrite, err)
	}

	return nil
}

// Read loads a script from fs, splitting its shebang from the body.
func Read(fs afero.Fs, path string) (*Script, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Join(ErrScriptRead, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	s := &Script{
		Directory: filepath.Dir(path),
		Stem:      strings.TrimSuffix(base, ext),
		Suffix:    ext,
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), len(data)+1)

	for first := true; sc.Scan(); first = false {
		line := sc.Text()
		if first && strings.HasPrefix(line, shebangPrefix) {
			s.Shebang = line
			continue
		}

		s.Lines = append(s.Lines, line)
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Join(ErrScriptRead, fmt.Errorf("%s: %w", path, err))
	}

	return s, nil
}
