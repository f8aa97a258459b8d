// Package archive exposes the raw line streams of bAbI split files, either
// out of the upstream .tar.gz distribution or an already-extracted directory
// tree.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yargevad/filepathx"
)

const SCANNER_BUF_SZ = 1024 * 1024

// Source resolves split file names such as
// "qa1_single-supporting-fact_train.txt" to their line streams.
type Source struct {
	archivePath string
	collection  string
	paths       map[string]string
}

// Open
// Prepares a source from either a .tar.gz archive or an extracted directory.
// For archives, collection is the member path prefix inside the archive
// (e.g. "tasks_1-20_v1-2/en-10k"); for directories the tree is recursively
// globbed for .txt files instead.
func Open(path string, collection string) (*Source, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return &Source{archivePath: path, collection: collection}, nil
	}
	paths, err := GlobTasks(path)
	if err != nil {
		return nil, err
	}
	return &Source{paths: paths}, nil
}

// Lines returns the lines of the named split file.
func (s *Source) Lines(name string) ([]string, error) {
	if s.archivePath != "" {
		return TarGzMember(s.archivePath, s.collection+"/"+name)
	}
	path, ok := s.paths[name]
	if !ok {
		return nil, fmt.Errorf("no task file %s in source", name)
	}
	return FileLines(path)
}

// GlobTasks
// Given a directory path, recursively finds all `.txt` files and indexes
// them by base name.
func GlobTasks(dirPath string) (map[string]string, error) {
	matches, err := filepathx.Glob(dirPath + "/**/*.txt")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s does not contain any .txt files", dirPath)
	}
	paths := make(map[string]string, len(matches))
	for _, match := range matches {
		paths[filepath.Base(match)] = match
	}
	return paths, nil
}

// TarGzMember reads the named member out of a gzip-compressed tar archive
// and returns its lines.
func TarGzMember(path string, member string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer gz.Close()
	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: no member %s", path, member)
		} else if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if strings.TrimPrefix(header.Name, "./") == member {
			return readLines(reader)
		}
	}
}

// FileLines reads the lines of a plain text file.
func FileLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readLines(file)
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), SCANNER_BUF_SZ)
	lines := make([]string, 0, 1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
