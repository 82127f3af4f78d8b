// Package validation guards file arguments: output paths the CLI writes
// renders to, and the input files and asset directories it reads.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// hasTraversal reports whether any segment of the raw path is "..".
func hasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// ValidateOutputPath validates an output path for security and accessibility
// Returns error if path is invalid, contains path traversal attempts, or is not writable
func ValidateOutputPath(outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	if hasTraversal(outputPath) {
		return fmt.Errorf("path traversal detected in output path: %s", outputPath)
	}

	absPath, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	// Probe writability with a throwaway file
	testFile := filepath.Join(dir, ".mandala_write_test")
	f, err := os.OpenFile(testFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("output directory is not writable: %s: %w", dir, err)
	}
	f.Close()
	os.Remove(testFile)

	return nil
}

// ValidateExtension checks that path ends in one of exts (case-insensitive).
func ValidateExtension(path string, exts ...string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return nil
		}
	}
	return fmt.Errorf("unsupported file extension %q (want one of %s)", ext, strings.Join(exts, ", "))
}

// ValidateInputPath validates an input path (horoscope file or asset directory)
// Returns error if path doesn't exist or is not accessible
func ValidateInputPath(inputPath string, mustBeDir bool) error {
	if inputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	cleanPath := filepath.Clean(inputPath)

	// Relative paths may not climb out of the working directory
	if hasTraversal(inputPath) && !filepath.IsAbs(inputPath) {
		return fmt.Errorf("potentially unsafe path detected: %s", inputPath)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input path does not exist: %s", cleanPath)
		}
		return fmt.Errorf("failed to access input path: %w", err)
	}

	if mustBeDir && !info.IsDir() {
		return fmt.Errorf("input path must be a directory: %s", cleanPath)
	}

	if !mustBeDir && info.IsDir() {
		return fmt.Errorf("input path must be a file: %s", cleanPath)
	}

	return nil
}
