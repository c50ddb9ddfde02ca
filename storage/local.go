// Package storage enumerates source images and exports pipeline results:
// kept images (optionally renumbered), culled images, and per-group
// duplicate-set audit copies, locally or to an S3-compatible bucket.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"imageculler/features"
	"imageculler/logging"
	"imageculler/types"
)

// ListImages returns the image filenames directly inside dir, in
// lexical order. Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list source directory %s: %v", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if features.IsImageFile(filepath.Ext(entry.Name())) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// LocalExporter copies pipeline side artifacts into local directories.
// Copy failures are logged per file and folded into an all-succeeded
// boolean; they never abort the run.
type LocalExporter struct {
	SourceDir        string
	CulledDir        string
	DuplicateSetsDir string
}

// ExportCulled copies every culled image into the culled directory.
func (e *LocalExporter) ExportCulled(names []string) bool {
	if len(names) == 0 {
		return true
	}
	if err := os.MkdirAll(e.CulledDir, 0755); err != nil {
		logging.LogError("Cannot create culled directory %s: %v", e.CulledDir, err)
		return false
	}

	allSuccess := true
	for _, name := range names {
		src := filepath.Join(e.SourceDir, name)
		dst := filepath.Join(e.CulledDir, name)
		if err := copyFile(src, dst); err != nil {
			fmt.Printf("File not found for export: %s\n", src)
			logging.LogError("Cannot export culled image %s: %v", src, err)
			allSuccess = false
		}
	}

	return allSuccess
}

// ExportDuplicateSets copies each multi-member duplicate group into a
// numbered side directory, renaming the surviving member with a _KEPT
// suffix so the selection can be audited.
func (e *LocalExporter) ExportDuplicateSets(groups []types.DuplicateGroup, discarded map[string]bool) bool {
	allSuccess := true
	setNumber := 1

	for _, group := range groups {
		if len(group.Members) < 2 {
			continue
		}

		setDir := filepath.Join(e.DuplicateSetsDir, strconv.Itoa(setNumber))
		setNumber++

		if err := os.MkdirAll(setDir, 0755); err != nil {
			logging.LogError("Cannot create duplicate-set directory %s: %v", setDir, err)
			allSuccess = false
			continue
		}

		for _, name := range group.Members {
			dstName := name
			if !discarded[name] {
				ext := filepath.Ext(name)
				dstName = name[:len(name)-len(ext)] + "_KEPT" + ext
			}

			src := filepath.Join(e.SourceDir, name)
			dst := filepath.Join(setDir, dstName)
			if err := copyFile(src, dst); err != nil {
				logging.LogError("Cannot export duplicate-set member %s: %v", src, err)
				allSuccess = false
			}
		}
	}

	return allSuccess
}

// ExportKept copies the kept images to outputDir. With numbered set, files
// are renamed 1.ext, 2.ext, ... following the kept-list order, which is
// ascending by weighted score.
func ExportKept(sourceDir, outputDir string, kept []string, numbered bool) bool {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logging.LogError("Cannot create output directory %s: %v", outputDir, err)
		return false
	}

	allSuccess := true
	for idx, name := range kept {
		src := filepath.Join(sourceDir, name)

		dstName := name
		if numbered {
			dstName = strconv.Itoa(idx+1) + filepath.Ext(name)
		}
		dst := filepath.Join(outputDir, dstName)

		if err := copyFile(src, dst); err != nil {
			fmt.Printf("File not found for export: %s\n", src)
			logging.LogError("Cannot export kept image %s: %v", src, err)
			allSuccess = false
			continue
		}
		logging.DebugLog("Output %s to %s", src, dst)
	}

	return allSuccess
}

// copyFile copies a regular file, truncating any existing destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
