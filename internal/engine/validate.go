package engine

import (
	"os"
	"regexp"
	"strings"

	"dataexplorer/internal/engineerr"
)

// maxPathBytes bounds open_file_info/start_index's path argument, per §6.
const maxPathBytes = 4096

var allowedExtensions = map[string]bool{".json": true, ".csv": true, ".vcf": true}

var fileIDPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// validatePath enforces §6's open_file_info/start_index input rule: path
// no longer than 4096 bytes, the file must exist and be a regular file,
// and its extension must be one of json/csv/vcf.
func validatePath(path string) (os.FileInfo, error) {
	if len(path) == 0 {
		return nil, engineerr.Validationf("path must not be empty")
	}
	if len(path) > maxPathBytes {
		return nil, engineerr.Validationf("path exceeds %d bytes", maxPathBytes)
	}
	ext := strings.ToLower(extOf(path))
	if !allowedExtensions[ext] {
		return nil, engineerr.Validationf("unsupported file extension %q", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, engineerr.Validationf("cannot access %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, engineerr.Validationf("%s is not a regular file", path)
	}
	return info, nil
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

// validateFileID enforces §6's 16-hex id rule, shared by forget_recent,
// cancel_index, page, search, get_record, stats, and export.
func validateFileID(id string) error {
	if !fileIDPattern.MatchString(id) {
		return engineerr.Validationf("invalid file id %q", id)
	}
	return nil
}

// validatePageRequest enforces §6's page(...) bounds.
func validatePageRequest(page, limit int, filters map[string]string) error {
	if page < 1 || page > 1_000_000 {
		return engineerr.Validationf("page must be in [1,1000000]")
	}
	if limit < 1 || limit > 1000 {
		return engineerr.Validationf("limit must be in [1,1000]")
	}
	if len(filters) > 50 {
		return engineerr.Validationf("filters must have at most 50 keys")
	}
	for k, v := range filters {
		if len(k) > 256 {
			return engineerr.Validationf("filter key %q exceeds 256 characters", k)
		}
		if len(v) > 1000 {
			return engineerr.Validationf("filter value for %q exceeds 1000 characters", k)
		}
	}
	return nil
}

// validateExportFormat enforces export(...)'s format argument, per §6 and
// SPEC_FULL §C.2.
func validateExportFormat(format string) error {
	if format != "csv" && format != "json" {
		return engineerr.Validationf("unsupported export format %q", format)
	}
	return nil
}
