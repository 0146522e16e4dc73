package security

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileKind groups the extensions a given upload slot accepts.
type FileKind string

const (
	KindImage       FileKind = "image"
	KindDocument    FileKind = "document"
	KindSpreadsheet FileKind = "spreadsheet"
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type fileRule struct {
	kind  FileKind
	mimes []string
}

// Content must sniff as one of mimes. Office formats may sniff as plain zip.
var fileRules = map[string]fileRule{
	".jpg":  {KindImage, []string{"image/jpeg"}},
	".jpeg": {KindImage, []string{"image/jpeg"}},
	".png":  {KindImage, []string{"image/png"}},
	".webp": {KindImage, []string{"image/webp"}},
	".pdf":  {KindDocument, []string{"application/pdf"}},
	".doc":  {KindDocument, []string{"application/msword", "application/x-ole-storage"}},
	".docx": {KindDocument, []string{mimeDocx, "application/zip"}},
	".xlsx": {KindSpreadsheet, []string{mimeXlsx, "application/zip"}},
}

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid        bool
	Kind         FileKind
	Extension    string
	DetectedMIME string
	Error        string
}

// ValidateFile checks the extension whitelist for the allowed kinds, then
// sniffs content and requires it to match the extension.
func ValidateFile(filename string, data []byte, allowed ...FileKind) FileValidationResult {
	var result FileValidationResult

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	result.Extension = ext

	rule, ok := fileRules[ext]
	if !ok || !kindAllowed(rule.kind, allowed) {
		result.Error = "file extension not allowed: " + ext
		return result
	}
	result.Kind = rule.kind

	if len(data) == 0 {
		result.Error = "file is empty"
		return result
	}

	detected := mimetype.Detect(data)
	result.DetectedMIME = detected.String()

	for _, m := range rule.mimes {
		if detected.Is(m) {
			result.Valid = true
			return result
		}
	}
	result.Error = "file content does not match extension (detected " + detected.String() + ")"
	return result
}

func kindAllowed(kind FileKind, allowed []FileKind) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, k := range allowed {
		if k == kind {
			return true
		}
	}
	return false
}

// AllowedExtensions lists extensions for the given kinds, for error messages.
func AllowedExtensions(kinds ...FileKind) []string {
	var out []string
	for ext, rule := range fileRules {
		if kindAllowed(rule.kind, kinds) {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// ContentTypeFor returns the canonical MIME for a validated extension.
func ContentTypeFor(ext string) string {
	if rule, ok := fileRules[strings.ToLower(ext)]; ok {
		return rule.mimes[0]
	}
	return "application/octet-stream"
}
