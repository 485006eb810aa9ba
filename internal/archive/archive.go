// Package archive normalizes uploaded bodies into a single session document.
// It understands plain JSON payloads and zipped multi-file tracker exports.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	appErrors "pitchstat-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	summarySuffix  = "session_summary.json"
	manifestSuffix = "manifest.json"
)

// zipSignature is the local-file-header magic of a zip archive.
var zipSignature = []byte{0x50, 0x4b, 0x03, 0x04}

// enrichmentKeys are copied from a per-pitch detail document onto the summary
// pitch at the same position, when present.
var enrichmentKeys = []string{
	"spin_axis", "spin_efficiency", "confidence",
	"plate_x", "plate_z", "release_height", "release_side", "extension",
}

// Processor turns raw upload bytes into one session document.
type Processor struct {
	logger *zap.Logger
}

// NewProcessor creates an archive processor.
func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{logger: logger}
}

// IsZip reports whether the buffer starts with the zip local-file-header
// signature.
func IsZip(buf []byte) bool {
	return len(buf) >= 4 && bytes.Equal(buf[:4], zipSignature)
}

// ProcessUpload parses an uploaded body into a session document. Zipped
// bodies are detected by magic bytes or a content type containing "zip";
// everything else is treated as plain JSON.
func (p *Processor) ProcessUpload(body []byte, contentType string) (map[string]any, error) {
	if IsZip(body) || strings.Contains(contentType, "zip") {
		return p.parseTrackerZip(body)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, appErrors.NewParse("failed to parse upload body as JSON", err)
	}
	return payload, nil
}

// parseTrackerZip extracts a tracker export archive and merges per-pitch
// detail files into the session document's pitch list.
func (p *Processor) parseTrackerZip(body []byte) (map[string]any, error) {
	contents, err := p.extractZipContents(body)
	if err != nil {
		return nil, err
	}

	var summaryPath, manifestPath string
	for path := range contents {
		switch {
		case strings.HasSuffix(path, summarySuffix):
			summaryPath = path
		case strings.HasSuffix(path, manifestSuffix) && !isPitchManifest(path):
			manifestPath = path
		}
	}
	if summaryPath == "" && manifestPath == "" {
		return nil, appErrors.NewMissingSessionData(
			"archive must contain either manifest.json or session_summary.json")
	}

	// Prefer the session summary; fall back to the manifest.
	sessionDoc := contents[summaryPath]
	if sessionDoc == nil {
		sessionDoc = contents[manifestPath]
	}
	if sessionDoc == nil {
		return nil, appErrors.NewMissingSessionData("no valid session data found in archive")
	}

	details := pitchDetails(contents)
	if len(details) > 0 {
		if pitchList, ok := sessionDoc["pitches"].([]any); ok {
			sessionDoc["pitches"] = mergePitchDetails(pitchList, details)
		}
	}
	return sessionDoc, nil
}

// extractZipContents parses every JSON entry in the archive, keyed by its
// full entry path. A single corrupt entry is skipped, not fatal.
func (p *Processor) extractZipContents(body []byte) (map[string]map[string]any, error) {
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, appErrors.NewParse("failed to read zip archive", err)
	}

	contents := make(map[string]map[string]any)
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, ".json") {
			continue
		}

		doc, err := readEntry(entry)
		if err != nil {
			p.logger.Warn("skipping unparseable archive entry",
				zap.String("entry", entry.Name), zap.Error(err))
			continue
		}
		contents[entry.Name] = doc
	}
	return contents, nil
}

func readEntry(entry *zip.File) (map[string]any, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var doc map[string]any
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// pitchDetails collects per-pitch detail documents ordered by the pitch
// number in their `pitch_<n>/` path segment.
func pitchDetails(contents map[string]map[string]any) []map[string]any {
	type numbered struct {
		path string
		n    int
	}

	var found []numbered
	for path := range contents {
		if isPitchManifest(path) {
			found = append(found, numbered{path: path, n: pitchNumber(path)})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].n != found[j].n {
			return found[i].n < found[j].n
		}
		return found[i].path < found[j].path
	})

	details := make([]map[string]any, 0, len(found))
	for _, f := range found {
		details = append(details, contents[f.path])
	}
	return details
}

func isPitchManifest(path string) bool {
	return strings.Contains(path, "/pitch_") && strings.HasSuffix(path, "/"+manifestSuffix)
}

// pitchNumber parses <n> from a `.../pitch_<n>/manifest.json` path, so that
// pitch_10 sorts after pitch_2.
func pitchNumber(path string) int {
	idx := strings.LastIndex(path, "/pitch_")
	if idx < 0 {
		return 0
	}
	rest := path[idx+len("/pitch_"):]
	end := strings.IndexByte(rest, '/')
	if end < 0 {
		return 0
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}

// mergePitchDetails overlays enrichment fields from the detail document at
// position i onto the summary pitch at position i. Summary-only fields are
// preserved; the merge is positional.
func mergePitchDetails(pitches []any, details []map[string]any) []any {
	merged := make([]any, len(pitches))
	for i, raw := range pitches {
		summary, ok := raw.(map[string]any)
		if !ok || i >= len(details) || details[i] == nil {
			merged[i] = raw
			continue
		}

		detail := details[i]
		out := make(map[string]any, len(summary)+len(enrichmentKeys)+1)
		for k, v := range summary {
			out[k] = v
		}
		if rpm, ok := firstPresent(detail, "rotation_rpm", "rpm"); ok {
			out["rotation_rpm"] = rpm
		}
		for _, key := range enrichmentKeys {
			if v, ok := detail[key]; ok {
				out[key] = v
			}
		}
		merged[i] = out
	}
	return merged
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
