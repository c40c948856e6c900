package indexer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/coderag/index_go_server/internal/model"
)

// UnitStore persists extracted units and per-file content hashes.
// Satisfied by the unit repository.
type UnitStore interface {
	SourceHash(projectName, filePath string) (string, error)
	ReplaceUnits(projectName, filePath, sha string, units []model.SemanticUnit) error
}

const (
	UnitFunction = "function"
	UnitType     = "type"
	UnitClass    = "class"
)

type unitPattern struct {
	unitType string
	re       *regexp.Regexp // first capture group is the unit name
}

// Declaration patterns per language. Line-anchored heuristics, not a full
// parse: good enough to count and name top-level units.
var patternsByExt = map[string][]unitPattern{
	".go": {
		{UnitFunction, regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*[([]`)},
		{UnitType, regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)\s+`)},
	},
	".py": {
		{UnitFunction, regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)},
		{UnitClass, regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*[(:]`)},
	},
	".js": jsPatterns,
	".jsx": jsPatterns,
	".ts": jsPatterns,
	".tsx": jsPatterns,
	".java": {
		{UnitClass, regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+)?(?:abstract\s+|final\s+|static\s+)*(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`)},
		{UnitFunction, regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\],\s]+\s+([A-Za-z_$][\w$]*)\s*\(`)},
	},
	".rs": {
		{UnitFunction, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`)},
		{UnitType, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_]\w*)`)},
	},
}

var jsPatterns = []unitPattern{
	{UnitFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)},
	{UnitClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`)},
	{UnitFunction, regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(`)},
}

// CodeWorker extracts semantic units from source files and persists them.
// Files whose content hash is unchanged since the last index are skipped.
type CodeWorker struct {
	projectName string
	units       UnitStore
	initialized bool
}

func NewCodeWorker(projectName string, units UnitStore) *CodeWorker {
	return &CodeWorker{
		projectName: projectName,
		units:       units,
	}
}

func (w *CodeWorker) Initialize() error {
	if w.units == nil {
		return fmt.Errorf("code worker: unit repository not configured")
	}
	w.initialized = true
	return nil
}

func (w *CodeWorker) SupportedExtensions() []string {
	exts := make([]string, 0, len(patternsByExt))
	for ext := range patternsByExt {
		exts = append(exts, ext)
	}
	return exts
}

func (w *CodeWorker) IndexFile(ctx context.Context, path string) (*FileResult, error) {
	if !w.initialized {
		return nil, fmt.Errorf("code worker: not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sum := sha256.Sum256(content)
	sha := hex.EncodeToString(sum[:])

	stored, err := w.units.SourceHash(w.projectName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to look up source hash: %w", err)
	}
	if stored == sha {
		return &FileResult{Skipped: true}, nil
	}

	units := extractUnits(w.projectName, path, content)
	if err := w.units.ReplaceUnits(w.projectName, path, sha, units); err != nil {
		return nil, fmt.Errorf("failed to store units: %w", err)
	}

	return &FileResult{UnitsIndexed: len(units)}, nil
}

func (w *CodeWorker) Close() error {
	// The repository's DB handle is owned by the caller.
	w.initialized = false
	return nil
}

func extractUnits(projectName, path string, content []byte) []model.SemanticUnit {
	patterns, ok := patternsByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil
	}

	var units []model.SemanticUnit
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			units = append(units, model.SemanticUnit{
				ProjectName: projectName,
				FilePath:    path,
				UnitType:    p.unitType,
				Name:        m[1],
				StartLine:   lineNo,
				EndLine:     lineNo,
			})
			break
		}
	}

	// Close the ranges: each unit extends to the line before the next one.
	for i := 0; i < len(units)-1; i++ {
		units[i].EndLine = units[i+1].StartLine - 1
	}
	if len(units) > 0 {
		units[len(units)-1].EndLine = lineNo
	}

	return units
}
