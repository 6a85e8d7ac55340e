package analyzer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// skipDirSegments are directory names that are never descended into:
// dependency trees, build output, version-control metadata, coverage reports.
var skipDirSegments = map[string]struct{}{
	"node_modules":     {},
	"bower_components": {},
	"vendor":           {},
	".git":             {},
	".hg":              {},
	".svn":             {},
	"dist":             {},
	"build":            {},
	"out":              {},
	".next":            {},
	".nuxt":            {},
	".turbo":           {},
	".cache":           {},
	"coverage":         {},
	".nyc_output":      {},
	"__snapshots__":    {},
	".codegraph":       {},
}

// skipExtensions are binary, media, font, archive, and lock file types that
// are excluded by extension alone; file content is never inspected.
var skipExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".ico": {}, ".bmp": {},
	".svg": {}, ".pdf": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {}, ".mov": {}, ".webm": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".7z": {}, ".rar": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".wasm": {},
	".lock": {}, ".map": {},
}

// sourceExtensions are the TypeScript/JavaScript family extensions the engine
// analyzes. Everything else is outside the source set.
var sourceExtensions = map[string]struct{}{
	".ts": {}, ".tsx": {}, ".mts": {}, ".cts": {},
	".js": {}, ".jsx": {}, ".mjs": {}, ".cjs": {},
}

// listSources enumerates the candidate source files under rootPath, applying
// the fixed exclusion rules, the root .gitignore when present, and any extra
// ignore patterns from configuration. The returned paths are root-relative,
// forward-slash normalized, and sorted so downstream passes are deterministic.
func listSources(rootPath string, extraIgnore []string) ([]string, error) {
	var ign *gitignore.GitIgnore
	if compiled, err := gitignore.CompileIgnoreFile(filepath.Join(rootPath, ".gitignore")); err == nil {
		ign = compiled
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if _, skip := skipDirSegments[d.Name()]; skip {
				return filepath.SkipDir
			}
			if ign != nil && ign.MatchesPath(rel) {
				return filepath.SkipDir
			}
			if matchesIgnorePattern(rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isSourceFile(rel) {
			return nil
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}
		if matchesIgnorePattern(rel, extraIgnore) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rootPath, err)
	}

	sort.Strings(files)
	return files, nil
}

func ext(relPath string) string {
	return strings.ToLower(filepath.Ext(relPath))
}

// isSourceFile applies the extension rules in order: binary/media/lock types
// are out, minified bundles are out, and only TS/JS family extensions are in.
func isSourceFile(relPath string) bool {
	ext := ext(relPath)
	if _, skip := skipExtensions[ext]; skip {
		return false
	}
	lower := strings.ToLower(relPath)
	if strings.HasSuffix(lower, ".min.js") || strings.HasSuffix(lower, ".min.css") {
		return false
	}
	_, ok := sourceExtensions[ext]
	return ok
}

// matchesIgnorePattern checks a relative path against configured glob
// patterns. Patterns ending in "/**" match the directory and everything
// under it; "**/" prefixes match against the basename as well.
func matchesIgnorePattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/**") {
			dirPrefix := strings.TrimSuffix(pattern, "/**")
			if relPath == dirPrefix || strings.HasPrefix(relPath, dirPrefix+"/") {
				return true
			}
		}

		if matched, err := filepath.Match(pattern, relPath); err == nil && matched {
			return true
		}

		if strings.HasPrefix(pattern, "**/") {
			sub := strings.TrimPrefix(pattern, "**/")
			if matched, err := filepath.Match(sub, filepath.Base(relPath)); err == nil && matched {
				return true
			}
			if matched, err := filepath.Match(sub, relPath); err == nil && matched {
				return true
			}
		}
	}
	return false
}
