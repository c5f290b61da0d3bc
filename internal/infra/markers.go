package infra

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"rendersync/internal/domain"
)

// MarkerScannerImpl implements domain.MarkerScanner using doublestar globs.
type MarkerScannerImpl struct{}

// NewMarkerScanner creates a new marker scanner.
func NewMarkerScanner() domain.MarkerScanner {
	return &MarkerScannerImpl{}
}

// Scan resolves each glob pattern under root and stats the matches.
// Patterns matching nothing are not an error; neither is a file that
// disappears between glob and stat.
func (ms *MarkerScannerImpl) Scan(root string, patterns []string) ([]domain.MarkerFile, error) {
	var markers []domain.MarkerFile

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			// Malformed pattern; skip it rather than abort the whole scan.
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			markers = append(markers, domain.MarkerFile{
				Path:    match,
				ModTime: info.ModTime(),
			})
		}
	}

	return markers, nil
}

// Ensure MarkerScannerImpl implements domain.MarkerScanner.
var _ domain.MarkerScanner = (*MarkerScannerImpl)(nil)
