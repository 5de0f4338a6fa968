package stopwords

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// extractList returns the contents of stopwords/<language> from an NLTK stopwords.zip.
func extractList(archive []byte, language string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	want := path.Join("stopwords", language)
	for _, f := range zr.File {
		if path.Clean(f.Name) != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(io.LimitReader(rc, maxArchiveBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("archive has no entry %s", want)
}

// parseList reads one word per line, skipping blanks.
func parseList(data []byte) map[string]struct{} {
	words := make(map[string]struct{})
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}
