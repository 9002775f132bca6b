package universe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load returns the ordered ticker universe. Tickers listed inline come
// first, followed by those read from file. Blank entries and duplicates are
// dropped, keeping the first occurrence.
func Load(inline []string, file string) ([]string, error) {
	tickers := append([]string(nil), inline...)
	if file != "" {
		fromFile, err := ReadFile(file)
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, fromFile...)
	}
	out := dedupe(tickers)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty ticker universe")
	}
	return out, nil
}

// ReadFile reads tickers from a .json array, a .yaml list, or a plain text
// file with one ticker per line and # comments.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	var tickers []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &tickers)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tickers)
	default:
		tickers, err = readLines(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse universe %s: %w", path, err)
	}
	return tickers, nil
}

func readLines(data []byte) ([]string, error) {
	var tickers []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			tickers = append(tickers, line)
		}
	}
	return tickers, sc.Err()
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
