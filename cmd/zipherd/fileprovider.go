package main

import (
	"fmt"
	"os"
	"strings"
)

type fileProvider struct {
	seedPath string
}

func newFileProvider(seedPath string) (*fileProvider, error) {
	if seedPath == "" {
		return nil, fmt.Errorf("invalid config: seed file path must not be null")
	}
	info, err := os.Stat(seedPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config: seed file must be an existing path")
	}
	if info.IsDir() {
		return nil, fmt.Errorf("invalid config: seed file must not be a directory")
	}
	return &fileProvider{seedPath}, nil
}

// SeedPhrase returns the whitespace normalized mnemonic stored in the file.
func (fp *fileProvider) SeedPhrase() (string, error) {
	buf, err := os.ReadFile(fp.seedPath)
	if err != nil {
		return "", err
	}
	defer func() {
		for i := range buf {
			buf[i] = 0
		}
	}()

	phrase := strings.Join(strings.Fields(string(buf)), " ")
	if phrase == "" {
		return "", fmt.Errorf("seed file %s is empty", fp.seedPath)
	}
	return phrase, nil
}
