// internal/config/overlay.go
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BoardsFile is the optional boards.yml kept next to config.yml. Board
// lists grow long, so they live in their own file.
type BoardsFile struct {
	Greenhouse      []string `yaml:"greenhouse"`
	Lever           []string `yaml:"lever"`
	Ashby           []string `yaml:"ashby"`
	SmartRecruiters []string `yaml:"smartrecruiters"`
	Workday         []string `yaml:"workday"`
	Feeds           []Feed   `yaml:"feeds"`
}

// OverlayBoards replaces board lists in cfg with the non-empty lists from
// boardsPath. A missing file is not an error.
func OverlayBoards(cfg Config, boardsPath string) (Config, error) {
	b, err := os.ReadFile(boardsPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read boards: %w", err)
	}

	var bf BoardsFile
	if err := yaml.Unmarshal(b, &bf); err != nil {
		return cfg, fmt.Errorf("parse boards %s: %w", boardsPath, err)
	}

	if len(bf.Greenhouse) > 0 {
		cfg.Sources.Greenhouse.Boards = bf.Greenhouse
	}
	if len(bf.Lever) > 0 {
		cfg.Sources.Lever.Boards = bf.Lever
	}
	if len(bf.Ashby) > 0 {
		cfg.Sources.Ashby.Boards = bf.Ashby
	}
	if len(bf.SmartRecruiters) > 0 {
		cfg.Sources.SmartRecruiters.Boards = bf.SmartRecruiters
	}
	if len(bf.Workday) > 0 {
		cfg.Sources.Workday.Boards = bf.Workday
	}
	if len(bf.Feeds) > 0 {
		cfg.Sources.Feeds = bf.Feeds
	}
	return cfg, nil
}
