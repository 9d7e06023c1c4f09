package logic

import (
	"bufio"
	"os"
	"silo_bridge/shared"
	"strings"
)

// IBlockedTargets tells whether a URL is on a domain we never send webmentions to.
type IBlockedTargets interface {
	IsBlocked(targetUrl string) bool
}

type blockedTargets struct {
	domains []string
}

// NewBlockedTargets reads the blocklist once. A missing file blocks nothing.
func NewBlockedTargets(cfg *shared.Config, logger shared.ILogger) IBlockedTargets {
	res := &blockedTargets{}
	if cfg.BlockedTargetsFile == "" {
		return res
	}
	readFile, err := os.Open(cfg.BlockedTargetsFile)
	if err != nil {
		logger.Warnf("Failed to open blocked targets file %s: %v", cfg.BlockedTargetsFile, err)
		return res
	}
	defer readFile.Close()
	res.domains = parseBlocklist(bufio.NewScanner(readFile))
	logger.Infof("Loaded %d blocked target domains", len(res.domains))
	return res
}

func parseBlocklist(fileScanner *bufio.Scanner) []string {
	var res []string
	fileScanner.Split(bufio.ScanLines)
	for fileScanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(fileScanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		res = append(res, line)
	}
	return res
}

func (bt *blockedTargets) IsBlocked(targetUrl string) bool {
	return len(bt.domains) != 0 && shared.UrlOnDomain(targetUrl, bt.domains)
}
