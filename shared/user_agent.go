package shared

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Version is stamped at build time with -ldflags "-X silo_bridge/shared.Version=..."
var Version = ""

type IUserAgent interface {
	AddUserAgent(req *http.Request)
}

type userAgent struct {
	value string
}

func NewUserAgent(cfg *Config) IUserAgent {
	return &userAgent{
		value: fmt.Sprintf("SiloBridge/%s (+https://%s)", buildVersion(), cfg.Host),
	}
}

func buildVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func (ua *userAgent) AddUserAgent(req *http.Request) {
	req.Header.Set("User-Agent", ua.value)
}
