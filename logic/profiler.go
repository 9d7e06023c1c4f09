package logic

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"time"
)

const profilerStartDelaySec = 10
const profilerLoopSec = 60

// IProfiler periodically dumps goroutine stacks next to the task queue length,
// to diagnose stuck deliveries.
type IProfiler interface {
	Start()
	Stop()
}

type profiler struct {
	cfg    *shared.Config
	logger shared.ILogger
	repo   dal.IRepo
	stop   chan struct{}
}

func NewProfiler(cfg *shared.Config, logger shared.ILogger, repo dal.IRepo) IProfiler {
	return &profiler{cfg: cfg, logger: logger, repo: repo}
}

func (prof *profiler) Start() {
	if prof.cfg.ProfileDir == "" {
		return
	}
	prof.stop = make(chan struct{})
	go prof.profilerLoop(prof.stop)
}

func (prof *profiler) Stop() {
	if prof.stop != nil {
		close(prof.stop)
		prof.stop = nil
	}
}

func (prof *profiler) saveProfile(now time.Time) error {
	fname := fmt.Sprintf("%v.txt", now.Format("2006-01-02!15-04-05"))
	f, err := os.Create(filepath.Join(prof.cfg.ProfileDir, fname))
	if err != nil {
		return err
	}
	defer f.Close()

	_, qlen, err := prof.repo.GetTaskQueueItems(-1, 0, now.UTC())
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(f, "Goroutine count: %d\nTask queue length: %d\n\n", runtime.NumGoroutine(), qlen); err != nil {
		return err
	}
	return pprof.Lookup("goroutine").WriteTo(f, 2)
}

func purgeOldProfiles(profileDir string, cutoff time.Time) error {
	return filepath.Walk(profileDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.ModTime().Before(cutoff) {
			return os.Remove(path)
		}
		return nil
	})
}

func (prof *profiler) profilerLoop(stop chan struct{}) {
	wait := time.Duration(profilerStartDelaySec) * time.Second
	for {
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}
		wait = profilerLoopSec * time.Second
		now := time.Now()
		if err := prof.saveProfile(now); err != nil {
			prof.logger.Warnf("Failed to save profile: %v", err)
		}
		if err := purgeOldProfiles(prof.cfg.ProfileDir, now.AddDate(0, 0, -prof.cfg.ProfileKeepDays)); err != nil {
			prof.logger.Warnf("Failed to purge old profiles: %v", err)
		}
	}
}
