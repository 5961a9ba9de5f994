package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/sadopc/timepie/internal/store"
)

// Source is what the scheduler reads from.
type Source interface {
	ListOwners() ([]store.Owner, error)
	ListEntries(ownerID string, f store.EntryFilter) ([]store.TimeEntry, error)
}

// Scheduler periodically writes a dated JSON export per owner.
type Scheduler struct {
	cron   *cron.Cron
	src    Source
	dir    string
	logger *log.Logger
	now    func() time.Time
}

func NewScheduler(src Source, dir string, logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.Local)),
		src:    src,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule registers the export job on spec ("@daily", "0 2 * * *", ...).
func (s *Scheduler) Schedule(spec string) error {
	if s.dir == "" {
		return fmt.Errorf("export directory is not set")
	}
	_, err := s.cron.AddFunc(spec, func() {
		paths, err := s.ExportAll()
		if err != nil {
			s.logger.Error("scheduled export failed", "error", err)
			return
		}
		s.logger.Info("scheduled export written", "files", len(paths))
	})
	if err != nil {
		return fmt.Errorf("schedule export %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ExportAll writes <dir>/<owner>-<date>.json for every owner and returns
// the written paths. An owner that fails is logged and skipped.
func (s *Scheduler) ExportAll() ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	owners, err := s.src.ListOwners()
	if err != nil {
		return nil, err
	}

	date := s.now().Format("2006-01-02")
	var paths []string
	for _, o := range owners {
		entries, err := s.src.ListEntries(o.ID, store.EntryFilter{})
		if err != nil {
			s.logger.Warn("skipping owner export", "owner", o.Name, "error", err)
			continue
		}
		path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", fileSafe(o.Name), date))
		f, err := os.Create(path)
		if err != nil {
			s.logger.Warn("skipping owner export", "owner", o.Name, "error", err)
			continue
		}
		err = WriteJSON(f, o.Name, entries)
		f.Close()
		if err != nil {
			s.logger.Warn("skipping owner export", "owner", o.Name, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
