package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wexpcoder/roadcrew/internal/domain/entities"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/repository"
	"github.com/wexpcoder/roadcrew/pkg/httpclient"
	"github.com/wexpcoder/roadcrew/pkg/logger"
	"github.com/wexpcoder/roadcrew/pkg/utils"
)

// RosterService ingests the volunteer schedule from an attached CSV and
// replaces the persisted roster with it.
type RosterService struct {
	repo       *repository.RosterRepository
	scratchDir string
	location   *time.Location
	now        func() time.Time
}

func NewRosterService(repo *repository.RosterRepository, scratchDir string, location *time.Location) *RosterService {
	return &RosterService{
		repo:       repo,
		scratchDir: scratchDir,
		location:   location,
		now:        time.Now,
	}
}

// IngestCSV downloads the attachment, extracts usernames and replaces the
// schedule table dated today. Returns rows added and the resulting total.
func (s *RosterService) IngestCSV(ctx context.Context, att entities.Attachment) (added, total int, err error) {
	if !strings.HasSuffix(strings.ToLower(att.FileName), ".csv") {
		return 0, 0, fmt.Errorf("attachment %q is not a .csv file", att.FileName)
	}

	scratch := filepath.Join(s.scratchDir, uuid.NewString()+"_"+filepath.Base(att.FileName))
	defer os.Remove(scratch)

	opts := httpclient.DefaultOptions().WithContext(ctx)
	if err := httpclient.DownloadFile(att.URL, scratch, opts); err != nil {
		return 0, 0, fmt.Errorf("failed to download roster csv: %w", err)
	}

	usernames, err := parseRosterCSV(scratch)
	if err != nil {
		return 0, 0, err
	}
	if len(usernames) == 0 {
		return 0, 0, fmt.Errorf("no usernames found in %q", att.FileName)
	}

	dateKey := utils.DateKey(s.now(), s.location)
	added, err = s.repo.Replace(ctx, dateKey, usernames)
	if err != nil {
		return 0, 0, err
	}
	total, err = s.repo.Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	logger.Info("Roster replaced", "date", dateKey, "added", added, "total", total)
	return added, total, nil
}

// Usernames returns the current roster.
func (s *RosterService) Usernames(ctx context.Context) ([]string, error) {
	return s.repo.Usernames(ctx)
}

// parseRosterCSV reads usernames from a CSV file. A "username" header
// column is honored when present; otherwise the first column is used.
func parseRosterCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var usernames []string
	col := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse roster csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if first {
			first = false
			if idx := headerColumn(record, "username"); idx >= 0 {
				col = idx
				continue
			}
		}
		if col >= len(record) {
			continue
		}
		if name := strings.TrimSpace(record[col]); name != "" {
			usernames = append(usernames, name)
		}
	}
	return usernames, nil
}

func headerColumn(record []string, name string) int {
	for i, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), name) {
			return i
		}
	}
	return -1
}
