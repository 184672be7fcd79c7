package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fennec-bot/fennec/pkg/dataaccess/monitoring"
	"github.com/fennec-bot/fennec/pkg/entities"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

const fileStoreName = "file_store"

// FileStore keeps all guild data in memory and mirrors it to a single JSON
// file, rewriting the whole file on every mutation. The file is keyed by
// guild ID; the value layout matches what the setup and ticket workflows
// persist, so an existing ticket_system.json loads unchanged.
type FileStore struct {
	// mu serializes every read and mutation, including the file rewrite.
	mu sync.Mutex

	// path is the backing file.
	path string

	// l is the logger.
	l *slog.Logger

	// data is guild ID -> guild data.
	data map[string]*entities.GuildData
}

// NewFileStore creates a file store backed by path, loading the file if it
// exists. A missing file or a parse failure is not fatal: the store starts
// empty and the error is logged.
func NewFileStore(path string, l *slog.Logger) *FileStore {
	s := &FileStore{
		path: path,
		l:    l.With(slog.String(logging.KeyStore, fileStoreName)),
		data: make(map[string]*entities.GuildData),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.l.Info("No ticket data file found, starting empty", slog.String("path", s.path))
		} else {
			s.l.Error("Error reading ticket data file, starting empty", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.l.Error("Error parsing ticket data file, starting empty", slog.String(logging.KeyError, err.Error()))
		s.data = make(map[string]*entities.GuildData)
	}
}

// persistLocked rewrites the whole backing file. Callers must hold mu. A
// write failure leaves the in-memory state ahead of disk; it is logged and
// returned, not retried.
func (s *FileStore) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling ticket data: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.l.Error("Error writing ticket data file", slog.String(logging.KeyError, err.Error()))
		return fmt.Errorf("error writing ticket data file: %w", err)
	}
	return nil
}

// guildLocked returns the guild's data, creating it on first mutation.
// Callers must hold mu.
func (s *FileStore) guildLocked(guildID string) *entities.GuildData {
	gd, ok := s.data[guildID]
	if !ok {
		gd = &entities.GuildData{Tickets: make([]*entities.Ticket, 0)}
		s.data[guildID] = gd
	}
	return gd
}

func (s *FileStore) observe(op string) *prometheus.Timer {
	monitoring.StoreTotalRequests.WithLabelValues(fileStoreName, op).Inc()
	return prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(fileStoreName, op))
}

// SetConfig replaces the guild's config wholesale and persists.
func (s *FileStore) SetConfig(_ context.Context, guildID string, cfg *entities.GuildConfig) error {
	t := s.observe("set_config")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.guildLocked(guildID).Config = cfg
	return s.persistLocked()
}

// Config returns the guild's config, or ErrConfigNotFound.
func (s *FileStore) Config(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	t := s.observe("get_config")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	gd, ok := s.data[guildID]
	if !ok || gd.Config == nil {
		return nil, ErrConfigNotFound
	}

	cfg := *gd.Config
	return &cfg, nil
}

// AddTicket appends a ticket record and persists. The active-ticket check
// and the append happen under the same lock, so two near-simultaneous
// creations by the same user cannot both succeed.
func (s *FileStore) AddTicket(_ context.Context, guildID string, ticket *entities.Ticket) error {
	t := s.observe("add_ticket")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	gd := s.guildLocked(guildID)
	for _, existing := range gd.Tickets {
		if existing.UserID == ticket.UserID && existing.Active {
			return ErrActiveTicketExists
		}
	}

	gd.Tickets = append(gd.Tickets, ticket)
	return s.persistLocked()
}

// HasActiveTicket reports whether the user has an active ticket in the guild.
func (s *FileStore) HasActiveTicket(_ context.Context, guildID, userID string) (bool, error) {
	t := s.observe("has_active_ticket")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	gd, ok := s.data[guildID]
	if !ok {
		return false, nil
	}

	for _, ticket := range gd.Tickets {
		if ticket.UserID == userID && ticket.Active {
			return true, nil
		}
	}
	return false, nil
}

// TicketByChannel returns the first ticket record for the channel, or
// ErrTicketNotFound.
func (s *FileStore) TicketByChannel(_ context.Context, guildID, channelID string) (*entities.Ticket, error) {
	t := s.observe("ticket_by_channel")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	gd, ok := s.data[guildID]
	if !ok {
		return nil, ErrTicketNotFound
	}

	for _, ticket := range gd.Tickets {
		if ticket.ChannelID == channelID {
			cp := *ticket
			return &cp, nil
		}
	}
	return nil, ErrTicketNotFound
}

// CloseTicket marks the channel's ticket inactive and persists. Absent
// guilds or records are a silent no-op, so repeated closes are idempotent.
func (s *FileStore) CloseTicket(_ context.Context, guildID, channelID string) error {
	t := s.observe("close_ticket")
	defer t.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	gd, ok := s.data[guildID]
	if !ok {
		return nil
	}

	for _, ticket := range gd.Tickets {
		if ticket.ChannelID == channelID {
			if !ticket.Active {
				return nil
			}
			ticket.Active = false
			return s.persistLocked()
		}
	}
	return nil
}

// Ping reports whether the directory holding the backing file is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("error statting data directory: %w", err)
	}
	return nil
}
