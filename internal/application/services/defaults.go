package services

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/vehicle-trading/go/internal/core/ports"
)

func loggerOrDiscard(l *logrus.Logger) *logrus.Logger {
	if l != nil {
		return l
	}
	d := logrus.New()
	d.SetOutput(io.Discard)
	return d
}

type noopMetrics struct{}

func (noopMetrics) CacheLookup(string)       {}
func (noopMetrics) IdempotencyReplay(string) {}
func (noopMetrics) LedgerWriteFailed(string) {}
func (noopMetrics) InventoryRejected(string) {}

func metricsOrNoop(m ports.CoreMetrics) ports.CoreMetrics {
	if m != nil {
		return m
	}
	return noopMetrics{}
}

// targeted is the fingerprinted input of a mutation on an existing entity.
type targeted struct {
	ID   uuid.UUID `json:"id"`
	Body any       `json:"body,omitempty"`
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// page slices a fully loaded collection. Collections are cached whole and
// paged in memory.
func page[T any](all []T, limit, offset int) []T {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
