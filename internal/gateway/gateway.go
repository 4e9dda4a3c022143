// Package gateway loads and saves the reconciled record of a day and owns the
// lock that freezes it.
package gateway

import (
	"context"
	"errors"

	"bey-cash/internal/reconcile"
)

var (
	ErrLocked   = errors.New("session is locked")
	ErrNotFound = errors.New("not found")
)

// DirectoryKind names a reference list offered for autocompletion.
type DirectoryKind string

const (
	DirectorySupplier    DirectoryKind = "supplier"
	DirectoryDesignation DirectoryKind = "designation"
	DirectoryEmployee    DirectoryKind = "employee"
)

func ParseDirectoryKind(s string) (DirectoryKind, error) {
	switch DirectoryKind(s) {
	case DirectorySupplier, DirectoryDesignation, DirectoryEmployee:
		return DirectoryKind(s), nil
	}
	return "", errors.New("unknown directory " + s)
}

// Gateway is what an editing workspace needs from the backend.
type Gateway interface {
	// Load returns nil when nothing at all exists for date.
	Load(ctx context.Context, date string) (*reconcile.Day, error)
	Save(ctx context.Context, date string, sheet reconcile.Sheet) error
	LockStatus(ctx context.Context, date string) (bool, error)
	Unlock(ctx context.Context, date string) error

	CreatePayroll(ctx context.Context, date string, kind reconcile.PayrollKind, entry reconcile.PayrollEntry) (reconcile.PayrollEntry, error)
	DeletePayroll(ctx context.Context, kind reconcile.PayrollKind, id string) error

	UpsertDirectory(ctx context.Context, kind DirectoryKind, name string) error
	UnpayInvoice(ctx context.Context, invoiceID string) error
}
