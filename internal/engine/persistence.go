// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	pkgerrors "github.com/pkg/errors"

	"github.com/erigontech/likeidx/internal/engineerr"
	"github.com/erigontech/likeidx/internal/store"
)

// markerMagic identifies a likeidx metadata marker page.
const markerMagic uint32 = 0x4c494b45 // "LIKE"

// markerVersion is the on-disk marker page format version.
const markerVersion uint32 = 1

// marker is the metadata marker page's fixed layout: magic, format
// version, a record-count snapshot taken at the last successful build,
// and a reserved block number field left zero for now.
type marker struct {
	Magic         uint32
	Version       uint32
	RecordCount   uint32
	ReservedBlock uint32
}

func (e *Engine) lockPath() string { return e.cfg.MetadataPath + ".lock" }

// writeMarker persists the current record count to the marker page under an
// exclusive file lock. A no-op when no MetadataPath is configured.
func (e *Engine) writeMarker() error {
	if e.cfg.MetadataPath == "" {
		return nil
	}
	fl := flock.New(e.lockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return pkgerrors.Wrap(err, "likeidx: lock metadata marker")
	}
	if !locked {
		return fmt.Errorf("%w: metadata marker locked by another process", engineerr.ErrIntegrity)
	}
	defer fl.Unlock()

	f, err := os.Create(e.cfg.MetadataPath)
	if err != nil {
		return pkgerrors.Wrap(err, "likeidx: write metadata marker")
	}
	defer f.Close()

	m := marker{Magic: markerMagic, Version: markerVersion, RecordCount: uint32(e.store.Cardinality())}
	return binary.Write(f, binary.LittleEndian, &m)
}

// readMarker reads the marker page, if any. found is false when
// MetadataPath is unset or the file does not yet exist (a fresh index).
func (e *Engine) readMarker() (m marker, found bool, err error) {
	if e.cfg.MetadataPath == "" {
		return marker{}, false, nil
	}
	f, err := os.Open(e.cfg.MetadataPath)
	if errors.Is(err, os.ErrNotExist) {
		return marker{}, false, nil
	}
	if err != nil {
		return marker{}, false, pkgerrors.Wrap(err, "likeidx: read metadata marker")
	}
	defer f.Close()

	if err := binary.Read(f, binary.LittleEndian, &m); err != nil {
		return marker{}, false, pkgerrors.Wrap(err, "likeidx: decode metadata marker")
	}
	if m.Magic != markerMagic {
		return marker{}, false, fmt.Errorf("%w: metadata marker has wrong magic", engineerr.ErrIntegrity)
	}
	if m.Version != markerVersion {
		return marker{}, false, fmt.Errorf("%w: metadata marker version %d unsupported", engineerr.ErrIntegrity, m.Version)
	}
	return m, true, nil
}

// SourceScanner is the host's relation-scan collaborator, keeping scan
// machinery external to the index itself: Scan must call yield once per
// row, in any order, stopping and returning yield's error if it is
// non-nil.
type SourceScanner interface {
	Scan(ctx context.Context, yield func(ref store.ExternalRef, columnValues []string) error) error
}

// RebuildFromSource clears and repopulates the index from scanner,
// retrying a transient scan failure with exponential backoff (e.g. the
// source table briefly locked) before surfacing ErrIntegrity, then
// refreshes the metadata marker page.
func (e *Engine) RebuildFromSource(ctx context.Context, scanner SourceScanner) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}

	e.store = store.New(e.store.NumColumns(), e.cfg.TombstoneCompactAt)

	operation := func() error {
		return scanner.Scan(ctx, func(ref store.ExternalRef, columnValues []string) error {
			_, err := e.store.Insert(ref, columnValues)
			return err
		})
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		e.logger.Errorw("likeidx: rebuild from source failed", "error", err)
		return pkgerrors.Wrap(engineerr.ErrIntegrity, err.Error())
	}

	if err := e.writeMarker(); err != nil {
		e.logger.Warnw("likeidx: failed to refresh metadata marker after rebuild", "error", err)
		return err
	}
	e.logger.Infow("likeidx: rebuild from source complete", "records", e.store.Cardinality())
	return nil
}
