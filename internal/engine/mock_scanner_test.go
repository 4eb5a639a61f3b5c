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

package engine_test

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/erigontech/likeidx/internal/store"
)

// MockSourceScanner is a hand-written stand-in for what mockgen would
// generate for engine.SourceScanner; this package has no other generated
// code to drive mockgen from, so the boilerplate is written directly in
// its usual shape.
type MockSourceScanner struct {
	ctrl     *gomock.Controller
	recorder *MockSourceScannerMockRecorder
}

type MockSourceScannerMockRecorder struct {
	mock *MockSourceScanner
}

func NewMockSourceScanner(ctrl *gomock.Controller) *MockSourceScanner {
	mock := &MockSourceScanner{ctrl: ctrl}
	mock.recorder = &MockSourceScannerMockRecorder{mock}
	return mock
}

func (m *MockSourceScanner) EXPECT() *MockSourceScannerMockRecorder {
	return m.recorder
}

func (m *MockSourceScanner) Scan(ctx context.Context, yield func(store.ExternalRef, []string) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Scan", ctx, yield)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockSourceScannerMockRecorder) Scan(ctx, yield interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Scan", reflect.TypeOf((*MockSourceScanner)(nil).Scan), ctx, yield)
}
