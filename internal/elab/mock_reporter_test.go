// Code style follows what `mockgen -source=diag.go -package=elab_test` would
// produce for diag.Reporter: a small hand-maintained stand-in kept in sync
// with that interface's single method, since it is the only caller-facing
// seam the elaborator drives through go.uber.org/mock anywhere in this repo.
package elab_test

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/sttlang/stt/internal/diag"
)

// MockReporter is a mock of the diag.Reporter interface.
type MockReporter struct {
	ctrl     *gomock.Controller
	recorder *MockReporterMockRecorder
}

// MockReporterMockRecorder is the mock recorder for MockReporter.
type MockReporterMockRecorder struct {
	mock *MockReporter
}

// NewMockReporter creates a new mock instance.
func NewMockReporter(ctrl *gomock.Controller) *MockReporter {
	mock := &MockReporter{ctrl: ctrl}
	mock.recorder = &MockReporterMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockReporter) EXPECT() *MockReporterMockRecorder {
	return m.recorder
}

// Report mocks base method.
func (m *MockReporter) Report(d *diag.Diagnostic) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Report", d)
}

// Report indicates an expected call of Report.
func (mr *MockReporterMockRecorder) Report(d interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Report", reflect.TypeOf((*MockReporter)(nil).Report), d)
}
