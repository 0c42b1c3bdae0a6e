//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/palemoky/draw-and-guess/internal/server/storage"
)

// MockSnapshotSink 房间快照镜像 mock
type MockSnapshotSink struct {
	mock.Mock
}

func (m *MockSnapshotSink) Save(data *storage.RoomData) {
	m.Called(data)
}

func (m *MockSnapshotSink) Delete(code string) {
	m.Called(code)
}
