package storage

import (
	"context"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

// Recorder приемник выпущенных сигналов
type Recorder interface {
	Name() string
	SaveSignal(ctx context.Context, signal *models.Signal) error
}

var (
	_ Recorder = (*CSVRecorder)(nil)
	_ Recorder = (*InfluxDBStorage)(nil)
)
