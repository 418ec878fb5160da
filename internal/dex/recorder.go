package dex

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

// Recorder is an amm.Observer that encodes every notification into a log
// record and buffers it until Drain.
type Recorder struct {
	encoder *Encoder
	logger  *zap.Logger

	mu   sync.Mutex
	seq  uint64
	logs []model.LogRecord
	errs []error
}

// NewRecorder returns a recorder whose sequence continues after start.
func NewRecorder(encoder *Encoder, start uint64, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{encoder: encoder, seq: start, logger: logger}
}

func (r *Recorder) ObserveSwap(ev amm.SwapEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec, err := r.encoder.EncodeSwap(ev, r.seq)
	r.add(rec, err)
}

func (r *Recorder) ObserveLiquidity(ev amm.LiquidityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec, err := r.encoder.EncodeLiquidity(ev, r.seq)
	r.add(rec, err)
}

func (r *Recorder) add(rec model.LogRecord, err error) {
	if err != nil {
		r.logger.Warn("encode event failed", zap.Uint64("sequence", r.seq), zap.Error(err))
		r.errs = append(r.errs, err)
		return
	}
	r.logs = append(r.logs, rec)
}

// Sequence returns the number of the last recorded event.
func (r *Recorder) Sequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Pending returns the number of buffered logs.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

// Drain returns and clears the buffered logs together with any encoding
// errors collected since the previous drain.
func (r *Recorder) Drain() ([]model.LogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logs := r.logs
	err := errors.Join(r.errs...)
	r.logs = nil
	r.errs = nil
	return logs, err
}
