package progrock

import (
	"bytes"
	"strings"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
)

var _ progrock.Writer = (*LogWriter)(nil)

// LogWriter consumes the tape's status updates and forwards vertex output to a logger line by line.
// Standard output is logged as info and standard error as warnings. Lines written by Vertex.Log keep
// the level they were recorded with.
type LogWriter struct {
	logger ports.Logger

	mu      sync.Mutex
	pending map[streamKey][]byte
}

type streamKey struct {
	vertex string
	stream progrock.LogStream
}

// NewLogWriter creates a LogWriter forwarding to logger.
func NewLogWriter(logger ports.Logger) *LogWriter {
	return &LogWriter{
		logger:  logger,
		pending: make(map[streamKey][]byte),
	}
}

// WriteStatus forwards the complete lines of every log chunk and flushes vertices that finished.
func (w *LogWriter) WriteStatus(status *progrock.StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, chunk := range status.GetLogs() {
		key := streamKey{vertex: chunk.GetVertex(), stream: chunk.GetStream()}
		buf := append(w.pending[key], chunk.GetData()...)
		for {
			i := bytes.IndexByte(buf, '\n')
			if i < 0 {
				break
			}
			w.logLine(key.stream, buf[:i])
			buf = buf[i+1:]
		}
		if len(buf) == 0 {
			delete(w.pending, key)
			continue
		}
		w.pending[key] = buf
	}

	for _, v := range status.GetVertexes() {
		if v.GetCompleted() == nil {
			continue
		}
		for _, stream := range []progrock.LogStream{progrock.LogStream_STDOUT, progrock.LogStream_STDERR} {
			w.flush(streamKey{vertex: v.GetId(), stream: stream})
		}
	}
	return nil
}

// Close logs any unterminated output.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key := range w.pending {
		w.flush(key)
	}
	return nil
}

func (w *LogWriter) flush(key streamKey) {
	if buf, ok := w.pending[key]; ok {
		w.logLine(key.stream, buf)
		delete(w.pending, key)
	}
}

func (w *LogWriter) logLine(stream progrock.LogStream, line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if strings.TrimSpace(msg) == "" {
		return
	}

	warn := stream == progrock.LogStream_STDERR
	if level, rest, ok := recordedLevel(msg); ok {
		warn = level >= domain.LogLevelWarn
		msg = rest
	}

	if warn {
		w.logger.Warn(msg)
	} else {
		w.logger.Info(msg)
	}
}

// recordedLevel parses the "[LEVEL] " prefix written by Vertex.Log.
func recordedLevel(msg string) (domain.LogLevel, string, bool) {
	for _, level := range []domain.LogLevel{
		domain.LogLevelDebug,
		domain.LogLevelInfo,
		domain.LogLevelWarn,
		domain.LogLevelError,
	} {
		if rest, ok := strings.CutPrefix(msg, "["+level.String()+"] "); ok {
			return level, rest, true
		}
	}
	return 0, msg, false
}
