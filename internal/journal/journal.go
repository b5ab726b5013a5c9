package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/protocol"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000

	// observeTimeout bounds a single insert made from the transport goroutine.
	observeTimeout = 5 * time.Second
)

// ErrInvalidFrame is returned when a frame cannot be journaled.
var ErrInvalidFrame = errors.New("journal: invalid frame")

// Logger is the logging surface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Entry is one journaled frame.
type Entry struct {
	ID         int64
	RecordedAt time.Time
	Direction  string
	Topic      string

	// Action and Response are empty when the topic did not parse.
	Action   string
	Response string

	// PacketType, Version and ClientToken are only meaningful when
	// HasHeader is true, that is when the payload decoded.
	HasHeader   bool
	PacketType  packet.Type
	Version     uint32
	ClientToken uint32

	Payload []byte

	// Error is the reason the frame was dropped or failed to publish.
	Error string
}

// Recorder writes frames to the shadow_frames table.
//
// Thread Safety: safe for concurrent use; database/sql serialises access.
type Recorder struct {
	db     *sql.DB
	logger Logger
}

// NewRecorder creates a recorder over an open, migrated database.
//
// Parameters:
//   - db: Open SQLite connection holding the shadow_frames table
//
// Returns:
//   - *Recorder: Recorder ready for use
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// SetLogger sets the logger used by Observe to report insert failures.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Record inserts one frame.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - frame: The frame observed by the protocol tap
//
// Returns:
//   - error: ErrInvalidFrame for a frame without direction or topic,
//     otherwise the underlying database error
func (r *Recorder) Record(ctx context.Context, frame protocol.Frame) error {
	if frame.Direction != protocol.Inbound && frame.Direction != protocol.Outbound {
		return fmt.Errorf("%w: direction %d", ErrInvalidFrame, frame.Direction)
	}
	if frame.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidFrame)
	}

	at := frame.At
	if at.IsZero() {
		at = time.Now()
	}

	var action, response sql.NullString
	if frame.Message.Action != 0 {
		action = sql.NullString{String: frame.Message.Action.String(), Valid: true}
		response = sql.NullString{String: frame.Message.Response.String(), Valid: true}
	}

	var packetType, version, clientToken sql.NullInt64
	if t, err := packet.TypeOf(frame.Message.State); err == nil {
		h := packet.ParseHeader(frame.Message.State)
		packetType = sql.NullInt64{Int64: int64(t), Valid: true}
		version = sql.NullInt64{Int64: int64(h.Version), Valid: true}
		clientToken = sql.NullInt64{Int64: int64(h.ClientToken), Valid: true}
	}

	var errText sql.NullString
	if frame.Err != nil {
		errText = sql.NullString{String: frame.Err.Error(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shadow_frames
		 (recorded_at, direction, topic, action, response, packet_type, version, client_token, payload, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano),
		frame.Direction.String(),
		frame.Topic,
		action,
		response,
		packetType,
		version,
		clientToken,
		frame.Payload,
		errText,
	)
	if err != nil {
		return fmt.Errorf("inserting shadow frame: %w", err)
	}

	return nil
}

// Observe records a frame with a bounded timeout and logs failures.
// Its signature matches protocol.Options.Tap.
func (r *Recorder) Observe(frame protocol.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), observeTimeout)
	defer cancel()

	if err := r.Record(ctx, frame); err != nil && r.logger != nil {
		r.logger.Warn("journal write failed",
			"topic", frame.Topic,
			"direction", frame.Direction.String(),
			"error", err,
		)
	}
}

// Recent returns journaled frames, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 1000)
//
// Returns:
//   - []Entry: Entries ordered by id DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, direction, topic, action, response,
		        packet_type, version, client_token, payload, error
		 FROM shadow_frames
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying shadow frames: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry                            Entry
			recordedAt                       string
			action, response, errText        sql.NullString
			packetType, version, clientToken sql.NullInt64
		)

		if err := rows.Scan(&entry.ID, &recordedAt, &entry.Direction, &entry.Topic,
			&action, &response, &packetType, &version, &clientToken,
			&entry.Payload, &errText); err != nil {
			return nil, fmt.Errorf("scanning shadow frame: %w", err)
		}

		entry.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		entry.Action = action.String
		entry.Response = response.String
		entry.Error = errText.String
		if packetType.Valid {
			entry.HasHeader = true
			entry.PacketType = packet.Type(packetType.Int64) //nolint:gosec // stored from a u8
			entry.Version = uint32(version.Int64)            //nolint:gosec // stored from a u32
			entry.ClientToken = uint32(clientToken.Int64)    //nolint:gosec // stored from a u32
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shadow frames: %w", err)
	}

	return entries, nil
}
