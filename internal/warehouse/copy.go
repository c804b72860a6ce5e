package warehouse

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/riskscore/internal/model"
)

// copyRow is any row type that knows its COPY column values.
type copyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel,
// providing natural backpressure between the producer and the COPY writer.
type ChannelSource[T copyRow] struct {
	ch      <-chan T
	current T
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource[T copyRow](ch <-chan T) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource[T]) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

// Compile-time checks that ChannelSource satisfies the interface for the row
// types we COPY.
var (
	_ pgx.CopyFromSource = (*ChannelSource[*model.MemberRow])(nil)
	_ pgx.CopyFromSource = (*ChannelSource[*model.ScoreRow])(nil)
)
