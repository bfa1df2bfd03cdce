package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/assessrec/internal/db"
)

// WriteHashes pipelines one HSET per hash in a single round-trip.
// The first failing key is reported; earlier writes are not rolled back.
func (s *Store) WriteHashes(ctx context.Context, hashes []db.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(hashes))
	for _, h := range hashes {
		cmd := s.client.B().Hset().Key(h.Key).FieldValue()
		for k, v := range h.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Key: hashes[i].Key, Err: err}
		}
	}
	return nil
}
