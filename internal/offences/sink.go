package offences

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/db"
	"github.com/eigerco/slashing/pkg/db/pebble"
	"github.com/eigerco/slashing/pkg/log"
	"github.com/eigerco/slashing/pkg/serialization"
)

const (
	prefixReport byte = iota + 0x30
	prefixConcurrent
)

var _ slashing.OffenceSink = (*Sink)(nil)

// Record is one offender's accepted report.
type Record struct {
	Kind              slashing.OffenceKind
	TimeSlot          slashing.TimeSlot
	Offender          historical.IdentificationTuple
	Reporters         []crypto.AccountID
	ValidatorSetCount uint32
	SlashFraction     slashing.Perbill
	DisableStrategy   slashing.DisableStrategy
}

// Sink keeps every reported offence and rejects reports whose offenders are
// all known for the offence's kind and time slot.
type Sink struct {
	mu         sync.Mutex
	db         db.KVStore
	serializer *serialization.Serializer
}

func NewSink(kv db.KVStore) *Sink {
	return &Sink{db: kv, serializer: serialization.NewSCALESerializer()}
}

func (s *Sink) ReportOffence(reporters []crypto.AccountID, offence slashing.Offence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	fraction := offence.SlashFraction()
	accepted := 0
	for _, offender := range offence.Offenders {
		id, err := s.reportID(offence.Kind, offence.TimeSlot, offender)
		if err != nil {
			return err
		}
		known, err := s.has(reportKey(id))
		if err != nil {
			return err
		}
		if known {
			continue
		}

		record, err := s.serializer.Encode(Record{
			Kind:              offence.Kind,
			TimeSlot:          offence.TimeSlot,
			Offender:          offender,
			Reporters:         reporters,
			ValidatorSetCount: offence.ValidatorSetCount,
			SlashFraction:     fraction,
			DisableStrategy:   offence.DisableStrategy(),
		})
		if err != nil {
			return err
		}
		if err := batch.Put(reportKey(id), record); err != nil {
			return fmt.Errorf("store report: %w", err)
		}
		concurrent, err := s.concurrentKey(offence.Kind, offence.TimeSlot, id)
		if err != nil {
			return err
		}
		if err := batch.Put(concurrent, nil); err != nil {
			return fmt.Errorf("store report index: %w", err)
		}
		accepted++
	}
	if accepted == 0 {
		return slashing.ErrOffenceAlreadyReported
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	log.Slashing.Info().
		Stringer("kind", offence.Kind).
		Stringer("slot", offence.TimeSlot).
		Int("offenders", accepted).
		Stringer("fraction", fraction).
		Stringer("disable", offence.DisableStrategy()).
		Msg("offence reported")
	return nil
}

// IsKnownOffence is true when every offender has been reported for the
// kind at the time slot.
func (s *Sink) IsKnownOffence(kind slashing.OffenceKind, offenders []historical.IdentificationTuple, timeSlot slashing.TimeSlot) bool {
	for _, offender := range offenders {
		id, err := s.reportID(kind, timeSlot, offender)
		if err != nil {
			log.Slashing.Error().Err(err).Msg("compute report id")
			return false
		}
		known, err := s.has(reportKey(id))
		if err != nil {
			log.Slashing.Error().Err(err).Msg("look up report")
			return false
		}
		if !known {
			return false
		}
	}
	return true
}

// Reports returns every record filed for the kind at the time slot.
func (s *Sink) Reports(kind slashing.OffenceKind, timeSlot slashing.TimeSlot) ([]Record, error) {
	start, err := s.concurrentPrefix(kind, timeSlot)
	if err != nil {
		return nil, err
	}
	iter, err := s.db.NewIterator(start, db.PrefixEnd(start))
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	var records []Record
	for iter.Next() {
		key := iter.Key()
		var id crypto.Hash
		copy(id[:], key[len(key)-crypto.HashSize:])

		b, err := s.db.Get(reportKey(id))
		if err != nil {
			return nil, fmt.Errorf("get report: %w", err)
		}
		var record Record
		if err := s.serializer.Decode(b, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Sink) has(key []byte) (bool, error) {
	_, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get report: %w", err)
	}
	return true, nil
}

// reportID hashes kind ⌢ time slot ⌢ offender, so the same offender can be
// reported once per kind and time slot.
func (s *Sink) reportID(kind slashing.OffenceKind, timeSlot slashing.TimeSlot, offender historical.IdentificationTuple) (crypto.Hash, error) {
	b, err := s.serializer.Encode(struct {
		Kind     slashing.Kind
		TimeSlot slashing.TimeSlot
		Offender historical.IdentificationTuple
	}{kind.ID(), timeSlot, offender})
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashData(b), nil
}

func (s *Sink) concurrentPrefix(kind slashing.OffenceKind, timeSlot slashing.TimeSlot) ([]byte, error) {
	id := kind.ID()
	slot, err := s.serializer.Encode(timeSlot)
	if err != nil {
		return nil, err
	}
	key := append([]byte{prefixConcurrent}, id[:]...)
	return append(key, slot...), nil
}

func (s *Sink) concurrentKey(kind slashing.OffenceKind, timeSlot slashing.TimeSlot, id crypto.Hash) ([]byte, error) {
	prefix, err := s.concurrentPrefix(kind, timeSlot)
	if err != nil {
		return nil, err
	}
	return append(prefix, id[:]...), nil
}

func reportKey(id crypto.Hash) []byte {
	return append([]byte{prefixReport}, id[:]...)
}
