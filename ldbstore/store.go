package ldbstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/cpt"
)

const (
	cprPrefix    = "cpr:"
	poaPrefix    = "poa:"
	beliefPrefix = "belief:"
	sep          = "\x00"
)

// Store is a result store backed by a LevelDB database. It is safe for
// concurrent use.
type Store struct {
	db    *leveldb.DB
	runID uuid.UUID
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// Open opens or creates the database at path. Results appended through
// the returned Store are tagged with a fresh run id.
func Open(path string, opts *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening result store %s", path)
	}

	return newStore(db), nil
}

// OpenMem returns a Store kept entirely in memory.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return newStore(db), nil
}

func newStore(db *leveldb.DB) *Store {
	return &Store{db: db, runID: uuid.New()}
}

// Close implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunID identifies the results appended through s.
func (s *Store) RunID() uuid.UUID {
	return s.runID
}

func key(prefix, label string, runID uuid.UUID, rep int) []byte {
	return []byte(prefix + label + sep + runID.String() + sep + fmt.Sprintf("%08d", rep))
}

// Append implements montecarlo.Sink.
func (s *Store) Append(label string, rep int, series bandit.Series) error {
	if len(series.CPR) != len(series.POA) {
		return errors.Errorf("series has %d regret values and %d indicators",
			len(series.CPR), len(series.POA))
	}

	batch := new(leveldb.Batch)
	batch.Put(key(cprPrefix, label, s.runID, rep), encodeFloats(series.CPR))
	batch.Put(key(poaPrefix, label, s.runID, rep), encodeFloats(series.POA))
	return s.db.Write(batch, s.wOpts)
}

// AppendBelief implements montecarlo.BeliefSink.
func (s *Store) AppendBelief(label string, rep int, b *cpt.Belief) error {
	var buf bytes.Buffer
	if err := b.MarshalTo(&buf); err != nil {
		return errors.Wrap(err, "encoding belief")
	}

	return s.db.Put(key(beliefPrefix, label, s.runID, rep), buf.Bytes(), s.wOpts)
}

// LoadBelief returns the tables learned in repetition rep of label during
// the run runID.
func (s *Store) LoadBelief(label string, runID uuid.UUID, rep int) (*cpt.Belief, error) {
	k := key(beliefPrefix, label, runID, rep)
	buf, err := s.db.Get(k, s.rOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", k)
	}

	b, err := cpt.LoadBelief(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", k)
	}
	return b, nil
}

// Load returns every series stored under label, across all runs, ordered
// by run id and repetition.
func (s *Store) Load(label string) ([]bandit.Series, error) {
	prefix := []byte(cprPrefix + label + sep)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), s.rOpts)
	defer iter.Release()

	var result []bandit.Series
	for iter.Next() {
		suffix := bytes.TrimPrefix(iter.Key(), prefix)
		cpr, err := decodeFloats(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %q", iter.Key())
		}

		poaKey := append([]byte(poaPrefix+label+sep), suffix...)
		buf, err := s.db.Get(poaKey, s.rOpts)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", poaKey)
		}

		poa, err := decodeFloats(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %q", poaKey)
		}

		result = append(result, bandit.Series{CPR: cpr, POA: poa})
	}

	return result, iter.Error()
}

// Labels returns every label with stored results, sorted.
func (s *Store) Labels() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(cprPrefix)), s.rOpts)
	defer iter.Release()

	seen := make(map[string]struct{})
	for iter.Next() {
		k := bytes.TrimPrefix(iter.Key(), []byte(cprPrefix))
		i := bytes.Index(k, []byte(sep))
		if i < 0 {
			return nil, errors.Errorf("malformed key %q", iter.Key())
		}
		seen[string(k[:i])] = struct{}{}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

// Runs returns the number of repetitions stored under label for each run
// id.
func (s *Store) Runs(label string) (map[uuid.UUID]int, error) {
	prefix := []byte(cprPrefix + label + sep)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), s.rOpts)
	defer iter.Release()

	result := make(map[uuid.UUID]int)
	for iter.Next() {
		parts := bytes.Split(bytes.TrimPrefix(iter.Key(), prefix), []byte(sep))
		if len(parts) != 2 {
			return nil, errors.Errorf("malformed key %q", iter.Key())
		}

		id, err := uuid.ParseBytes(parts[0])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing run id of %q", iter.Key())
		}
		if _, err := strconv.Atoi(string(parts[1])); err != nil {
			return nil, errors.Wrapf(err, "parsing repetition of %q", iter.Key())
		}
		result[id]++
	}

	return result, iter.Error()
}

func encodeFloats(x []float64) []byte {
	buf := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, errors.Errorf("buffer length %d is not a multiple of 8", len(buf))
	}

	x := make([]float64, len(buf)/8)
	for i := range x {
		x[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return x, nil
}
