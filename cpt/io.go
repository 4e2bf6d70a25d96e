package cpt

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/abemo/causalquestioning/scm"
)

// LoadBelief reads a Belief written by MarshalTo.
func LoadBelief(r io.Reader) (*Belief, error) {
	dec := gob.NewDecoder(r)
	var nTables int64
	if err := dec.Decode(&nTables); err != nil {
		return nil, err
	}

	b := &Belief{tables: make(map[string]*Table, nTables)}
	for i := int64(0); i < nTables; i++ {
		var t Table
		if err := dec.Decode(&t); err != nil {
			return nil, err
		}

		b.put(&t)
	}

	return b, nil
}

// MarshalTo writes b to w in a form LoadBelief can read.
func (b *Belief) MarshalTo(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(int64(len(b.names))); err != nil {
		return err
	}

	for _, n := range b.names {
		if err := enc.Encode(b.tables[n]); err != nil {
			return err
		}
	}

	return nil
}

// GobEncode implements gob.GobEncoder.
func (t *Table) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(t.variable); err != nil {
		return nil, err
	}

	if err := enc.Encode(t.parents); err != nil {
		return nil, err
	}

	if err := enc.Encode(t.domain); err != nil {
		return nil, err
	}

	if err := enc.Encode(len(t.rows)); err != nil {
		return nil, err
	}

	for _, r := range t.rows {
		if err := enc.Encode(r.given); err != nil {
			return nil, err
		}

		if err := enc.Encode(r.counts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (t *Table) GobDecode(buf []byte) error {
	r := bytes.NewReader(buf)
	dec := gob.NewDecoder(r)

	if err := dec.Decode(&t.variable); err != nil {
		return err
	}

	if err := dec.Decode(&t.parents); err != nil {
		return err
	}

	if err := dec.Decode(&t.domain); err != nil {
		return err
	}

	var nRows int
	if err := dec.Decode(&nRows); err != nil {
		return err
	}

	t.rows = make(map[string]*row, nRows)
	for i := 0; i < nRows; i++ {
		var given []int
		if err := dec.Decode(&given); err != nil {
			return err
		}

		var counts []float64
		if err := dec.Decode(&counts); err != nil {
			return err
		}

		t.rows[scm.RowKey(given)] = &row{given: given, counts: counts}
	}

	return nil
}
