package dummydb

import (
	"sync"

	"github.com/PatelMeet-1/Student-Management-system-sub000/core/result"
)

type (
	DB struct {
		record *recordTable
	}

	recordTable struct {
		sync.RWMutex
		seq   int
		table map[string]*recordRow
	}

	recordRow struct {
		seq int // insertion order, breaks created_at ties
		rec result.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		record: &recordTable{table: make(map[string]*recordRow)},
	}
	return db, nil
}
