/*
Package registry implements a local store of deployed contracts.

Every successful deployment can be recorded under a unique name along with
its address, deployment transaction and (optionally) contract ABI, so that
it can be referred to by name later. Records are kept in a single BoltDB
file.
*/
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

// Bucket is the BoltDB bucket records are stored in.
var Bucket = []byte("contracts")

// ErrNotFound is returned for unknown contract names.
var ErrNotFound = errors.New("contract not found")

// Record describes a deployed contract.
type Record struct {
	Name        string          `json:"name"`
	Address     common.Address  `json:"address"`
	TxHash      common.Hash     `json:"txHash"`
	BlockNumber uint64          `json:"blockNumber"`
	DeployedAt  time.Time       `json:"deployedAt"`
	ABI         json.RawMessage `json:"abi,omitempty"`
}

// Registry is a BoltDB-backed contract store, it's safe for concurrent
// use.
type Registry struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the registry at the given path.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create dir for registry: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return fmt.Errorf("could not create root bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Registry{db: db}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Put stores the record replacing any previous one with the same name.
// Names can't be empty or look like addresses (see Resolve).
func (r *Registry) Put(rec Record) error {
	if err := ValidateName(rec.Name); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Put([]byte(rec.Name), data)
	})
}

// Get returns the record with the given name.
func (r *Registry) Get(name string) (Record, error) {
	var rec Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(Bucket).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// Delete removes the record with the given name.
func (r *Registry) Delete(name string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}

// List returns all records sorted by name.
func (r *Registry) List() ([]Record, error) {
	var res []Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("bad record %q: %w", k, err)
			}
			res = append(res, rec)
			return nil
		})
	})
	return res, err
}

// FindByAddress returns the most recently deployed record for the given
// address.
func (r *Registry) FindByAddress(addr common.Address) (Record, error) {
	var (
		res   Record
		found bool
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("bad record %q: %w", k, err)
			}
			if rec.Address == addr && (!found || rec.DeployedAt.After(res.DeployedAt)) {
				res, found = rec, true
			}
			return nil
		})
	})
	if err == nil && !found {
		err = fmt.Errorf("%w: %s", ErrNotFound, addr.Hex())
	}
	return res, err
}

// Resolve returns the address for the given contract name or hex-encoded
// address (which is returned as is).
func (r *Registry) Resolve(nameOrAddress string) (common.Address, error) {
	if common.IsHexAddress(nameOrAddress) {
		return common.HexToAddress(nameOrAddress), nil
	}
	rec, err := r.Get(nameOrAddress)
	if err != nil {
		return common.Address{}, err
	}
	return rec.Address, nil
}

// ValidateName checks that the name can be used for a record.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("empty contract name")
	}
	if common.IsHexAddress(name) {
		return fmt.Errorf("contract name %q looks like an address", name)
	}
	return nil
}
