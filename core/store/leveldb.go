package store

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"dposchain/core/types"
)

// Key prefixes for the four relations and their secondary indexes. The
// by-votes and by-next-refund-time indexes use composite keys whose suffix
// sorts lexicographically the same as the numeric field they index,
// mirroring the observed-timestamp composite-key pattern used for the
// nonce persistence store this package was modeled on.
const (
	producerPrefix   = "producer/"
	configPrefix     = "config/"
	voterPrefix      = "voter/"
	requestPrefix    = "request/"
	countPrefix      = "count/"
	votesIndexPrefix = "idx/votes/"
	refundIndexKey   = "idx/refund/"
	nextReqIDKey     = "request/_nextid"
)

// LevelDBStore is a disk-persisted Store implementation. It exercises the
// goleveldb, rlp, and keccak256 dependency set to give the store
// abstraction a real persistence backend beyond the in-memory reference
// implementation, even though spec.md treats storage as host-provided.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (or creates) a LevelDB database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("store: leveldb path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("store: resolve leveldb path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open leveldb: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

// Close releases the underlying LevelDB resources.
func (s *LevelDBStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Producers implements Store.
func (s *LevelDBStore) Producers() ProducerStore { return (*ldbProducerStore)(s) }

// ProducerConfigs implements Store.
func (s *LevelDBStore) ProducerConfigs() ProducerConfigStore { return (*ldbConfigStore)(s) }

// Voters implements Store.
func (s *LevelDBStore) Voters() VoterStore { return (*ldbVoterStore)(s) }

// UnstakeRequests implements Store.
func (s *LevelDBStore) UnstakeRequests() UnstakeStore { return (*ldbUnstakeStore)(s) }

// UnstakeCounts implements Store.
func (s *LevelDBStore) UnstakeCounts() UnstakeCountStore { return (*ldbCountStore)(s) }

func primaryKey(prefix string, owner uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, owner)
	return ethcrypto.Keccak256(append([]byte(prefix), buf...))
}

// votesIndexKey packs a 32-byte big-endian total_votes value followed by
// the owner's 8-byte id, so lexicographic byte ordering matches numeric
// ordering of (total_votes, owner) ascending.
func votesIndexKey(votes *uint256.Int, owner uint64) []byte {
	buf := make([]byte, len(votesIndexPrefix)+32+8)
	n := copy(buf, votesIndexPrefix)
	b32 := votes.Bytes32()
	copy(buf[n:n+32], b32[:])
	binary.BigEndian.PutUint64(buf[n+32:], owner)
	return buf
}

func refundIndexKeyFor(nextRefund int64, id uint64) []byte {
	buf := make([]byte, len(refundIndexKey)+8+8)
	n := copy(buf, refundIndexKey)
	binary.BigEndian.PutUint64(buf[n:], uint64(nextRefund))
	binary.BigEndian.PutUint64(buf[n+8:], id)
	return buf
}

type storedProducer struct {
	Owner       uint64
	TotalVotes  *big.Int
	Preferences types.ProducerPreferences
}

type ldbProducerStore LevelDBStore

func (s *ldbProducerStore) Find(owner uint64) (*types.Producer, bool, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get(primaryKey(producerPrefix, owner), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedProducer
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	votes, overflow := uint256.FromBig(stored.TotalVotes)
	if overflow {
		return nil, false, fmt.Errorf("store: total_votes overflow for producer %d", owner)
	}
	return &types.Producer{Owner: stored.Owner, TotalVotes: votes, Preferences: stored.Preferences}, true, nil
}

func (s *ldbProducerStore) Put(p *types.Producer) error {
	db := (*LevelDBStore)(s).db
	existing, found, err := s.Find(p.Owner)
	if err != nil {
		return err
	}
	stored := storedProducer{Owner: p.Owner, TotalVotes: p.TotalVotes.ToBig(), Preferences: p.Preferences}
	encoded, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	if found {
		batch.Delete(votesIndexKey(existing.TotalVotes, existing.Owner))
	}
	batch.Put(primaryKey(producerPrefix, p.Owner), encoded)
	batch.Put(votesIndexKey(p.TotalVotes, p.Owner), primaryKey(producerPrefix, p.Owner))
	return db.Write(batch, nil)
}

func (s *ldbProducerStore) IterateByVotesDescending(fn IterFunc[*types.Producer]) error {
	db := (*LevelDBStore)(s).db
	iter := db.NewIterator(util.BytesPrefix([]byte(votesIndexPrefix)), nil)
	defer iter.Release()
	for ok := iter.Last(); ok; ok = iter.Prev() {
		key := append([]byte(nil), iter.Key()...)
		owner := binary.BigEndian.Uint64(key[len(key)-8:])
		producer, found, err := s.Find(owner)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		cont, err := fn(producer)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return iter.Error()
}

type ldbConfigStore LevelDBStore

func (s *ldbConfigStore) Find(owner uint64) (*types.ProducerConfig, bool, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get(primaryKey(configPrefix, owner), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cfg := &types.ProducerConfig{}
	if err := rlp.DecodeBytes(data, cfg); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func (s *ldbConfigStore) Put(c *types.ProducerConfig) error {
	db := (*LevelDBStore)(s).db
	encoded, err := rlp.EncodeToBytes(c)
	if err != nil {
		return err
	}
	return db.Put(primaryKey(configPrefix, c.Owner), encoded, nil)
}

type storedVoter struct {
	Owner        uint64
	Proxy        uint64
	IsProxy      bool
	LastUpdate   uint64
	Staked       uint64
	ProxiedVotes *big.Int
	Producers    []uint64
}

type ldbVoterStore LevelDBStore

func (s *ldbVoterStore) Find(owner uint64) (*types.Voter, bool, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get(primaryKey(voterPrefix, owner), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedVoter
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	votes, overflow := uint256.FromBig(stored.ProxiedVotes)
	if overflow {
		return nil, false, fmt.Errorf("store: proxied_votes overflow for voter %d", owner)
	}
	return &types.Voter{
		Owner:        stored.Owner,
		Proxy:        stored.Proxy,
		IsProxy:      stored.IsProxy,
		LastUpdate:   int64(stored.LastUpdate),
		Staked:       stored.Staked,
		ProxiedVotes: votes,
		Producers:    stored.Producers,
	}, true, nil
}

func (s *ldbVoterStore) Put(v *types.Voter) error {
	db := (*LevelDBStore)(s).db
	proxied := v.ProxiedVotes
	if proxied == nil {
		proxied = uint256.NewInt(0)
	}
	stored := storedVoter{
		Owner:        v.Owner,
		Proxy:        v.Proxy,
		IsProxy:      v.IsProxy,
		LastUpdate:   uint64(v.LastUpdate),
		Staked:       v.Staked,
		ProxiedVotes: proxied.ToBig(),
		Producers:    v.Producers,
	}
	encoded, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return err
	}
	return db.Put(primaryKey(voterPrefix, v.Owner), encoded, nil)
}

type storedRequest struct {
	ID                 uint64
	Account            uint64
	CurrentAmount      uint64
	WeeklyRefundAmount uint64
	NextRefundTime     uint64
}

type ldbUnstakeStore LevelDBStore

func (s *ldbUnstakeStore) NextID() (uint64, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get([]byte(nextReqIDKey), nil)
	var current uint64
	if err == nil {
		current = binary.BigEndian.Uint64(data)
	} else if err != leveldb.ErrNotFound {
		return 0, err
	}
	current++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current)
	if err := db.Put([]byte(nextReqIDKey), buf, nil); err != nil {
		return 0, err
	}
	return current, nil
}

func (s *ldbUnstakeStore) Find(id uint64) (*types.UnstakeRequest, bool, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get(primaryKey(requestPrefix, id), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedRequest
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &types.UnstakeRequest{
		ID:                 stored.ID,
		Account:            stored.Account,
		CurrentAmount:      stored.CurrentAmount,
		WeeklyRefundAmount: stored.WeeklyRefundAmount,
		NextRefundTime:     int64(stored.NextRefundTime),
	}, true, nil
}

func (s *ldbUnstakeStore) Put(r *types.UnstakeRequest) error {
	db := (*LevelDBStore)(s).db
	existing, found, err := s.Find(r.ID)
	if err != nil {
		return err
	}
	stored := storedRequest{
		ID:                 r.ID,
		Account:            r.Account,
		CurrentAmount:      r.CurrentAmount,
		WeeklyRefundAmount: r.WeeklyRefundAmount,
		NextRefundTime:     uint64(r.NextRefundTime),
	}
	encoded, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	if found {
		batch.Delete(refundIndexKeyFor(existing.NextRefundTime, existing.ID))
	}
	batch.Put(primaryKey(requestPrefix, r.ID), encoded)
	batch.Put(refundIndexKeyFor(r.NextRefundTime, r.ID), primaryKey(requestPrefix, r.ID))
	return db.Write(batch, nil)
}

func (s *ldbUnstakeStore) Delete(id uint64) error {
	db := (*LevelDBStore)(s).db
	existing, found, err := s.Find(id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	batch := new(leveldb.Batch)
	batch.Delete(primaryKey(requestPrefix, id))
	batch.Delete(refundIndexKeyFor(existing.NextRefundTime, existing.ID))
	return db.Write(batch, nil)
}

func (s *ldbUnstakeStore) IterateByNextRefundAscending(fn IterFunc[*types.UnstakeRequest]) error {
	db := (*LevelDBStore)(s).db
	iter := db.NewIterator(util.BytesPrefix([]byte(refundIndexKey)), nil)
	defer iter.Release()
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		id := binary.BigEndian.Uint64(key[len(key)-8:])
		req, found, err := s.Find(id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		cont, err := fn(req)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return iter.Error()
}

type ldbCountStore LevelDBStore

func (s *ldbCountStore) Count(account uint64) (uint32, error) {
	db := (*LevelDBStore)(s).db
	data, err := db.Get(primaryKey(countPrefix, account), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint32(binary.BigEndian.Uint32(data)), nil
}

func (s *ldbCountStore) Increment(account uint64) error {
	db := (*LevelDBStore)(s).db
	current, err := s.Count(account)
	if err != nil {
		return err
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, current+1)
	return db.Put(primaryKey(countPrefix, account), buf, nil)
}

func (s *ldbCountStore) Decrement(account uint64) error {
	db := (*LevelDBStore)(s).db
	current, err := s.Count(account)
	if err != nil {
		return err
	}
	if current == 0 {
		return nil
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, current-1)
	return db.Put(primaryKey(countPrefix, account), buf, nil)
}
